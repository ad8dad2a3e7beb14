package raster

import (
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#000000", color.NRGBA{0, 0, 0, 255}, true},
		{"#f00", color.NRGBA{255, 0, 0, 255}, true},
		{"#00ff0080", color.NRGBA{0, 255, 0, 128}, true},
		{"transparent", color.NRGBA{}, false},
		{"#12", color.NRGBA{}, false},
		{"#zzzzzz", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseColor(%q) ok = %v", tt.in, ok)
			continue
		}
		if ok && color.NRGBAModel.Convert(got) != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	named, ok := ParseColor("Tomato")
	if !ok {
		t.Fatal("named color not found")
	}
	if r, _, _, _ := named.RGBA(); r>>8 != 0xff {
		t.Errorf("tomato red channel = %x", r>>8)
	}
}
