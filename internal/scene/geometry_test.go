package scene

import "testing"

func TestBoundsOf(t *testing.T) {
	tests := []struct {
		name string
		el   Element
		want Rect
	}{
		{"image", &Image{X: 1, Y: 2, Width: 3, Height: 4}, Rect{1, 2, 3, 4}},
		{"shape", &Shape{X: -5, Y: 0, Width: 10, Height: 20}, Rect{-5, 0, 10, 20}},
		{"path", &Path{Points: []Point{{3, 4}, {-1, 10}, {7, 2}}}, Rect{-1, 2, 8, 8}},
		{"single point path", &Path{Points: []Point{{3, 4}}}, Rect{3, 4, 0, 0}},
		{"empty path", &Path{}, Rect{}},
	}
	for _, tt := range tests {
		if got := BoundsOf(tt.el); got != tt.want {
			t.Errorf("BoundsOf(%s) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestSnapPointsOf(t *testing.T) {
	got := SnapPointsOf(Rect{X: 10, Y: 20, Width: 100, Height: 50})
	if got.V != [3]float64{10, 60, 110} {
		t.Errorf("V = %v, want [10 60 110]", got.V)
	}
	if got.H != [3]float64{20, 45, 70} {
		t.Errorf("H = %v, want [20 45 70]", got.H)
	}
}

func TestRectFromPointsAnyDiagonal(t *testing.T) {
	want := Rect{X: 0, Y: 0, Width: 10, Height: 5}
	corners := [][2]Point{
		{{0, 0}, {10, 5}},
		{{10, 5}, {0, 0}},
		{{10, 0}, {0, 5}},
		{{0, 5}, {10, 0}},
	}
	for _, c := range corners {
		if got := RectFromPoints(c[0], c[1]); got != want {
			t.Errorf("RectFromPoints(%v, %v) = %+v, want %+v", c[0], c[1], got, want)
		}
	}
}

func TestIntersectsIsOpen(t *testing.T) {
	marquee := Rect{X: 0, Y: 0, Width: 50, Height: 50}
	tests := []struct {
		r    Rect
		want bool
	}{
		{Rect{10, 10, 5, 5}, true},
		{Rect{40, 40, 20, 20}, true},
		{Rect{50, 0, 10, 10}, false}, // shares the right edge only
		{Rect{100, 100, 10, 10}, false},
		{Rect{-10, -10, 5, 5}, false},
	}
	for _, tt := range tests {
		if got := marquee.Intersects(tt.r); got != tt.want {
			t.Errorf("Intersects(%+v) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestBoundsOfAll(t *testing.T) {
	if _, ok := BoundsOfAll(nil); ok {
		t.Error("BoundsOfAll(nil) should report false")
	}
	got, ok := BoundsOfAll([]Element{
		&Image{X: 0, Y: 0, Width: 10, Height: 10},
		&Shape{X: 20, Y: -5, Width: 5, Height: 5},
	})
	if !ok || got != (Rect{X: 0, Y: -5, Width: 25, Height: 15}) {
		t.Errorf("BoundsOfAll = %+v, %v", got, ok)
	}
}
