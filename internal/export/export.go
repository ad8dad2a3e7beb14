// Package export renders a board's scene to PNG, JPEG or PDF.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/jung-kurt/gofpdf"

	"github.com/inamate/inamate/canvas-go/internal/raster"
	"github.com/inamate/inamate/canvas-go/internal/scene"
)

const (
	DefaultPadding = 16
	MaxScale       = 8
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatPNG, nil
	case "jpg":
		return FormatJPEG, nil
	case FormatPNG, FormatJPEG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q: must be png, jpeg, or pdf", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	}
	return "image/png"
}

// Options controls a single export.
type Options struct {
	Format     Format
	Scale      float64
	Padding    float64
	Background color.Color
	Title      string
}

// Render encodes sc in the requested format. JPEG and PDF default to a white
// background.
func Render(ctx context.Context, sc scene.Scene, loader raster.Loader, opts Options) ([]byte, error) {
	bg := opts.Background
	if bg == nil && opts.Format != FormatPNG {
		bg = color.White
	}
	img, err := raster.Render(ctx, sc, loader, raster.RenderOptions{
		Padding:    opts.Padding,
		Scale:      opts.Scale,
		Background: bg,
	})
	if err != nil {
		return nil, fmt.Errorf("render scene: %w", err)
	}

	switch opts.Format {
	case FormatPDF:
		return encodePDF(img, opts.Title)
	case FormatJPEG:
		data, _, err := raster.Encode(img, "image/jpeg")
		return data, err
	default:
		data, _, err := raster.Encode(img, "image/png")
		return data, err
	}
}

// encodePDF places img on a single page of exactly its size, one point per
// pixel.
func encodePDF(img image.Image, title string) ([]byte, error) {
	data, _, err := raster.Encode(img, "image/png")
	if err != nil {
		return nil, err
	}
	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())

	orientation := "P"
	if w > h {
		orientation = "L"
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetCreator("inamate canvas", true)
	pdf.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("scene", opt, bytes.NewReader(data))
	pdf.ImageOptions("scene", 0, 0, w, h, false, opt, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
