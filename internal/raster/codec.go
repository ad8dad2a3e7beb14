// Package raster decodes, crops, encodes and renders bitmap data for the
// canvas engine and its exporters.
package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"mime"
	"net/url"
	"strings"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidDataURI       = errors.New("invalid data URI")
	ErrEmptyRegion          = errors.New("crop region is empty")
)

// Loader resolves an image reference (data: URI, asset URL) into encoded bytes.
type Loader interface {
	Load(ctx context.Context, src string) ([]byte, error)
}

// DataURILoader resolves data: URIs only.
type DataURILoader struct{}

func (DataURILoader) Load(_ context.Context, src string) ([]byte, error) {
	data, _, err := DecodeDataURI(src)
	return data, err
}

// NormalizeMediaType lowercases mt, strips parameters and folds aliases such
// as image/jpg.
func NormalizeMediaType(mt string) string {
	base, _, err := mime.ParseMediaType(mt)
	if err != nil {
		base = strings.ToLower(strings.TrimSpace(mt))
	}
	switch base {
	case "image/jpg", "image/pjpeg":
		return "image/jpeg"
	case "image/x-png":
		return "image/png"
	case "image/x-ms-bmp":
		return "image/bmp"
	}
	return base
}

// IsImageMediaType reports whether mt names an image type.
func IsImageMediaType(mt string) bool {
	return strings.HasPrefix(NormalizeMediaType(mt), "image/")
}

// Decodable reports whether this package can decode mt.
func Decodable(mt string) bool {
	switch NormalizeMediaType(mt) {
	case "image/png", "image/jpeg", "image/gif", "image/webp", "image/bmp", "image/tiff":
		return true
	}
	return false
}

// EncodeDataURI wraps data into a base64 data: URI.
func EncodeDataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI returns the payload and media type of a data: URI.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "text/plain"
	}
	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		return data, NormalizeMediaType(mediaType), nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return []byte(text), NormalizeMediaType(mediaType), nil
}

// Measure returns the intrinsic pixel size of encoded image data.
func Measure(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// Decode decodes any registered image format.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Encode encodes img in mediaType. Types without an encoder (webp) fall back
// to PNG; the returned media type is the one actually written.
func Encode(img image.Image, mediaType string) ([]byte, string, error) {
	var buf bytes.Buffer
	mt := NormalizeMediaType(mediaType)
	var err error
	switch mt {
	case "image/jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92})
	case "image/gif":
		err = gif.Encode(&buf, img, nil)
	case "image/bmp":
		err = bmp.Encode(&buf, img)
	case "image/tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		mt = "image/png"
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", mt, err)
	}
	return buf.Bytes(), mt, nil
}

// CropRegion selects part of an image in the units it is displayed at: the
// image is shown at DisplayWidth x DisplayHeight and (X, Y, Width, Height) is
// the kept region relative to its top-left corner.
type CropRegion struct {
	DisplayWidth  float64
	DisplayHeight float64
	X             float64
	Y             float64
	Width         float64
	Height        float64
}

// Crop decodes data, copies the region onto a new surface sized to the
// region and re-encodes it in mediaType.
func Crop(data []byte, mediaType string, region CropRegion) ([]byte, string, error) {
	src, _, err := Decode(data)
	if err != nil {
		return nil, "", err
	}
	b := src.Bounds()

	sx, sy := 1.0, 1.0
	if region.DisplayWidth > 0 {
		sx = float64(b.Dx()) / region.DisplayWidth
	}
	if region.DisplayHeight > 0 {
		sy = float64(b.Dy()) / region.DisplayHeight
	}
	srcRect := image.Rect(
		b.Min.X+int(math.Round(region.X*sx)),
		b.Min.Y+int(math.Round(region.Y*sy)),
		b.Min.X+int(math.Round((region.X+region.Width)*sx)),
		b.Min.Y+int(math.Round((region.Y+region.Height)*sy)),
	).Intersect(b)
	if srcRect.Empty() {
		return nil, "", ErrEmptyRegion
	}

	dw := max(1, int(math.Round(region.Width)))
	dh := max(1, int(math.Round(region.Height)))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	if srcRect.Dx() == dw && srcRect.Dy() == dh {
		xdraw.Draw(dst, dst.Bounds(), src, srcRect.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, srcRect, xdraw.Src, nil)
	}
	return Encode(dst, mediaType)
}
