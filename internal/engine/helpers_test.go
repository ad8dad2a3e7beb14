package engine

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/raster"
	"github.com/inamate/inamate/canvas-go/internal/scene"
)

func pt(x, y float64) scene.Point { return scene.Point{X: x, Y: y} }

func rectShape(id string, x, y, w, h float64) *scene.Shape {
	return &scene.Shape{ID: id, Shape: scene.ShapeRectangle, X: x, Y: y, Width: w, Height: h, Stroke: "#000000", StrokeWidth: 2, Fill: scene.Transparent}
}

func imageEl(id string, x, y, w, h float64) *scene.Image {
	return &scene.Image{ID: id, X: x, Y: y, Width: w, Height: h, Src: "data:image/png;base64,", MediaType: "image/png"}
}

func appendElement(e scene.Element) func(scene.Scene) scene.Scene {
	return func(s scene.Scene) scene.Scene { return append(s, e.Clone()) }
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func pngImage(t *testing.T, id string, x, y, w, h float64, pxW, pxH int) *scene.Image {
	t.Helper()
	return &scene.Image{
		ID: id, X: x, Y: y, Width: w, Height: h,
		Src:       raster.EncodeDataURI("image/png", pngBytes(t, pxW, pxH)),
		MediaType: "image/png",
	}
}

func newTestEngine(t *testing.T, elems []scene.Element, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	e, err := NewEngine(scene.Scene(elems), opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func await(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Await(ctx); err != nil {
		t.Fatalf("Await: %v", err)
	}
}

func down(e *Engine, x, y float64) { e.PointerDown(PointerEvent{X: x, Y: y}) }
func move(e *Engine, x, y float64) { e.PointerMove(PointerEvent{X: x, Y: y}) }
func up(e *Engine, x, y float64)   { e.PointerUp(PointerEvent{X: x, Y: y}) }

func mustFind(t *testing.T, e *Engine, id string) scene.Element {
	t.Helper()
	el, ok := e.Scene().Find(id)
	if !ok {
		t.Fatalf("element %s not in scene", id)
	}
	return el
}
