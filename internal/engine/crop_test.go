package engine

import (
	"errors"
	"testing"

	"github.com/inamate/inamate/canvas-go/internal/raster"
	"github.com/inamate/inamate/canvas-go/internal/scene"
)

func TestCropGestureClampsToImage(t *testing.T) {
	e := newTestEngine(t, []scene.Element{pngImage(t, "img", 0, 0, 100, 100, 200, 200)})
	if err := e.BeginCrop("img"); err != nil {
		t.Fatalf("BeginCrop: %v", err)
	}

	down(e, 100, 50)
	if m, _ := e.Mode(); m.String() != "crop-mr" {
		t.Fatalf("mode = %s", m)
	}
	move(e, 150, 50)
	c, _ := e.Crop()
	if c.Box.Width != 100 {
		t.Errorf("width dragged past the image = %v, want 100", c.Box.Width)
	}
	move(e, 80, 50)
	up(e, 80, 50)

	c, _ = e.Crop()
	if want := (scene.Rect{Width: 80, Height: 100}); c.Box != want {
		t.Errorf("box = %+v, want %+v", c.Box, want)
	}
	if e.History().Len() != 1 {
		t.Error("crop handles must not touch history")
	}
}

func TestCropPressOffHandleIsNoop(t *testing.T) {
	e := newTestEngine(t, []scene.Element{pngImage(t, "img", 0, 0, 100, 100, 10, 10)})
	if err := e.BeginCrop("img"); err != nil {
		t.Fatal(err)
	}
	down(e, 50, 50)
	if _, ok := e.Mode(); ok {
		t.Error("press inside the crop box should not start a gesture")
	}
}

func TestConfirmCropReplacesImage(t *testing.T) {
	e := newTestEngine(t, []scene.Element{pngImage(t, "img", 10, 20, 100, 100, 200, 200)})
	if err := e.BeginCrop("img"); err != nil {
		t.Fatal(err)
	}
	down(e, 110, 70)
	move(e, 90, 70)
	up(e, 90, 70)

	if !e.KeyDown(KeyEvent{Key: "Enter"}) {
		t.Fatal("enter not handled")
	}
	if _, ok := e.Crop(); ok {
		t.Error("crop should close on confirm")
	}
	await(t, e)

	if e.Error() != "" {
		t.Fatalf("error: %s", e.Error())
	}
	if e.History().Len() != 2 {
		t.Fatalf("history len = %d, want 2", e.History().Len())
	}
	img := mustFind(t, e, "img").(*scene.Image)
	if got := scene.BoundsOf(img); got != (scene.Rect{X: 10, Y: 20, Width: 80, Height: 100}) {
		t.Errorf("bounds = %+v", got)
	}
	data, mt, err := raster.DecodeDataURI(img.Src)
	if err != nil || mt != "image/png" {
		t.Fatalf("src: %q %v", mt, err)
	}
	w, h, err := raster.Measure(data)
	if err != nil {
		t.Fatal(err)
	}
	if w != 80 || h != 100 {
		t.Errorf("cropped pixels = %dx%d, want 80x100", w, h)
	}

	e.Undo()
	if got := scene.BoundsOf(mustFind(t, e, "img")); got.Width != 100 {
		t.Errorf("undo should restore the original, got %+v", got)
	}
}

func TestConfirmFullBoxDoesNotCommit(t *testing.T) {
	e := newTestEngine(t, []scene.Element{pngImage(t, "img", 0, 0, 10, 10, 10, 10)})
	if err := e.BeginCrop("img"); err != nil {
		t.Fatal(err)
	}
	if err := e.ConfirmCrop(); err != nil {
		t.Fatal(err)
	}
	if e.Pending() != 0 || e.History().Len() != 1 {
		t.Errorf("pending %d, history %d", e.Pending(), e.History().Len())
	}
}

func TestCropDecodeFailureSetsError(t *testing.T) {
	e := newTestEngine(t, []scene.Element{imageEl("img", 0, 0, 100, 100)})
	if err := e.BeginCrop("img"); err != nil {
		t.Fatal(err)
	}
	down(e, 100, 50)
	move(e, 50, 50)
	up(e, 50, 50)
	if err := e.ConfirmCrop(); err != nil {
		t.Fatal(err)
	}
	await(t, e)

	if e.Error() == "" {
		t.Error("expected an error message")
	}
	if e.History().Len() != 1 {
		t.Errorf("history len = %d", e.History().Len())
	}
	if _, ok := e.Crop(); ok {
		t.Error("crop should be closed")
	}
}

func TestCropOfDeletedImageIsDropped(t *testing.T) {
	e := newTestEngine(t, []scene.Element{pngImage(t, "img", 0, 0, 100, 100, 100, 100)})
	if err := e.BeginCrop("img"); err != nil {
		t.Fatal(err)
	}
	down(e, 100, 50)
	move(e, 60, 50)
	up(e, 60, 50)
	if err := e.ConfirmCrop(); err != nil {
		t.Fatal(err)
	}
	e.DeleteSelected()
	await(t, e)

	if len(e.Scene()) != 0 || e.History().Len() != 2 {
		t.Errorf("scene %v, history %d", idsOf(e.Scene()), e.History().Len())
	}
}

func TestCancelCrop(t *testing.T) {
	e := newTestEngine(t, []scene.Element{pngImage(t, "img", 0, 0, 100, 100, 10, 10)})
	if err := e.BeginCrop("img"); err != nil {
		t.Fatal(err)
	}
	down(e, 100, 50)
	move(e, 40, 50)
	up(e, 40, 50)
	e.KeyDown(KeyEvent{Key: "Escape"})

	if _, ok := e.Crop(); ok {
		t.Error("escape should cancel the crop")
	}
	if got := scene.BoundsOf(mustFind(t, e, "img")); got.Width != 100 {
		t.Errorf("image changed: %+v", got)
	}
	if e.History().Len() != 1 {
		t.Errorf("history len = %d", e.History().Len())
	}
	if err := e.ConfirmCrop(); !errors.Is(err, ErrNotCropping) {
		t.Errorf("ConfirmCrop without crop: %v", err)
	}
}

func TestBeginCropErrors(t *testing.T) {
	e := newTestEngine(t, []scene.Element{rectShape("s", 0, 0, 10, 10)})
	if err := e.BeginCrop("s"); !errors.Is(err, ErrNotImage) {
		t.Errorf("shape: %v", err)
	}
	if err := e.BeginCrop("ghost"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("missing: %v", err)
	}
}

func TestUndoClosesCropOfRemovedImage(t *testing.T) {
	e := newTestEngine(t, nil)
	id := e.AddImageElement("data:image/png;base64,", 10, 10, "image/png", pt(0, 0))
	if err := e.BeginCrop(id); err != nil {
		t.Fatal(err)
	}
	e.Undo()
	if _, ok := e.Crop(); ok {
		t.Error("crop should close when its image is undone away")
	}
}
