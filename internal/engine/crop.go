package engine

import (
	"context"
	"fmt"

	"github.com/inamate/inamate/canvas-go/internal/raster"
	"github.com/inamate/inamate/canvas-go/internal/scene"
)

// CropState is an open crop of one image. Original is the image as it was
// when the crop began; Box is the kept region in canvas space and always lies
// within Original's bounds.
type CropState struct {
	ElementID string      `json:"elementId"`
	Original  scene.Image `json:"original"`
	Box       scene.Rect  `json:"box"`
}

// Bounds returns the frozen bounds of the image being cropped.
func (c *CropState) Bounds() scene.Rect {
	return scene.BoundsOf(&c.Original)
}

// Crop returns the open crop, if any.
func (e *Engine) Crop() (CropState, bool) {
	if e.crop == nil {
		return CropState{}, false
	}
	return *e.crop, true
}

// BeginCrop opens a crop on an image element with the box covering the
// whole image.
func (e *Engine) BeginCrop(id string) error {
	if e.active != nil {
		return ErrGestureActive
	}
	el, ok := e.Scene().Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	img, ok := el.(*scene.Image)
	if !ok {
		return fmt.Errorf("%w: %s is a %s", ErrNotImage, id, el.Kind())
	}
	e.crop = &CropState{ElementID: id, Original: *img, Box: scene.BoundsOf(img)}
	e.selection.Set(id)
	return nil
}

// CancelCrop discards the open crop without touching history.
func (e *Engine) CancelCrop() {
	if e.active != nil && e.active.mode.Kind == ModeCrop {
		e.active = nil
	}
	e.crop = nil
}

// ConfirmCrop closes the crop and rasterizes the kept region in the
// background. On success one history entry replaces the image's data and
// geometry; on failure the error slot is set and history is untouched. A box
// covering the whole image closes the crop without a commit.
func (e *Engine) ConfirmCrop() error {
	if e.crop == nil {
		return ErrNotCropping
	}
	if e.active != nil {
		return ErrGestureActive
	}
	c := *e.crop
	e.crop = nil
	if c.Box == c.Bounds() {
		return nil
	}

	loader := e.loader
	e.spawn(func(ctx context.Context) func(*Engine) {
		src, mediaType, err := cropImage(ctx, loader, c)
		if err != nil {
			return func(e *Engine) { e.setError(fmt.Errorf("crop image: %w", err)) }
		}
		return func(e *Engine) { e.applyCrop(c, src, mediaType) }
	})
	return nil
}

func cropImage(ctx context.Context, loader raster.Loader, c CropState) (string, string, error) {
	data, err := loader.Load(ctx, c.Original.Src)
	if err != nil {
		return "", "", err
	}
	out, mediaType, err := raster.Crop(data, c.Original.MediaType, raster.CropRegion{
		DisplayWidth:  c.Original.Width,
		DisplayHeight: c.Original.Height,
		X:             c.Box.X - c.Original.X,
		Y:             c.Box.Y - c.Original.Y,
		Width:         c.Box.Width,
		Height:        c.Box.Height,
	})
	if err != nil {
		return "", "", err
	}
	return raster.EncodeDataURI(mediaType, out), mediaType, nil
}

// applyCrop commits a finished crop. If the image was deleted meanwhile the
// result is dropped.
func (e *Engine) applyCrop(c CropState, src, mediaType string) {
	el, ok := e.Scene().Find(c.ElementID)
	if !ok || el.Kind() != scene.KindImage {
		e.logger.Debug("dropping crop of missing image", "element", c.ElementID)
		return
	}
	e.commit(func(sc scene.Scene) scene.Scene {
		if el, ok := sc.Find(c.ElementID); ok {
			if img, ok := el.(*scene.Image); ok {
				img.Src, img.MediaType = src, mediaType
				img.X, img.Y, img.Width, img.Height = c.Box.X, c.Box.Y, c.Box.Width, c.Box.Height
			}
		}
		return sc
	})
}
