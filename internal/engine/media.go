package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inamate/inamate/canvas-go/internal/raster"
	"github.com/inamate/inamate/canvas-go/internal/scene"
)

// GeneratedImageGap separates a generated image from the selection it was
// made from.
const GeneratedImageGap = 20.0

// Generator edits images from a text prompt. Implementations are called
// from a background goroutine.
type Generator interface {
	Edit(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// GenerationRequest carries the prompt and the selected images, bottom-most
// first.
type GenerationRequest struct {
	Prompt string            `json:"prompt"`
	Images []GenerationImage `json:"images"`
}

type GenerationImage struct {
	Data      []byte `json:"data"`
	MediaType string `json:"mediaType"`
}

type GenerationResult struct {
	Data      []byte `json:"data"`
	MediaType string `json:"mediaType"`
}

// AddImageElement appends an image centred on a canvas point, selects it and
// commits. During a gesture the add waits until the gesture ends. It returns
// the new element's id.
func (e *Engine) AddImageElement(src string, width, height float64, mediaType string, center scene.Point) string {
	img := scene.NewImage(center.X-width/2, center.Y-height/2, width, height, src, mediaType)
	add := func(e *Engine) {
		e.commit(func(sc scene.Scene) scene.Scene { return append(sc, img) })
		e.selection.Set(img.ID)
	}
	if e.active != nil {
		e.deferred = append(e.deferred, add)
		return img.ID
	}
	add(e)
	return img.ID
}

// DropImage adds a dropped file centred under the drop point. The media type
// is checked immediately; the image is measured in the background.
func (e *Engine) DropImage(mediaType string, data []byte, screenX, screenY float64) error {
	return e.insertImage(mediaType, data, e.viewport.ToCanvas(screenX, screenY))
}

// PasteImage adds a pasted image centred in the viewport.
func (e *Engine) PasteImage(mediaType string, data []byte) error {
	return e.insertImage(mediaType, data, e.viewport.Center())
}

func (e *Engine) insertImage(mediaType string, data []byte, center scene.Point) error {
	mediaType = raster.NormalizeMediaType(mediaType)
	if !raster.IsImageMediaType(mediaType) {
		err := fmt.Errorf("%w: %q", ErrNotImage, mediaType)
		e.setError(err)
		return err
	}
	e.spawn(func(context.Context) func(*Engine) {
		w, h, err := raster.Measure(data)
		if err != nil {
			return func(e *Engine) { e.setError(fmt.Errorf("load image: %w", err)) }
		}
		src := raster.EncodeDataURI(mediaType, data)
		return func(e *Engine) {
			e.AddImageElement(src, float64(w), float64(h), mediaType, center)
		}
	})
	return nil
}

// Generating reports whether a generation request is in flight.
func (e *Engine) Generating() bool { return e.generating > 0 }

// RequestGeneration sends the selected images and prompt to the generator.
// The result is added to the right of the selection and selected. Invalid
// input is rejected synchronously; generator failures land in the error slot.
func (e *Engine) RequestGeneration(prompt string) error {
	prompt = strings.TrimSpace(prompt)
	var err error
	var images []*scene.Image
	switch {
	case prompt == "":
		err = ErrEmptyPrompt
	case e.generator == nil:
		err = ErrGenerationUnavailable
	default:
		for _, el := range e.selection.Elements(e.Scene()) {
			if img, ok := el.(*scene.Image); ok {
				images = append(images, img.Clone().(*scene.Image))
			}
		}
		if len(images) == 0 {
			err = ErrNoImageSelected
		}
	}
	if err != nil {
		e.setError(err)
		return err
	}

	bounds, _ := scene.BoundsOfAll(e.selection.Elements(e.Scene()))
	gen, loader := e.generator, e.loader
	e.generating++
	e.spawn(func(ctx context.Context) func(*Engine) {
		res, err := generate(ctx, gen, loader, prompt, images)
		return func(e *Engine) {
			e.generating--
			if err != nil {
				e.setError(err)
				return
			}
			src := raster.EncodeDataURI(res.mediaType, res.data)
			img := scene.NewImage(bounds.Right()+GeneratedImageGap, bounds.Y, float64(res.width), float64(res.height), src, res.mediaType)
			e.commit(func(sc scene.Scene) scene.Scene { return append(sc, img) })
			e.selection.Set(img.ID)
		}
	})
	return nil
}

type generated struct {
	data          []byte
	mediaType     string
	width, height int
}

func generate(ctx context.Context, gen Generator, loader raster.Loader, prompt string, images []*scene.Image) (*generated, error) {
	req := GenerationRequest{Prompt: prompt}
	for _, img := range images {
		data, err := loader.Load(ctx, img.Src)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", img.ID, err)
		}
		req.Images = append(req.Images, GenerationImage{Data: data, MediaType: img.MediaType})
	}

	res, err := gen.Edit(ctx, req)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Data) == 0 {
		return nil, ErrNoImageReturned
	}
	mediaType := raster.NormalizeMediaType(res.MediaType)
	if !raster.IsImageMediaType(mediaType) {
		return nil, errors.Join(ErrNoImageReturned, fmt.Errorf("got %q", res.MediaType))
	}
	w, h, err := raster.Measure(res.Data)
	if err != nil {
		return nil, err
	}
	return &generated{data: res.Data, mediaType: mediaType, width: w, height: h}, nil
}
