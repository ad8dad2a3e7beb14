package engine

import "errors"

var (
	ErrNotImage              = errors.New("not an image")
	ErrEmptyPrompt           = errors.New("prompt is empty")
	ErrNoImageSelected       = errors.New("no image selected")
	ErrElementNotFound       = errors.New("element not found")
	ErrNotCropping           = errors.New("no crop in progress")
	ErrNoImageReturned       = errors.New("generation returned no image")
	ErrGenerationUnavailable = errors.New("image generation is not configured")
	ErrGestureActive         = errors.New("a gesture is in progress")
)
