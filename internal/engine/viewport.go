package engine

import (
	"math"

	"github.com/inamate/inamate/canvas-go/internal/scene"
)

const (
	MinZoom = 0.1
	MaxZoom = 10.0

	// WheelZoomFactor is the zoom step applied per wheel notch.
	WheelZoomFactor = 1.05
)

// Viewport maps between screen space (pointer pixels) and canvas space (where
// element geometry lives). Pan is a screen-space translation applied before
// zoom; Origin is the viewport's top-left corner on screen.
type Viewport struct {
	Origin scene.Point `json:"origin"`
	Pan    scene.Point `json:"pan"`
	Zoom   float64     `json:"zoom"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
}

// NewViewport returns an unpanned viewport at zoom 1.
func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

// ToCanvas converts a screen point into canvas space.
func (v Viewport) ToCanvas(screenX, screenY float64) scene.Point {
	return scene.Point{
		X: (screenX - v.Origin.X - v.Pan.X) / v.Zoom,
		Y: (screenY - v.Origin.Y - v.Pan.Y) / v.Zoom,
	}
}

// ToScreen converts a canvas point into screen space.
func (v Viewport) ToScreen(p scene.Point) (float64, float64) {
	return p.X*v.Zoom + v.Pan.X + v.Origin.X, p.Y*v.Zoom + v.Pan.Y + v.Origin.Y
}

// Matrix returns the canvas-to-viewport transform used by renderers. It maps
// into viewport-local coordinates, so Origin is not part of it.
func (v Viewport) Matrix() Matrix2D {
	return Translate(v.Pan.X, v.Pan.Y).Multiply(Scale(v.Zoom, v.Zoom))
}

// Center returns the canvas point at the middle of the viewport.
func (v Viewport) Center() scene.Point {
	return v.ToCanvas(v.Origin.X+v.Width/2, v.Origin.Y+v.Height/2)
}

// PanBy translates the view by a screen-space delta. Pan is not scaled by zoom.
func (v *Viewport) PanBy(dx, dy float64) {
	v.Pan.X += dx
	v.Pan.Y += dy
}

// ZoomAt sets the zoom to zoom*factor (clamped) while keeping the canvas point
// under the screen point (screenX, screenY) fixed.
func (v *Viewport) ZoomAt(screenX, screenY, factor float64) {
	oldZoom := v.Zoom
	newZoom := ClampZoom(oldZoom * factor)
	if newZoom == oldZoom {
		return
	}
	px := screenX - v.Origin.X
	py := screenY - v.Origin.Y
	ratio := newZoom / oldZoom
	v.Pan.X = px - (px-v.Pan.X)*ratio
	v.Pan.Y = py - (py-v.Pan.Y)*ratio
	v.Zoom = newZoom
}

// Wheel applies one wheel event: a negative deltaY zooms in by
// WheelZoomFactor, a positive one zooms out.
func (v *Viewport) Wheel(screenX, screenY, deltaY float64) {
	switch {
	case deltaY < 0:
		v.ZoomAt(screenX, screenY, WheelZoomFactor)
	case deltaY > 0:
		v.ZoomAt(screenX, screenY, 1/WheelZoomFactor)
	}
}

// ClampZoom limits z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
