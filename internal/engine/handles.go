package engine

import (
	"math"

	"github.com/inamate/inamate/canvas-go/internal/scene"
)

// MinElementSize is the smallest width or height a resize or crop produces.
const MinElementSize = 1.0

// HandleRadius is the screen-space half size of a resize or crop handle.
const HandleRadius = 6.0

// Handle names a grab point on a rect. The first letter is the row
// (t, m, b) and the second the column (l, m, r); t/b/l/r mark the edges the
// handle moves.
type Handle string

const (
	HandleTopLeft      Handle = "tl"
	HandleTopMiddle    Handle = "tm"
	HandleTopRight     Handle = "tr"
	HandleMiddleLeft   Handle = "ml"
	HandleMiddleRight  Handle = "mr"
	HandleBottomLeft   Handle = "bl"
	HandleBottomMiddle Handle = "bm"
	HandleBottomRight  Handle = "br"
)

// Handles lists every handle in hit-test order.
var Handles = []Handle{
	HandleTopLeft, HandleTopMiddle, HandleTopRight,
	HandleMiddleLeft, HandleMiddleRight,
	HandleBottomLeft, HandleBottomMiddle, HandleBottomRight,
}

// ParseHandle validates a handle name.
func ParseHandle(s string) (Handle, bool) {
	for _, h := range Handles {
		if string(h) == s {
			return h, true
		}
	}
	return "", false
}

func (h Handle) Top() bool    { return len(h) == 2 && h[0] == 't' }
func (h Handle) Bottom() bool { return len(h) == 2 && h[0] == 'b' }
func (h Handle) Left() bool   { return len(h) == 2 && h[1] == 'l' }
func (h Handle) Right() bool  { return len(h) == 2 && h[1] == 'r' }

// Horizontal reports whether the handle moves a vertical edge.
func (h Handle) Horizontal() bool { return h.Left() || h.Right() }

// Position returns where the handle sits on r.
func (h Handle) Position(r scene.Rect) scene.Point {
	p := r.Center()
	switch {
	case h.Left():
		p.X = r.X
	case h.Right():
		p.X = r.Right()
	}
	switch {
	case h.Top():
		p.Y = r.Y
	case h.Bottom():
		p.Y = r.Bottom()
	}
	return p
}

// HandleAt returns the first handle of r whose square of half size radius
// contains p.
func HandleAt(r scene.Rect, p scene.Point, radius float64) (Handle, bool) {
	for _, h := range Handles {
		hp := h.Position(r)
		if math.Abs(p.X-hp.X) <= radius && math.Abs(p.Y-hp.Y) <= radius {
			return h, true
		}
	}
	return "", false
}

// ResizeRect applies a handle drag of (dx, dy) to orig. The delta is always
// measured from the gesture start against the original rect.
//
// With keepAspect the dimension the handle does not drive is recomputed from
// the one it does: horizontal-moving handles (corners included) drive width,
// tm/bm drive height. Width and height are floored at MinElementSize with the
// opposite edge pinned; a locked aspect survives the floor.
func ResizeRect(orig scene.Rect, h Handle, dx, dy float64, keepAspect bool) scene.Rect {
	x, y, w, ht := orig.X, orig.Y, orig.Width, orig.Height

	if h.Left() {
		x = orig.X + dx
		w = orig.Width - dx
	} else if h.Right() {
		w = orig.Width + dx
	}
	if h.Top() {
		y = orig.Y + dy
		ht = orig.Height - dy
	} else if h.Bottom() {
		ht = orig.Height + dy
	}

	if keepAspect && orig.Width > 0 && orig.Height > 0 {
		ratio := orig.Width / orig.Height
		if h.Horizontal() {
			ht = w / ratio
		} else {
			w = ht * ratio
		}
		// The floor grows both sides together.
		if w < MinElementSize {
			w = MinElementSize
			ht = w / ratio
		}
		if ht < MinElementSize {
			ht = MinElementSize
			w = ht * ratio
		}
	} else {
		w = math.Max(w, MinElementSize)
		ht = math.Max(ht, MinElementSize)
	}

	if h.Left() {
		x = orig.Right() - w
	}
	if h.Top() {
		y = orig.Bottom() - ht
	}
	return scene.Rect{X: x, Y: y, Width: w, Height: ht}
}

// CropRect applies a handle drag of (dx, dy) to the crop box start. Every
// moved edge is clamped to bounds, the frozen image rect, so the result never
// leaves the source image; size is floored at MinElementSize.
func CropRect(start, bounds scene.Rect, h Handle, dx, dy float64) scene.Rect {
	out := start

	if h.Left() {
		nx := clamp(start.X+dx, bounds.X, start.Right()-MinElementSize)
		out.X = nx
		out.Width = start.Right() - nx
	} else if h.Right() {
		out.Width = clamp(start.Width+dx, MinElementSize, bounds.Right()-start.X)
	}
	if h.Top() {
		ny := clamp(start.Y+dy, bounds.Y, start.Bottom()-MinElementSize)
		out.Y = ny
		out.Height = start.Bottom() - ny
	} else if h.Bottom() {
		out.Height = clamp(start.Height+dy, MinElementSize, bounds.Bottom()-start.Y)
	}
	return out
}

// clamp limits v to [lo, hi]; lo wins when the range is empty.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
