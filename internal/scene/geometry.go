// Package scene holds the element data model and the pure geometry helpers
// the interaction engine derives from it.
package scene

import "math"

// Point is a canvas-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Distance returns the Euclidean distance to o.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Rect represents an axis-aligned bounding box in canvas space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the normalized rect spanning a and b, whichever
// diagonal direction they were given in.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains checks if a point is inside the rect (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Intersects reports whether r and o overlap using the open-interval test:
// rectangles that only share an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && r.X+r.Width > o.X && r.Y < o.Y+o.Height && r.Y+r.Height > o.Y
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	minX := math.Min(r.X, other.X)
	minY := math.Min(r.Y, other.Y)
	maxX := math.Max(r.Right(), other.Right())
	maxY := math.Max(r.Bottom(), other.Bottom())

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// SnapLines are the alignment lines of a rect: vertical lines at
// left/centerX/right and horizontal lines at top/centerY/bottom.
type SnapLines struct {
	V [3]float64
	H [3]float64
}

// SnapPointsOf derives the three vertical and three horizontal alignment
// lines of r.
func SnapPointsOf(r Rect) SnapLines {
	return SnapLines{
		V: [3]float64{r.X, r.X + r.Width/2, r.X + r.Width},
		H: [3]float64{r.Y, r.Y + r.Height/2, r.Y + r.Height},
	}
}

// BoundsOf returns the axis-aligned bounds of an element. Paths are measured
// over their points; a path with no points yields the zero rect. The result is
// always recomputed because element geometry changes every frame of a drag.
func BoundsOf(e Element) Rect {
	switch el := e.(type) {
	case *Image:
		return Rect{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height}
	case *Shape:
		return Rect{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height}
	case *Path:
		return pointsBounds(el.Points)
	default:
		return Rect{}
	}
}

// BoundsOfAll returns the union of the bounds of elems, or the zero rect and
// false when elems is empty.
func BoundsOfAll(elems []Element) (Rect, bool) {
	if len(elems) == 0 {
		return Rect{}, false
	}
	out := BoundsOf(elems[0])
	for _, e := range elems[1:] {
		out = out.Union(BoundsOf(e))
	}
	return out, true
}

func pointsBounds(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
