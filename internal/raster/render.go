package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/inamate/inamate/canvas-go/internal/scene"
)

// RenderOptions controls Render.
type RenderOptions struct {
	// Padding is added around the scene bounds, in canvas units.
	Padding float64
	// Scale multiplies canvas units into pixels. Zero means 1.
	Scale float64
	// Background fills the surface before drawing. Nil leaves it transparent.
	Background color.Color
}

const ellipseSegments = 64

// Render rasterizes the whole scene in z-order. The surface covers the union
// of all element bounds plus padding.
func Render(ctx context.Context, sc scene.Scene, loader Loader, opts RenderOptions) (*image.RGBA, error) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	bounds, ok := paintedBounds(sc)
	if !ok {
		bounds = scene.Rect{}
	}
	bounds = scene.Rect{
		X:      bounds.X - opts.Padding,
		Y:      bounds.Y - opts.Padding,
		Width:  bounds.Width + 2*opts.Padding,
		Height: bounds.Height + 2*opts.Padding,
	}
	w := max(1, int(math.Ceil(bounds.Width*scale)))
	h := max(1, int(math.Ceil(bounds.Height*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if opts.Background != nil {
		xdraw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, xdraw.Src)
	}

	c := &canvas{dst: dst, origin: scene.Point{X: bounds.X, Y: bounds.Y}, scale: scale}
	for _, el := range sc {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch e := el.(type) {
		case *scene.Image:
			if err := c.image(ctx, e, loader); err != nil {
				return nil, fmt.Errorf("render %s: %w", e.ID, err)
			}
		case *scene.Path:
			c.path(e)
		case *scene.Shape:
			c.shape(e)
		}
	}
	return dst, nil
}

// paintedBounds is the scene bounds grown by half of each stroke width.
func paintedBounds(sc scene.Scene) (scene.Rect, bool) {
	var out scene.Rect
	found := false
	for _, el := range sc {
		b := scene.BoundsOf(el)
		var sw float64
		switch e := el.(type) {
		case *scene.Path:
			if len(e.Points) == 0 {
				continue
			}
			sw = e.StrokeWidth
		case *scene.Shape:
			sw = e.StrokeWidth
		}
		b = scene.Rect{X: b.X - sw/2, Y: b.Y - sw/2, Width: b.Width + sw, Height: b.Height + sw}
		if !found {
			out, found = b, true
			continue
		}
		out = out.Union(b)
	}
	return out, found
}

type canvas struct {
	dst    *image.RGBA
	origin scene.Point
	scale  float64
}

func (c *canvas) project(p scene.Point) scene.Point {
	return scene.Point{X: (p.X - c.origin.X) * c.scale, Y: (p.Y - c.origin.Y) * c.scale}
}

func (c *canvas) image(ctx context.Context, e *scene.Image, loader Loader) error {
	if loader == nil {
		return fmt.Errorf("no loader for %q", e.MediaType)
	}
	data, err := loader.Load(ctx, e.Src)
	if err != nil {
		return err
	}
	img, _, err := Decode(data)
	if err != nil {
		return err
	}
	tl := c.project(scene.Point{X: e.X, Y: e.Y})
	br := c.project(scene.Point{X: e.X + e.Width, Y: e.Y + e.Height})
	r := image.Rect(int(math.Round(tl.X)), int(math.Round(tl.Y)), int(math.Round(br.X)), int(math.Round(br.Y)))
	xdraw.ApproxBiLinear.Scale(c.dst, r, img, img.Bounds(), xdraw.Over, nil)
	return nil
}

func (c *canvas) path(e *scene.Path) {
	col, ok := ParseColor(e.Stroke)
	if !ok || len(e.Points) == 0 {
		return
	}
	pts := make([]scene.Point, len(e.Points))
	for i, p := range e.Points {
		pts[i] = c.project(p)
	}
	c.fill(strokePolygons(pts, e.StrokeWidth*c.scale, false), col)
}

func (c *canvas) shape(e *scene.Shape) {
	outline := ShapeOutline(e)
	for i, p := range outline {
		outline[i] = c.project(p)
	}
	if fill, ok := ParseColor(e.Fill); ok {
		c.fill([][]scene.Point{outline}, fill)
	}
	if stroke, ok := ParseColor(e.Stroke); ok && e.StrokeWidth > 0 {
		c.fill(strokePolygons(outline, e.StrokeWidth*c.scale, true), stroke)
	}
}

// fill rasterizes polys as one coverage mask so overlapping pieces do not
// compound alpha. Every polygon is normalized to the same winding.
func (c *canvas) fill(polys [][]scene.Point, col color.Color) {
	b := c.dst.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	drawn := false
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		if signedArea(poly) < 0 {
			poly = reversed(poly)
		}
		r.MoveTo(float32(poly[0].X), float32(poly[0].Y))
		for _, p := range poly[1:] {
			r.LineTo(float32(p.X), float32(p.Y))
		}
		r.ClosePath()
		drawn = true
	}
	if drawn {
		r.Draw(c.dst, b, image.NewUniform(col), image.Point{})
	}
}

// ShapeOutline returns the closed outline of s as a polygon in canvas units.
// Triangles point up with the apex at the top centre.
func ShapeOutline(s *scene.Shape) []scene.Point {
	switch s.Shape {
	case scene.ShapeCircle:
		cx, cy := s.X+s.Width/2, s.Y+s.Height/2
		rx, ry := math.Abs(s.Width/2), math.Abs(s.Height/2)
		return ellipse(scene.Point{X: cx, Y: cy}, rx, ry)
	case scene.ShapeTriangle:
		return []scene.Point{
			{X: s.X + s.Width/2, Y: s.Y},
			{X: s.X + s.Width, Y: s.Y + s.Height},
			{X: s.X, Y: s.Y + s.Height},
		}
	default:
		return []scene.Point{
			{X: s.X, Y: s.Y},
			{X: s.X + s.Width, Y: s.Y},
			{X: s.X + s.Width, Y: s.Y + s.Height},
			{X: s.X, Y: s.Y + s.Height},
		}
	}
}

func ellipse(c scene.Point, rx, ry float64) []scene.Point {
	pts := make([]scene.Point, ellipseSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		pts[i] = scene.Point{X: c.X + rx*math.Cos(a), Y: c.Y + ry*math.Sin(a)}
	}
	return pts
}

// strokePolygons covers a polyline of the given width with one quad per
// segment and a round join at every vertex.
func strokePolygons(pts []scene.Point, width float64, closed bool) [][]scene.Point {
	if width <= 0 {
		return nil
	}
	half := width / 2
	var out [][]scene.Point
	for _, p := range pts {
		out = append(out, ellipse(p, half, half))
	}
	segs := len(pts) - 1
	if closed {
		segs = len(pts)
	}
	for i := 0; i < segs; i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		out = append(out, []scene.Point{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		})
	}
	return out
}

func signedArea(poly []scene.Point) float64 {
	var sum float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

func reversed(poly []scene.Point) []scene.Point {
	out := make([]scene.Point, len(poly))
	for i, p := range poly {
		out[len(poly)-1-i] = p
	}
	return out
}
