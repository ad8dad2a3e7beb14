package engine

import "github.com/inamate/inamate/canvas-go/internal/scene"

// PathCommand is a single path segment in Canvas2D form:
// ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []any

// DrawCommand is one drawing operation for a Canvas2D renderer, in canvas
// space. Renderers apply Frame.View first.
type DrawCommand struct {
	Op          string        `json:"op"` // "path" or "image"
	ObjectID    string        `json:"objectId"`
	Path        []PathCommand `json:"path,omitempty"`
	Fill        string        `json:"fill,omitempty"`
	Stroke      string        `json:"stroke,omitempty"`
	StrokeWidth float64       `json:"strokeWidth,omitempty"`
	Closed      bool          `json:"closed,omitempty"`

	Src    string  `json:"src,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// HandleMarker is a resize or crop handle in canvas space.
type HandleMarker struct {
	Handle Handle  `json:"handle"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// CropFrame is the crop overlay.
type CropFrame struct {
	ElementID string         `json:"elementId"`
	Bounds    scene.Rect     `json:"bounds"`
	Box       scene.Rect     `json:"box"`
	Handles   []HandleMarker `json:"handles"`
}

// Frame is everything a renderer needs to paint the canvas and its overlays.
type Frame struct {
	Commands        []DrawCommand  `json:"commands"`
	View            []float64      `json:"view"`
	Zoom            float64        `json:"zoom"`
	Tool            Tool           `json:"tool"`
	Mode            string         `json:"mode,omitempty"`
	Selection       []string       `json:"selection"`
	SelectionBounds *scene.Rect    `json:"selectionBounds,omitempty"`
	Handles         []HandleMarker `json:"handles,omitempty"`
	Marquee         *scene.Rect    `json:"marquee,omitempty"`
	Crop            *CropFrame     `json:"crop,omitempty"`
	Guides          []Guide        `json:"guides,omitempty"`
	Error           string         `json:"error,omitempty"`
	CanUndo         bool           `json:"canUndo"`
	CanRedo         bool           `json:"canRedo"`
	Busy            bool           `json:"busy"`
	Generating      bool           `json:"generating"`
}

// Render builds the frame for the current state.
func (e *Engine) Render() Frame {
	sc := e.Scene()
	f := Frame{
		Commands:   CompileDrawCommands(sc),
		View:       e.viewport.Matrix().ToSlice(),
		Zoom:       e.viewport.Zoom,
		Tool:       e.tool,
		Selection:  e.selection.IDs(),
		Guides:     e.guides,
		Marquee:    e.marquee,
		Error:      e.errMsg,
		CanUndo:    e.history.CanUndo(),
		CanRedo:    e.history.CanRedo(),
		Busy:       e.pending > 0,
		Generating: e.Generating(),
	}
	if m, ok := e.Mode(); ok {
		f.Mode = m.String()
	}
	if b, ok := scene.BoundsOfAll(e.selection.Elements(sc)); ok {
		f.SelectionBounds = &b
	}
	if target, ok := e.resizeTarget(); ok {
		f.Handles = handleMarkers(scene.BoundsOf(target))
	}
	if e.crop != nil {
		f.Crop = &CropFrame{
			ElementID: e.crop.ElementID,
			Bounds:    e.crop.Bounds(),
			Box:       e.crop.Box,
			Handles:   handleMarkers(e.crop.Box),
		}
	}
	return f
}

func handleMarkers(r scene.Rect) []HandleMarker {
	out := make([]HandleMarker, 0, len(Handles))
	for _, h := range Handles {
		p := h.Position(r)
		out = append(out, HandleMarker{Handle: h, X: p.X, Y: p.Y})
	}
	return out
}

// CompileDrawCommands generates draw commands in painter's order (back to
// front).
func CompileDrawCommands(sc scene.Scene) []DrawCommand {
	commands := make([]DrawCommand, 0, len(sc))
	for _, el := range sc {
		switch v := el.(type) {
		case *scene.Image:
			commands = append(commands, DrawCommand{
				Op:       "image",
				ObjectID: v.ID,
				Src:      v.Src,
				X:        v.X,
				Y:        v.Y,
				Width:    v.Width,
				Height:   v.Height,
			})
		case *scene.Path:
			if len(v.Points) == 0 {
				continue
			}
			commands = append(commands, DrawCommand{
				Op:          "path",
				ObjectID:    v.ID,
				Path:        polylinePath(v.Points),
				Stroke:      v.Stroke,
				StrokeWidth: v.StrokeWidth,
			})
		case *scene.Shape:
			cmd := DrawCommand{
				Op:          "path",
				ObjectID:    v.ID,
				Path:        shapePath(v),
				Stroke:      v.Stroke,
				StrokeWidth: v.StrokeWidth,
				Closed:      true,
			}
			if v.Fill != scene.Transparent {
				cmd.Fill = v.Fill
			}
			commands = append(commands, cmd)
		}
	}
	return commands
}

func polylinePath(pts []scene.Point) []PathCommand {
	path := make([]PathCommand, 0, len(pts))
	path = append(path, PathCommand{"M", pts[0].X, pts[0].Y})
	for _, p := range pts[1:] {
		path = append(path, PathCommand{"L", p.X, p.Y})
	}
	return path
}

func shapePath(s *scene.Shape) []PathCommand {
	x, y, w, h := s.X, s.Y, s.Width, s.Height
	switch s.Shape {
	case scene.ShapeCircle:
		return ellipsePath(x+w/2, y+h/2, w/2, h/2)
	case scene.ShapeTriangle:
		return []PathCommand{
			{"M", x + w/2, y},
			{"L", x + w, y + h},
			{"L", x, y + h},
			{"Z"},
		}
	default:
		return []PathCommand{
			{"M", x, y},
			{"L", x + w, y},
			{"L", x + w, y + h},
			{"L", x, y + h},
			{"Z"},
		}
	}
}

// ellipsePath approximates an ellipse with four cubic beziers.
func ellipsePath(cx, cy, rx, ry float64) []PathCommand {
	// k = 4 * (sqrt(2) - 1) / 3
	const k = 0.5522847498
	kx, ky := rx*k, ry*k
	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{"C", cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{"C", cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{"C", cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
		{"Z"},
	}
}

// HitTest returns the id of the topmost element whose bounds contain p, or
// the empty string. Path bounds are widened by half the stroke width.
func HitTest(sc scene.Scene, p scene.Point) string {
	for i := len(sc) - 1; i >= 0; i-- {
		el := sc[i]
		b := scene.BoundsOf(el)
		if path, ok := el.(*scene.Path); ok {
			if len(path.Points) == 0 {
				continue
			}
			pad := path.StrokeWidth / 2
			b = scene.Rect{X: b.X - pad, Y: b.Y - pad, Width: b.Width + 2*pad, Height: b.Height + 2*pad}
		}
		if b.Contains(p) {
			return el.ElementID()
		}
	}
	return ""
}
