package engine

import (
	"github.com/inamate/inamate/canvas-go/internal/scene"
)

// ModeKind names a gesture mode.
type ModeKind string

const (
	ModePan          ModeKind = "pan"
	ModeDraw         ModeKind = "draw"
	ModeDrawShape    ModeKind = "drawShape"
	ModeErase        ModeKind = "erase"
	ModeDragElements ModeKind = "dragElements"
	ModeSelectBox    ModeKind = "selectBox"
	ModeResize       ModeKind = "resize"
	ModeCrop         ModeKind = "crop"
)

// Mode is the active gesture. Handle is set for resize and crop.
type Mode struct {
	Kind   ModeKind
	Handle Handle
}

func (m Mode) String() string {
	if m.Handle != "" {
		return string(m.Kind) + "-" + string(m.Handle)
	}
	return string(m.Kind)
}

// Pointer buttons as reported by DOM pointer events.
const (
	ButtonPrimary   = 0
	ButtonMiddle    = 1
	ButtonSecondary = 2
)

// PointerEvent is a pointer event in screen space.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button"`
	Shift  bool    `json:"shift"`
}

// interaction is the scratch state of one gesture, from pointer down to
// pointer up or leave.
type interaction struct {
	mode        Mode
	startCanvas scene.Point
	lastScreen  scene.Point

	targetID string        // draw, drawShape, resize
	original scene.Element // resize
	cropFrom scene.Rect    // crop
	drags    []dragStart   // dragElements
	applied  scene.Point   // last snapped drag delta
	erased   map[string]bool
}

// dragStart freezes an element's geometry at the start of a drag.
type dragStart struct {
	id     string
	origin scene.Point
	points []scene.Point
	bounds scene.Rect
}

func (e *Engine) handleRadius() float64 {
	return HandleRadius / e.viewport.Zoom
}

// resizeTarget returns the element resize handles belong to: the single
// selected element while the select tool is active.
func (e *Engine) resizeTarget() (scene.Element, bool) {
	if e.tool != ToolSelect || e.crop != nil || e.selection.Len() != 1 {
		return nil, false
	}
	return e.Scene().Find(e.selection.IDs()[0])
}

// HitTest returns the id of the topmost element under a canvas point.
func (e *Engine) HitTest(p scene.Point) string {
	return HitTest(e.Scene(), p)
}

// PointerDown starts a gesture.
func (e *Engine) PointerDown(ev PointerEvent) {
	if e.active != nil {
		e.finish()
	}
	screen := scene.Point{X: ev.X, Y: ev.Y}
	p := e.viewport.ToCanvas(ev.X, ev.Y)
	it := &interaction{startCanvas: p, lastScreen: screen}

	switch {
	case ev.Button == ButtonMiddle:
		it.mode = Mode{Kind: ModePan}

	case ev.Button != ButtonPrimary:
		return

	case e.crop != nil:
		h, ok := HandleAt(e.crop.Box, p, e.handleRadius())
		if !ok {
			return
		}
		it.mode = Mode{Kind: ModeCrop, Handle: h}
		it.cropFrom = e.crop.Box

	case e.tool == ToolPan:
		it.mode = Mode{Kind: ModePan}

	case e.tool == ToolDraw:
		path := scene.NewPath(p, e.style.Stroke, e.style.StrokeWidth)
		it.mode = Mode{Kind: ModeDraw}
		it.targetID = path.ID
		e.history.Begin()
		e.transient(func(sc scene.Scene) scene.Scene { return append(sc, path) })

	case e.tool == ToolErase:
		it.mode = Mode{Kind: ModeErase}
		it.erased = make(map[string]bool)
		e.history.Begin()

	case e.tool == ToolSelect:
		if !e.pressSelect(it, p, ev.Shift) {
			return
		}

	default:
		kind, ok := e.tool.ShapeKind()
		if !ok {
			return
		}
		shape := scene.NewShape(kind, p, e.style.Stroke, e.style.StrokeWidth, e.style.Fill)
		it.mode = Mode{Kind: ModeDrawShape}
		it.targetID = shape.ID
		e.history.Begin()
		e.transient(func(sc scene.Scene) scene.Scene { return append(sc, shape) })
	}
	e.active = it
}

// pressSelect handles a select-tool press: a resize handle, an element or
// empty canvas.
func (e *Engine) pressSelect(it *interaction, p scene.Point, shift bool) bool {
	if target, ok := e.resizeTarget(); ok {
		if h, ok := HandleAt(scene.BoundsOf(target), p, e.handleRadius()); ok {
			it.mode = Mode{Kind: ModeResize, Handle: h}
			it.targetID = target.ElementID()
			it.original = target.Clone()
			e.history.Begin()
			return true
		}
	}

	hit := e.HitTest(p)
	if hit == "" {
		e.selection.Clear()
		it.mode = Mode{Kind: ModeSelectBox}
		e.marquee = &scene.Rect{X: p.X, Y: p.Y}
		return true
	}

	switch {
	case shift:
		e.selection.Toggle(hit)
	case !e.selection.Has(hit):
		e.selection.Set(hit)
	}
	it.mode = Mode{Kind: ModeDragElements}
	for _, el := range e.selection.Elements(e.Scene()) {
		ds := dragStart{id: el.ElementID(), bounds: scene.BoundsOf(el)}
		switch v := el.(type) {
		case *scene.Path:
			ds.points = append([]scene.Point(nil), v.Points...)
		default:
			ds.origin = scene.Point{X: ds.bounds.X, Y: ds.bounds.Y}
		}
		it.drags = append(it.drags, ds)
	}
	e.history.Begin()
	return true
}

// PointerMove advances the active gesture.
func (e *Engine) PointerMove(ev PointerEvent) {
	it := e.active
	if it == nil {
		return
	}
	p := e.viewport.ToCanvas(ev.X, ev.Y)
	dx, dy := p.X-it.startCanvas.X, p.Y-it.startCanvas.Y

	switch it.mode.Kind {
	case ModePan:
		e.viewport.PanBy(ev.X-it.lastScreen.X, ev.Y-it.lastScreen.Y)
		it.lastScreen = scene.Point{X: ev.X, Y: ev.Y}

	case ModeDraw:
		e.transient(func(sc scene.Scene) scene.Scene {
			if el, ok := sc.Find(it.targetID); ok {
				if path, ok := el.(*scene.Path); ok {
					path.Points = append(path.Points, p)
				}
			}
			return sc
		})

	case ModeDrawShape:
		r := scene.RectFromPoints(it.startCanvas, p)
		e.transient(func(sc scene.Scene) scene.Scene {
			if el, ok := sc.Find(it.targetID); ok {
				if shape, ok := el.(*scene.Shape); ok {
					shape.X, shape.Y, shape.Width, shape.Height = r.X, r.Y, r.Width, r.Height
				}
			}
			return sc
		})

	case ModeErase:
		e.eraseAt(it, p)

	case ModeDragElements:
		e.dragTo(it, dx, dy)

	case ModeSelectBox:
		r := scene.RectFromPoints(it.startCanvas, p)
		e.marquee = &r

	case ModeResize:
		r := ResizeRect(scene.BoundsOf(it.original), it.mode.Handle, dx, dy, !ev.Shift)
		next := resized(it.original, r)
		e.transient(func(sc scene.Scene) scene.Scene {
			if i := sc.IndexOf(it.targetID); i >= 0 {
				sc[i] = next.Clone()
			}
			return sc
		})

	case ModeCrop:
		if e.crop != nil {
			e.crop.Box = CropRect(it.cropFrom, e.crop.Bounds(), it.mode.Handle, dx, dy)
		}
	}
}

// eraseAt removes every path with a vertex strictly within the eraser radius
// of p. Only vertices are tested, not the segments between them.
func (e *Engine) eraseAt(it *interaction, p scene.Point) {
	radius := e.style.StrokeWidth / e.viewport.Zoom
	hits := make(map[string]bool)
	for _, el := range e.Scene() {
		path, ok := el.(*scene.Path)
		if !ok {
			continue
		}
		for _, pt := range path.Points {
			if pt.Distance(p) < radius {
				hits[path.ID] = true
				break
			}
		}
	}
	if len(hits) == 0 {
		return
	}
	for id := range hits {
		it.erased[id] = true
	}
	e.transient(func(sc scene.Scene) scene.Scene { return sc.Without(hits) })
}

// dragTo moves every dragged element from its frozen start by the snapped
// delta.
func (e *Engine) dragTo(it *interaction, dx, dy float64) {
	dragged := make(map[string]bool, len(it.drags))
	moving := make([]scene.Rect, 0, len(it.drags))
	for _, d := range it.drags {
		dragged[d.id] = true
		moving = append(moving, d.bounds)
	}
	var static []scene.Rect
	for _, el := range e.Scene() {
		if dragged[el.ElementID()] {
			continue
		}
		if path, ok := el.(*scene.Path); ok && len(path.Points) == 0 {
			continue
		}
		static = append(static, scene.BoundsOf(el))
	}

	snap := Snap(moving, static, dx, dy, e.snapThreshold/e.viewport.Zoom)
	e.guides = snap.Guides
	it.applied = scene.Point{X: snap.DX, Y: snap.DY}

	e.transient(func(sc scene.Scene) scene.Scene {
		for _, d := range it.drags {
			el, ok := sc.Find(d.id)
			if !ok {
				continue
			}
			switch v := el.(type) {
			case *scene.Image:
				v.X, v.Y = d.origin.X+snap.DX, d.origin.Y+snap.DY
			case *scene.Shape:
				v.X, v.Y = d.origin.X+snap.DX, d.origin.Y+snap.DY
			case *scene.Path:
				for i, pt := range d.points {
					v.Points[i] = pt.Add(snap.DX, snap.DY)
				}
			}
		}
		return sc
	})
}

// resized returns a copy of orig fitted to r. Path points are rescaled from
// the path's bounds into r.
func resized(orig scene.Element, r scene.Rect) scene.Element {
	switch v := orig.Clone().(type) {
	case *scene.Image:
		v.X, v.Y, v.Width, v.Height = r.X, r.Y, r.Width, r.Height
		return v
	case *scene.Shape:
		v.X, v.Y, v.Width, v.Height = r.X, r.Y, r.Width, r.Height
		return v
	case *scene.Path:
		b := scene.BoundsOf(orig)
		sx, sy := 1.0, 1.0
		if b.Width > 0 {
			sx = r.Width / b.Width
		}
		if b.Height > 0 {
			sy = r.Height / b.Height
		}
		for i, pt := range v.Points {
			v.Points[i] = scene.Point{X: r.X + (pt.X-b.X)*sx, Y: r.Y + (pt.Y-b.Y)*sy}
		}
		return v
	default:
		return v
	}
}

// PointerUp ends the active gesture.
func (e *Engine) PointerUp(PointerEvent) { e.finish() }

// PointerLeave ends the active gesture the same way PointerUp does.
func (e *Engine) PointerLeave() { e.finish() }

// finish commits or discards the gesture according to its mode and clears all
// gesture scratch state.
func (e *Engine) finish() {
	it := e.active
	if it == nil {
		return
	}
	e.active = nil
	e.guides = nil

	switch it.mode.Kind {
	case ModeSelectBox:
		if e.marquee != nil {
			e.selection.Set(MarqueeHits(e.Scene(), *e.marquee)...)
		}
	case ModeDragElements:
		if it.applied == (scene.Point{}) {
			// Released where it started.
			e.history.Cancel()
			break
		}
		if e.history.End() {
			e.version++
		}
	case ModeDraw, ModeDrawShape, ModeErase, ModeResize:
		if e.history.End() {
			e.version++
		}
		if it.mode.Kind == ModeErase {
			e.selection.Prune(e.Scene())
		}
	}
	e.marquee = nil
	e.runDeferred()
}

// cancelGesture abandons the active gesture and restores the scene it
// started from.
func (e *Engine) cancelGesture() {
	it := e.active
	if it == nil {
		return
	}
	e.active = nil
	e.guides = nil
	e.marquee = nil
	if e.history.InGesture() {
		e.history.Cancel()
		e.version++
	}
	if it.mode.Kind == ModeCrop && e.crop != nil {
		e.crop.Box = it.cropFrom
	}
	e.selection.Prune(e.Scene())
	e.runDeferred()
}
