package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inamate/inamate/canvas-go/internal/raster"
	"github.com/inamate/inamate/canvas-go/internal/scene"
)

// Tool is the active editing tool.
type Tool string

const (
	ToolSelect    Tool = "select"
	ToolPan       Tool = "pan"
	ToolDraw      Tool = "draw"
	ToolErase     Tool = "erase"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolTriangle  Tool = "triangle"
)

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, error) {
	switch t := Tool(s); t {
	case ToolSelect, ToolPan, ToolDraw, ToolErase, ToolRectangle, ToolCircle, ToolTriangle:
		return t, nil
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// ShapeKind returns the shape a shape tool draws.
func (t Tool) ShapeKind() (scene.ShapeKind, bool) {
	switch t {
	case ToolRectangle:
		return scene.ShapeRectangle, true
	case ToolCircle:
		return scene.ShapeCircle, true
	case ToolTriangle:
		return scene.ShapeTriangle, true
	}
	return "", false
}

// Style is applied to newly drawn paths and shapes. StrokeWidth is also the
// eraser size in screen pixels.
type Style struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Fill        string  `json:"fill"`
}

// DefaultStyle is a 4px black stroke with no fill.
func DefaultStyle() Style {
	return Style{Stroke: "#000000", StrokeWidth: 4, Fill: scene.Transparent}
}

// completionBuffer bounds how many finished async results may wait for the
// owner before workers block.
const completionBuffer = 32

// Engine is the canvas interaction engine. It owns the scene history, the
// selection, the viewport and the in-progress gesture.
//
// Engine is not safe for concurrent use. All methods must be called from one
// goroutine (the owner's event loop). Asynchronous work posts a completion
// that the owner applies with Apply, Drain or Await.
type Engine struct {
	history   *History
	selection Selection
	viewport  Viewport
	tool      Tool
	style     Style

	snapThreshold float64

	active  *interaction
	guides  []Guide
	marquee *scene.Rect
	crop    *CropState

	errMsg string

	loader    raster.Loader
	generator Generator
	logger    *slog.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	completions chan func(*Engine)
	deferred    []func(*Engine)
	pending     int
	generating  int

	version uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLoader sets how image sources are fetched for crop and generation.
func WithLoader(l raster.Loader) Option {
	return func(e *Engine) { e.loader = l }
}

// WithGenerator enables RequestGeneration.
func WithGenerator(g Generator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithLogger sets the logger for warnings from failed actions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSnapThreshold sets the snap distance in screen pixels.
func WithSnapThreshold(px float64) Option {
	return func(e *Engine) { e.snapThreshold = px }
}

// WithContext parents the context handed to asynchronous work.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) { e.ctx = ctx }
}

// NewEngine creates an engine whose history starts at a copy of initial.
func NewEngine(initial scene.Scene, opts ...Option) (*Engine, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("initial scene: %w", err)
	}
	e := &Engine{
		history:       NewHistory(initial),
		viewport:      NewViewport(),
		tool:          ToolSelect,
		style:         DefaultStyle(),
		snapThreshold: DefaultSnapThreshold,
		loader:        raster.DataURILoader{},
		logger:        slog.Default(),
		ctx:           context.Background(),
		completions:   make(chan func(*Engine), completionBuffer),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ctx, e.cancel = context.WithCancel(e.ctx)
	return e, nil
}

// Close cancels outstanding asynchronous work. Completions that have not been
// applied are dropped.
func (e *Engine) Close() {
	e.cancel()
}

// --- State ---

// Scene returns the current scene. It must not be modified.
func (e *Engine) Scene() scene.Scene { return e.history.Current() }

// History exposes the undo stack for inspection.
func (e *Engine) History() *History { return e.history }

// Version increases every time the current scene changes.
func (e *Engine) Version() uint64 { return e.version }

// Selection returns the selected ids in selection order.
func (e *Engine) Selection() []string { return e.selection.IDs() }

// Viewport returns the current pan and zoom.
func (e *Engine) Viewport() Viewport { return e.viewport }

// Tool returns the active tool.
func (e *Engine) Tool() Tool { return e.tool }

// Style returns the style given to new paths and shapes.
func (e *Engine) Style() Style { return e.style }

// Mode returns the active gesture mode.
func (e *Engine) Mode() (Mode, bool) {
	if e.active == nil {
		return Mode{}, false
	}
	return e.active.mode, true
}

// Guides returns the alignment guides of the current drag.
func (e *Engine) Guides() []Guide { return e.guides }

// Marquee returns the rubber-band rect of a box selection in progress.
func (e *Engine) Marquee() (scene.Rect, bool) {
	if e.marquee == nil {
		return scene.Rect{}, false
	}
	return *e.marquee, true
}

// Error returns the current user-visible error message, if any.
func (e *Engine) Error() string { return e.errMsg }

// ClearError dismisses the current error message.
func (e *Engine) ClearError() { e.errMsg = "" }

func (e *Engine) setError(err error) {
	e.errMsg = err.Error()
	e.logger.Warn("canvas action failed", "error", err)
}

// --- Settings ---

// SetTool selects the tool used by the next pointer press.
func (e *Engine) SetTool(t Tool) { e.tool = t }

// SetStyle sets the style for new elements. Missing fields take defaults.
func (e *Engine) SetStyle(s Style) {
	if s.StrokeWidth <= 0 {
		s.StrokeWidth = DefaultStyle().StrokeWidth
	}
	if s.Fill == "" {
		s.Fill = scene.Transparent
	}
	e.style = s
}

// SetViewport places the viewport on screen.
func (e *Engine) SetViewport(originX, originY, width, height float64) {
	e.viewport.Origin = scene.Point{X: originX, Y: originY}
	e.viewport.Width = width
	e.viewport.Height = height
}

// Wheel zooms one notch around the cursor.
func (e *Engine) Wheel(screenX, screenY, deltaY float64) {
	e.viewport.Wheel(screenX, screenY, deltaY)
}

// ZoomAt zooms by factor around a screen point.
func (e *Engine) ZoomAt(screenX, screenY, factor float64) {
	e.viewport.ZoomAt(screenX, screenY, factor)
}

// ContextMenu reports whether the canvas suppresses the native context menu.
func (e *Engine) ContextMenu() bool { return true }

// --- History ---

func (e *Engine) commit(update func(scene.Scene) scene.Scene) {
	e.history.Mutate(update, true)
	e.version++
}

func (e *Engine) transient(update func(scene.Scene) scene.Scene) {
	e.history.Update(update)
	e.version++
}

// Undo steps back one history entry. It is ignored during a gesture.
func (e *Engine) Undo() bool {
	if e.active != nil || !e.history.Undo() {
		return false
	}
	e.afterHistoryMove()
	return true
}

// Redo steps forward one history entry. It is ignored during a gesture.
func (e *Engine) Redo() bool {
	if e.active != nil || !e.history.Redo() {
		return false
	}
	e.afterHistoryMove()
	return true
}

func (e *Engine) afterHistoryMove() {
	e.version++
	sc := e.history.Current()
	e.selection.Prune(sc)
	if e.crop != nil && sc.IndexOf(e.crop.ElementID) < 0 {
		e.crop = nil
	}
}

// --- Selection & layering ---

// SetSelection replaces the selection, ignoring ids not in the scene.
func (e *Engine) SetSelection(ids []string) {
	e.selection.Set(ids...)
	e.selection.Prune(e.Scene())
}

// SelectAll selects every element in the scene.
func (e *Engine) SelectAll() {
	e.selection.Set(e.Scene().IDs()...)
}

// DeleteSelected removes every selected element in one commit and clears the
// selection.
func (e *Engine) DeleteSelected() bool {
	if e.active != nil || e.selection.Len() == 0 {
		return false
	}
	drop := make(map[string]bool, e.selection.Len())
	for _, id := range e.selection.IDs() {
		drop[id] = true
	}
	e.commit(func(sc scene.Scene) scene.Scene { return sc.Without(drop) })
	e.selection.Clear()
	if e.crop != nil && drop[e.crop.ElementID] {
		e.crop = nil
	}
	return true
}

// Reorder moves one element in z-order. A move that changes nothing adds no
// history entry.
func (e *Engine) Reorder(id string, op LayerOp) bool {
	if e.active != nil {
		return false
	}
	return e.reorder(func(sc scene.Scene) scene.Scene { return Reorder(sc, id, op) })
}

// ReorderSelected moves every selected element, keeping their relative order.
func (e *Engine) ReorderSelected(op LayerOp) bool {
	if e.active != nil || e.selection.Len() == 0 {
		return false
	}
	ids := make([]string, 0, e.selection.Len())
	for _, el := range e.selection.Elements(e.Scene()) {
		ids = append(ids, el.ElementID())
	}
	// front and backward apply bottom-up, back and forward top-down.
	if op == LayerBack || op == LayerForward {
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
	}
	return e.reorder(func(sc scene.Scene) scene.Scene {
		for _, id := range ids {
			sc = Reorder(sc, id, op)
		}
		return sc
	})
}

func (e *Engine) reorder(update func(scene.Scene) scene.Scene) bool {
	before := e.Scene().IDs()
	after := update(e.Scene()).IDs()
	if equalIDs(before, after) {
		return false
	}
	e.commit(update)
	return true
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Keyboard ---

// KeyEvent is a key press on the canvas.
type KeyEvent struct {
	Key         string `json:"key"`
	Ctrl        bool   `json:"ctrl"`
	Meta        bool   `json:"meta"`
	Shift       bool   `json:"shift"`
	Alt         bool   `json:"alt"`
	InTextInput bool   `json:"inTextInput"`
}

// KeyDown handles editor shortcuts. It reports whether the key was consumed.
// Nothing is handled while focus is in a text input.
func (e *Engine) KeyDown(ev KeyEvent) bool {
	if ev.InTextInput {
		return false
	}
	mod := ev.Ctrl || ev.Meta
	switch key := strings.ToLower(ev.Key); {
	case mod && key == "z" && ev.Shift, mod && key == "y":
		e.Redo()
		return true
	case mod && key == "z":
		e.Undo()
		return true
	case mod && key == "a":
		e.SelectAll()
		return true
	case key == "delete" || key == "backspace":
		return e.DeleteSelected()
	case key == "escape":
		switch {
		case e.active != nil:
			e.cancelGesture()
		case e.crop != nil:
			e.CancelCrop()
		default:
			e.selection.Clear()
		}
		return true
	case key == "enter":
		if e.crop == nil {
			return false
		}
		if err := e.ConfirmCrop(); err != nil {
			e.setError(err)
		}
		return true
	}
	return false
}

// --- Async completions ---

// spawn runs work on a new goroutine and posts the completion it returns.
func (e *Engine) spawn(work func(ctx context.Context) func(*Engine)) {
	e.pending++
	ctx := e.ctx
	go func() {
		done := work(ctx)
		select {
		case e.completions <- done:
		case <-ctx.Done():
		}
	}()
}

// Completions delivers finished asynchronous work. The owner passes each
// value to Apply on its event loop.
func (e *Engine) Completions() <-chan func(*Engine) { return e.completions }

// Pending returns how many asynchronous operations have not completed.
func (e *Engine) Pending() int { return e.pending }

// Apply runs one completion. Completions that arrive during a gesture run
// when the gesture ends.
func (e *Engine) Apply(done func(*Engine)) {
	e.pending--
	if e.active != nil {
		e.deferred = append(e.deferred, done)
		return
	}
	done(e)
}

// Drain applies every completion already available without blocking and
// returns how many were applied.
func (e *Engine) Drain() int {
	n := 0
	for {
		select {
		case done := <-e.completions:
			e.Apply(done)
			n++
		default:
			return n
		}
	}
}

// Await applies completions until none are pending or ctx ends.
func (e *Engine) Await(ctx context.Context) error {
	for e.pending > 0 {
		select {
		case done := <-e.completions:
			e.Apply(done)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (e *Engine) runDeferred() {
	deferred := e.deferred
	e.deferred = nil
	for _, done := range deferred {
		done(e)
	}
}
