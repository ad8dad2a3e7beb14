package engine

import "github.com/inamate/inamate/canvas-go/internal/scene"

// History is a linear undo/redo stack of full scene snapshots.
//
// Every entry is a complete scene; entries[index] is always the scene being
// rendered. Committed mutations append a new entry (dropping any redo tail),
// transient mutations replace entries[index] in place.
//
// Continuous gestures use Begin/Update/End: Begin remembers the scene at the
// gesture start, Update applies transient frames, and End turns the whole
// gesture into exactly one new entry while the entry below it still holds the
// untouched pre-gesture scene.
type History struct {
	entries []scene.Scene
	index   int

	gesture *gestureState
}

type gestureState struct {
	base  scene.Scene // scene at Begin, restored below the committed entry
	dirty bool
}

// NewHistory creates a history whose single entry is a copy of initial.
func NewHistory(initial scene.Scene) *History {
	return &History{entries: []scene.Scene{initial.Clone()}}
}

// Current returns the scene at the current index. Callers must treat it as
// read-only; all changes go through Mutate or a gesture.
func (h *History) Current() scene.Scene {
	return h.entries[h.index]
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Index returns the current position.
func (h *History) Index() int { return h.index }

func (h *History) CanUndo() bool { return h.index > 0 }
func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }

// Mutate applies update to a copy of the current scene. With commit set the
// result becomes a new entry; otherwise it replaces the current entry. Inside
// a gesture a non-committing Mutate is a gesture Update.
func (h *History) Mutate(update func(scene.Scene) scene.Scene, commit bool) {
	if !commit {
		h.replace(update)
		if h.gesture != nil {
			h.gesture.dirty = true
		}
		return
	}
	if h.gesture != nil {
		h.replace(update)
		h.gesture.dirty = true
		h.End()
		return
	}
	next := update(h.Current().Clone())
	h.push(next)
}

// Begin starts a gesture. A gesture already in progress is ended first.
func (h *History) Begin() {
	if h.gesture != nil {
		h.End()
	}
	h.gesture = &gestureState{base: h.Current().Clone()}
}

// InGesture reports whether Begin has been called without End or Cancel.
func (h *History) InGesture() bool { return h.gesture != nil }

// Update applies a transient frame of the current gesture. Outside a gesture
// it behaves like a non-committing Mutate.
func (h *History) Update(update func(scene.Scene) scene.Scene) {
	h.Mutate(update, false)
}

// End commits the gesture as a single entry. A gesture that never changed the
// scene leaves history untouched. It reports whether an entry was added.
func (h *History) End() bool {
	g := h.gesture
	if g == nil {
		return false
	}
	h.gesture = nil
	if !g.dirty {
		return false
	}
	final := h.entries[h.index]
	h.entries[h.index] = g.base
	h.push(final)
	return true
}

// Cancel abandons the gesture and restores the pre-gesture scene.
func (h *History) Cancel() {
	g := h.gesture
	if g == nil {
		return
	}
	h.gesture = nil
	h.entries[h.index] = g.base
}

// Undo moves back one entry. It is a no-op at the first entry.
func (h *History) Undo() bool {
	if h.gesture != nil || h.index == 0 {
		return false
	}
	h.index--
	return true
}

// Redo moves forward one entry. It is a no-op at the last entry.
func (h *History) Redo() bool {
	if h.gesture != nil || h.index == len(h.entries)-1 {
		return false
	}
	h.index++
	return true
}

func (h *History) replace(update func(scene.Scene) scene.Scene) {
	h.entries[h.index] = update(h.Current().Clone())
}

func (h *History) push(next scene.Scene) {
	h.entries = append(h.entries[:h.index+1], next)
	h.index = len(h.entries) - 1
}
