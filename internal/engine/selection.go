package engine

import (
	"fmt"

	"github.com/inamate/inamate/canvas-go/internal/scene"
)

// Selection is an insertion-ordered set of element ids.
type Selection struct {
	ids []string
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []string {
	return append([]string(nil), s.ids...)
}

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) Has(id string) bool {
	for _, sel := range s.ids {
		if sel == id {
			return true
		}
	}
	return false
}

// Set replaces the selection, dropping duplicates.
func (s *Selection) Set(ids ...string) {
	s.ids = s.ids[:0]
	for _, id := range ids {
		if !s.Has(id) {
			s.ids = append(s.ids, id)
		}
	}
}

// Toggle adds id if absent, removes it otherwise.
func (s *Selection) Toggle(id string) {
	if s.Has(id) {
		s.Remove(id)
		return
	}
	s.ids = append(s.ids, id)
}

func (s *Selection) Remove(id string) {
	out := s.ids[:0]
	for _, sel := range s.ids {
		if sel != id {
			out = append(out, sel)
		}
	}
	s.ids = out
}

func (s *Selection) Clear() { s.ids = s.ids[:0] }

// Prune drops ids no longer present in sc.
func (s *Selection) Prune(sc scene.Scene) {
	out := s.ids[:0]
	for _, id := range s.ids {
		if sc.IndexOf(id) >= 0 {
			out = append(out, id)
		}
	}
	s.ids = out
}

// Elements returns the selected elements of sc in z-order.
func (s *Selection) Elements(sc scene.Scene) []scene.Element {
	var out []scene.Element
	for _, e := range sc {
		if s.Has(e.ElementID()) {
			out = append(out, e)
		}
	}
	return out
}

// LayerOp is a z-order change.
type LayerOp string

const (
	LayerFront    LayerOp = "front"
	LayerBack     LayerOp = "back"
	LayerForward  LayerOp = "forward"
	LayerBackward LayerOp = "backward"
)

// ParseLayerOp validates a layer operation name.
func ParseLayerOp(s string) (LayerOp, error) {
	switch op := LayerOp(s); op {
	case LayerFront, LayerBack, LayerForward, LayerBackward:
		return op, nil
	}
	return "", fmt.Errorf("unknown layer op %q", s)
}

// Reorder removes the element with the given id and reinserts it according to
// op. An unknown id leaves the scene unchanged.
func Reorder(sc scene.Scene, id string, op LayerOp) scene.Scene {
	idx := sc.IndexOf(id)
	if idx < 0 {
		return sc
	}
	el := sc[idx]
	rest := make(scene.Scene, 0, len(sc))
	rest = append(rest, sc[:idx]...)
	rest = append(rest, sc[idx+1:]...)

	var at int
	switch op {
	case LayerFront:
		at = len(rest)
	case LayerBack:
		at = 0
	case LayerForward:
		at = min(len(rest), idx+1)
	case LayerBackward:
		at = max(0, idx-1)
	default:
		return sc
	}

	out := make(scene.Scene, 0, len(sc))
	out = append(out, rest[:at]...)
	out = append(out, el)
	out = append(out, rest[at:]...)
	return out
}

// MarqueeHits returns the ids of elements whose bounds overlap marquee, in
// z-order.
func MarqueeHits(sc scene.Scene, marquee scene.Rect) []string {
	var ids []string
	for _, e := range sc {
		if marquee.Intersects(scene.BoundsOf(e)) {
			ids = append(ids, e.ElementID())
		}
	}
	return ids
}
