package scene

import (
	"encoding/json"
	"fmt"
)

// Scene is an ordered list of elements. Array order is z-order: later
// elements are drawn on top.
type Scene []Element

// Clone returns a deep copy of s.
func (s Scene) Clone() Scene {
	if s == nil {
		return Scene{}
	}
	out := make(Scene, len(s))
	for i, e := range s {
		out[i] = e.Clone()
	}
	return out
}

// IndexOf returns the position of the element with the given id, or -1.
func (s Scene) IndexOf(id string) int {
	for i, e := range s {
		if e.ElementID() == id {
			return i
		}
	}
	return -1
}

// Find returns the element with the given id.
func (s Scene) Find(id string) (Element, bool) {
	if i := s.IndexOf(id); i >= 0 {
		return s[i], true
	}
	return nil, false
}

// IDs returns the element ids in z-order.
func (s Scene) IDs() []string {
	ids := make([]string, len(s))
	for i, e := range s {
		ids[i] = e.ElementID()
	}
	return ids
}

// Without returns the elements of s whose ids are not in drop, preserving order.
func (s Scene) Without(drop map[string]bool) Scene {
	out := make(Scene, 0, len(s))
	for _, e := range s {
		if !drop[e.ElementID()] {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks the scene invariants: ids are non-empty and unique.
func (s Scene) Validate() error {
	seen := make(map[string]bool, len(s))
	for i, e := range s {
		id := e.ElementID()
		if id == "" {
			return fmt.Errorf("element %d has empty id", i)
		}
		if seen[id] {
			return fmt.Errorf("duplicate element id %q", id)
		}
		seen[id] = true
	}
	return nil
}

// envelope carries the variant discriminant next to the element fields.
type envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the scene as a list of {"type", "data"} envelopes.
func (s Scene) MarshalJSON() ([]byte, error) {
	out := make([]envelope, 0, len(s))
	for _, e := range s {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal element %s: %w", e.ElementID(), err)
		}
		out = append(out, envelope{Type: e.Kind(), Data: data})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the envelope list written by MarshalJSON.
func (s *Scene) UnmarshalJSON(data []byte) error {
	var raw []envelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Scene, 0, len(raw))
	for i, env := range raw {
		var el Element
		switch env.Type {
		case KindImage:
			el = &Image{}
		case KindPath:
			el = &Path{}
		case KindShape:
			el = &Shape{}
		default:
			return fmt.Errorf("element %d: unknown type %q", i, env.Type)
		}
		if err := json.Unmarshal(env.Data, el); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, el)
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*s = out
	return nil
}
