package engine

import (
	"slices"
)

// Ref is a stable handle to an entity in a Scene. Handles are never reused
// within a scene, so removing one entity cannot change what another Ref
// points to.
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   uint64 `json:"id"`
}

// IsZero reports whether r is the zero handle.
func (r Ref) IsZero() bool { return r.ID == 0 }

// drawOrder is painter order (back to front) across containers; it is
// the reverse of hitOrder.
var drawOrder = [numKinds]Kind{KindPath, KindText, KindShape, KindNestedCanvas}

type slot struct {
	id uint64
	e  Entity
}

// Scene is the ordered, kind-partitioned entity store of one canvas.
// Within a kind, insertion order is draw order (later = on top).
type Scene struct {
	layers [numKinds][]slot
	nextID uint64
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) newSlot(e Entity) slot {
	s.nextID++
	return slot{id: s.nextID, e: e}
}

// Push appends e on top of its container.
func (s *Scene) Push(e Entity) Ref {
	k := e.Kind()
	sl := s.newSlot(e)
	s.layers[k] = append(s.layers[k], sl)
	return Ref{Kind: k, ID: sl.id}
}

// Insert places e at index within its container. Out-of-range indices are
// clamped to the container bounds.
func (s *Scene) Insert(index int, e Entity) Ref {
	k := e.Kind()
	index = max(0, min(index, len(s.layers[k])))
	sl := s.newSlot(e)
	s.layers[k] = slices.Insert(s.layers[k], index, sl)
	return Ref{Kind: k, ID: sl.id}
}

// Len returns the number of entities of kind k.
func (s *Scene) Len(k Kind) int {
	if k >= numKinds {
		return 0
	}
	return len(s.layers[k])
}

// Count returns the total number of entities.
func (s *Scene) Count() int {
	n := 0
	for k := range s.layers {
		n += len(s.layers[k])
	}
	return n
}

// IndexOf returns the position of r in its container, or -1.
func (s *Scene) IndexOf(r Ref) int {
	if r.Kind >= numKinds {
		return -1
	}
	for i, sl := range s.layers[r.Kind] {
		if sl.id == r.ID {
			return i
		}
	}
	return -1
}

// Get resolves a handle. Stale handles report false.
func (s *Scene) Get(r Ref) (Entity, bool) {
	i := s.IndexOf(r)
	if i < 0 {
		return nil, false
	}
	return s.layers[r.Kind][i].e, true
}

// At returns the entity at index i of kind k. Out-of-range is "not found".
func (s *Scene) At(k Kind, i int) (Entity, Ref, bool) {
	if k >= numKinds || i < 0 || i >= len(s.layers[k]) {
		return nil, Ref{}, false
	}
	sl := s.layers[k][i]
	return sl.e, Ref{Kind: k, ID: sl.id}, true
}

// Entities returns the entities of kind k in draw order.
func (s *Scene) Entities(k Kind) []Entity {
	if k >= numKinds {
		return nil
	}
	out := make([]Entity, len(s.layers[k]))
	for i, sl := range s.layers[k] {
		out[i] = sl.e
	}
	return out
}

// Refs returns the handles of kind k in draw order.
func (s *Scene) Refs(k Kind) []Ref {
	if k >= numKinds {
		return nil
	}
	out := make([]Ref, len(s.layers[k]))
	for i, sl := range s.layers[k] {
		out[i] = Ref{Kind: k, ID: sl.id}
	}
	return out
}

// Each visits every entity in painter order until fn returns false.
func (s *Scene) Each(fn func(Ref, Entity) bool) {
	for _, k := range drawOrder {
		for _, sl := range s.layers[k] {
			if !fn(Ref{Kind: k, ID: sl.id}, sl.e) {
				return
			}
		}
	}
}

// RemoveAt removes the entities of kind k at the given indices. Indices are
// applied highest-first so every index refers to the container as it was
// before the call; duplicates and out-of-range indices are ignored. The
// removed entities are returned in the order they were removed.
func (s *Scene) RemoveAt(k Kind, indices ...int) []Entity {
	if k >= numKinds {
		return nil
	}
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var removed []Entity
	for i := len(sorted) - 1; i >= 0; i-- {
		idx := sorted[i]
		if idx < 0 || idx >= len(s.layers[k]) {
			continue
		}
		removed = append(removed, s.layers[k][idx].e)
		s.layers[k] = slices.Delete(s.layers[k], idx, idx+1)
	}
	return removed
}

// Remove deletes the entities behind the given handles. Stale handles are
// skipped.
func (s *Scene) Remove(refs ...Ref) []Entity {
	byKind := make(map[Kind][]int)
	for _, r := range refs {
		if i := s.IndexOf(r); i >= 0 {
			byKind[r.Kind] = append(byKind[r.Kind], i)
		}
	}
	var removed []Entity
	for _, k := range hitOrder {
		removed = append(removed, s.RemoveAt(k, byKind[k]...)...)
	}
	return removed
}

// BringToFront moves r to the top of its container.
func (s *Scene) BringToFront(r Ref) bool {
	i := s.IndexOf(r)
	if i < 0 {
		return false
	}
	sl := s.layers[r.Kind][i]
	s.layers[r.Kind] = append(slices.Delete(s.layers[r.Kind], i, i+1), sl)
	return true
}

// SendToBack moves r to the bottom of its container.
func (s *Scene) SendToBack(r Ref) bool {
	i := s.IndexOf(r)
	if i < 0 {
		return false
	}
	sl := s.layers[r.Kind][i]
	s.layers[r.Kind] = slices.Insert(slices.Delete(s.layers[r.Kind], i, i+1), 0, sl)
	return true
}

// FindCanvas returns the nested canvas placeholder with the given id.
func (s *Scene) FindCanvas(id string) (Ref, *NestedCanvas, bool) {
	for _, sl := range s.layers[KindNestedCanvas] {
		if nc, ok := sl.e.(*NestedCanvas); ok && nc.ID == id {
			return Ref{Kind: KindNestedCanvas, ID: sl.id}, nc, true
		}
	}
	return Ref{}, nil, false
}
