package engine

import (
	"maps"
	"slices"

	"github.com/inamate/nestboard/internal/document"
)

// NestedStore is the persistence map of nested canvases: nested canvas id
// to the scene saved the last time that canvas was closed.
type NestedStore struct {
	scenes map[string]document.SceneData
}

// NewNestedStore wraps scenes; a nil map starts empty.
func NewNestedStore(scenes map[string]document.SceneData) *NestedStore {
	if scenes == nil {
		scenes = make(map[string]document.SceneData)
	}
	return &NestedStore{scenes: scenes}
}

// Load returns the saved scene for id, or a fresh empty scene with the
// default camera if the id was never saved.
func (s *NestedStore) Load(id string) document.SceneData {
	if sd, ok := s.scenes[id]; ok {
		return sd.Clone()
	}
	return document.NewEmptyScene()
}

// Has reports whether id has saved data.
func (s *NestedStore) Has(id string) bool {
	_, ok := s.scenes[id]
	return ok
}

// Save stores a copy of sd under id. Canvases are stripped since nested
// canvases are one level deep.
func (s *NestedStore) Save(id string, sd document.SceneData) {
	sd = sd.Clone()
	sd.Canvases = nil
	s.scenes[id] = sd
}

// Ensure creates an empty entry for id if none exists.
func (s *NestedStore) Ensure(id string) {
	if !s.Has(id) {
		s.scenes[id] = document.NewEmptyScene()
	}
}

// Delete drops the saved data of id.
func (s *NestedStore) Delete(id string) {
	delete(s.scenes, id)
}

// Len returns the number of stored canvases.
func (s *NestedStore) Len() int { return len(s.scenes) }

// Snapshot returns a deep copy of the whole map.
func (s *NestedStore) Snapshot() map[string]document.SceneData {
	out := make(map[string]document.SceneData, len(s.scenes))
	for id, sd := range s.scenes {
		out[id] = sd.Clone()
	}
	return out
}

// IDs returns the stored ids, sorted.
func (s *NestedStore) IDs() []string {
	return slices.Sorted(maps.Keys(s.scenes))
}
