// Package store holds the authoritative mapping of object id to
// placement data. Every other component reads and writes through it;
// the browser's visuals are derived state keyed by the same ids.
package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gridforge/gridforge/internal/scene"
)

// Store is the single source of truth for placed objects. It is not
// safe for concurrent use; callers serialize access (the editor holds
// a mutex around every operation that touches the store).
type Store struct {
	objects map[string]*scene.PlacedObject
	order   []string
}

// New creates an empty store.
func New() *Store {
	return &Store{objects: make(map[string]*scene.PlacedObject)}
}

// Add inserts a fully-formed object. A duplicate id is a programming
// error in the caller, never a user-visible condition.
func (s *Store) Add(obj scene.PlacedObject) error {
	if obj.ID == "" {
		return fmt.Errorf("add object: empty id")
	}
	if _, exists := s.objects[obj.ID]; exists {
		return fmt.Errorf("add object: id %q already exists", obj.ID)
	}
	obj.Transform = obj.Transform.Clamped()
	clone := obj.Clone()
	s.objects[obj.ID] = &clone
	s.order = append(s.order, obj.ID)
	return nil
}

// Remove deletes an object and returns its final state. Group cleanup
// is the orchestrator's job; the store knows nothing about groups.
func (s *Store) Remove(id string) (scene.PlacedObject, bool) {
	obj, ok := s.objects[id]
	if !ok {
		return scene.PlacedObject{}, false
	}
	delete(s.objects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return obj.Clone(), true
}

// Get returns a copy of the object.
func (s *Store) Get(id string) (scene.PlacedObject, bool) {
	obj, ok := s.objects[id]
	if !ok {
		return scene.PlacedObject{}, false
	}
	return obj.Clone(), true
}

// Contains reports whether the id is present.
func (s *Store) Contains(id string) bool {
	_, ok := s.objects[id]
	return ok
}

// Len returns the number of placed objects.
func (s *Store) Len() int {
	return len(s.order)
}

// WriteTransform overwrites an object's transform. It is the commit
// step: callers compute the geometry elsewhere and record the result
// here. Unknown ids no-op (the object may have been removed by an
// undo that raced the caller's event).
func (s *Store) WriteTransform(id string, t scene.Transform) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}
	obj.Transform = t.Clamped()
	return true
}

// All returns an insertion-ordered snapshot of every object.
func (s *Store) All() []scene.PlacedObject {
	out := make([]scene.PlacedObject, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.objects[id].Clone())
	}
	return out
}

// UniqueName derives a default object name for an asset: the asset name
// plus the highest numeric suffix among existing siblings, plus one.
func (s *Store) UniqueName(assetName string) string {
	prefix := assetName + "_"
	maxSuffix := 0
	for _, id := range s.order {
		name := s.objects[id].Name
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		n, err := strconv.Atoi(name[len(prefix):])
		if err != nil {
			continue
		}
		if n > maxSuffix {
			maxSuffix = n
		}
	}
	return fmt.Sprintf("%s_%d", assetName, maxSuffix+1)
}
