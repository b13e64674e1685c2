// Package selection tracks the current multi-selection and the flat
// group relation over placed objects.
package selection

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/gridforge/internal/geom"
	"github.com/gridforge/gridforge/internal/scene"
)

// Manager owns the ordered selection (click order, used by the UI for
// shift-range semantics) and the named groups. Like the store it is
// serialized by the editor, not internally locked.
type Manager struct {
	ids        []string
	set        map[string]bool
	groups     map[string]*scene.Group
	groupOrder []string
}

// NewManager creates an empty selection manager.
func NewManager() *Manager {
	return &Manager{
		set:    make(map[string]bool),
		groups: make(map[string]*scene.Group),
	}
}

// Select handles a single click. Non-additive selects exclusively;
// additive toggles the id's membership.
func (m *Manager) Select(id string, additive bool) {
	if !additive {
		m.SelectByIDs([]string{id})
		return
	}
	if m.set[id] {
		m.remove(id)
		return
	}
	m.set[id] = true
	m.ids = append(m.ids, id)
}

// SelectByIDs replaces the selection with the given ordered set. Used
// for group clicks and undo/redo re-selection.
func (m *Manager) SelectByIDs(ids []string) {
	m.Clear()
	for _, id := range ids {
		if m.set[id] {
			continue
		}
		m.set[id] = true
		m.ids = append(m.ids, id)
	}
}

// Clear empties the selection.
func (m *Manager) Clear() {
	m.ids = m.ids[:0]
	m.set = make(map[string]bool)
}

// Contains reports selection membership.
func (m *Manager) Contains(id string) bool {
	return m.set[id]
}

// IDs returns the selection in click order.
func (m *Manager) IDs() []string {
	return append([]string(nil), m.ids...)
}

// Len returns the selection size.
func (m *Manager) Len() int {
	return len(m.ids)
}

// Drop removes ids from the selection (deleted objects must not linger
// selected).
func (m *Manager) Drop(ids ...string) {
	for _, id := range ids {
		m.remove(id)
	}
}

func (m *Manager) remove(id string) {
	if !m.set[id] {
		return
	}
	delete(m.set, id)
	for i, existing := range m.ids {
		if existing == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			return
		}
	}
}

// Proxy is the synthetic pivot transform for a multi-selection. The
// browser re-parents the selected visuals under it and attaches the
// manipulation gizmo to the pivot.
type Proxy struct {
	Pivot   mgl64.Vec3 `json:"pivot"`
	Bounds  geom.Box3  `json:"bounds"`
	Members []string   `json:"members"`
}

// Proxy synthesizes the selection proxy: the centroid of the union AABB
// across the selected objects' world bounds. It exists only when more
// than one object is selected; bounds resolves an object's world AABB
// and may report false for objects without one.
func (m *Manager) Proxy(bounds func(id string) (geom.Box3, bool)) *Proxy {
	if len(m.ids) < 2 {
		return nil
	}
	var union geom.Box3
	first := true
	for _, id := range m.ids {
		b, ok := bounds(id)
		if !ok {
			continue
		}
		if first {
			union = b
			first = false
		} else {
			union = union.Union(b)
		}
	}
	if first {
		return nil
	}
	return &Proxy{
		Pivot:   union.Center(),
		Bounds:  union,
		Members: m.IDs(),
	}
}

// Manipulable reports whether the selection may be transformed: it is
// non-empty and at least one selected object is unlocked.
func (m *Manager) Manipulable(locked func(id string) bool) bool {
	for _, id := range m.ids {
		if !locked(id) {
			return true
		}
	}
	return false
}
