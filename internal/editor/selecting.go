package editor

import (
	"github.com/gridforge/gridforge/internal/geom"
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/selection"
	"github.com/gridforge/gridforge/internal/typeid"
)

// Select handles a click on an object; additive toggles membership.
// Unknown ids no-op.
func (e *Editor) Select(id string, additive bool) {
	e.mu.Lock()
	if !e.store.Contains(id) {
		e.mu.Unlock()
		return
	}
	e.sel.Select(id, additive)
	e.mu.Unlock()

	e.notify(false, true, false)
}

// SelectByIDs replaces the selection with the given ordered ids,
// dropping any that do not exist.
func (e *Editor) SelectByIDs(ids []string) {
	e.mu.Lock()
	e.sel.SelectByIDs(e.existingLocked(append([]string(nil), ids...)))
	e.mu.Unlock()

	e.notify(false, true, false)
}

// ClearSelection empties the selection.
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	e.sel.Clear()
	e.mu.Unlock()

	e.notify(false, true, false)
}

// SelectionIDs returns the selected ids in click order.
func (e *Editor) SelectionIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.IDs()
}

// SelectedObjects returns copies of the selected objects in click order.
func (e *Editor) SelectedObjects() []scene.PlacedObject {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []scene.PlacedObject
	for _, id := range e.sel.IDs() {
		if obj, ok := e.store.Get(id); ok {
			out = append(out, obj)
		}
	}
	return out
}

// SelectionProxy returns the synthetic pivot for the current
// multi-selection, or nil when the selection has fewer than two
// objects or is entirely locked. The browser parents the selected
// visuals under this pivot for composite manipulation.
func (e *Editor) SelectionProxy() *selection.Proxy {
	e.mu.Lock()
	defer e.mu.Unlock()

	locked := func(id string) bool {
		obj, ok := e.store.Get(id)
		return !ok || obj.Locked
	}
	if !e.sel.Manipulable(locked) {
		return nil
	}
	return e.sel.Proxy(func(id string) (geom.Box3, bool) {
		return e.worldBoundsLocked(id)
	})
}

// SelectionManipulable reports whether a gizmo should attach at all:
// false when nothing is selected or every selected object is locked.
func (e *Editor) SelectionManipulable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.Manipulable(func(id string) bool {
		obj, ok := e.store.Get(id)
		return !ok || obj.Locked
	})
}

// CreateGroup groups the given objects under a fresh id, enforcing the
// at-most-one-group invariant, and selects the members.
func (e *Editor) CreateGroup(name string, ids []string) (scene.Group, bool) {
	e.mu.Lock()

	members := e.existingLocked(append([]string(nil), ids...))
	if len(members) == 0 {
		e.mu.Unlock()
		return scene.Group{}, false
	}
	g := e.sel.CreateGroup(typeid.NewGroupID(), name, members)
	e.sel.SelectByIDs(members)
	e.mu.Unlock()

	e.notify(true, true, false)
	return g, true
}

// DeleteGroup ungroups: the record is removed, member objects stay.
func (e *Editor) DeleteGroup(id string) {
	e.mu.Lock()
	deleted := e.sel.DeleteGroup(id)
	e.mu.Unlock()

	if deleted {
		e.notify(true, false, false)
	}
}

// SelectGroup selects every member of a group.
func (e *Editor) SelectGroup(id string) {
	e.mu.Lock()
	g, ok := e.sel.Group(id)
	if !ok {
		e.mu.Unlock()
		return
	}
	e.sel.SelectByIDs(g.ObjectIDs)
	e.mu.Unlock()

	e.notify(false, true, false)
}

// Groups returns all groups in creation order.
func (e *Editor) Groups() []scene.Group {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.Groups()
}

// GroupOf returns the id of the group containing the object, if any.
func (e *Editor) GroupOf(objectID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.GroupOf(objectID)
}
