package editor

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/gridforge/internal/history"
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/store"
	"github.com/gridforge/gridforge/internal/typeid"
)

// transformEps is the tolerance below which a transform edit counts as
// a no-op and is filtered from the command log.
const transformEps = 1e-9

// duplicateOffset shifts duplicated objects so they do not overlap the
// originals exactly.
var duplicateOffset = mgl64.Vec3{0.5, 0, 0.5}

// AddMesh places a new instance of a stored asset and selects it. The
// object id is generated here and never reused.
func (e *Editor) AddMesh(ctx context.Context, assetName string, at scene.Transform) (scene.PlacedObject, error) {
	e.mu.Lock()

	if !e.hasAssetLocked(assetName) {
		e.mu.Unlock()
		return scene.PlacedObject{}, fmt.Errorf("add mesh %q: %w", assetName, ErrAssetNotFound)
	}

	obj := scene.PlacedObject{
		ID:        typeid.NewObjectID(),
		Name:      e.store.UniqueName(assetName),
		Kind:      scene.KindMesh,
		AssetRef:  assetName,
		Transform: at.Clamped(),
		Visible:   true,
	}

	if err := e.visuals.InstantiateMesh(ctx, obj.ID, obj.AssetRef); err != nil {
		e.mu.Unlock()
		return scene.PlacedObject{}, fmt.Errorf("instantiate %q: %w", assetName, err)
	}
	e.visuals.SetTransform(obj.ID, obj.Transform)

	if err := e.store.Add(obj); err != nil {
		e.visuals.DisposeVisual(obj.ID)
		e.mu.Unlock()
		return scene.PlacedObject{}, err
	}

	e.log.Push(history.Action{Kind: history.KindAdd, Objects: []scene.PlacedObject{obj.Clone()}})
	e.sel.SelectByIDs([]string{obj.ID})
	e.mu.Unlock()

	e.notify(true, true, true)
	return obj, nil
}

// AddLight places a new light and selects it.
func (e *Editor) AddLight(ctx context.Context, kind scene.LightKind, at scene.Transform, params scene.LightParams) (scene.PlacedObject, error) {
	e.mu.Lock()

	base := lightBaseName(kind)
	obj := scene.PlacedObject{
		ID:        typeid.NewObjectID(),
		Name:      e.store.UniqueName(base),
		Kind:      scene.KindLight,
		LightKind: kind,
		Transform: at.Clamped(),
		Visible:   true,
		Light:     &params,
	}

	if err := e.visuals.InstantiateLight(ctx, obj.ID, kind); err != nil {
		e.mu.Unlock()
		return scene.PlacedObject{}, fmt.Errorf("instantiate %s light: %w", kind, err)
	}
	e.visuals.SetTransform(obj.ID, obj.Transform)

	if err := e.store.Add(obj); err != nil {
		e.visuals.DisposeVisual(obj.ID)
		e.mu.Unlock()
		return scene.PlacedObject{}, err
	}

	e.log.Push(history.Action{Kind: history.KindAdd, Objects: []scene.PlacedObject{obj.Clone()}})
	e.sel.SelectByIDs([]string{obj.ID})
	e.mu.Unlock()

	e.notify(true, true, true)
	return obj, nil
}

func lightBaseName(kind scene.LightKind) string {
	switch kind {
	case scene.LightDirectional:
		return "directionalLight"
	case scene.LightHemispheric:
		return "hemisphericLight"
	default:
		return "pointLight"
	}
}

// DuplicateSelected clones every selected object with fresh ids and
// names, offset on X/Z, batches the clones into one add action, and
// selects them.
func (e *Editor) DuplicateSelected(ctx context.Context) ([]scene.PlacedObject, error) {
	e.mu.Lock()

	var clones []scene.PlacedObject
	for _, id := range e.sel.IDs() {
		src, ok := e.store.Get(id)
		if !ok {
			continue
		}
		clone := src.Clone()
		clone.ID = typeid.NewObjectID()
		clone.Locked = false
		if src.Kind == scene.KindMesh {
			clone.Name = e.store.UniqueName(src.AssetRef)
		} else {
			clone.Name = e.store.UniqueName(lightBaseName(src.LightKind))
		}
		clone.Transform.Position = clone.Transform.Position.Add(duplicateOffset)

		var err error
		switch clone.Kind {
		case scene.KindMesh:
			err = e.visuals.InstantiateMesh(ctx, clone.ID, clone.AssetRef)
		case scene.KindLight:
			err = e.visuals.InstantiateLight(ctx, clone.ID, clone.LightKind)
		}
		if err != nil {
			for _, c := range clones {
				e.discardObjectLocked(c.ID)
			}
			e.mu.Unlock()
			return nil, fmt.Errorf("duplicate %q: %w", src.Name, err)
		}
		e.visuals.SetTransform(clone.ID, clone.Transform)

		if err := e.store.Add(clone); err != nil {
			e.visuals.DisposeVisual(clone.ID)
			for _, c := range clones {
				e.discardObjectLocked(c.ID)
			}
			e.mu.Unlock()
			return nil, err
		}
		clones = append(clones, clone)
	}

	if len(clones) == 0 {
		e.mu.Unlock()
		return nil, nil
	}

	snapshots := make([]scene.PlacedObject, len(clones))
	ids := make([]string, len(clones))
	for i, c := range clones {
		snapshots[i] = c.Clone()
		ids[i] = c.ID
	}
	e.log.Push(history.Action{Kind: history.KindAdd, Objects: snapshots})
	e.sel.SelectByIDs(ids)
	e.mu.Unlock()

	e.notify(true, true, true)
	return clones, nil
}

// DeleteSelected removes the unlocked selected objects, purging them
// from groups in the same operation so no group ever references a dead
// id. Locked objects stay placed and selected.
func (e *Editor) DeleteSelected() []string {
	e.mu.Lock()

	var removed []scene.PlacedObject
	var removedIDs []string
	for _, id := range e.sel.IDs() {
		obj, ok := e.store.Get(id)
		if !ok || obj.Locked {
			continue
		}
		final, _ := e.store.Remove(id)
		removed = append(removed, final)
		removedIDs = append(removedIDs, id)
		e.visuals.DisposeVisual(id)
	}

	if len(removed) == 0 {
		e.mu.Unlock()
		return nil
	}

	e.sel.PurgeObjects(removedIDs...)
	e.sel.Drop(removedIDs...)
	e.log.Push(history.Action{Kind: history.KindDelete, Objects: removed})
	e.mu.Unlock()

	e.notify(true, true, true)
	return removedIDs
}

// CommitTransform records the end of a drag or numeric edit: the UI has
// already moved the live visuals, this writes the results to the store
// and logs one transform action. The logged before-state is always the
// store's current transform, never a caller-supplied value: another
// client may have edited the object since the caller captured it, and
// undo must land on a state the store actually held. Locked objects and
// no-op changes are filtered; an all-no-op commit leaves the history
// untouched.
func (e *Editor) CommitTransform(changes []history.TransformChange) {
	e.mu.Lock()

	var applied []history.TransformChange
	for _, tc := range changes {
		obj, ok := e.store.Get(tc.ID)
		if !ok || obj.Locked {
			continue
		}
		tc.Old = obj.Transform
		tc.New = tc.New.Clamped()
		if tc.Old.Equals(tc.New, transformEps) {
			continue
		}
		e.store.WriteTransform(tc.ID, tc.New)
		e.visuals.SetTransform(tc.ID, tc.New)
		applied = append(applied, tc)
	}

	if len(applied) == 0 {
		e.mu.Unlock()
		return
	}

	e.log.Push(history.Action{Kind: history.KindTransform, Transforms: applied})
	e.mu.Unlock()

	e.notify(true, false, true)
}

// SetVisibility toggles visibility on the given objects. Logged.
func (e *Editor) SetVisibility(ids []string, visible bool) {
	e.setPropertyLogged(ids, store.PropVisible, visible)
}

// SetColor overwrites the display color on the given objects. Logged.
func (e *Editor) SetColor(ids []string, color string) {
	e.setPropertyLogged(ids, store.PropColor, color)
}

// SetLightProperty overwrites one light parameter. Logged.
func (e *Editor) SetLightProperty(id string, key store.PropertyKey, value interface{}) {
	e.setPropertyLogged([]string{id}, key, value)
}

// Rename changes an object's display name. Renames are deliberate
// metadata edits, not undoable.
func (e *Editor) Rename(id, name string) {
	e.mu.Lock()
	changed := e.store.WriteProperty(id, store.PropName, name)
	e.mu.Unlock()
	if changed {
		e.notify(true, false, false)
	}
}

// SetLocked toggles the lock flag. Lock state guards other operations
// rather than being an edit itself, so it is not undoable.
func (e *Editor) SetLocked(ids []string, locked bool) {
	e.mu.Lock()
	changed := false
	for _, id := range ids {
		if e.store.WriteProperty(id, store.PropLocked, locked) {
			changed = true
		}
	}
	e.mu.Unlock()
	if changed {
		e.notify(true, false, false)
	}
}

func (e *Editor) setPropertyLogged(ids []string, key store.PropertyKey, value interface{}) {
	e.mu.Lock()

	var changes []history.PropertyChange
	for _, id := range ids {
		old, ok := e.store.Property(id, key)
		if !ok || old == value {
			continue
		}
		if e.store.WriteProperty(id, key, value) {
			changes = append(changes, history.PropertyChange{ID: id, Key: key, Old: old, New: value})
		}
	}

	if len(changes) == 0 {
		e.mu.Unlock()
		return
	}

	e.log.Push(history.Action{Kind: history.KindProperty, Properties: changes})
	e.mu.Unlock()

	e.notify(true, false, true)
}

func (e *Editor) hasAssetLocked(name string) bool {
	for _, a := range e.assetStore {
		if a.Name == name {
			return true
		}
	}
	return false
}
