// Package editor hosts the operation orchestrators: every user-level
// edit mutates the store, keeps selection and groups consistent, and
// emits exactly one action onto the command log.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gridforge/gridforge/internal/geom"
	"github.com/gridforge/gridforge/internal/history"
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/selection"
	"github.com/gridforge/gridforge/internal/snap"
	"github.com/gridforge/gridforge/internal/store"
)

// ErrAssetNotFound is returned by visual layers when an asset reference
// cannot be resolved. During document load and undo replay such objects
// are skipped with a warning instead of failing the whole operation.
var ErrAssetNotFound = errors.New("asset not found")

// VisualLayer is the rendering collaborator in the browser. Visuals are
// derived, disposable state addressed by object id: the editor requests
// creation and disposal but never owns the visual's lifetime.
type VisualLayer interface {
	// InstantiateMesh creates the visual for a mesh object. It blocks
	// until the browser confirms creation or ctx is done, and returns
	// ErrAssetNotFound when the asset reference does not resolve.
	InstantiateMesh(ctx context.Context, id, assetRef string) error
	// InstantiateLight creates the visual for a light object.
	InstantiateLight(ctx context.Context, id string, kind scene.LightKind) error
	// DisposeVisual destroys the visual for an object id, if present.
	DisposeVisual(id string)
	// WorldBounds returns the object's world-space AABB, when the
	// visual exposes pickable bounds.
	WorldBounds(id string) (geom.Box3, bool)
	// SetTransform applies a transform to the live visual.
	SetTransform(id string, t scene.Transform)
}

// Options tunes an editor instance.
type Options struct {
	SnapThreshold float64 // zero selects snap.DefaultThreshold
	GridSize      float64 // zero selects snap.DefaultGridSize
	HistoryLimit  int     // zero selects history.DefaultLimit
}

// Editor is the facade over the scene state subsystem. All methods are
// safe for concurrent use: a single mutex makes every store + command
// log mutation pair atomic, which undo/redo correctness depends on.
type Editor struct {
	mu      sync.Mutex
	store   *store.Store
	log     *history.Log
	sel     *selection.Manager
	visuals VisualLayer

	mapName      string
	version      int
	assetStore   []scene.AssetEntry
	historyLimit int

	snapThreshold float64
	gridSize      float64
	snapEnabled   bool
	gridEnabled   bool

	// Change notifications, fired after the triggering mutation
	// completes and without the editor lock held. Consumers re-read
	// full state; these are not incremental diffs.
	OnListChange      func()
	OnSelectionChange func([]scene.PlacedObject)
	OnHistoryChange   func()
}

// New creates an editor over an empty map.
func New(visuals VisualLayer, opts Options) *Editor {
	threshold := opts.SnapThreshold
	if threshold <= 0 {
		threshold = snap.DefaultThreshold
	}
	grid := opts.GridSize
	if grid <= 0 {
		grid = snap.DefaultGridSize
	}
	return &Editor{
		store:         store.New(),
		log:           history.NewLog(opts.HistoryLimit),
		sel:           selection.NewManager(),
		visuals:       visuals,
		mapName:       "untitled",
		version:       1,
		assetStore:    []scene.AssetEntry{},
		historyLimit:  opts.HistoryLimit,
		snapThreshold: threshold,
		gridSize:      grid,
		snapEnabled:   true,
	}
}

// --- undo/redo ---

// Undo reverts the action under the history cursor and re-selects the
// objects it touched (only those that still exist afterward).
func (e *Editor) Undo(ctx context.Context) error {
	e.mu.Lock()
	ids, ok, err := e.log.Undo(ctx, applier{e: e})
	if ok {
		e.sel.SelectByIDs(e.existingLocked(ids))
	}
	e.mu.Unlock()

	if ok {
		e.notify(true, true, true)
	}
	return err
}

// Redo re-applies the next undone action and re-selects its objects.
func (e *Editor) Redo(ctx context.Context) error {
	e.mu.Lock()
	ids, ok, err := e.log.Redo(ctx, applier{e: e})
	if ok {
		e.sel.SelectByIDs(e.existingLocked(ids))
	}
	e.mu.Unlock()

	if ok {
		e.notify(true, true, true)
	}
	return err
}

// CanUndo reports whether the history has an undoable action.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.CanUndo()
}

// CanRedo reports whether the history has a redoable action.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.CanRedo()
}

// HistoryLen returns the number of retained actions.
func (e *Editor) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Len()
}

// HistoryIndex returns the history cursor (-1 when nothing to undo).
func (e *Editor) HistoryIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Index()
}

// applier replays history actions through the store primitives. Replay
// never pushes new log entries.
type applier struct {
	e *Editor
}

func (a applier) RestoreObject(ctx context.Context, obj scene.PlacedObject) error {
	return a.e.restoreObjectLocked(ctx, obj)
}

func (a applier) DiscardObject(id string) {
	a.e.discardObjectLocked(id)
}

func (a applier) WriteTransform(id string, t scene.Transform) {
	if a.e.store.WriteTransform(id, t) {
		a.e.visuals.SetTransform(id, t)
	}
}

func (a applier) WriteProperty(id string, key store.PropertyKey, value interface{}) {
	a.e.store.WriteProperty(id, key, value)
}

// restoreObjectLocked re-creates an object (delete-undo, add-redo,
// document load). Missing assets skip the single object with a warning.
// The editor mutex is held across the instantiation await, so no
// clear or load can interleave with a restore in flight.
func (e *Editor) restoreObjectLocked(ctx context.Context, obj scene.PlacedObject) error {
	var err error
	switch obj.Kind {
	case scene.KindMesh:
		err = e.visuals.InstantiateMesh(ctx, obj.ID, obj.AssetRef)
	case scene.KindLight:
		err = e.visuals.InstantiateLight(ctx, obj.ID, obj.LightKind)
	}
	if errors.Is(err, ErrAssetNotFound) {
		slog.Warn("skipping object, asset missing", "object", obj.ID, "asset", obj.AssetRef)
		return nil
	}
	if err != nil {
		return err
	}

	e.visuals.SetTransform(obj.ID, obj.Transform)
	return e.store.Add(obj)
}

// discardObjectLocked removes an object and keeps selection and groups
// consistent with the removal.
func (e *Editor) discardObjectLocked(id string) {
	if _, ok := e.store.Remove(id); !ok {
		return
	}
	e.visuals.DisposeVisual(id)
	e.sel.Drop(id)
	e.sel.PurgeObjects(id)
}

// worldBoundsLocked resolves an object's world AABB, falling back to a
// clamped point box at its position when the visual has no bounds.
func (e *Editor) worldBoundsLocked(id string) (geom.Box3, bool) {
	if b, ok := e.visuals.WorldBounds(id); ok {
		return b.Clamped(), true
	}
	obj, ok := e.store.Get(id)
	if !ok {
		return geom.Box3{}, false
	}
	p := obj.Transform.Position
	return geom.Box3{Min: p, Max: p}.Clamped(), true
}

func (e *Editor) existingLocked(ids []string) []string {
	out := ids[:0]
	for _, id := range ids {
		if e.store.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

func (e *Editor) notify(list, sel, hist bool) {
	if list && e.OnListChange != nil {
		e.OnListChange()
	}
	if sel && e.OnSelectionChange != nil {
		e.OnSelectionChange(e.SelectedObjects())
	}
	if hist && e.OnHistoryChange != nil {
		e.OnHistoryChange()
	}
}
