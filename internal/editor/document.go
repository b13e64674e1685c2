package editor

import (
	"context"

	"github.com/gridforge/gridforge/internal/history"
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/selection"
	"github.com/gridforge/gridforge/internal/store"
)

// SaveDocument serializes the full map state into the durable document
// schema.
func (e *Editor) SaveDocument() *scene.MapDocument {
	e.mu.Lock()
	defer e.mu.Unlock()

	return &scene.MapDocument{
		Name:       e.mapName,
		Version:    e.version,
		AssetStore: append([]scene.AssetEntry(nil), e.assetStore...),
		Assets:     e.store.All(),
		Groups:     e.sel.Groups(),
	}
}

// LoadDocument replaces the whole map with a parsed document. Callers
// validate with scene.ParseDocument first; a document that fails to
// parse never reaches this point, so the current map is only torn down
// once the new one is structurally sound. Objects whose assets fail to
// resolve are skipped with a warning, and groups are restored only
// after their member objects exist, minus any skipped members.
func (e *Editor) LoadDocument(ctx context.Context, doc *scene.MapDocument) error {
	e.mu.Lock()

	e.clearLocked()

	e.mapName = doc.Name
	e.version = doc.Version
	e.assetStore = append([]scene.AssetEntry(nil), doc.AssetStore...)

	for _, obj := range doc.Assets {
		if err := e.restoreObjectLocked(ctx, obj.Clone()); err != nil {
			e.mu.Unlock()
			return err
		}
	}

	groups := make([]scene.Group, 0, len(doc.Groups))
	for _, g := range doc.Groups {
		kept := g.Clone()
		kept.ObjectIDs = kept.ObjectIDs[:0]
		for _, id := range g.ObjectIDs {
			if e.store.Contains(id) {
				kept.ObjectIDs = append(kept.ObjectIDs, id)
			}
		}
		if len(kept.ObjectIDs) > 0 {
			groups = append(groups, kept)
		}
	}
	e.sel.SetGroups(groups)
	e.mu.Unlock()

	e.notify(true, true, true)
	return nil
}

// Clear empties the map: objects, groups, selection, and history. The
// editor mutex serializes clears against restores, so a clear never
// interleaves with a restore in flight.
func (e *Editor) Clear() {
	e.mu.Lock()
	e.clearLocked()
	e.mu.Unlock()

	e.notify(true, true, true)
}

func (e *Editor) clearLocked() {
	for _, obj := range e.store.All() {
		e.visuals.DisposeVisual(obj.ID)
	}
	e.store = store.New()
	e.sel = selection.NewManager()
	e.log = history.NewLog(e.historyLimit)
}

// --- map metadata and asset store ---

// MapName returns the document name.
func (e *Editor) MapName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mapName
}

// SetMapName renames the document.
func (e *Editor) SetMapName(name string) {
	e.mu.Lock()
	e.mapName = name
	e.mu.Unlock()

	e.notify(true, false, false)
}

// Objects returns an insertion-ordered snapshot of all placed objects.
func (e *Editor) Objects() []scene.PlacedObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.All()
}

// Object returns a copy of one object.
func (e *Editor) Object(id string) (scene.PlacedObject, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(id)
}

// AssetStore lists the importable assets registered with this map.
func (e *Editor) AssetStore() []scene.AssetEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]scene.AssetEntry(nil), e.assetStore...)
}

// RegisterAsset adds or replaces an asset store entry by name.
func (e *Editor) RegisterAsset(entry scene.AssetEntry) {
	e.mu.Lock()
	replaced := false
	for i, a := range e.assetStore {
		if a.Name == entry.Name {
			e.assetStore[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		e.assetStore = append(e.assetStore, entry)
	}
	e.mu.Unlock()

	e.notify(true, false, false)
}
