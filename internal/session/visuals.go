package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gridforge/gridforge/internal/editor"
	"github.com/gridforge/gridforge/internal/geom"
	"github.com/gridforge/gridforge/internal/scene"
)

// remoteVisuals implements editor.VisualLayer for a room. The actual
// renderables live in each connected browser: instantiate/dispose/move
// turn into broadcast messages, and world bounds come back from clients
// via bounds.report. Objects with no reported bounds yet fall back to
// the editor's position-point box.
type remoteVisuals struct {
	mu     sync.RWMutex
	bounds map[string]geom.Box3
	assets map[string]struct{}

	// set by the room after construction; sends to every client
	broadcast func(msg *Message)
}

func newRemoteVisuals() *remoteVisuals {
	return &remoteVisuals{
		bounds: make(map[string]geom.Box3),
		assets: make(map[string]struct{}),
	}
}

// SetAssets replaces the known asset names. The room refreshes this
// from the document's asset store before loads and registrations, so
// restores can fail fast on dangling references without consulting the
// editor (which holds its own lock while calling in here).
func (rv *remoteVisuals) SetAssets(entries []scene.AssetEntry) {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	rv.assets = make(map[string]struct{}, len(entries))
	for _, e := range entries {
		rv.assets[e.Name] = struct{}{}
	}
}

func (rv *remoteVisuals) UpdateBounds(reported map[string]geom.Box3) {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	for id, b := range reported {
		rv.bounds[id] = b
	}
}

func (rv *remoteVisuals) InstantiateMesh(ctx context.Context, id, assetRef string) error {
	rv.mu.RLock()
	_, ok := rv.assets[assetRef]
	rv.mu.RUnlock()
	if !ok {
		return editor.ErrAssetNotFound
	}

	payload, _ := json.Marshal(VisualCreatePayload{ObjectID: id, Asset: assetRef})
	rv.broadcast(&Message{Type: TypeVisualCreate, Payload: payload})
	return nil
}

func (rv *remoteVisuals) InstantiateLight(ctx context.Context, id string, kind scene.LightKind) error {
	payload, _ := json.Marshal(VisualCreatePayload{ObjectID: id, LightKind: kind})
	rv.broadcast(&Message{Type: TypeVisualCreate, Payload: payload})
	return nil
}

func (rv *remoteVisuals) DisposeVisual(id string) {
	rv.mu.Lock()
	delete(rv.bounds, id)
	rv.mu.Unlock()

	payload, _ := json.Marshal(VisualDisposePayload{ObjectID: id})
	rv.broadcast(&Message{Type: TypeVisualDispose, Payload: payload})
}

func (rv *remoteVisuals) WorldBounds(id string) (geom.Box3, bool) {
	rv.mu.RLock()
	defer rv.mu.RUnlock()
	b, ok := rv.bounds[id]
	return b, ok
}

func (rv *remoteVisuals) SetTransform(id string, t scene.Transform) {
	payload, _ := json.Marshal(VisualTransformPayload{ObjectID: id, Transform: t})
	rv.broadcast(&Message{Type: TypeVisualTransform, Payload: payload})
}
