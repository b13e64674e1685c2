package editor

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/gridforge/internal/geom"
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/snap"
)

// SetPlacementAids toggles the two independent placement aids:
// feature-point snapping and grid quantization.
func (e *Editor) SetPlacementAids(snapEnabled, gridEnabled bool) {
	e.mu.Lock()
	e.snapEnabled = snapEnabled
	e.gridEnabled = gridEnabled
	e.mu.Unlock()
}

// PlacementAids reports the current aid toggles.
func (e *Editor) PlacementAids() (snapEnabled, gridEnabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapEnabled, e.gridEnabled
}

// SnapGhost computes the snap offset for a ghost placement or an
// in-progress drag: the mover's local bounds under its proposed
// transform against every other placed object. Ids in exclude (the
// dragged objects themselves) contribute no anchors. Returns false when
// snapping is disabled or nothing is within the threshold.
func (e *Editor) SnapGhost(localBounds geom.Box3, at scene.Transform, exclude ...string) (mgl64.Vec3, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.snapEnabled {
		return mgl64.Vec3{}, false
	}

	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	var anchors []snap.Anchor
	for _, obj := range e.store.All() {
		if skip[obj.ID] {
			continue
		}
		anchor := snap.Anchor{ID: obj.ID, Position: obj.Transform.Position}
		if b, ok := e.visuals.WorldBounds(obj.ID); ok {
			bb := b.Clamped()
			anchor.Bounds = &bb
		}
		anchors = append(anchors, anchor)
	}

	return snap.Offset(localBounds, at, anchors, snap.Options{Threshold: e.snapThreshold})
}

// QuantizePosition applies grid quantization to a proposed position
// when the grid aid is enabled.
func (e *Editor) QuantizePosition(pos mgl64.Vec3) mgl64.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gridEnabled {
		return pos
	}
	return snap.QuantizeXZ(pos, e.gridSize)
}
