package editor

import (
	"fmt"
	"math"
	"sort"

	"github.com/gridforge/gridforge/internal/geom"
	"github.com/gridforge/gridforge/internal/history"
	"github.com/gridforge/gridforge/internal/scene"
)

// Axis selects a world axis for alignment operations.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ParseAxis maps the wire form ("x"/"y"/"z") to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// AlignMode selects which group extent objects align to.
type AlignMode string

const (
	AlignMin    AlignMode = "min"
	AlignMax    AlignMode = "max"
	AlignCenter AlignMode = "center"
)

type alignEntry struct {
	obj    scene.PlacedObject
	bounds geom.Box3
}

// Align moves every unlocked selected object so its own extent on the
// axis matches the group extent picked by mode. All resulting changes
// batch into a single transform action; objects already within epsilon
// of the target are skipped so no-op entries never reach the log.
func (e *Editor) Align(axis Axis, mode AlignMode) {
	e.mu.Lock()

	entries := e.selectedEntriesLocked()
	if len(entries) < 2 {
		e.mu.Unlock()
		return
	}

	// Group extent across ALL selected objects, locked included.
	union := entries[0].bounds
	for _, en := range entries[1:] {
		union = union.Union(en.bounds)
	}
	target := extentValue(union, axis, mode)

	var changes []history.TransformChange
	for _, en := range entries {
		if en.obj.Locked {
			continue
		}
		delta := target - extentValue(en.bounds, axis, mode)
		if math.Abs(delta) < transformEps {
			continue
		}
		old := en.obj.Transform
		updated := old
		updated.Position[int(axis)] += delta
		e.store.WriteTransform(en.obj.ID, updated)
		e.visuals.SetTransform(en.obj.ID, updated)
		changes = append(changes, history.TransformChange{ID: en.obj.ID, Old: old, New: updated})
	}

	if len(changes) == 0 {
		e.mu.Unlock()
		return
	}

	e.log.Push(history.Action{Kind: history.KindTransform, Transforms: changes})
	e.mu.Unlock()

	e.notify(true, false, true)
}

// Distribute packs the selected objects edge-to-edge along the axis,
// sorted by their min extent. Without locked objects the first object
// anchors the run. Locked objects are never moved: the first one (in
// sorted order) becomes a fixed pivot packed away from in both
// directions, and further locked objects reset the packing edge.
func (e *Editor) Distribute(axis Axis) {
	e.mu.Lock()

	entries := e.selectedEntriesLocked()
	if len(entries) < 2 {
		e.mu.Unlock()
		return
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].bounds.Min[int(axis)] < entries[j].bounds.Min[int(axis)]
	})

	pivot := -1
	for i, en := range entries {
		if en.obj.Locked {
			pivot = i
			break
		}
	}

	var changes []history.TransformChange
	move := func(en alignEntry, delta float64) {
		if math.Abs(delta) < transformEps {
			return
		}
		old := en.obj.Transform
		updated := old
		updated.Position[int(axis)] += delta
		e.store.WriteTransform(en.obj.ID, updated)
		e.visuals.SetTransform(en.obj.ID, updated)
		changes = append(changes, history.TransformChange{ID: en.obj.ID, Old: old, New: updated})
	}

	ax := int(axis)
	if pivot < 0 {
		// No anchors: the first object stays, the rest pack forward.
		edge := entries[0].bounds.Max[ax]
		for _, en := range entries[1:] {
			size := en.bounds.Size()[ax]
			move(en, edge-en.bounds.Min[ax])
			edge += size
		}
	} else {
		// Pack backward from the pivot's min edge.
		edge := entries[pivot].bounds.Min[ax]
		for i := pivot - 1; i >= 0; i-- {
			en := entries[i]
			if en.obj.Locked {
				edge = en.bounds.Min[ax]
				continue
			}
			size := en.bounds.Size()[ax]
			move(en, edge-en.bounds.Max[ax])
			edge -= size
		}
		// Pack forward from the pivot's max edge.
		edge = entries[pivot].bounds.Max[ax]
		for i := pivot + 1; i < len(entries); i++ {
			en := entries[i]
			if en.obj.Locked {
				edge = en.bounds.Max[ax]
				continue
			}
			size := en.bounds.Size()[ax]
			move(en, edge-en.bounds.Min[ax])
			edge += size
		}
	}

	if len(changes) == 0 {
		e.mu.Unlock()
		return
	}

	e.log.Push(history.Action{Kind: history.KindTransform, Transforms: changes})
	e.mu.Unlock()

	e.notify(true, false, true)
}

func (e *Editor) selectedEntriesLocked() []alignEntry {
	var entries []alignEntry
	for _, id := range e.sel.IDs() {
		obj, ok := e.store.Get(id)
		if !ok {
			continue
		}
		bounds, ok := e.worldBoundsLocked(id)
		if !ok {
			continue
		}
		entries = append(entries, alignEntry{obj: obj, bounds: bounds})
	}
	return entries
}

func extentValue(b geom.Box3, axis Axis, mode AlignMode) float64 {
	switch mode {
	case AlignMin:
		return b.Min[int(axis)]
	case AlignMax:
		return b.Max[int(axis)]
	default:
		return b.Center()[int(axis)]
	}
}
