// Package history is the undo/redo command log: a linear, truncatable
// list of reversible actions over the scene object store.
package history

import (
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/store"
)

// Kind tags the action variants.
type Kind string

const (
	KindAdd       Kind = "add"
	KindDelete    Kind = "delete"
	KindTransform Kind = "transform"
	KindProperty  Kind = "property"
)

// TransformChange records one object's transform before and after an
// edit. Both sides are full values, not deltas, so inversion is exact
// regardless of intermediate rounding.
type TransformChange struct {
	ID  string
	Old scene.Transform
	New scene.Transform
}

// PropertyChange records one scalar field edit.
type PropertyChange struct {
	ID  string
	Key store.PropertyKey
	Old interface{}
	New interface{}
}

// Action is one logged, reversible unit of state change. Exactly one of
// the payload slices is populated, per Kind: Objects for add/delete
// (full snapshots), Transforms for transform, Properties for property.
type Action struct {
	Kind       Kind
	Objects    []scene.PlacedObject
	Transforms []TransformChange
	Properties []PropertyChange
}

// AffectedIDs lists every object id the action touches, in payload
// order. Undo/redo re-selects these so the user sees what just changed.
func (a Action) AffectedIDs() []string {
	var ids []string
	for _, obj := range a.Objects {
		ids = append(ids, obj.ID)
	}
	for _, tc := range a.Transforms {
		ids = append(ids, tc.ID)
	}
	for _, pc := range a.Properties {
		ids = append(ids, pc.ID)
	}
	return ids
}

func (a Action) empty() bool {
	return len(a.Objects) == 0 && len(a.Transforms) == 0 && len(a.Properties) == 0
}
