package history

import (
	"context"

	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/store"
)

// DefaultLimit caps the number of retained actions.
const DefaultLimit = 50

// Applier is the store-mutation surface the log replays through. These
// are the raw primitives: replaying never creates new log entries.
// RestoreObject is context-aware because re-creating a mesh awaits
// visual instantiation in the browser.
type Applier interface {
	RestoreObject(ctx context.Context, obj scene.PlacedObject) error
	DiscardObject(id string)
	WriteTransform(id string, t scene.Transform)
	WriteProperty(id string, key store.PropertyKey, value interface{})
}

// Log is the command log. The cursor points at the last applied action;
// -1 means nothing to undo.
type Log struct {
	entries []Action
	index   int
	limit   int
}

// NewLog creates an empty log. A non-positive limit selects
// DefaultLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{index: -1, limit: limit}
}

// Push appends an action, discarding any redoable tail. When the log
// exceeds its limit the oldest entry is evicted from the front and the
// cursor is rebased with it, so the cursor stays valid regardless of
// where it sat before the push. Actions with zero changes are dropped;
// orchestrators filter no-ops before pushing, this is the backstop.
func (l *Log) Push(a Action) {
	if a.empty() {
		return
	}
	l.entries = append(l.entries[:l.index+1], a)
	l.index++
	if len(l.entries) > l.limit {
		l.entries = l.entries[1:]
		l.index--
	}
}

// CanUndo reports whether an action is available to undo.
func (l *Log) CanUndo() bool {
	return l.index >= 0
}

// CanRedo reports whether an undone action is available to redo.
func (l *Log) CanRedo() bool {
	return l.index < len(l.entries)-1
}

// Len returns the number of retained actions.
func (l *Log) Len() int {
	return len(l.entries)
}

// Index returns the cursor position (-1 when nothing is undoable).
func (l *Log) Index() int {
	return l.index
}

// Undo applies the inverse of the action under the cursor and retreats
// it. It returns the affected object ids so the selection can be
// restored to what was just undone. A false return means there was
// nothing to undo.
func (l *Log) Undo(ctx context.Context, ap Applier) ([]string, bool, error) {
	if !l.CanUndo() {
		return nil, false, nil
	}
	a := l.entries[l.index]
	l.index--
	err := l.applyInverse(ctx, ap, a)
	return a.AffectedIDs(), true, err
}

// Redo advances the cursor and applies the forward effect of the action
// under it. A false return means there was nothing to redo.
func (l *Log) Redo(ctx context.Context, ap Applier) ([]string, bool, error) {
	if !l.CanRedo() {
		return nil, false, nil
	}
	l.index++
	a := l.entries[l.index]
	err := l.applyForward(ctx, ap, a)
	return a.AffectedIDs(), true, err
}

func (l *Log) applyInverse(ctx context.Context, ap Applier, a Action) error {
	switch a.Kind {
	case KindAdd:
		for _, obj := range a.Objects {
			ap.DiscardObject(obj.ID)
		}
	case KindDelete:
		for _, obj := range a.Objects {
			if err := ap.RestoreObject(ctx, obj); err != nil {
				return err
			}
		}
	case KindTransform:
		for _, tc := range a.Transforms {
			ap.WriteTransform(tc.ID, tc.Old)
		}
	case KindProperty:
		for _, pc := range a.Properties {
			ap.WriteProperty(pc.ID, pc.Key, pc.Old)
		}
	}
	return nil
}

func (l *Log) applyForward(ctx context.Context, ap Applier, a Action) error {
	switch a.Kind {
	case KindAdd:
		for _, obj := range a.Objects {
			if err := ap.RestoreObject(ctx, obj); err != nil {
				return err
			}
		}
	case KindDelete:
		for _, obj := range a.Objects {
			ap.DiscardObject(obj.ID)
		}
	case KindTransform:
		for _, tc := range a.Transforms {
			ap.WriteTransform(tc.ID, tc.New)
		}
	case KindProperty:
		for _, pc := range a.Properties {
			ap.WriteProperty(pc.ID, pc.Key, pc.New)
		}
	}
	return nil
}
