package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/gridforge/internal/editor"
	"github.com/gridforge/gridforge/internal/history"
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/store"
)

// Room is one live editing session over a map. It owns the
// authoritative editor; every connected client sees the same object
// list, selection, and history state.
type Room struct {
	mapID    string
	editor   *editor.Editor
	visuals  *remoteVisuals
	presence *PresenceManager

	mu      sync.RWMutex
	clients map[string]*Client // clientID -> client

	dirty atomic.Bool
}

func NewRoom(mapID string, doc *scene.MapDocument, opts editor.Options) (*Room, error) {
	visuals := newRemoteVisuals()
	visuals.SetAssets(doc.AssetStore)

	r := &Room{
		mapID:    mapID,
		visuals:  visuals,
		presence: NewPresenceManager(),
		clients:  make(map[string]*Client),
	}
	visuals.broadcast = func(msg *Message) { r.broadcast(msg, "") }

	ed := editor.New(visuals, opts)
	ed.OnListChange = r.onListChange
	ed.OnSelectionChange = r.onSelectionChange
	ed.OnHistoryChange = r.onHistoryChange
	r.editor = ed

	if err := ed.LoadDocument(context.Background(), doc); err != nil {
		return nil, fmt.Errorf("load map %s: %w", mapID, err)
	}
	// Loading replays the saved state; the room starts clean.
	r.dirty.Store(false)

	return r, nil
}

func (r *Room) onListChange() {
	r.dirty.Store(true)
	payload, _ := json.Marshal(ListChangedPayload{
		Objects: r.editor.Objects(),
		Groups:  r.editor.Groups(),
	})
	r.broadcast(&Message{Type: TypeListChanged, Payload: payload}, "")
}

func (r *Room) onSelectionChange(selected []scene.PlacedObject) {
	payload, _ := json.Marshal(SelectionChangedPayload{
		Selected:    selected,
		Manipulable: r.editor.SelectionManipulable(),
	})
	r.broadcast(&Message{Type: TypeSelectionChanged, Payload: payload}, "")
}

func (r *Room) onHistoryChange() {
	payload, _ := json.Marshal(HistoryChangedPayload{
		CanUndo: r.editor.CanUndo(),
		CanRedo: r.editor.CanRedo(),
	})
	r.broadcast(&Message{Type: TypeHistoryChanged, Payload: payload}, "")
}

func (r *Room) broadcast(msg *Message, excludeClientID string) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

// stateMessage builds the full document snapshot sent to joining
// clients.
func (r *Room) stateMessage() *Message {
	payload, err := json.Marshal(MapStatePayload{Document: r.editor.SaveDocument()})
	if err != nil {
		slog.Error("marshal map state", "map", r.mapID, "error", err)
		return nil
	}
	return &Message{Type: TypeMapState, MapID: r.mapID, Payload: payload}
}

func (r *Room) handleCommand(ctx context.Context, sender *Client, cmd *Command) {
	if err := r.applyCommand(ctx, cmd); err != nil {
		slog.Warn("command failed", "op", cmd.Op, "map", r.mapID, "user", sender.UserID, "error", err)
		sender.SendError(err.Error())
		return
	}

	if cmd.Op == OpSnapQuery {
		r.answerSnapQuery(sender, cmd)
	}
}

func (r *Room) applyCommand(ctx context.Context, cmd *Command) error {
	switch cmd.Op {
	case OpObjectAdd:
		if cmd.Asset == "" {
			return fmt.Errorf("object.add: missing asset")
		}
		_, err := r.editor.AddMesh(ctx, cmd.Asset, placeAt(cmd))
		return err

	case OpLightAdd:
		params := scene.LightParams{Intensity: 1}
		if cmd.Light != nil {
			params = *cmd.Light
		}
		_, err := r.editor.AddLight(ctx, cmd.LightKind, placeAt(cmd), params)
		return err

	case OpObjectDelete:
		r.editor.DeleteSelected()
		return nil

	case OpObjectDupe:
		_, err := r.editor.DuplicateSelected(ctx)
		return err

	case OpTransform:
		changes := make([]history.TransformChange, 0, len(cmd.Transforms))
		for _, t := range cmd.Transforms {
			changes = append(changes, history.TransformChange{ID: t.ID, New: t.New})
		}
		r.editor.CommitTransform(changes)
		return nil

	case OpVisibility:
		if cmd.Visible == nil {
			return fmt.Errorf("object.visibility: missing visible")
		}
		r.editor.SetVisibility(commandTargets(cmd), *cmd.Visible)
		return nil

	case OpColor:
		r.editor.SetColor(commandTargets(cmd), cmd.Color)
		return nil

	case OpLock:
		if cmd.Locked == nil {
			return fmt.Errorf("object.lock: missing locked")
		}
		r.editor.SetLocked(commandTargets(cmd), *cmd.Locked)
		return nil

	case OpRename:
		if cmd.ObjectID == "" {
			return fmt.Errorf("object.rename: missing objectId")
		}
		r.editor.Rename(cmd.ObjectID, cmd.Name)
		return nil

	case OpLightProperty:
		value, err := decodeLightValue(store.PropertyKey(cmd.Key), cmd.Value)
		if err != nil {
			return fmt.Errorf("light.property: %w", err)
		}
		r.editor.SetLightProperty(cmd.ObjectID, store.PropertyKey(cmd.Key), value)
		return nil

	case OpSelectionClick:
		r.editor.Select(cmd.ObjectID, cmd.Additive)
		return nil

	case OpSelectionSet:
		r.editor.SelectByIDs(cmd.ObjectIDs)
		return nil

	case OpSelectionClear:
		r.editor.ClearSelection()
		return nil

	case OpGroupCreate:
		ids := cmd.ObjectIDs
		if len(ids) == 0 {
			ids = r.editor.SelectionIDs()
		}
		if _, ok := r.editor.CreateGroup(cmd.GroupName, ids); !ok {
			return fmt.Errorf("group.create: no groupable objects")
		}
		return nil

	case OpGroupDelete:
		r.editor.DeleteGroup(cmd.GroupID)
		return nil

	case OpGroupSelect:
		r.editor.SelectGroup(cmd.GroupID)
		return nil

	case OpAlign:
		axis, err := editor.ParseAxis(cmd.Axis)
		if err != nil {
			return err
		}
		mode, err := parseAlignMode(cmd.Mode)
		if err != nil {
			return err
		}
		r.editor.Align(axis, mode)
		return nil

	case OpDistribute:
		axis, err := editor.ParseAxis(cmd.Axis)
		if err != nil {
			return err
		}
		r.editor.Distribute(axis)
		return nil

	case OpUndo:
		return r.editor.Undo(ctx)

	case OpRedo:
		return r.editor.Redo(ctx)

	case OpSnapQuery:
		if cmd.Bounds == nil || cmd.At == nil {
			return fmt.Errorf("snap.query: missing bounds or transform")
		}
		return nil // answered out-of-band to the sender only

	case OpAidsSet:
		snapOn, gridOn := r.editor.PlacementAids()
		if cmd.SnapEnabled != nil {
			snapOn = *cmd.SnapEnabled
		}
		if cmd.GridEnabled != nil {
			gridOn = *cmd.GridEnabled
		}
		r.editor.SetPlacementAids(snapOn, gridOn)
		return nil

	case OpMapRename:
		if cmd.Name == "" {
			return fmt.Errorf("map.rename: missing name")
		}
		r.editor.SetMapName(cmd.Name)
		return nil

	case OpAssetRegister:
		if cmd.AssetEntry == nil || cmd.AssetEntry.Name == "" {
			return fmt.Errorf("asset.register: missing entry")
		}
		r.editor.RegisterAsset(*cmd.AssetEntry)
		r.visuals.SetAssets(r.editor.AssetStore())
		return nil

	default:
		return fmt.Errorf("unknown op: %s", cmd.Op)
	}
}

func (r *Room) answerSnapQuery(sender *Client, cmd *Command) {
	offset, snapped := r.editor.SnapGhost(*cmd.Bounds, *cmd.At, cmd.Exclude...)
	payload, _ := json.Marshal(SnapResultPayload{
		RequestID: cmd.RequestID,
		Offset:    [3]float64{offset.X(), offset.Y(), offset.Z()},
		Snapped:   snapped,
	})
	sender.Send(&Message{Type: TypeSnapResult, Payload: payload})
}

func placeAt(cmd *Command) scene.Transform {
	if cmd.At != nil {
		return *cmd.At
	}
	return scene.IdentityTransform()
}

func commandTargets(cmd *Command) []string {
	if len(cmd.ObjectIDs) > 0 {
		return cmd.ObjectIDs
	}
	if cmd.ObjectID != "" {
		return []string{cmd.ObjectID}
	}
	return nil
}

func parseAlignMode(s string) (editor.AlignMode, error) {
	switch s {
	case "min":
		return editor.AlignMin, nil
	case "max":
		return editor.AlignMax, nil
	case "center":
		return editor.AlignCenter, nil
	default:
		return "", fmt.Errorf("unknown align mode: %s", s)
	}
}

// decodeLightValue converts a raw JSON property value into the concrete
// type the store expects for the key.
func decodeLightValue(key store.PropertyKey, raw json.RawMessage) (interface{}, error) {
	switch key {
	case store.PropIntensity:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("key %s wants a number: %w", key, err)
		}
		return v, nil
	case store.PropDiffuse, store.PropSpecular, store.PropGround:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("key %s wants a color string: %w", key, err)
		}
		return v, nil
	case store.PropDirection:
		var v [3]float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("key %s wants a vec3: %w", key, err)
		}
		return mgl64.Vec3(v), nil
	case store.PropCastShadows:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("key %s wants a bool: %w", key, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("not a light property: %s", key)
	}
}
