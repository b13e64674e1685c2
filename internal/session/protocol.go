package session

import (
	"encoding/json"

	"github.com/gridforge/gridforge/internal/geom"
	"github.com/gridforge/gridforge/internal/scene"
)

type Message struct {
	Type     string          `json:"type"`
	MapID    string          `json:"mapId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Client → server
	TypeCommand      = "command"
	TypeBoundsReport = "bounds.report"

	// Server → clients: state change notifications. Clients re-read
	// the carried full state, never apply diffs.
	TypeMapState         = "map.state"
	TypeListChanged      = "list.changed"
	TypeSelectionChanged = "selection.changed"
	TypeHistoryChanged   = "history.changed"
	TypeSnapResult       = "snap.result"

	// Server → clients: visual lifecycle requests. The browser owns
	// the actual visuals; these ask it to create/dispose/move them.
	TypeVisualCreate    = "visual.create"
	TypeVisualDispose   = "visual.dispose"
	TypeVisualTransform = "visual.transform"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
)

// Command op names.
const (
	OpObjectAdd      = "object.add"
	OpLightAdd       = "light.add"
	OpObjectDelete   = "object.delete"
	OpObjectDupe     = "object.duplicate"
	OpTransform      = "object.transform"
	OpVisibility     = "object.visibility"
	OpColor          = "object.color"
	OpLock           = "object.lock"
	OpRename         = "object.rename"
	OpLightProperty  = "light.property"
	OpSelectionClick = "selection.click"
	OpSelectionSet   = "selection.set"
	OpSelectionClear = "selection.clear"
	OpGroupCreate    = "group.create"
	OpGroupDelete    = "group.delete"
	OpGroupSelect    = "group.select"
	OpAlign          = "align"
	OpDistribute     = "distribute"
	OpUndo           = "undo"
	OpRedo           = "redo"
	OpSnapQuery      = "snap.query"
	OpAidsSet        = "aids.set"
	OpMapRename      = "map.rename"
	OpAssetRegister  = "asset.register"
)

// TransformEdit is one object's target placement in a transform commit.
// The before-state is not part of the wire contract: the editor records
// its own authoritative transform as the undo state.
type TransformEdit struct {
	ID  string          `json:"id"`
	New scene.Transform `json:"new"`
}

// Command is an editor operation submitted by a client. Fields beyond
// Op are populated per operation.
type Command struct {
	Op string `json:"op"`

	// object.add / light.add
	Asset     string              `json:"asset,omitempty"`
	LightKind scene.LightKind     `json:"lightKind,omitempty"`
	Light     *scene.LightParams  `json:"light,omitempty"`
	At        *scene.Transform    `json:"at,omitempty"`

	// selection / property targets
	ObjectID  string   `json:"objectId,omitempty"`
	ObjectIDs []string `json:"objectIds,omitempty"`
	Additive  bool     `json:"additive,omitempty"`

	// object.transform
	Transforms []TransformEdit `json:"transforms,omitempty"`

	// property values
	Visible *bool           `json:"visible,omitempty"`
	Locked  *bool           `json:"locked,omitempty"`
	Color   string          `json:"color,omitempty"`
	Name    string          `json:"name,omitempty"`
	Key     string          `json:"key,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`

	// group.*
	GroupID   string `json:"groupId,omitempty"`
	GroupName string `json:"groupName,omitempty"`

	// align / distribute
	Axis string `json:"axis,omitempty"`
	Mode string `json:"mode,omitempty"`

	// snap.query
	RequestID string     `json:"requestId,omitempty"`
	Bounds    *geom.Box3 `json:"bounds,omitempty"`
	Exclude   []string   `json:"exclude,omitempty"`

	// aids.set
	SnapEnabled *bool `json:"snapEnabled,omitempty"`
	GridEnabled *bool `json:"gridEnabled,omitempty"`

	// asset.register
	AssetEntry *scene.AssetEntry `json:"assetEntry,omitempty"`
}

// --- payloads ---

type MapStatePayload struct {
	Document *scene.MapDocument `json:"document"`
}

type ListChangedPayload struct {
	Objects []scene.PlacedObject `json:"objects"`
	Groups  []scene.Group        `json:"groups"`
}

type SelectionChangedPayload struct {
	Selected    []scene.PlacedObject `json:"selected"`
	Manipulable bool                 `json:"manipulable"`
}

type HistoryChangedPayload struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

type SnapResultPayload struct {
	RequestID string     `json:"requestId"`
	Offset    [3]float64 `json:"offset"`
	Snapped   bool       `json:"snapped"`
}

type VisualCreatePayload struct {
	ObjectID  string          `json:"objectId"`
	Asset     string          `json:"asset,omitempty"`
	LightKind scene.LightKind `json:"lightKind,omitempty"`
}

type VisualDisposePayload struct {
	ObjectID string `json:"objectId"`
}

type VisualTransformPayload struct {
	ObjectID  string          `json:"objectId"`
	Transform scene.Transform `json:"transform"`
}

// BoundsReportPayload carries the browser's measured world AABBs after
// it instantiates or moves visuals. The snap engine and alignment math
// read from this cache.
type BoundsReportPayload struct {
	Bounds map[string]geom.Box3 `json:"bounds"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// --- presence ---

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}
