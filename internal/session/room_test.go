package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/gridforge/internal/editor"
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/store"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	doc := scene.NewEmptyDocument("arena")
	doc.AssetStore = []scene.AssetEntry{{Name: "crate", File: "/assets/crate.glb"}}

	r, err := NewRoom("map_1", doc, editor.Options{})
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	return r
}

func apply(t *testing.T, r *Room, cmd *Command) {
	t.Helper()
	if err := r.applyCommand(context.Background(), cmd); err != nil {
		t.Fatalf("applyCommand(%s): %v", cmd.Op, err)
	}
}

func TestApplyCommandAddDeleteUndo(t *testing.T) {
	r := newTestRoom(t)

	apply(t, r, &Command{Op: OpObjectAdd, Asset: "crate"})
	if got := len(r.editor.Objects()); got != 1 {
		t.Fatalf("objects after add = %d", got)
	}
	if !r.dirty.Load() {
		t.Error("room not marked dirty after add")
	}

	// The added object is selected, so delete removes it.
	apply(t, r, &Command{Op: OpObjectDelete})
	if got := len(r.editor.Objects()); got != 0 {
		t.Fatalf("objects after delete = %d", got)
	}

	apply(t, r, &Command{Op: OpUndo})
	if got := len(r.editor.Objects()); got != 1 {
		t.Errorf("objects after undo = %d", got)
	}
	apply(t, r, &Command{Op: OpRedo})
	if got := len(r.editor.Objects()); got != 0 {
		t.Errorf("objects after redo = %d", got)
	}
}

func TestApplyCommandAddUnknownAsset(t *testing.T) {
	r := newTestRoom(t)
	err := r.applyCommand(context.Background(), &Command{Op: OpObjectAdd, Asset: "ghost"})
	if err == nil {
		t.Fatal("expected error for unregistered asset")
	}
}

func TestApplyCommandAssetRegister(t *testing.T) {
	r := newTestRoom(t)

	apply(t, r, &Command{Op: OpAssetRegister, AssetEntry: &scene.AssetEntry{
		Name: "barrel", File: "/assets/barrel.glb",
	}})
	apply(t, r, &Command{Op: OpObjectAdd, Asset: "barrel"})

	objs := r.editor.Objects()
	if len(objs) != 1 || objs[0].Name != "barrel_1" {
		t.Errorf("objects = %v", objs)
	}
}

func TestApplyCommandValidation(t *testing.T) {
	r := newTestRoom(t)
	ctx := context.Background()

	bad := []*Command{
		{Op: OpObjectAdd},                      // missing asset
		{Op: OpVisibility, ObjectID: "obj_1"},  // missing visible
		{Op: OpLock, ObjectID: "obj_1"},        // missing locked
		{Op: OpRename, Name: "x"},              // missing objectId
		{Op: OpAlign, Axis: "w", Mode: "min"},  // bad axis
		{Op: OpAlign, Axis: "x", Mode: "left"}, // bad mode
		{Op: OpSnapQuery},                      // missing bounds
		{Op: OpMapRename},                      // missing name
		{Op: OpAssetRegister},                  // missing entry
		{Op: "object.explode"},                 // unknown op
	}
	for _, cmd := range bad {
		if err := r.applyCommand(ctx, cmd); err == nil {
			t.Errorf("op %s mode=%q axis=%q: expected error", cmd.Op, cmd.Mode, cmd.Axis)
		}
	}
}

func TestApplyCommandAidsSetPartial(t *testing.T) {
	r := newTestRoom(t)

	gridOn := true
	apply(t, r, &Command{Op: OpAidsSet, GridEnabled: &gridOn})

	snapEnabled, gridEnabled := r.editor.PlacementAids()
	if !snapEnabled {
		t.Error("snap toggle changed by a grid-only update")
	}
	if !gridEnabled {
		t.Error("grid not enabled")
	}
}

func TestApplyCommandLightProperty(t *testing.T) {
	r := newTestRoom(t)

	apply(t, r, &Command{Op: OpLightAdd, LightKind: scene.LightPoint})
	objs := r.editor.Objects()
	if len(objs) != 1 {
		t.Fatalf("objects = %d", len(objs))
	}

	apply(t, r, &Command{
		Op:       OpLightProperty,
		ObjectID: objs[0].ID,
		Key:      string(store.PropIntensity),
		Value:    json.RawMessage(`0.25`),
	})

	got, _ := r.editor.Object(objs[0].ID)
	if got.Light.Intensity != 0.25 {
		t.Errorf("intensity = %g", got.Light.Intensity)
	}
}

func TestDecodeLightValue(t *testing.T) {
	v, err := decodeLightValue(store.PropIntensity, json.RawMessage(`0.5`))
	if err != nil || v != 0.5 {
		t.Errorf("intensity = %v, %v", v, err)
	}

	v, err = decodeLightValue(store.PropDiffuse, json.RawMessage(`"#ffaa00"`))
	if err != nil || v != "#ffaa00" {
		t.Errorf("diffuse = %v, %v", v, err)
	}

	v, err = decodeLightValue(store.PropDirection, json.RawMessage(`[0,-1,0]`))
	if err != nil {
		t.Fatalf("direction: %v", err)
	}
	if v != (mgl64.Vec3{0, -1, 0}) {
		t.Errorf("direction = %v", v)
	}

	v, err = decodeLightValue(store.PropCastShadows, json.RawMessage(`true`))
	if err != nil || v != true {
		t.Errorf("castShadows = %v, %v", v, err)
	}

	if _, err := decodeLightValue(store.PropIntensity, json.RawMessage(`"high"`)); err == nil {
		t.Error("string accepted for intensity")
	}
	if _, err := decodeLightValue(store.PropName, json.RawMessage(`"x"`)); err == nil {
		t.Error("non-light key accepted")
	}
}

func TestCommandTargets(t *testing.T) {
	if got := commandTargets(&Command{ObjectIDs: []string{"a", "b"}, ObjectID: "c"}); len(got) != 2 {
		t.Errorf("targets = %v", got)
	}
	if got := commandTargets(&Command{ObjectID: "c"}); len(got) != 1 || got[0] != "c" {
		t.Errorf("targets = %v", got)
	}
	if got := commandTargets(&Command{}); got != nil {
		t.Errorf("targets = %v", got)
	}
}

func TestRoomStartsClean(t *testing.T) {
	doc := scene.NewEmptyDocument("arena")
	doc.AssetStore = []scene.AssetEntry{{Name: "crate", File: "/assets/crate.glb"}}
	doc.Assets = []scene.PlacedObject{{
		ID: "obj_1", Name: "crate_1", Kind: scene.KindMesh, AssetRef: "crate",
		Transform: scene.IdentityTransform(), Visible: true,
	}}

	r, err := NewRoom("map_1", doc, editor.Options{})
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	if r.dirty.Load() {
		t.Error("freshly loaded room marked dirty")
	}
	if len(r.editor.Objects()) != 1 {
		t.Errorf("objects = %d", len(r.editor.Objects()))
	}
}
