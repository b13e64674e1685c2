package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/gridforge/internal/geom"
	"github.com/gridforge/gridforge/internal/history"
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/store"
)

// fakeVisuals stands in for the browser rendering layer.
type fakeVisuals struct {
	live       map[string]bool
	bounds     map[string]geom.Box3
	transforms map[string]scene.Transform
	failAssets map[string]bool
}

func newFakeVisuals() *fakeVisuals {
	return &fakeVisuals{
		live:       make(map[string]bool),
		bounds:     make(map[string]geom.Box3),
		transforms: make(map[string]scene.Transform),
		failAssets: make(map[string]bool),
	}
}

func (f *fakeVisuals) InstantiateMesh(ctx context.Context, id, assetRef string) error {
	if f.failAssets[assetRef] {
		return ErrAssetNotFound
	}
	f.live[id] = true
	return nil
}

func (f *fakeVisuals) InstantiateLight(ctx context.Context, id string, kind scene.LightKind) error {
	f.live[id] = true
	return nil
}

func (f *fakeVisuals) DisposeVisual(id string) {
	delete(f.live, id)
	delete(f.bounds, id)
}

func (f *fakeVisuals) WorldBounds(id string) (geom.Box3, bool) {
	b, ok := f.bounds[id]
	return b, ok
}

func (f *fakeVisuals) SetTransform(id string, t scene.Transform) {
	f.transforms[id] = t
}

func newTestEditor(t *testing.T) (*Editor, *fakeVisuals) {
	t.Helper()
	fv := newFakeVisuals()
	e := New(fv, Options{})
	e.RegisterAsset(scene.AssetEntry{Name: "crate", File: "/assets/crate.glb"})
	return e, fv
}

func placed(t *testing.T, e *Editor, x, z float64) scene.PlacedObject {
	t.Helper()
	at := scene.IdentityTransform()
	at.Position = mgl64.Vec3{x, 0, z}
	obj, err := e.AddMesh(context.Background(), "crate", at)
	if err != nil {
		t.Fatalf("AddMesh: %v", err)
	}
	return obj
}

func TestAddMeshUnknownAsset(t *testing.T) {
	e, _ := newTestEditor(t)
	_, err := e.AddMesh(context.Background(), "missing", scene.IdentityTransform())
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("err = %v, want ErrAssetNotFound", err)
	}
}

func TestAddMeshNamesAndSelects(t *testing.T) {
	e, fv := newTestEditor(t)

	a := placed(t, e, 0, 0)
	b := placed(t, e, 2, 0)

	if a.Name != "crate_1" || b.Name != "crate_2" {
		t.Errorf("names = %q, %q", a.Name, b.Name)
	}
	if !fv.live[a.ID] || !fv.live[b.ID] {
		t.Error("visuals not instantiated")
	}

	sel := e.SelectionIDs()
	if len(sel) != 1 || sel[0] != b.ID {
		t.Errorf("selection = %v, want just the new object", sel)
	}
	if !e.CanUndo() {
		t.Error("add not recorded in history")
	}
}

func TestUndoRedoAdd(t *testing.T) {
	e, fv := newTestEditor(t)
	obj := placed(t, e, 1, 1)

	if err := e.Undo(context.Background()); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(e.Objects()) != 0 {
		t.Error("object survived undo")
	}
	if fv.live[obj.ID] {
		t.Error("visual survived undo")
	}
	if !e.CanRedo() {
		t.Error("redo unavailable")
	}

	if err := e.Redo(context.Background()); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	got, ok := e.Object(obj.ID)
	if !ok {
		t.Fatal("object missing after redo")
	}
	if got.Transform.Position != (mgl64.Vec3{1, 0, 1}) {
		t.Errorf("position = %v", got.Transform.Position)
	}
	if !fv.live[obj.ID] {
		t.Error("visual missing after redo")
	}
	sel := e.SelectionIDs()
	if len(sel) != 1 || sel[0] != obj.ID {
		t.Errorf("selection after redo = %v", sel)
	}
}

func TestDuplicateSelectedThenUndo(t *testing.T) {
	e, _ := newTestEditor(t)
	orig := placed(t, e, 1, 1)

	clones, err := e.DuplicateSelected(context.Background())
	if err != nil {
		t.Fatalf("DuplicateSelected: %v", err)
	}
	if len(clones) != 1 {
		t.Fatalf("clones = %d", len(clones))
	}
	clone := clones[0]

	if clone.ID == orig.ID {
		t.Error("clone shares the original id")
	}
	if clone.Name != "crate_2" {
		t.Errorf("clone name = %q", clone.Name)
	}
	if clone.Transform.Position != (mgl64.Vec3{1.5, 0, 1.5}) {
		t.Errorf("clone position = %v", clone.Transform.Position)
	}

	sel := e.SelectionIDs()
	if len(sel) != 1 || sel[0] != clone.ID {
		t.Errorf("selection = %v, want the clone", sel)
	}

	if err := e.Undo(context.Background()); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(e.Objects()) != 1 {
		t.Errorf("objects after undo = %d, want 1", len(e.Objects()))
	}
	if _, ok := e.Object(orig.ID); !ok {
		t.Error("original removed by undoing the duplicate")
	}
}

func TestDuplicateClearsLockFlag(t *testing.T) {
	e, _ := newTestEditor(t)
	orig := placed(t, e, 0, 0)
	e.SetLocked([]string{orig.ID}, true)
	e.SelectByIDs([]string{orig.ID})

	clones, err := e.DuplicateSelected(context.Background())
	if err != nil {
		t.Fatalf("DuplicateSelected: %v", err)
	}
	if clones[0].Locked {
		t.Error("clone inherited the lock flag")
	}
}

func TestDeleteSkipsLocked(t *testing.T) {
	e, fv := newTestEditor(t)
	a := placed(t, e, 0, 0)
	b := placed(t, e, 2, 0)
	e.SetLocked([]string{a.ID}, true)
	e.SelectByIDs([]string{a.ID, b.ID})

	removed := e.DeleteSelected()
	if len(removed) != 1 || removed[0] != b.ID {
		t.Fatalf("removed = %v, want [%s]", removed, b.ID)
	}
	if _, ok := e.Object(a.ID); !ok {
		t.Error("locked object deleted")
	}
	if fv.live[b.ID] {
		t.Error("visual survived delete")
	}

	if err := e.Undo(context.Background()); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if _, ok := e.Object(b.ID); !ok {
		t.Error("deleted object not restored by undo")
	}
}

func TestDeleteAllLockedIsNoOp(t *testing.T) {
	e, _ := newTestEditor(t)
	a := placed(t, e, 0, 0)
	e.SetLocked([]string{a.ID}, true)
	e.SelectByIDs([]string{a.ID})

	before := e.HistoryLen()
	if removed := e.DeleteSelected(); removed != nil {
		t.Errorf("removed = %v", removed)
	}
	if e.HistoryLen() != before {
		t.Error("no-op delete pushed a history entry")
	}
}

func TestDeletePurgesGroups(t *testing.T) {
	e, _ := newTestEditor(t)
	a := placed(t, e, 0, 0)
	b := placed(t, e, 2, 0)

	g, ok := e.CreateGroup("walls", []string{a.ID, b.ID})
	if !ok {
		t.Fatal("CreateGroup failed")
	}

	e.SelectByIDs([]string{a.ID})
	e.DeleteSelected()

	groups := e.Groups()
	if len(groups) != 1 {
		t.Fatalf("groups = %v", groups)
	}
	kept := groups[0]
	if kept.ID != g.ID || len(kept.ObjectIDs) != 1 || kept.ObjectIDs[0] != b.ID {
		t.Errorf("group after delete = %v", kept)
	}

	e.SelectByIDs([]string{b.ID})
	e.DeleteSelected()
	if len(e.Groups()) != 0 {
		t.Error("emptied group survived")
	}
}

func TestCommitTransformFiltersNoOps(t *testing.T) {
	e, _ := newTestEditor(t)
	obj := placed(t, e, 0, 0)
	before := e.HistoryLen()

	// Old == New: nothing to record.
	e.CommitTransform([]history.TransformChange{
		{ID: obj.ID, Old: obj.Transform, New: obj.Transform},
	})
	if e.HistoryLen() != before {
		t.Error("no-op commit pushed a history entry")
	}

	moved := obj.Transform
	moved.Position = mgl64.Vec3{3, 0, 0}
	e.CommitTransform([]history.TransformChange{
		{ID: obj.ID, Old: obj.Transform, New: moved},
	})
	if e.HistoryLen() != before+1 {
		t.Error("real commit not recorded")
	}

	got, _ := e.Object(obj.ID)
	if got.Transform.Position != (mgl64.Vec3{3, 0, 0}) {
		t.Errorf("position = %v", got.Transform.Position)
	}

	if err := e.Undo(context.Background()); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	got, _ = e.Object(obj.ID)
	if got.Transform.Position != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("position after undo = %v", got.Transform.Position)
	}
}

func TestCommitTransformIgnoresCallerBeforeState(t *testing.T) {
	e, _ := newTestEditor(t)
	obj := placed(t, e, 0, 0)

	// A client that captured the transform before another edit (or a
	// buggy one) may submit any before-state; undo must still land on
	// the store's true pre-commit transform.
	stale := obj.Transform
	stale.Position = mgl64.Vec3{99, 0, 0}
	moved := obj.Transform
	moved.Position = mgl64.Vec3{5, 0, 0}
	e.CommitTransform([]history.TransformChange{
		{ID: obj.ID, Old: stale, New: moved},
	})

	got, _ := e.Object(obj.ID)
	if got.Transform.Position != (mgl64.Vec3{5, 0, 0}) {
		t.Fatalf("position = %v", got.Transform.Position)
	}

	if err := e.Undo(context.Background()); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	got, _ = e.Object(obj.ID)
	if got.Transform.Position != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("position after undo = %v, want the true pre-commit position", got.Transform.Position)
	}
}

func TestCommitTransformSkipsLocked(t *testing.T) {
	e, _ := newTestEditor(t)
	obj := placed(t, e, 0, 0)
	e.SetLocked([]string{obj.ID}, true)

	moved := obj.Transform
	moved.Position = mgl64.Vec3{9, 0, 0}
	e.CommitTransform([]history.TransformChange{
		{ID: obj.ID, Old: obj.Transform, New: moved},
	})

	got, _ := e.Object(obj.ID)
	if got.Transform.Position != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("locked object moved to %v", got.Transform.Position)
	}
}

func TestVisibilityUndo(t *testing.T) {
	e, _ := newTestEditor(t)
	obj := placed(t, e, 0, 0)

	e.SetVisibility([]string{obj.ID}, false)
	got, _ := e.Object(obj.ID)
	if got.Visible {
		t.Fatal("visibility not written")
	}

	if err := e.Undo(context.Background()); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	got, _ = e.Object(obj.ID)
	if !got.Visible {
		t.Error("visibility not restored by undo")
	}
}

func TestRenameNotUndoable(t *testing.T) {
	e, _ := newTestEditor(t)
	obj := placed(t, e, 0, 0)
	before := e.HistoryLen()

	e.Rename(obj.ID, "spawn point")
	got, _ := e.Object(obj.ID)
	if got.Name != "spawn point" {
		t.Errorf("name = %q", got.Name)
	}
	if e.HistoryLen() != before {
		t.Error("rename pushed a history entry")
	}
}

func TestAlignCenterX(t *testing.T) {
	e, fv := newTestEditor(t)
	a := placed(t, e, 0, 0)
	b := placed(t, e, 4, 0)
	c := placed(t, e, 10, 0)

	for _, obj := range []scene.PlacedObject{a, b, c} {
		p := obj.Transform.Position
		fv.bounds[obj.ID] = geom.Box3{
			Min: p.Sub(mgl64.Vec3{0.5, 0, 0.5}),
			Max: p.Add(mgl64.Vec3{0.5, 1, 0.5}),
		}
	}

	e.SelectByIDs([]string{a.ID, b.ID, c.ID})
	e.Align(AxisX, AlignCenter)

	// Union spans x -0.5..10.5, center 5; every box center moves there.
	for _, id := range []string{a.ID, b.ID, c.ID} {
		got, _ := e.Object(id)
		if got.Transform.Position[0] != 5 {
			t.Errorf("%s x = %g, want 5", id, got.Transform.Position[0])
		}
	}

	// One batched action: a single undo restores all three.
	if err := e.Undo(context.Background()); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	for i, obj := range []scene.PlacedObject{a, b, c} {
		got, _ := e.Object(obj.ID)
		if got.Transform.Position != obj.Transform.Position {
			t.Errorf("object %d not restored: %v", i, got.Transform.Position)
		}
	}
}

func TestAlignSkipsLockedButCountsTheirExtent(t *testing.T) {
	e, fv := newTestEditor(t)
	a := placed(t, e, 0, 0)
	b := placed(t, e, 10, 0)

	for _, obj := range []scene.PlacedObject{a, b} {
		p := obj.Transform.Position
		fv.bounds[obj.ID] = geom.Box3{
			Min: p.Sub(mgl64.Vec3{0.5, 0, 0.5}),
			Max: p.Add(mgl64.Vec3{0.5, 1, 0.5}),
		}
	}
	e.SetLocked([]string{b.ID}, true)
	e.SelectByIDs([]string{a.ID, b.ID})

	e.Align(AxisX, AlignMax)

	// Union max is 10.5 (from the locked object); only a moves.
	got, _ := e.Object(a.ID)
	if got.Transform.Position[0] != 10 {
		t.Errorf("a x = %g, want 10", got.Transform.Position[0])
	}
	got, _ = e.Object(b.ID)
	if got.Transform.Position[0] != 10 {
		t.Errorf("locked b moved: x = %g", got.Transform.Position[0])
	}
}

func TestDistributePacksEdgeToEdge(t *testing.T) {
	e, fv := newTestEditor(t)
	a := placed(t, e, 0, 0)
	b := placed(t, e, 7, 0)
	c := placed(t, e, 3, 0)

	for _, obj := range []scene.PlacedObject{a, b, c} {
		p := obj.Transform.Position
		fv.bounds[obj.ID] = geom.Box3{
			Min: p.Sub(mgl64.Vec3{0.5, 0, 0.5}),
			Max: p.Add(mgl64.Vec3{0.5, 1, 0.5}),
		}
	}

	e.SelectByIDs([]string{a.ID, b.ID, c.ID})
	e.Distribute(AxisX)

	// Sorted by min extent: a (0), c (3), b (7). a stays; c packs to
	// a's max edge, b to c's new max edge.
	wantX := map[string]float64{a.ID: 0, c.ID: 1, b.ID: 2}
	for id, want := range wantX {
		got, _ := e.Object(id)
		if got.Transform.Position[0] != want {
			t.Errorf("%s x = %g, want %g", id, got.Transform.Position[0], want)
		}
	}
}

func TestSnapGhostExcludesDragged(t *testing.T) {
	e, fv := newTestEditor(t)
	anchor := placed(t, e, 0, 0)
	mover := placed(t, e, 1.5, 0)

	fv.bounds[anchor.ID] = geom.Box3{Min: mgl64.Vec3{-0.5, 0, -0.5}, Max: mgl64.Vec3{0.5, 1, 0.5}}
	local := geom.Box3{Min: mgl64.Vec3{-0.5, 0, -0.5}, Max: mgl64.Vec3{0.5, 1, 0.5}}

	at := scene.IdentityTransform()
	at.Position = mgl64.Vec3{1.5, 0, 0}

	offset, snapped := e.SnapGhost(local, at, mover.ID)
	if !snapped {
		t.Fatal("expected snap against the anchor")
	}
	want := mgl64.Vec3{-0.5, 0, 0}
	if offset.Sub(want).Len() > 1e-12 {
		t.Errorf("offset = %v, want %v", offset, want)
	}

	// Snapping disabled: no result.
	e.SetPlacementAids(false, false)
	if _, snapped := e.SnapGhost(local, at, mover.ID); snapped {
		t.Error("snapped while disabled")
	}
}

func TestQuantizePositionHonorsToggle(t *testing.T) {
	e, _ := newTestEditor(t)

	pos := mgl64.Vec3{1.4, 2, -0.6}
	if got := e.QuantizePosition(pos); got != pos {
		t.Errorf("grid disabled but position changed: %v", got)
	}

	e.SetPlacementAids(true, true)
	want := mgl64.Vec3{1, 2, -1}
	if got := e.QuantizePosition(pos); got != want {
		t.Errorf("quantized = %v, want %v", got, want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	e, fv := newTestEditor(t)
	a := placed(t, e, 1, 2)
	b := placed(t, e, 3, 4)
	e.SetColor([]string{a.ID}, "#ff0000")
	e.CreateGroup("walls", []string{a.ID, b.ID})
	e.SetMapName("arena")

	saved := e.SaveDocument()

	e2 := New(fv, Options{})
	if err := e2.LoadDocument(context.Background(), saved); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	if e2.MapName() != "arena" {
		t.Errorf("map name = %q", e2.MapName())
	}
	if len(e2.Objects()) != 2 {
		t.Fatalf("objects = %d", len(e2.Objects()))
	}
	got, _ := e2.Object(a.ID)
	if got.Color != "#ff0000" {
		t.Errorf("color = %q", got.Color)
	}
	if len(e2.Groups()) != 1 {
		t.Errorf("groups = %v", e2.Groups())
	}
	if e2.CanUndo() {
		t.Error("history survived the load")
	}

	// Serialized forms agree.
	first, err := saved.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := e2.SaveDocument().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("documents differ:\n%s\n%s", first, second)
	}
}

func TestLoadSkipsMissingAssetsAndPrunesGroups(t *testing.T) {
	fv := newFakeVisuals()
	fv.failAssets["ghost"] = true
	e := New(fv, Options{})

	doc := scene.NewEmptyDocument("arena")
	doc.AssetStore = []scene.AssetEntry{
		{Name: "crate", File: "/assets/crate.glb"},
		{Name: "ghost", File: "/assets/ghost.glb"},
	}
	doc.Assets = []scene.PlacedObject{
		{ID: "obj_1", Name: "crate_1", Kind: scene.KindMesh, AssetRef: "crate", Transform: scene.IdentityTransform(), Visible: true},
		{ID: "obj_2", Name: "ghost_1", Kind: scene.KindMesh, AssetRef: "ghost", Transform: scene.IdentityTransform(), Visible: true},
	}
	doc.Groups = []scene.Group{{ID: "grp_1", Name: "all", ObjectIDs: []string{"obj_1", "obj_2"}}}

	if err := e.LoadDocument(context.Background(), doc); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	if len(e.Objects()) != 1 {
		t.Fatalf("objects = %d, want 1 (missing asset skipped)", len(e.Objects()))
	}
	groups := e.Groups()
	if len(groups) != 1 || len(groups[0].ObjectIDs) != 1 || groups[0].ObjectIDs[0] != "obj_1" {
		t.Errorf("groups = %v", groups)
	}
}

func TestClearResetsEverything(t *testing.T) {
	e, fv := newTestEditor(t)
	obj := placed(t, e, 0, 0)
	e.CreateGroup("walls", []string{obj.ID})

	e.Clear()

	if len(e.Objects()) != 0 || len(e.Groups()) != 0 || len(e.SelectionIDs()) != 0 {
		t.Error("state survived Clear")
	}
	if e.CanUndo() || e.CanRedo() {
		t.Error("history survived Clear")
	}
	if fv.live[obj.ID] {
		t.Error("visual survived Clear")
	}
}

func TestSelectionProxyAndManipulable(t *testing.T) {
	e, fv := newTestEditor(t)
	a := placed(t, e, 0, 0)
	b := placed(t, e, 4, 0)

	for _, obj := range []scene.PlacedObject{a, b} {
		p := obj.Transform.Position
		fv.bounds[obj.ID] = geom.Box3{
			Min: p.Sub(mgl64.Vec3{0.5, 0, 0.5}),
			Max: p.Add(mgl64.Vec3{0.5, 1, 0.5}),
		}
	}

	e.SelectByIDs([]string{a.ID})
	if e.SelectionProxy() != nil {
		t.Error("proxy for single selection")
	}

	e.SelectByIDs([]string{a.ID, b.ID})
	proxy := e.SelectionProxy()
	if proxy == nil {
		t.Fatal("no proxy for multi-selection")
	}
	if proxy.Pivot != (mgl64.Vec3{2, 0.5, 0}) {
		t.Errorf("pivot = %v", proxy.Pivot)
	}

	if !e.SelectionManipulable() {
		t.Error("unlocked selection not manipulable")
	}
	e.SetLocked([]string{a.ID, b.ID}, true)
	if e.SelectionManipulable() {
		t.Error("all-locked selection manipulable")
	}
	if e.SelectionProxy() != nil {
		t.Error("proxy offered for an all-locked selection")
	}
}

func TestSetLightProperty(t *testing.T) {
	e, _ := newTestEditor(t)
	light, err := e.AddLight(context.Background(), scene.LightPoint, scene.IdentityTransform(), scene.LightParams{Intensity: 1})
	if err != nil {
		t.Fatalf("AddLight: %v", err)
	}
	if light.Name != "pointLight_1" {
		t.Errorf("name = %q", light.Name)
	}

	e.SetLightProperty(light.ID, store.PropIntensity, 0.5)
	got, _ := e.Object(light.ID)
	if got.Light.Intensity != 0.5 {
		t.Fatalf("intensity = %g", got.Light.Intensity)
	}

	if err := e.Undo(context.Background()); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	got, _ = e.Object(light.ID)
	if got.Light.Intensity != 1 {
		t.Errorf("intensity after undo = %g", got.Light.Intensity)
	}
}
