//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/gridforge/internal/editor"
	"github.com/gridforge/gridforge/internal/geom"
	"github.com/gridforge/gridforge/internal/history"
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/store"
)

var ed *editor.Editor

func main() {
	ed = editor.New(jsVisuals{}, editor.Options{})

	// State change notifications go to the gridforgeEvents global when
	// the frontend registers one.
	ed.OnListChange = func() {
		fireEvent("listChanged", mustJSON(ed.Objects()))
	}
	ed.OnSelectionChange = func(selected []scene.PlacedObject) {
		fireEvent("selectionChanged", mustJSON(selected))
	}
	ed.OnHistoryChange = func() {
		fireEvent("historyChanged", mustJSON(map[string]bool{
			"canUndo": ed.CanUndo(),
			"canRedo": ed.CanRedo(),
		}))
	}

	api := js.Global().Get("Object").New()

	// Document
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("saveDocument", js.FuncOf(saveDocument))
	api.Set("clear", js.FuncOf(clear))
	api.Set("getMapName", js.FuncOf(getMapName))
	api.Set("setMapName", js.FuncOf(setMapName))
	api.Set("registerAsset", js.FuncOf(registerAsset))
	api.Set("getAssetStore", js.FuncOf(getAssetStore))

	// Objects
	api.Set("addMesh", js.FuncOf(addMesh))
	api.Set("addLight", js.FuncOf(addLight))
	api.Set("duplicateSelected", js.FuncOf(duplicateSelected))
	api.Set("deleteSelected", js.FuncOf(deleteSelected))
	api.Set("commitTransform", js.FuncOf(commitTransform))
	api.Set("setVisibility", js.FuncOf(setVisibility))
	api.Set("setColor", js.FuncOf(setColor))
	api.Set("setLightProperty", js.FuncOf(setLightProperty))
	api.Set("rename", js.FuncOf(rename))
	api.Set("setLocked", js.FuncOf(setLocked))
	api.Set("getObjects", js.FuncOf(getObjects))

	// Selection and groups
	api.Set("select", js.FuncOf(selectObject))
	api.Set("selectByIds", js.FuncOf(selectByIDs))
	api.Set("clearSelection", js.FuncOf(clearSelection))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getSelectionProxy", js.FuncOf(getSelectionProxy))
	api.Set("isSelectionManipulable", js.FuncOf(isSelectionManipulable))
	api.Set("createGroup", js.FuncOf(createGroup))
	api.Set("deleteGroup", js.FuncOf(deleteGroup))
	api.Set("selectGroup", js.FuncOf(selectGroup))
	api.Set("getGroups", js.FuncOf(getGroups))

	// History
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("canUndo", js.FuncOf(canUndo))
	api.Set("canRedo", js.FuncOf(canRedo))

	// Alignment and placement aids
	api.Set("align", js.FuncOf(align))
	api.Set("distribute", js.FuncOf(distribute))
	api.Set("setPlacementAids", js.FuncOf(setPlacementAids))
	api.Set("snapGhost", js.FuncOf(snapGhost))
	api.Set("quantizePosition", js.FuncOf(quantizePosition))

	js.Global().Set("gridforgeEditor", api)
	js.Global().Set("gridforgeWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- visual layer bridge ---

// jsVisuals forwards visual lifecycle calls to the gridforgeVisuals
// global, which the frontend points at its Babylon scene wrapper.
type jsVisuals struct{}

func visualHost() js.Value {
	return js.Global().Get("gridforgeVisuals")
}

func (jsVisuals) InstantiateMesh(ctx context.Context, id, assetRef string) error {
	host := visualHost()
	if host.IsUndefined() {
		return nil
	}
	res := host.Call("instantiateMesh", id, assetRef)
	if res.Type() == js.TypeBoolean && !res.Bool() {
		return editor.ErrAssetNotFound
	}
	return nil
}

func (jsVisuals) InstantiateLight(ctx context.Context, id string, kind scene.LightKind) error {
	host := visualHost()
	if host.IsUndefined() {
		return nil
	}
	host.Call("instantiateLight", id, string(kind))
	return nil
}

func (jsVisuals) DisposeVisual(id string) {
	host := visualHost()
	if host.IsUndefined() {
		return
	}
	host.Call("disposeVisual", id)
}

func (jsVisuals) WorldBounds(id string) (geom.Box3, bool) {
	host := visualHost()
	if host.IsUndefined() {
		return geom.Box3{}, false
	}
	res := host.Call("worldBounds", id)
	if res.Type() != js.TypeString {
		return geom.Box3{}, false
	}
	var box geom.Box3
	if err := json.Unmarshal([]byte(res.String()), &box); err != nil {
		return geom.Box3{}, false
	}
	return box, true
}

func (jsVisuals) SetTransform(id string, t scene.Transform) {
	host := visualHost()
	if host.IsUndefined() {
		return
	}
	host.Call("setTransform", id, mustJSON(t))
}

func fireEvent(name, payload string) {
	events := js.Global().Get("gridforgeEvents")
	if events.IsUndefined() {
		return
	}
	handler := events.Get(name)
	if handler.Type() != js.TypeFunction {
		return
	}
	handler.Invoke(payload)
}

// --- helpers ---

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func errResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func stringArg(args []js.Value, i int) string {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

func idsArg(args []js.Value, i int) []string {
	raw := stringArg(args, i)
	if raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

func transformArg(args []js.Value, i int) scene.Transform {
	raw := stringArg(args, i)
	if raw == "" {
		return scene.IdentityTransform()
	}
	var t scene.Transform
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return scene.IdentityTransform()
	}
	return t
}

// --- document ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	raw := stringArg(args, 0)
	if raw == "" {
		return errResult(scene.ErrInvalidDocument)
	}
	doc, err := scene.ParseDocument([]byte(raw))
	if err != nil {
		return errResult(err)
	}
	if err := ed.LoadDocument(context.Background(), doc); err != nil {
		return errResult(err)
	}
	return okResult()
}

func saveDocument(this js.Value, args []js.Value) interface{} {
	data, err := ed.SaveDocument().Encode()
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(string(data))
}

func clear(this js.Value, args []js.Value) interface{} {
	ed.Clear()
	return okResult()
}

func getMapName(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.MapName())
}

func setMapName(this js.Value, args []js.Value) interface{} {
	ed.SetMapName(stringArg(args, 0))
	return okResult()
}

func registerAsset(this js.Value, args []js.Value) interface{} {
	var entry scene.AssetEntry
	if err := json.Unmarshal([]byte(stringArg(args, 0)), &entry); err != nil {
		return errResult(err)
	}
	ed.RegisterAsset(entry)
	return okResult()
}

func getAssetStore(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(mustJSON(ed.AssetStore()))
}

// --- objects ---

func addMesh(this js.Value, args []js.Value) interface{} {
	obj, err := ed.AddMesh(context.Background(), stringArg(args, 0), transformArg(args, 1))
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(mustJSON(obj))
}

func addLight(this js.Value, args []js.Value) interface{} {
	kind := scene.LightKind(stringArg(args, 0))
	params := scene.LightParams{Intensity: 1}
	if raw := stringArg(args, 2); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return errResult(err)
		}
	}
	obj, err := ed.AddLight(context.Background(), kind, transformArg(args, 1), params)
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(mustJSON(obj))
}

func duplicateSelected(this js.Value, args []js.Value) interface{} {
	clones, err := ed.DuplicateSelected(context.Background())
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(mustJSON(clones))
}

func deleteSelected(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(mustJSON(ed.DeleteSelected()))
}

func commitTransform(this js.Value, args []js.Value) interface{} {
	var changes []history.TransformChange
	if err := json.Unmarshal([]byte(stringArg(args, 0)), &changes); err != nil {
		return errResult(err)
	}
	ed.CommitTransform(changes)
	return okResult()
}

func setVisibility(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	ed.SetVisibility(idsArg(args, 0), args[1].Bool())
	return okResult()
}

func setColor(this js.Value, args []js.Value) interface{} {
	ed.SetColor(idsArg(args, 0), stringArg(args, 1))
	return okResult()
}

func setLightProperty(this js.Value, args []js.Value) interface{} {
	id := stringArg(args, 0)
	key := store.PropertyKey(stringArg(args, 1))
	raw := stringArg(args, 2)

	var value interface{}
	switch key {
	case store.PropIntensity:
		var v float64
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return errResult(err)
		}
		value = v
	case store.PropDirection:
		var v [3]float64
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return errResult(err)
		}
		value = mgl64.Vec3(v)
	case store.PropCastShadows:
		var v bool
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return errResult(err)
		}
		value = v
	default:
		var v string
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return errResult(err)
		}
		value = v
	}

	ed.SetLightProperty(id, key, value)
	return okResult()
}

func rename(this js.Value, args []js.Value) interface{} {
	ed.Rename(stringArg(args, 0), stringArg(args, 1))
	return okResult()
}

func setLocked(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	ed.SetLocked(idsArg(args, 0), args[1].Bool())
	return okResult()
}

func getObjects(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(mustJSON(ed.Objects()))
}

// --- selection and groups ---

func selectObject(this js.Value, args []js.Value) interface{} {
	additive := len(args) > 1 && args[1].Type() == js.TypeBoolean && args[1].Bool()
	ed.Select(stringArg(args, 0), additive)
	return okResult()
}

func selectByIDs(this js.Value, args []js.Value) interface{} {
	ed.SelectByIDs(idsArg(args, 0))
	return okResult()
}

func clearSelection(this js.Value, args []js.Value) interface{} {
	ed.ClearSelection()
	return okResult()
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(mustJSON(ed.SelectionIDs()))
}

func getSelectionProxy(this js.Value, args []js.Value) interface{} {
	proxy := ed.SelectionProxy()
	if proxy == nil {
		return js.Null()
	}
	return js.ValueOf(mustJSON(proxy))
}

func isSelectionManipulable(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.SelectionManipulable())
}

func createGroup(this js.Value, args []js.Value) interface{} {
	ids := idsArg(args, 1)
	if len(ids) == 0 {
		ids = ed.SelectionIDs()
	}
	g, ok := ed.CreateGroup(stringArg(args, 0), ids)
	if !ok {
		return js.Null()
	}
	return js.ValueOf(mustJSON(g))
}

func deleteGroup(this js.Value, args []js.Value) interface{} {
	ed.DeleteGroup(stringArg(args, 0))
	return okResult()
}

func selectGroup(this js.Value, args []js.Value) interface{} {
	ed.SelectGroup(stringArg(args, 0))
	return okResult()
}

func getGroups(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(mustJSON(ed.Groups()))
}

// --- history ---

func undo(this js.Value, args []js.Value) interface{} {
	if err := ed.Undo(context.Background()); err != nil {
		return errResult(err)
	}
	return okResult()
}

func redo(this js.Value, args []js.Value) interface{} {
	if err := ed.Redo(context.Background()); err != nil {
		return errResult(err)
	}
	return okResult()
}

func canUndo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.CanUndo())
}

func canRedo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.CanRedo())
}

// --- alignment and placement aids ---

func align(this js.Value, args []js.Value) interface{} {
	axis, err := editor.ParseAxis(stringArg(args, 0))
	if err != nil {
		return errResult(err)
	}
	ed.Align(axis, editor.AlignMode(stringArg(args, 1)))
	return okResult()
}

func distribute(this js.Value, args []js.Value) interface{} {
	axis, err := editor.ParseAxis(stringArg(args, 0))
	if err != nil {
		return errResult(err)
	}
	ed.Distribute(axis)
	return okResult()
}

func setPlacementAids(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	ed.SetPlacementAids(args[0].Bool(), args[1].Bool())
	return okResult()
}

func snapGhost(this js.Value, args []js.Value) interface{} {
	var bounds geom.Box3
	if err := json.Unmarshal([]byte(stringArg(args, 0)), &bounds); err != nil {
		return errResult(err)
	}
	offset, snapped := ed.SnapGhost(bounds, transformArg(args, 1), idsArg(args, 2)...)
	return js.ValueOf(mustJSON(map[string]interface{}{
		"offset":  [3]float64{offset.X(), offset.Y(), offset.Z()},
		"snapped": snapped,
	}))
}

func quantizePosition(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.Null()
	}
	pos := ed.QuantizePosition(mgl64.Vec3{args[0].Float(), args[1].Float(), args[2].Float()})
	return js.ValueOf(mustJSON([3]float64{pos.X(), pos.Y(), pos.Z()}))
}
