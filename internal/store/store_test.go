package store

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/gridforge/internal/scene"
)

func mesh(id, name string) scene.PlacedObject {
	return scene.PlacedObject{
		ID:        id,
		Name:      name,
		Kind:      scene.KindMesh,
		AssetRef:  "crate",
		Transform: scene.IdentityTransform(),
		Visible:   true,
	}
}

func TestAddRejectsBadIDs(t *testing.T) {
	s := New()
	if err := s.Add(mesh("", "x")); err == nil {
		t.Error("empty id accepted")
	}
	if err := s.Add(mesh("obj_1", "a")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(mesh("obj_1", "b")); err == nil {
		t.Error("duplicate id accepted")
	}
}

func TestAddClampsScale(t *testing.T) {
	s := New()
	obj := mesh("obj_1", "a")
	obj.Transform.Scale = mgl64.Vec3{0, 1, -1}
	if err := s.Add(obj); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, _ := s.Get("obj_1")
	for i, v := range got.Transform.Scale {
		if v < scene.MinScale {
			t.Errorf("scale[%d] = %g, want >= %g", i, v, scene.MinScale)
		}
	}
}

func TestRemoveReturnsFinalState(t *testing.T) {
	s := New()
	s.Add(mesh("obj_1", "a"))
	moved := scene.IdentityTransform()
	moved.Position = mgl64.Vec3{5, 0, 5}
	s.WriteTransform("obj_1", moved)

	final, ok := s.Remove("obj_1")
	if !ok {
		t.Fatal("Remove returned false")
	}
	if final.Transform.Position != (mgl64.Vec3{5, 0, 5}) {
		t.Errorf("final position = %v", final.Transform.Position)
	}
	if s.Contains("obj_1") || s.Len() != 0 {
		t.Error("object still present after Remove")
	}
	if _, ok := s.Remove("obj_1"); ok {
		t.Error("second Remove returned true")
	}
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	s := New()
	ids := []string{"c", "a", "b"}
	for _, id := range ids {
		s.Add(mesh(id, id))
	}
	s.Remove("a")
	s.Add(mesh("a", "a"))

	want := []string{"c", "b", "a"}
	all := s.All()
	if len(all) != len(want) {
		t.Fatalf("All returned %d objects", len(all))
	}
	for i, obj := range all {
		if obj.ID != want[i] {
			t.Errorf("All[%d] = %q, want %q", i, obj.ID, want[i])
		}
	}
}

func TestAllReturnsClones(t *testing.T) {
	s := New()
	s.Add(mesh("obj_1", "a"))
	all := s.All()
	all[0].Name = "mutated"

	got, _ := s.Get("obj_1")
	if got.Name != "a" {
		t.Error("mutating All() result leaked into the store")
	}
}

func TestWriteTransformUnknownID(t *testing.T) {
	s := New()
	if s.WriteTransform("nope", scene.IdentityTransform()) {
		t.Error("WriteTransform on unknown id returned true")
	}
}

func TestUniqueName(t *testing.T) {
	s := New()
	if got := s.UniqueName("crate"); got != "crate_1" {
		t.Errorf("empty store: %q", got)
	}

	s.Add(mesh("a", "crate_3"))
	s.Add(mesh("b", "crate_1"))
	s.Add(mesh("c", "crate_text")) // non-numeric suffix ignored
	s.Add(mesh("d", "barrel_9"))   // other asset ignored

	if got := s.UniqueName("crate"); got != "crate_4" {
		t.Errorf("UniqueName = %q, want crate_4", got)
	}
}

func TestPropertyRoundTrip(t *testing.T) {
	s := New()
	s.Add(mesh("obj_1", "a"))

	if !s.WriteProperty("obj_1", PropVisible, false) {
		t.Fatal("WriteProperty visible failed")
	}
	v, ok := s.Property("obj_1", PropVisible)
	if !ok || v != false {
		t.Errorf("visible = %v, %v", v, ok)
	}

	// Wrong value type must not write.
	if s.WriteProperty("obj_1", PropVisible, "yes") {
		t.Error("type-mismatched write succeeded")
	}
}

func TestLightPropertiesNoOpOnMeshes(t *testing.T) {
	s := New()
	s.Add(mesh("obj_1", "a"))

	if s.WriteProperty("obj_1", PropIntensity, 2.0) {
		t.Error("intensity write on mesh succeeded")
	}
	if _, ok := s.Property("obj_1", PropIntensity); ok {
		t.Error("intensity read on mesh succeeded")
	}
}

func TestLightPropertyWrites(t *testing.T) {
	s := New()
	light := scene.PlacedObject{
		ID:        "light_1",
		Name:      "pointLight_1",
		Kind:      scene.KindLight,
		LightKind: scene.LightPoint,
		Transform: scene.IdentityTransform(),
		Visible:   true,
		Light:     &scene.LightParams{Intensity: 1},
	}
	s.Add(light)

	if !s.WriteProperty("light_1", PropIntensity, 0.25) {
		t.Fatal("intensity write failed")
	}
	if !s.WriteProperty("light_1", PropDirection, mgl64.Vec3{0, -1, 0}) {
		t.Fatal("direction write failed")
	}

	got, _ := s.Get("light_1")
	if got.Light.Intensity != 0.25 {
		t.Errorf("intensity = %g", got.Light.Intensity)
	}
	if got.Light.Direction != (mgl64.Vec3{0, -1, 0}) {
		t.Errorf("direction = %v", got.Light.Direction)
	}
}
