package selection

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/gridforge/internal/geom"
)

func TestSelectExclusive(t *testing.T) {
	m := NewManager()
	m.Select("a", false)
	m.Select("b", false)

	ids := m.IDs()
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("IDs = %v, want [b]", ids)
	}
}

func TestSelectAdditiveToggles(t *testing.T) {
	m := NewManager()
	m.Select("a", false)
	m.Select("b", true)
	m.Select("c", true)

	ids := m.IDs()
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("IDs = %v, want %v", ids, want)
		}
	}

	// Additive click on a selected id deselects it.
	m.Select("b", true)
	ids = m.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("after toggle: %v", ids)
	}
}

func TestSelectByIDsDedupes(t *testing.T) {
	m := NewManager()
	m.Select("x", false)
	m.SelectByIDs([]string{"a", "b", "a"})

	ids := m.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("IDs = %v", ids)
	}
	if m.Contains("x") {
		t.Error("previous selection survived SelectByIDs")
	}
}

func TestDrop(t *testing.T) {
	m := NewManager()
	m.SelectByIDs([]string{"a", "b", "c"})
	m.Drop("b", "nope")

	ids := m.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("IDs = %v", ids)
	}
}

func unitBoxAt(x float64) geom.Box3 {
	return geom.Box3{Min: mgl64.Vec3{x, 0, 0}, Max: mgl64.Vec3{x + 1, 1, 1}}
}

func TestProxyNeedsTwoObjects(t *testing.T) {
	m := NewManager()
	bounds := func(id string) (geom.Box3, bool) { return unitBoxAt(0), true }

	if m.Proxy(bounds) != nil {
		t.Error("proxy for empty selection")
	}
	m.Select("a", false)
	if m.Proxy(bounds) != nil {
		t.Error("proxy for single selection")
	}
}

func TestProxyPivotIsUnionCenter(t *testing.T) {
	m := NewManager()
	m.SelectByIDs([]string{"a", "b"})
	boxes := map[string]geom.Box3{
		"a": unitBoxAt(0),
		"b": unitBoxAt(4),
	}
	bounds := func(id string) (geom.Box3, bool) {
		b, ok := boxes[id]
		return b, ok
	}

	p := m.Proxy(bounds)
	if p == nil {
		t.Fatal("no proxy")
	}
	if p.Pivot != (mgl64.Vec3{2.5, 0.5, 0.5}) {
		t.Errorf("pivot = %v", p.Pivot)
	}
	if len(p.Members) != 2 {
		t.Errorf("members = %v", p.Members)
	}
}

func TestProxyNilWhenNoBoundsResolve(t *testing.T) {
	m := NewManager()
	m.SelectByIDs([]string{"a", "b"})
	bounds := func(id string) (geom.Box3, bool) { return geom.Box3{}, false }

	if m.Proxy(bounds) != nil {
		t.Error("proxy built with no resolvable bounds")
	}
}

func TestManipulable(t *testing.T) {
	m := NewManager()
	locked := map[string]bool{"a": true, "b": false}
	isLocked := func(id string) bool { return locked[id] }

	if m.Manipulable(isLocked) {
		t.Error("empty selection manipulable")
	}

	m.SelectByIDs([]string{"a"})
	if m.Manipulable(isLocked) {
		t.Error("all-locked selection manipulable")
	}

	m.SelectByIDs([]string{"a", "b"})
	if !m.Manipulable(isLocked) {
		t.Error("selection with an unlocked object not manipulable")
	}
}

func TestCreateGroupStealsMembers(t *testing.T) {
	m := NewManager()
	m.CreateGroup("g1", "walls", []string{"a", "b"})
	m.CreateGroup("g2", "props", []string{"b", "c"})

	g1, ok := m.Group("g1")
	if !ok {
		t.Fatal("g1 missing")
	}
	if len(g1.ObjectIDs) != 1 || g1.ObjectIDs[0] != "a" {
		t.Errorf("g1 members = %v", g1.ObjectIDs)
	}

	if gid, ok := m.GroupOf("b"); !ok || gid != "g2" {
		t.Errorf("GroupOf(b) = %q, %v", gid, ok)
	}
}

func TestCreateGroupPrunesEmptied(t *testing.T) {
	m := NewManager()
	m.CreateGroup("g1", "walls", []string{"a", "b"})
	m.CreateGroup("g2", "props", []string{"a", "b"})

	if _, ok := m.Group("g1"); ok {
		t.Error("emptied group survived")
	}
	if len(m.Groups()) != 1 {
		t.Errorf("groups = %v", m.Groups())
	}
}

func TestPurgeObjects(t *testing.T) {
	m := NewManager()
	m.CreateGroup("g1", "walls", []string{"a", "b"})
	m.CreateGroup("g2", "props", []string{"c"})

	m.PurgeObjects("c", "a")

	if _, ok := m.Group("g2"); ok {
		t.Error("emptied group survived purge")
	}
	g1, _ := m.Group("g1")
	if len(g1.ObjectIDs) != 1 || g1.ObjectIDs[0] != "b" {
		t.Errorf("g1 members = %v", g1.ObjectIDs)
	}
}

func TestDeleteGroupKeepsObjects(t *testing.T) {
	m := NewManager()
	m.CreateGroup("g1", "walls", []string{"a", "b"})

	if !m.DeleteGroup("g1") {
		t.Fatal("DeleteGroup returned false")
	}
	if m.DeleteGroup("g1") {
		t.Error("second delete returned true")
	}
	if _, ok := m.GroupOf("a"); ok {
		t.Error("object still grouped")
	}
}

func TestGroupsCreationOrder(t *testing.T) {
	m := NewManager()
	m.CreateGroup("g2", "b", []string{"x"})
	m.CreateGroup("g1", "a", []string{"y"})

	groups := m.Groups()
	if len(groups) != 2 || groups[0].ID != "g2" || groups[1].ID != "g1" {
		t.Errorf("groups = %v", groups)
	}
}
