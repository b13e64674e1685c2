package selection

import (
	"github.com/gridforge/gridforge/internal/scene"
)

// CreateGroup makes a new group from the given object ids. Ids are
// first stripped from any group they currently belong to (an object is
// in at most one group), and groups left empty by the strip are pruned.
func (m *Manager) CreateGroup(id, name string, objectIDs []string) scene.Group {
	m.stripFromGroups(objectIDs)

	g := &scene.Group{
		ID:        id,
		Name:      name,
		ObjectIDs: append([]string(nil), objectIDs...),
	}
	m.groups[id] = g
	m.groupOrder = append(m.groupOrder, id)
	m.pruneEmptyGroups()
	return g.Clone()
}

// DeleteGroup removes the group record only; its member objects are
// untouched.
func (m *Manager) DeleteGroup(id string) bool {
	if _, ok := m.groups[id]; !ok {
		return false
	}
	delete(m.groups, id)
	m.dropGroupOrder(id)
	return true
}

// Group returns a copy of a group.
func (m *Manager) Group(id string) (scene.Group, bool) {
	g, ok := m.groups[id]
	if !ok {
		return scene.Group{}, false
	}
	return g.Clone(), true
}

// Groups returns all groups in creation order.
func (m *Manager) Groups() []scene.Group {
	out := make([]scene.Group, 0, len(m.groupOrder))
	for _, id := range m.groupOrder {
		out = append(out, m.groups[id].Clone())
	}
	return out
}

// GroupOf returns the id of the group containing the object, if any.
func (m *Manager) GroupOf(objectID string) (string, bool) {
	for _, gid := range m.groupOrder {
		for _, oid := range m.groups[gid].ObjectIDs {
			if oid == objectID {
				return gid, true
			}
		}
	}
	return "", false
}

// PurgeObjects removes object ids from every group and prunes groups
// left empty. Orchestrators call this in the same operation that
// removes the objects from the store, so no group ever references a
// dead id.
func (m *Manager) PurgeObjects(ids ...string) {
	m.stripFromGroups(ids)
	m.pruneEmptyGroups()
}

// SetGroups replaces all groups, used when loading a document.
func (m *Manager) SetGroups(groups []scene.Group) {
	m.groups = make(map[string]*scene.Group, len(groups))
	m.groupOrder = m.groupOrder[:0]
	for _, g := range groups {
		c := g.Clone()
		m.groups[g.ID] = &c
		m.groupOrder = append(m.groupOrder, g.ID)
	}
}

func (m *Manager) stripFromGroups(ids []string) {
	strip := make(map[string]bool, len(ids))
	for _, id := range ids {
		strip[id] = true
	}
	for _, g := range m.groups {
		kept := g.ObjectIDs[:0]
		for _, oid := range g.ObjectIDs {
			if !strip[oid] {
				kept = append(kept, oid)
			}
		}
		g.ObjectIDs = kept
	}
}

func (m *Manager) pruneEmptyGroups() {
	for _, gid := range append([]string(nil), m.groupOrder...) {
		if len(m.groups[gid].ObjectIDs) == 0 {
			delete(m.groups, gid)
			m.dropGroupOrder(gid)
		}
	}
}

func (m *Manager) dropGroupOrder(id string) {
	for i, gid := range m.groupOrder {
		if gid == id {
			m.groupOrder = append(m.groupOrder[:i], m.groupOrder[i+1:]...)
			return
		}
	}
}
