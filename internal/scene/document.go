package scene

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidDocument marks a persisted map document that cannot be
// loaded. Loads that fail with it must leave the current map untouched.
var ErrInvalidDocument = errors.New("invalid map document")

// MapDocument is the durable JSON contract for a saved map.
type MapDocument struct {
	Name       string         `json:"name"`
	Version    int            `json:"version"`
	AssetStore []AssetEntry   `json:"assetStore"`
	Assets     []PlacedObject `json:"assets"`
	Groups     []Group        `json:"groups"`
}

// NewEmptyDocument creates a fresh document for a new map.
func NewEmptyDocument(name string) *MapDocument {
	return &MapDocument{
		Name:       name,
		Version:    1,
		AssetStore: []AssetEntry{},
		Assets:     []PlacedObject{},
		Groups:     []Group{},
	}
}

// ParseDocument decodes and validates a persisted map document.
// Older documents may omit assetStore/groups entirely; missing arrays
// are treated as empty. Structural problems are reported as
// ErrInvalidDocument so callers can reject the load wholesale.
func ParseDocument(data []byte) (*MapDocument, error) {
	var doc MapDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if doc.AssetStore == nil {
		doc.AssetStore = []AssetEntry{}
	}
	if doc.Assets == nil {
		doc.Assets = []PlacedObject{}
	}
	if doc.Groups == nil {
		doc.Groups = []Group{}
	}

	seen := make(map[string]bool, len(doc.Assets))
	for i := range doc.Assets {
		obj := &doc.Assets[i]
		if obj.ID == "" {
			return nil, fmt.Errorf("%w: object %d has no id", ErrInvalidDocument, i)
		}
		if seen[obj.ID] {
			return nil, fmt.Errorf("%w: duplicate object id %q", ErrInvalidDocument, obj.ID)
		}
		seen[obj.ID] = true

		switch obj.Kind {
		case KindMesh:
			if obj.AssetRef == "" {
				return nil, fmt.Errorf("%w: mesh %q has no asset reference", ErrInvalidDocument, obj.ID)
			}
		case KindLight:
			switch obj.LightKind {
			case LightPoint, LightDirectional, LightHemispheric:
			default:
				return nil, fmt.Errorf("%w: light %q has unknown kind %q", ErrInvalidDocument, obj.ID, obj.LightKind)
			}
		default:
			return nil, fmt.Errorf("%w: object %q has unknown kind %q", ErrInvalidDocument, obj.ID, obj.Kind)
		}

		obj.Transform = obj.Transform.Clamped()
	}

	grouped := make(map[string]string)
	for _, g := range doc.Groups {
		if g.ID == "" {
			return nil, fmt.Errorf("%w: group %q has no id", ErrInvalidDocument, g.Name)
		}
		// An object belongs to at most one group.
		for _, id := range g.ObjectIDs {
			if other, ok := grouped[id]; ok {
				return nil, fmt.Errorf("%w: object %q in groups %q and %q", ErrInvalidDocument, id, other, g.ID)
			}
			grouped[id] = g.ID
		}
	}

	return &doc, nil
}

// Encode serializes the document. The field order is fixed by the
// struct, so identical state produces identical bytes.
func (d *MapDocument) Encode() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal map document: %w", err)
	}
	return data, nil
}
