package scene

import (
	"encoding/json"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind discriminates placed object variants. It is carried in object
// metadata from creation and never inferred from names.
type Kind string

const (
	KindMesh  Kind = "mesh"
	KindLight Kind = "light"
)

// LightKind refines KindLight.
type LightKind string

const (
	LightPoint       LightKind = "point"
	LightDirectional LightKind = "directional"
	LightHemispheric LightKind = "hemispheric"
)

// MinScale is the smallest magnitude a scale component may take.
// Scale components are clamped away from zero so object transforms
// stay invertible.
const MinScale = 1e-4

// Transform is a world-space placement: position, Euler rotation in
// radians, and per-axis scale.
type Transform struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Vec3 `json:"rotation"`
	Scale    mgl64.Vec3 `json:"scale"`
}

// IdentityTransform returns a transform at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: mgl64.Vec3{1, 1, 1}}
}

// Clamped returns the transform with scale components pushed away from
// zero, preserving sign.
func (t Transform) Clamped() Transform {
	for i := 0; i < 3; i++ {
		if math.Abs(t.Scale[i]) < MinScale {
			if t.Scale[i] < 0 {
				t.Scale[i] = -MinScale
			} else {
				t.Scale[i] = MinScale
			}
		}
	}
	return t
}

// Equals reports whether two transforms match component-wise within eps.
func (t Transform) Equals(o Transform, eps float64) bool {
	return vecEquals(t.Position, o.Position, eps) &&
		vecEquals(t.Rotation, o.Rotation, eps) &&
		vecEquals(t.Scale, o.Scale, eps)
}

func vecEquals(a, b mgl64.Vec3, eps float64) bool {
	return math.Abs(a[0]-b[0]) < eps &&
		math.Abs(a[1]-b[1]) < eps &&
		math.Abs(a[2]-b[2]) < eps
}

// Matrix returns the full affine matrix: Translate * Rotate * Scale.
func (t Transform) Matrix() mgl64.Mat4 {
	trans := mgl64.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	rot := mgl64.AnglesToQuat(t.Rotation[0], t.Rotation[1], t.Rotation[2], mgl64.XYZ).Mat4()
	scale := mgl64.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	return trans.Mul4(rot).Mul4(scale)
}

// LightParams holds the light-specific fields of a placed light.
// Ground is meaningful only for hemispheric lights, Direction only for
// directional and hemispheric ones.
type LightParams struct {
	Intensity   float64    `json:"intensity"`
	Diffuse     string     `json:"diffuse,omitempty"`
	Specular    string     `json:"specular,omitempty"`
	Ground      string     `json:"groundColor,omitempty"`
	Direction   mgl64.Vec3 `json:"direction"`
	CastShadows bool       `json:"castShadows"`
}

// PlacedObject is one mesh instance or light in the map. The store owns
// the canonical copy; the browser holds a derived visual keyed by ID.
type PlacedObject struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Kind      Kind         `json:"kind"`
	LightKind LightKind    `json:"lightKind,omitempty"`
	AssetRef  string       `json:"assetRef,omitempty"`
	Transform Transform    `json:"transform"`
	Locked    bool         `json:"locked"`
	Visible   bool         `json:"visible"`
	Color     string       `json:"color,omitempty"`
	Light     *LightParams `json:"light,omitempty"`
}

// Clone returns a deep copy, including light params.
func (o PlacedObject) Clone() PlacedObject {
	c := o
	if o.Light != nil {
		lp := *o.Light
		c.Light = &lp
	}
	return c
}

// UnmarshalJSON defaults Visible to true when the field is absent, so
// documents written before the visibility flag existed stay loadable.
func (o *PlacedObject) UnmarshalJSON(data []byte) error {
	type alias PlacedObject
	aux := struct {
		*alias
		Visible *bool `json:"visible"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Visible != nil {
		o.Visible = *aux.Visible
	} else {
		o.Visible = true
	}
	return nil
}

// Group is a flat, named set of object ids. An object belongs to at
// most one group; empty groups are pruned.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ObjectIDs []string `json:"objectIds"`
}

// Clone returns a copy with its own id slice.
func (g Group) Clone() Group {
	c := g
	c.ObjectIDs = append([]string(nil), g.ObjectIDs...)
	return c
}

// AssetEntry describes one importable mesh asset available to the map.
type AssetEntry struct {
	Name      string `json:"name"`
	File      string `json:"file"`
	Thumbnail string `json:"thumbnail"`
}
