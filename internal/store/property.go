package store

import (
	"github.com/go-gl/mathgl/mgl64"
)

// PropertyKey names a scalar object field addressable by the generic
// property primitives. Light-only keys no-op on meshes.
type PropertyKey string

const (
	PropName        PropertyKey = "name"
	PropColor       PropertyKey = "color"
	PropLocked      PropertyKey = "locked"
	PropVisible     PropertyKey = "visible"
	PropIntensity   PropertyKey = "intensity"
	PropDiffuse     PropertyKey = "diffuse"
	PropSpecular    PropertyKey = "specular"
	PropGround      PropertyKey = "groundColor"
	PropDirection   PropertyKey = "direction"
	PropCastShadows PropertyKey = "castShadows"
)

// Property reads the current value of a scalar field.
func (s *Store) Property(id string, key PropertyKey) (interface{}, bool) {
	obj, ok := s.objects[id]
	if !ok {
		return nil, false
	}

	switch key {
	case PropName:
		return obj.Name, true
	case PropColor:
		return obj.Color, true
	case PropLocked:
		return obj.Locked, true
	case PropVisible:
		return obj.Visible, true
	}

	if obj.Light == nil {
		return nil, false
	}
	switch key {
	case PropIntensity:
		return obj.Light.Intensity, true
	case PropDiffuse:
		return obj.Light.Diffuse, true
	case PropSpecular:
		return obj.Light.Specular, true
	case PropGround:
		return obj.Light.Ground, true
	case PropDirection:
		return obj.Light.Direction, true
	case PropCastShadows:
		return obj.Light.CastShadows, true
	}
	return nil, false
}

// WriteProperty overwrites a scalar field. Unknown ids and mismatched
// value types no-op and return false.
func (s *Store) WriteProperty(id string, key PropertyKey, value interface{}) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}

	switch key {
	case PropName:
		if v, ok := value.(string); ok {
			obj.Name = v
			return true
		}
	case PropColor:
		if v, ok := value.(string); ok {
			obj.Color = v
			return true
		}
	case PropLocked:
		if v, ok := value.(bool); ok {
			obj.Locked = v
			return true
		}
	case PropVisible:
		if v, ok := value.(bool); ok {
			obj.Visible = v
			return true
		}
	case PropIntensity:
		if v, ok := value.(float64); ok && obj.Light != nil {
			obj.Light.Intensity = v
			return true
		}
	case PropDiffuse:
		if v, ok := value.(string); ok && obj.Light != nil {
			obj.Light.Diffuse = v
			return true
		}
	case PropSpecular:
		if v, ok := value.(string); ok && obj.Light != nil {
			obj.Light.Specular = v
			return true
		}
	case PropGround:
		if v, ok := value.(string); ok && obj.Light != nil {
			obj.Light.Ground = v
			return true
		}
	case PropDirection:
		if v, ok := value.(mgl64.Vec3); ok && obj.Light != nil {
			obj.Light.Direction = v
			return true
		}
	case PropCastShadows:
		if v, ok := value.(bool); ok && obj.Light != nil {
			obj.Light.CastShadows = v
			return true
		}
	}
	return false
}
