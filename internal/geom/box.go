package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

// MinExtent is the smallest extent a box may report on any axis.
// Degenerate (flat or point) boxes are inflated to it so alignment and
// snap math never works with a zero-size volume.
const MinExtent = 1e-6

// FromPoints returns the smallest box containing all points.
func FromPoints(points ...mgl64.Vec3) Box3 {
	if len(points) == 0 {
		return Box3{}
	}
	b := Box3{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.ExtendPoint(p)
	}
	return b
}

// ExtendPoint grows the box to include p.
func (b Box3) ExtendPoint(p mgl64.Vec3) Box3 {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// IsEmpty reports whether the box has inverted extents on any axis.
func (b Box3) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// Union returns the smallest box containing both boxes.
func (b Box3) Union(other Box3) Box3 {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	return Box3{
		Min: mgl64.Vec3{
			math.Min(b.Min[0], other.Min[0]),
			math.Min(b.Min[1], other.Min[1]),
			math.Min(b.Min[2], other.Min[2]),
		},
		Max: mgl64.Vec3{
			math.Max(b.Max[0], other.Max[0]),
			math.Max(b.Max[1], other.Max[1]),
			math.Max(b.Max[2], other.Max[2]),
		},
	}
}

// Center returns the box centroid.
func (b Box3) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the per-axis extents.
func (b Box3) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Clamped inflates degenerate axes to MinExtent around their center.
func (b Box3) Clamped() Box3 {
	for i := 0; i < 3; i++ {
		if b.Max[i]-b.Min[i] < MinExtent {
			mid := (b.Min[i] + b.Max[i]) / 2
			b.Min[i] = mid - MinExtent/2
			b.Max[i] = mid + MinExtent/2
		}
	}
	return b
}

// Translated returns the box shifted by offset.
func (b Box3) Translated(offset mgl64.Vec3) Box3 {
	return Box3{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

// Corners returns the 8 corners of the box.
func (b Box3) Corners() []mgl64.Vec3 {
	return []mgl64.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}
