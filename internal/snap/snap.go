// Package snap computes object-to-object placement alignment. It is
// pure geometry: no store access, no side effects, deterministic for a
// given anchor order.
package snap

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/gridforge/internal/geom"
	"github.com/gridforge/gridforge/internal/scene"
)

// DefaultThreshold is the maximum feature-point distance, in world
// units, at which snapping engages.
const DefaultThreshold = 2.0

// Anchor is a candidate object to snap against. Bounds is its world
// AABB; when the object exposes no pickable bounds, Bounds is nil and
// Position serves as the only feature point.
type Anchor struct {
	ID       string
	Bounds   *geom.Box3
	Position mgl64.Vec3
}

// Options tunes the snap computation.
type Options struct {
	// Threshold is the engage distance; zero or negative selects
	// DefaultThreshold.
	Threshold float64
}

// Offset returns the translation that aligns the mover's closest
// bottom-face feature point to the closest anchor feature point, and
// whether any pair came within the threshold. The offset is the exact
// point-to-point vector, not a quantized amount. Ties keep the first
// pair encountered.
func Offset(localBounds geom.Box3, at scene.Transform, anchors []Anchor, opts Options) (mgl64.Vec3, bool) {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	movers := moverPoints(localBounds.Clamped(), at)

	best := math.Inf(1)
	var bestOffset mgl64.Vec3
	found := false

	for _, anchor := range anchors {
		for _, ap := range anchorPoints(anchor) {
			for _, mp := range movers {
				d := ap.Sub(mp).Len()
				if d < best {
					best = d
					bestOffset = ap.Sub(mp)
					found = true
				}
			}
		}
	}

	if !found || best >= threshold {
		return mgl64.Vec3{}, false
	}
	return bestOffset, true
}

// moverPoints returns the mover's 9 canonical bottom-face points
// (4 corners, 4 edge midpoints, center) in world space. Bounds are
// given in the mover's local space since its world placement changes
// continuously during a drag; the full affine transform is applied so
// rotation and scale are respected.
func moverPoints(local geom.Box3, at scene.Transform) []mgl64.Vec3 {
	minX, maxX := local.Min[0], local.Max[0]
	minZ, maxZ := local.Min[2], local.Max[2]
	midX, midZ := (minX+maxX)/2, (minZ+maxZ)/2
	y := local.Min[1]

	pts := []mgl64.Vec3{
		{minX, y, minZ},
		{maxX, y, minZ},
		{minX, y, maxZ},
		{maxX, y, maxZ},
		{midX, y, minZ},
		{midX, y, maxZ},
		{minX, y, midZ},
		{maxX, y, midZ},
		{midX, y, midZ},
	}

	world := at.Clamped().Matrix()
	out := make([]mgl64.Vec3, len(pts))
	for i, p := range pts {
		out[i] = world.Mul4x1(p.Vec4(1)).Vec3()
	}
	return out
}

// anchorPoints returns the anchor's feature points from its world AABB:
// 8 corners plus the 4 bottom-edge and 4 top-edge midpoints. Anchors
// without bounds contribute their single world position.
func anchorPoints(a Anchor) []mgl64.Vec3 {
	if a.Bounds == nil {
		return []mgl64.Vec3{a.Position}
	}

	b := a.Bounds.Clamped()
	minX, maxX := b.Min[0], b.Max[0]
	minZ, maxZ := b.Min[2], b.Max[2]
	midX, midZ := (minX+maxX)/2, (minZ+maxZ)/2

	pts := b.Corners()
	for _, y := range []float64{b.Min[1], b.Max[1]} {
		pts = append(pts,
			mgl64.Vec3{midX, y, minZ},
			mgl64.Vec3{midX, y, maxZ},
			mgl64.Vec3{minX, y, midZ},
			mgl64.Vec3{maxX, y, midZ},
		)
	}
	return pts
}
