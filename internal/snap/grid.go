package snap

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultGridSize is the cell size used by grid quantization.
const DefaultGridSize = 1.0

// QuantizeXZ rounds the X and Z position components to the nearest
// multiple of the grid size. Y is untouched. This is the simple
// grid-placement aid; it is independent of feature-point snapping and
// the two can be toggled separately.
func QuantizeXZ(pos mgl64.Vec3, grid float64) mgl64.Vec3 {
	if grid <= 0 {
		grid = DefaultGridSize
	}
	pos[0] = math.Round(pos[0]/grid) * grid
	pos[2] = math.Round(pos[2]/grid) * grid
	return pos
}
