package asset

import "math"

// TargetSize is the edge length the largest model dimension is scaled to.
const TargetSize = 4.0

// Transform is a uniform scale followed by a translation.
type Transform struct {
	Scale     float64 `json:"scale"`
	Translate Vec3    `json:"translate"`
}

// Normalize fits b into a cube of edge target centered on the origin, then
// lifts it by yOffset. A flat or empty box counts as size 1.
func Normalize(b Bounds, target, yOffset float64) Transform {
	size := b.Size()
	maxDim := math.Max(size[0], math.Max(size[1], size[2]))
	if maxDim == 0 {
		maxDim = 1
	}
	scale := target / maxDim

	c := b.Center()
	t := Transform{
		Scale:     scale,
		Translate: Vec3{-c[0] * scale, -c[1] * scale, -c[2] * scale},
	}
	t.Translate[1] += yOffset
	return t
}
