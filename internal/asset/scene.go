package asset

import (
	"fmt"
	"io"
	"math"
)

// Vec3 is an x, y, z triple. It encodes as a JSON array.
type Vec3 [3]float64

// Bounds is an axis-aligned bounding box. The zero value is empty.
type Bounds struct {
	Min, Max Vec3
	set      bool
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool { return !b.set }

// Extend grows b to contain p.
func (b *Bounds) Extend(p Vec3) {
	if !b.set {
		b.Min, b.Max, b.set = p, p, true
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

// Union grows b to contain o.
func (b *Bounds) Union(o Bounds) {
	if o.Empty() {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// Size is max - min, or zero for an empty box.
func (b Bounds) Size() Vec3 {
	if b.Empty() {
		return Vec3{}
	}
	return Vec3{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Center is the midpoint, or the origin for an empty box.
func (b Bounds) Center() Vec3 {
	if b.Empty() {
		return Vec3{}
	}
	return Vec3{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2, (b.Min[2] + b.Max[2]) / 2}
}

// Material is a surface as declared by the model file.
type Material struct {
	Name string
	// Texture is the diffuse texture reference exactly as the file wrote it.
	Texture string
	// Color is the declared diffuse color as #rrggbb, if any.
	Color string
}

// Scene is what a Loader extracts from a model file.
type Scene struct {
	Bounds    Bounds
	Materials []Material
	// MaterialLibs lists external material files the model names (OBJ mtllib).
	MaterialLibs []string
}

// Loader parses one format.
type Loader interface {
	Load(r io.Reader) (*Scene, error)
}

// LoaderFor returns the loader for f.
func LoaderFor(f Format) Loader {
	switch f {
	case FormatOBJ:
		return objLoader{}
	case FormatFBX:
		return fbxLoader{}
	case FormatGLTF:
		return gltfLoader{}
	default:
		return daeLoader{}
	}
}

// hexColor converts 0..1 RGB components to #rrggbb.
func hexColor(r, g, b float64) string {
	c := func(v float64) int {
		return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return fmt.Sprintf("#%02x%02x%02x", c(r), c(g), c(b))
}
