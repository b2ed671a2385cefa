// Package asset reads 3D model files far enough to tell a viewer how to
// show them: the bounding box to normalize, the materials to flatten to a
// matte finish, and the textures to bind.
//
// THE PIPELINE, PER REQUEST:
//
//	FormatFromPath → LoaderFor(format).Load → Normalize + Matte + textures → Manifest
//
// Nothing here renders. The manifest is a set of instructions, and any
// failure along the way turns it into a placeholder sphere instead of an
// error.
package asset

import (
	"path"
	"strings"
)

// Format is one of the supported model file families.
type Format string

const (
	FormatDAE  Format = "dae"
	FormatOBJ  Format = "obj"
	FormatFBX  Format = "fbx"
	FormatGLTF Format = "gltf"
)

// FormatFromPath picks the format from a file path or URL. A query string
// is ignored. glb and gltf are both FormatGLTF; anything unknown is tried
// as DAE.
func FormatFromPath(p string) Format {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "fbx":
		return FormatFBX
	case "obj":
		return FormatOBJ
	case "glb", "gltf":
		return FormatGLTF
	default:
		return FormatDAE
	}
}
