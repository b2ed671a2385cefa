package asset

import (
	"path"
	"strings"
)

// BaseDir returns the directory part of a model URL with a leading and a
// trailing slash: /pokemon/27/sand.dae → /pokemon/27/.
func BaseDir(modelPath string) string {
	if i := strings.IndexAny(modelPath, "?#"); i >= 0 {
		modelPath = modelPath[:i]
	}
	i := strings.LastIndex(modelPath, "/")
	if i < 0 {
		return "/"
	}
	dir := modelPath[:i+1]
	if !strings.HasPrefix(dir, "/") {
		dir = "/" + dir
	}
	return dir
}

// MTLPath is the material library expected beside a DAE model:
// /pokemon/27/sand.dae → /pokemon/27/sand.mtl.
func MTLPath(modelPath string) string {
	base := path.Base(modelPath)
	name := strings.TrimSuffix(base, path.Ext(base))
	return BaseDir(modelPath) + name + ".mtl"
}

// fileName returns the last path element of a texture reference, which
// may be a URL, a Windows path or a file:// reference.
func fileName(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.ReplaceAll(ref, "\\", "/")
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	return ref
}

// ResolveTexture picks the texture URL for m.
//
// An MTL match wins. Otherwise the embedded reference is used, reduced to
// its file name: absolute http(s) URLs and directories baked in by the
// exporter never point at the copy served beside the model. Embedded data
// URIs are left alone. The result is baseDir + file name.
func ResolveTexture(m Material, mtl []MTLEntry, baseDir string) string {
	name := ""
	if len(mtl) > 0 && m.Name != "" {
		name = fileName(MatchTexture(mtl, m.Name))
	}
	if name == "" {
		if strings.HasPrefix(m.Texture, "data:") {
			return m.Texture
		}
		name = fileName(m.Texture)
	}
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(baseDir, "/") {
		baseDir = "/" + baseDir
	}
	if !strings.HasSuffix(baseDir, "/") {
		baseDir += "/"
	}
	return baseDir + name
}
