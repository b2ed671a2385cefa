// Package modelpath answers "which 3D file should be rendered for species N?".
//
// Two Locators can answer it:
//
//	CacheLocator → the pokemon_model table, re-verified against the disk
//	ScanLocator  → a fresh walk of public/pokemon/{id}
//
// The Resolver tries the cache first and falls back to the scan whenever
// the cached row is missing, stale, or unreadable. Resolution never fails
// for a missing model: the result carries FileExists=false instead.
package modelpath

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// Extensions lists the file types the viewer can load.
var Extensions = []string{"dae", "fbx", "obj", "glb", "gltf"}

// URLPrefix is where the asset root is mounted over HTTP.
const URLPrefix = "/pokemon"

// Candidate is one renderable file found under a species directory.
type Candidate struct {
	// RelPath is relative to the species directory, slash separated.
	RelPath string
	Name    string
	Ext     string
	Size    int64
}

// Scanner walks species directories inside an asset root.
// The fs.FS is rooted at the asset root, so species 25 lives at "pokemon/25".
type Scanner struct {
	fsys fs.FS
}

// NewScanner creates a Scanner over fsys.
func NewScanner(fsys fs.FS) *Scanner {
	return &Scanner{fsys: fsys}
}

// CanonicalName is the preferred model file name, e.g. pm0025_00_00.dae.
func CanonicalName(pokemonID int) string {
	return fmt.Sprintf("pm%04d_00_00.dae", pokemonID)
}

// CanonicalURL is the path returned when no model file exists.
func CanonicalURL(pokemonID int) string {
	return URL(pokemonID, CanonicalName(pokemonID))
}

// URL joins a species id and a path relative to its directory.
func URL(pokemonID int, relPath string) string {
	return fmt.Sprintf("%s/%d/%s", URLPrefix, pokemonID, relPath)
}

// IsCollision reports whether name follows the physics-mesh naming convention.
func IsCollision(name string) bool {
	return strings.Contains(strings.ToLower(name), "collision")
}

// ExtOf returns the lower-cased extension of name without the dot.
func ExtOf(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

func isModelExt(ext string) bool {
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func speciesDir(pokemonID int) string {
	return fmt.Sprintf("pokemon/%d", pokemonID)
}

// Candidates lists the renderable files for a species in walk order.
// Directories named like "shiny" are skipped, as are collision meshes.
// A missing species directory yields no candidates and no error.
func (s *Scanner) Candidates(pokemonID int) ([]Candidate, error) {
	root := speciesDir(pokemonID)
	var out []Candidate

	err := fs.WalkDir(s.fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if p != root && strings.Contains(strings.ToLower(d.Name()), "shiny") {
				return fs.SkipDir
			}
			return nil
		}

		ext := ExtOf(d.Name())
		if !isModelExt(ext) || IsCollision(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Candidate{
			RelPath: strings.TrimPrefix(p, root+"/"),
			Name:    d.Name(),
			Ext:     ext,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("modelpath: scanning %s: %w", root, err)
	}
	return out, nil
}

// Pick chooses the file to render:
//
//  1. a name containing pm{id:04}_00_00.dae
//  2. a .dae at the directory root
//  3. any .dae
//  4. the first candidate
func Pick(pokemonID int, cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}

	canonical := CanonicalName(pokemonID)
	for _, c := range cands {
		if strings.Contains(c.Name, canonical) {
			return c, true
		}
	}
	for _, c := range cands {
		if c.Ext == "dae" && !strings.Contains(c.RelPath, "/") {
			return c, true
		}
	}
	for _, c := range cands {
		if c.Ext == "dae" {
			return c, true
		}
	}
	return cands[0], true
}

// Stat reports the size of the file behind a /pokemon/... URL path.
// ok is false when the file is missing or is a directory.
func (s *Scanner) Stat(urlPath string) (size int64, ok bool) {
	name, valid := fsPath(urlPath)
	if !valid {
		return 0, false
	}
	info, err := fs.Stat(s.fsys, name)
	if err != nil || info.IsDir() {
		return 0, false
	}
	return info.Size(), true
}

// Open opens the file behind a /pokemon/... URL path.
func (s *Scanner) Open(urlPath string) (fs.File, error) {
	name, ok := fsPath(urlPath)
	if !ok {
		return nil, fmt.Errorf("modelpath: invalid asset path %q: %w", urlPath, fs.ErrInvalid)
	}
	return s.fsys.Open(name)
}

// ReadFile reads the file behind a /pokemon/... URL path.
func (s *Scanner) ReadFile(urlPath string) ([]byte, error) {
	name, ok := fsPath(urlPath)
	if !ok {
		return nil, fmt.Errorf("modelpath: invalid asset path %q: %w", urlPath, fs.ErrInvalid)
	}
	return fs.ReadFile(s.fsys, name)
}

// fsPath maps "/pokemon/25/a.dae" to "pokemon/25/a.dae".
func fsPath(urlPath string) (string, bool) {
	if i := strings.IndexAny(urlPath, "?#"); i >= 0 {
		urlPath = urlPath[:i]
	}
	name := strings.TrimPrefix(urlPath, "/")
	if !strings.HasPrefix(name, strings.TrimPrefix(URLPrefix, "/")+"/") {
		return "", false
	}
	return name, fs.ValidPath(name)
}

// Siblings lists the files next to urlPath whose extension is in exts,
// as /pokemon/... URL paths. The file itself is not included.
func (s *Scanner) Siblings(urlPath string, exts ...string) ([]string, error) {
	name, ok := fsPath(urlPath)
	if !ok {
		return nil, fmt.Errorf("modelpath: invalid asset path %q: %w", urlPath, fs.ErrInvalid)
	}
	dir := path.Dir(name)
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == path.Base(name) {
			continue
		}
		if slices.Contains(exts, ExtOf(e.Name())) {
			out = append(out, "/"+dir+"/"+e.Name())
		}
	}
	return out, nil
}
