package asset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/pokedex/internal/model"
)

// Primitive describes the stand-in shape shown when a model cannot load.
type Primitive struct {
	Shape     string  `json:"shape"`
	Radius    float64 `json:"radius"`
	Position  Vec3    `json:"position"`
	Color     string  `json:"color"`
	Metalness float64 `json:"metalness"`
	Roughness float64 `json:"roughness"`
}

// PlaceholderSphere is the stand-in for a model that failed to load.
var PlaceholderSphere = Primitive{
	Shape:     "sphere",
	Radius:    1.5,
	Position:  Vec3{0, 0.5, 0},
	Color:     "#4A90E2",
	Metalness: 0,
	Roughness: 1,
}

// ManifestMaterial is a material with its texture URL and matte preset.
type ManifestMaterial struct {
	Name    string      `json:"name"`
	Texture string      `json:"texture,omitempty"`
	Matte   MatteParams `json:"matte"`
}

// Manifest tells a viewer how to display one species' model.
type Manifest struct {
	PokemonID   int                `json:"pokemon_id"`
	URL         string             `json:"url"`
	Format      Format             `json:"format"`
	Transform   Transform          `json:"transform"`
	Materials   []ManifestMaterial `json:"materials"`
	Placeholder bool               `json:"placeholder"`
	Primitive   *Primitive         `json:"primitive,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// ModelResolver finds the model file for a species.
type ModelResolver interface {
	Resolve(ctx context.Context, pokemonID int) (*model.ModelResolution, error)
}

// FileSource reads files by their /pokemon/... URL path.
type FileSource interface {
	ReadFile(urlPath string) ([]byte, error)
}

type memoEntry struct {
	size     int64
	manifest Manifest
}

// Builder produces manifests. Successful manifests are memoized per model
// URL and file size, so a replaced file is parsed again. Concurrent builds
// for the same model share one parse.
type Builder struct {
	resolver ModelResolver
	files    FileSource
	logger   *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	memo  map[string]memoEntry
}

// NewBuilder creates a Builder.
func NewBuilder(resolver ModelResolver, files FileSource, logger *slog.Logger) *Builder {
	return &Builder{
		resolver: resolver,
		files:    files,
		logger:   logger,
		memo:     make(map[string]memoEntry),
	}
}

// Build returns the manifest for pokemonID. Only an invalid id or a
// resolver failure is an error; a missing or unreadable model yields a
// placeholder manifest.
func (b *Builder) Build(ctx context.Context, pokemonID int) (*Manifest, error) {
	res, err := b.resolver.Resolve(ctx, pokemonID)
	if err != nil {
		return nil, err
	}
	if !res.FileExists {
		m := Placeholder(pokemonID, res.URL, res.Error)
		return &m, nil
	}

	var size int64
	if res.FileSize != nil {
		size = *res.FileSize
	}
	key := res.URL + "#" + strconv.FormatInt(size, 10)

	b.mu.RLock()
	e, ok := b.memo[res.URL]
	b.mu.RUnlock()
	if ok && e.size == size {
		m := e.manifest
		m.PokemonID = pokemonID
		return &m, nil
	}

	v, _, _ := b.group.Do(key, func() (any, error) {
		m, err := b.build(pokemonID, res.URL)
		if err != nil {
			b.logger.Warn("model could not be loaded, using placeholder",
				slog.Int("pokemonID", pokemonID),
				slog.String("url", res.URL),
				slog.String("error", err.Error()),
			)
			return Placeholder(pokemonID, res.URL, err.Error()), nil
		}
		b.mu.Lock()
		b.memo[res.URL] = memoEntry{size: size, manifest: m}
		b.mu.Unlock()
		return m, nil
	})

	m := v.(Manifest)
	m.PokemonID = pokemonID
	return &m, nil
}

func (b *Builder) build(pokemonID int, url string) (Manifest, error) {
	data, err := b.files.ReadFile(url)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading %s: %w", url, err)
	}

	format := FormatFromPath(url)
	scene, err := LoaderFor(format).Load(bytes.NewReader(data))
	if err != nil {
		return Manifest{}, err
	}

	baseDir := BaseDir(url)
	var mtl []MTLEntry
	switch format {
	case FormatDAE:
		mtl = b.readMTL(MTLPath(url))
	case FormatOBJ:
		for _, lib := range scene.MaterialLibs {
			mtl = append(mtl, b.readMTL(baseDir+fileName(lib))...)
		}
	}

	mats := make([]ManifestMaterial, 0, len(scene.Materials))
	for _, sm := range scene.Materials {
		tex := ResolveTexture(sm, mtl, baseDir)
		mats = append(mats, ManifestMaterial{
			Name:    sm.Name,
			Texture: tex,
			Matte:   Matte(sm, tex != ""),
		})
	}

	return Manifest{
		PokemonID: pokemonID,
		URL:       url,
		Format:    format,
		Transform: Normalize(scene.Bounds, TargetSize, 0),
		Materials: mats,
	}, nil
}

// readMTL returns the entries of an optional material library. A missing
// or malformed library means no entries.
func (b *Builder) readMTL(urlPath string) []MTLEntry {
	data, err := b.files.ReadFile(urlPath)
	if err != nil {
		return nil
	}
	entries, err := ParseMTL(bytes.NewReader(data))
	if err != nil {
		b.logger.Debug("ignoring unreadable material library", slog.String("path", urlPath), slog.String("error", err.Error()))
		return nil
	}
	return entries
}

// Placeholder is the manifest shown instead of a model that cannot load.
func Placeholder(pokemonID int, url, reason string) Manifest {
	p := PlaceholderSphere
	return Manifest{
		PokemonID:   pokemonID,
		URL:         url,
		Format:      FormatFromPath(url),
		Transform:   Transform{Scale: 1},
		Materials:   []ManifestMaterial{},
		Placeholder: true,
		Primitive:   &p,
		Error:       reason,
	}
}
