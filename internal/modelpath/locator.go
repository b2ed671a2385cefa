package modelpath

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/repository"
)

// MsgNotFound is reported when a species has no model file.
const MsgNotFound = "model file not found"

// ErrStale means a cached row exists but no longer points at a usable file.
var ErrStale = errors.New("cached model is stale")

// Locator finds the model for one species.
type Locator interface {
	Locate(ctx context.Context, pokemonID int) (*model.ModelResolution, error)
}

var (
	_ Locator = (*CacheLocator)(nil)
	_ Locator = (*ScanLocator)(nil)
)

// CacheLocator answers from the pokemon_model table.
// It returns apperror.ErrNotFound when no row exists and ErrStale when the
// row points at a missing file or a collision mesh.
type CacheLocator struct {
	repo    repository.ModelRepository
	scanner *Scanner
}

// NewCacheLocator creates a CacheLocator that verifies rows with scanner.
func NewCacheLocator(repo repository.ModelRepository, scanner *Scanner) *CacheLocator {
	return &CacheLocator{repo: repo, scanner: scanner}
}

func (l *CacheLocator) Locate(ctx context.Context, pokemonID int) (*model.ModelResolution, error) {
	row, err := l.repo.GetModel(ctx, pokemonID)
	if err != nil {
		return nil, err
	}
	if !l.Valid(row) {
		return nil, fmt.Errorf("pokemon %d at %q: %w", pokemonID, row.ModelPath, ErrStale)
	}

	size, _ := l.scanner.Stat(row.ModelPath)
	storage := row.StorageType
	if storage == "" {
		storage = model.StorageLocal
	}
	modelType := row.ModelType
	if modelType == "" {
		modelType = ExtOf(row.ModelPath)
	}

	return &model.ModelResolution{
		PokemonID:   pokemonID,
		ModelPath:   row.ModelPath,
		CDNURL:      row.CDNURL,
		ModelType:   modelType,
		StorageType: storage,
		FileExists:  true,
		FileSize:    &size,
		URL:         row.ModelPath,
	}, nil
}

// Valid is the cache predicate: the row names an existing, non-collision file.
func (l *CacheLocator) Valid(row *model.ModelMetadata) bool {
	if row == nil || row.ModelPath == "" || IsCollision(row.ModelPath) {
		return false
	}
	_, ok := l.scanner.Stat(row.ModelPath)
	return ok
}

// ScanLocator walks the species directory. It only fails when the walk
// itself does; an empty directory is a FileExists=false result.
type ScanLocator struct {
	scanner *Scanner
}

// NewScanLocator creates a ScanLocator.
func NewScanLocator(scanner *Scanner) *ScanLocator {
	return &ScanLocator{scanner: scanner}
}

func (l *ScanLocator) Locate(ctx context.Context, pokemonID int) (*model.ModelResolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cands, err := l.scanner.Candidates(pokemonID)
	if err != nil {
		return nil, err
	}

	best, ok := Pick(pokemonID, cands)
	if !ok {
		return Missing(pokemonID), nil
	}

	size := best.Size
	p := URL(pokemonID, best.RelPath)
	return &model.ModelResolution{
		PokemonID:   pokemonID,
		ModelPath:   p,
		ModelType:   best.Ext,
		StorageType: model.StorageLocal,
		FileExists:  true,
		FileSize:    &size,
		URL:         p,
	}, nil
}

// Missing is the result for a species without any model file: the
// canonical path, unverified, flagged as not existing.
func Missing(pokemonID int) *model.ModelResolution {
	p := CanonicalURL(pokemonID)
	return &model.ModelResolution{
		PokemonID:   pokemonID,
		ModelPath:   p,
		ModelType:   "dae",
		StorageType: model.StorageLocal,
		FileExists:  false,
		URL:         p,
		Error:       MsgNotFound,
	}
}

func validateID(pokemonID int) error {
	if pokemonID <= 0 || pokemonID > model.MaxPokemonID {
		return apperror.ValidationFailed("id", "a valid pokemon id is required, got "+strconv.Itoa(pokemonID))
	}
	return nil
}
