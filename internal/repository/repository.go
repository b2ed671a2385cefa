// Package repository declares the storage interfaces the services depend on.
//
// Two implementations live in subpackages:
//   - repository/postgres: production backend (pgx through database/sql)
//   - repository/sqlite:   embedded backend for local runs and tests
//
// Both pass the same contract suite in repository/repotest.
package repository

import (
	"context"

	"github.com/sakif/pokedex/internal/model"
)

// CollectionRepository stores users' saved pokemon.
type CollectionRepository interface {
	// ListSaved returns the user's entries, most recently saved first.
	// An unknown user has an empty collection.
	ListSaved(ctx context.Context, userID string) ([]model.SavedPokemon, error)

	// AddSaved upserts the user from profile and inserts the entry in one
	// transaction. A new user without email or name is a validation error
	// and nothing is written. An existing pair returns apperror.ErrConflict
	// after the profile refresh is committed.
	AddSaved(ctx context.Context, userID string, pokemonID int, profile model.Profile) error

	// RemoveSaved deletes the entry, or returns apperror.ErrNotFound.
	RemoveSaved(ctx context.Context, userID string, pokemonID int) error
}

// UserRepository reads user rows.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// ModelRepository caches model-path scan results.
type ModelRepository interface {
	GetModel(ctx context.Context, pokemonID int) (*model.ModelMetadata, error)
	UpsertModel(ctx context.Context, m *model.ModelMetadata) error
	ListModels(ctx context.Context) ([]model.ModelMetadata, error)
}

// Store is everything a backend provides, plus its lifecycle.
type Store interface {
	CollectionRepository
	UserRepository
	ModelRepository

	// Init applies pending migrations and verifies the collection tables.
	Init(ctx context.Context) error
	// Check pings the datastore and probes the collection tables.
	Check(ctx context.Context) error
	Close() error
}
