package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/repository"
)

var _ repository.ModelRepository = (*DB)(nil)

const modelColumns = `pokemon_id, model_path, cdn_url, model_type, file_size, storage_type, is_primary, file_exists, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModel(row rowScanner) (*model.ModelMetadata, error) {
	var (
		m      model.ModelMetadata
		cdnURL sql.NullString
		size   sql.NullInt64
	)
	if err := row.Scan(&m.PokemonID, &m.ModelPath, &cdnURL, &m.ModelType, &size,
		&m.StorageType, &m.IsPrimary, &m.FileExists, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if cdnURL.Valid {
		m.CDNURL = &cdnURL.String
	}
	if size.Valid {
		m.FileSize = &size.Int64
	}
	return &m, nil
}

// GetModel returns the cached scan result, or apperror.ErrNotFound.
func (db *DB) GetModel(ctx context.Context, pokemonID int) (*model.ModelMetadata, error) {
	m, err := scanModel(db.conn.QueryRowContext(ctx,
		`SELECT `+modelColumns+` FROM pokemon_model WHERE pokemon_id = $1`, pokemonID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("pokemon model", strconv.Itoa(pokemonID))
		}
		return nil, fmt.Errorf("postgres: getting model %d: %w", pokemonID, translate(err, "pokemon model", strconv.Itoa(pokemonID)))
	}
	return m, nil
}

// UpsertModel inserts or updates the row for m.PokemonID.
func (db *DB) UpsertModel(ctx context.Context, m *model.ModelMetadata) error {
	now := time.Now().UTC()
	if m.StorageType == "" {
		m.StorageType = model.StorageLocal
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO pokemon_model (`+modelColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 ON CONFLICT (pokemon_id) DO UPDATE SET
		   model_path   = EXCLUDED.model_path,
		   cdn_url      = EXCLUDED.cdn_url,
		   model_type   = EXCLUDED.model_type,
		   file_size    = EXCLUDED.file_size,
		   storage_type = EXCLUDED.storage_type,
		   is_primary   = EXCLUDED.is_primary,
		   file_exists  = EXCLUDED.file_exists,
		   updated_at   = EXCLUDED.updated_at`,
		m.PokemonID, m.ModelPath, m.CDNURL, m.ModelType, m.FileSize,
		m.StorageType, m.IsPrimary, m.FileExists, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: upserting model %d: %w", m.PokemonID, translate(err, "pokemon model", strconv.Itoa(m.PokemonID)))
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	return nil
}

// ListModels returns every cached row ordered by species id.
func (db *DB) ListModels(ctx context.Context) ([]model.ModelMetadata, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+modelColumns+` FROM pokemon_model ORDER BY pokemon_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing models: %w", translate(err, "pokemon model", "*"))
	}
	defer rows.Close()

	models := make([]model.ModelMetadata, 0)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning model: %w", err)
		}
		models = append(models, *m)
	}
	return models, rows.Err()
}
