package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/dbx"
	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/repository"
)

var _ repository.CollectionRepository = (*DB)(nil)

// ListSaved returns the user's collection, newest first.
func (db *DB) ListSaved(ctx context.Context, userID string) ([]model.SavedPokemon, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, pokemon_id, added_at
		 FROM user_pokemon
		 WHERE user_id = $1
		 ORDER BY added_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing pokemon for %s: %w", userID, translate(err, "user", userID))
	}
	defer rows.Close()

	saved := make([]model.SavedPokemon, 0)
	for rows.Next() {
		var p model.SavedPokemon
		if err := rows.Scan(&p.UserID, &p.PokemonID, &p.AddedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning saved pokemon: %w", err)
		}
		saved = append(saved, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating saved pokemon: %w", translate(err, "user", userID))
	}
	return saved, nil
}

// AddSaved upserts the user and inserts the pair inside one transaction.
//
// The child insert uses ON CONFLICT DO NOTHING rather than catching 23505:
// a failed statement would abort the whole postgres transaction and lose
// the profile refresh.
func (db *DB) AddSaved(ctx context.Context, userID string, pokemonID int, profile model.Profile) error {
	inserted := false
	now := time.Now().UTC()

	err := dbx.WithTx(ctx, db.conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT user_id FROM users WHERE user_id = $1 FOR UPDATE`, userID,
		).Scan(&existing)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return translate(err, "user", userID)
		}

		if existing != "" {
			_, err = tx.ExecContext(ctx,
				`UPDATE users SET
				   email      = COALESCE(NULLIF($2, ''), email),
				   name       = COALESCE(NULLIF($3, ''), name),
				   picture    = CASE WHEN $6 THEN $4 ELSE picture END,
				   updated_at = $5
				 WHERE user_id = $1`,
				userID, profile.Email, profile.Name, profile.PicturePtr(), now, !profile.IsEmpty(),
			)
			if err != nil {
				return translate(err, "user", userID)
			}
		} else {
			if profile.Email == "" || profile.Name == "" {
				return apperror.ValidationFailed("profile", "email and name are required for a new user")
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (user_id, email, name, picture, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $5)
				 ON CONFLICT (user_id) DO UPDATE SET
				   email = EXCLUDED.email, name = EXCLUDED.name,
				   picture = EXCLUDED.picture, updated_at = EXCLUDED.updated_at`,
				userID, profile.Email, profile.Name, profile.PicturePtr(), now,
			)
			if err != nil {
				return translate(err, "user", userID)
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_pokemon (user_id, pokemon_id, added_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, pokemon_id) DO NOTHING`,
			userID, pokemonID, now,
		)
		if err != nil {
			return translate(err, "pokemon", strconv.Itoa(pokemonID))
		}
		n, err := dbx.Affected(res)
		if err != nil {
			return apperror.Storage("", err)
		}
		inserted = n > 0
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: adding pokemon %d for %s: %w", pokemonID, userID, err)
	}

	if !inserted {
		return apperror.Conflict("pokemon", strconv.Itoa(pokemonID))
	}
	return nil
}

// RemoveSaved deletes the pair. Zero affected rows is apperror.ErrNotFound.
func (db *DB) RemoveSaved(ctx context.Context, userID string, pokemonID int) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_pokemon WHERE user_id = $1 AND pokemon_id = $2`,
		userID, pokemonID,
	)
	if err != nil {
		return fmt.Errorf("postgres: removing pokemon %d for %s: %w", pokemonID, userID, translate(err, "pokemon", strconv.Itoa(pokemonID)))
	}
	n, err := dbx.Affected(res)
	if err != nil {
		return fmt.Errorf("postgres: removing pokemon %d for %s: %w", pokemonID, userID, apperror.Storage("", err))
	}
	if n == 0 {
		return apperror.NotFound("pokemon", strconv.Itoa(pokemonID))
	}
	return nil
}
