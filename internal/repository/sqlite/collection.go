package sqlite

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
// id breaks ties between rows saved within the same clock tick.
func (db *DB) ListSaved(ctx context.Context, userID string) ([]model.SavedPokemon, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, pokemon_id, added_at
		 FROM user_pokemon
		 WHERE user_id = ?
		 ORDER BY added_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing pokemon for %s: %w", userID, translate(err, "user", userID))
	}
	defer rows.Close()

	saved := make([]model.SavedPokemon, 0)
	for rows.Next() {
		var p model.SavedPokemon
		if err := rows.Scan(&p.UserID, &p.PokemonID, &p.AddedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning saved pokemon: %w", err)
		}
		saved = append(saved, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating saved pokemon: %w", translate(err, "user", userID))
	}

	return saved, nil
}

// AddSaved upserts the user and inserts the (user, pokemon) pair.
//
// STEPS (one transaction):
//  1. look the user up
//  2. existing → refresh the non-empty profile fields
//     missing  → require email + name, then insert
//  3. insert the pair with ON CONFLICT DO NOTHING
//
// Zero rows from step 3 means the pair already existed. The profile refresh
// still commits and the caller gets apperror.ErrConflict.
func (db *DB) AddSaved(ctx context.Context, userID string, pokemonID int, profile model.Profile) error {
	inserted := false
	now := time.Now().UTC()

	err := dbx.WithTx(ctx, db.conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var existing string
		err := tx.QueryRowContext(ctx, `SELECT user_id FROM users WHERE user_id = ?`, userID).Scan(&existing)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return translate(err, "user", userID)
		}

		if existing != "" {
			_, err = tx.ExecContext(ctx,
				`UPDATE users SET
				   email      = COALESCE(NULLIF(?, ''), email),
				   name       = COALESCE(NULLIF(?, ''), name),
				   picture    = CASE WHEN ? THEN ? ELSE picture END,
				   updated_at = ?
				 WHERE user_id = ?`,
				profile.Email, profile.Name, !profile.IsEmpty(), profile.PicturePtr(), now, userID,
			)
			if err != nil {
				return translate(err, "user", userID)
			}
		} else {
			if profile.Email == "" || profile.Name == "" {
				return apperror.ValidationFailed("profile", "email and name are required for a new user")
			}
			// ON CONFLICT covers a concurrent first save for the same user:
			// the later writer's profile wins.
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (user_id, email, name, picture, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT (user_id) DO UPDATE SET
				   email = excluded.email, name = excluded.name,
				   picture = excluded.picture, updated_at = excluded.updated_at`,
				userID, profile.Email, profile.Name, profile.PicturePtr(), now, now,
			)
			if err != nil {
				return translate(err, "user", userID)
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_pokemon (user_id, pokemon_id, added_at)
			 VALUES (?, ?, ?)
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
		return fmt.Errorf("sqlite: adding pokemon %d for %s: %w", pokemonID, userID, err)
	}

	if !inserted {
		return apperror.Conflict("pokemon", strconv.Itoa(pokemonID))
	}
	return nil
}

// RemoveSaved deletes the pair. Zero affected rows is apperror.ErrNotFound.
func (db *DB) RemoveSaved(ctx context.Context, userID string, pokemonID int) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_pokemon WHERE user_id = ? AND pokemon_id = ?`,
		userID, pokemonID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing pokemon %d for %s: %w", pokemonID, userID, translate(err, "pokemon", strconv.Itoa(pokemonID)))
	}

	n, err := dbx.Affected(res)
	if err != nil {
		return fmt.Errorf("sqlite: removing pokemon %d for %s: %w", pokemonID, userID, apperror.Storage("", err))
	}
	if n == 0 {
		return apperror.NotFound("pokemon", strconv.Itoa(pokemonID))
	}
	return nil
}
