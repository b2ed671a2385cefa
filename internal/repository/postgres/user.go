package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// GetUserByID returns the user row, or apperror.ErrNotFound.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var (
		u       model.User
		picture sql.NullString
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, email, name, picture, created_at, updated_at
		 FROM users WHERE user_id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &picture, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, translate(err, "user", id))
	}
	if picture.Valid {
		u.Picture = &picture.String
	}
	return &u, nil
}
