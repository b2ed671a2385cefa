package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/model"
)

func newRepoWithMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return NewWithConn(conn), mock
}

var ash = model.Profile{Email: "a@b.com", Name: "Ash"}

// =========================================================================
// LIST
// =========================================================================

func TestListSaved(t *testing.T) {
	db, mock := newRepoWithMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"user_id", "pokemon_id", "added_at"}).
		AddRow("u1", 25, now).
		AddRow("u1", 1, now.Add(-time.Minute))
	mock.ExpectQuery(`SELECT user_id, pokemon_id, added_at\s+FROM user_pokemon\s+WHERE user_id = \$1\s+ORDER BY added_at DESC`).
		WithArgs("u1").
		WillReturnRows(rows)

	saved, err := db.ListSaved(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, 25, saved[0].PokemonID)
	assert.Equal(t, 1, saved[1].PokemonID)
}

func TestListSaved_DriverError(t *testing.T) {
	db, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM user_pokemon`).
		WithArgs("u1").
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "user_pokemon" does not exist`})

	_, err := db.ListSaved(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrStorage))

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "42P01", appErr.Code)
	assert.NotEmpty(t, appErr.Hint)
}

// =========================================================================
// ADD
// =========================================================================

func TestAddSaved_NewUser(t *testing.T) {
	db, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM users WHERE user_id = \$1 FOR UPDATE`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "a@b.com", "Ash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_pokemon .* ON CONFLICT \(user_id, pokemon_id\) DO NOTHING`).
		WithArgs("u1", 25, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, db.AddSaved(context.Background(), "u1", 25, ash))
}

func TestAddSaved_ExistingUserRefreshesProfile(t *testing.T) {
	db, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM users`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))
	mock.ExpectExec(`UPDATE users SET`).
		WithArgs("u1", "", "Ash Ketchum", sqlmock.AnyArg(), sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_pokemon`).
		WithArgs("u1", 25, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, db.AddSaved(context.Background(), "u1", 25, model.Profile{Name: "Ash Ketchum"}))
}

func TestAddSaved_DuplicateCommitsAndConflicts(t *testing.T) {
	db, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM users`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))
	mock.ExpectExec(`UPDATE users SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_pokemon`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := db.AddSaved(context.Background(), "u1", 25, ash)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestAddSaved_NewUserWithoutProfileRollsBack(t *testing.T) {
	db, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM users`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectRollback()

	err := db.AddSaved(context.Background(), "u1", 25, model.Profile{Email: "a@b.com"})
	assert.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
}

func TestAddSaved_StorageErrorRollsBack(t *testing.T) {
	db, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))
	mock.ExpectExec(`UPDATE users SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_pokemon`).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "foreign key violation"})
	mock.ExpectRollback()

	err := db.AddSaved(context.Background(), "u1", 25, ash)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrStorage))
	assert.Equal(t, "23503", apperror.CodeOf(err))
}

func TestAddSaved_BeginFails(t *testing.T) {
	db, mock := newRepoWithMock(t)

	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	err := db.AddSaved(context.Background(), "u1", 25, ash)
	assert.Error(t, err)
}

// =========================================================================
// REMOVE
// =========================================================================

func TestRemoveSaved(t *testing.T) {
	tests := []struct {
		name    string
		result  driver.Result
		wantErr error
	}{
		{name: "deleted", result: sqlmock.NewResult(0, 1), wantErr: nil},
		{name: "nothing matched", result: sqlmock.NewResult(0, 0), wantErr: apperror.ErrNotFound},
		{name: "rows affected unavailable", result: sqlmock.NewErrorResult(errors.New("driver lost count")), wantErr: apperror.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newRepoWithMock(t)
			mock.ExpectExec(`DELETE FROM user_pokemon WHERE user_id = \$1 AND pokemon_id = \$2`).
				WithArgs("u1", 25).
				WillReturnResult(tt.result)

			err := db.RemoveSaved(context.Background(), "u1", 25)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

// =========================================================================
// USERS, MODELS, HEALTH
// =========================================================================

func TestGetUserByID_NotFound(t *testing.T) {
	db, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM users WHERE user_id = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := db.GetUserByID(context.Background(), "ghost")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestGetModel(t *testing.T) {
	db, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM pokemon_model WHERE pokemon_id = \$1`).
		WithArgs(25).
		WillReturnRows(sqlmock.NewRows([]string{
			"pokemon_id", "model_path", "cdn_url", "model_type", "file_size",
			"storage_type", "is_primary", "file_exists", "created_at", "updated_at",
		}).AddRow(25, "/pokemon/25/pm0025_00_00.dae", nil, "dae", int64(2048), "local", true, true, now, now))

	m, err := db.GetModel(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, "/pokemon/25/pm0025_00_00.dae", m.ModelPath)
	assert.Nil(t, m.CDNURL)
	require.NotNil(t, m.FileSize)
	assert.Equal(t, int64(2048), *m.FileSize)
}

func TestUpsertModel_DefaultsStorageType(t *testing.T) {
	db, mock := newRepoWithMock(t)
	mock.ExpectExec(`INSERT INTO pokemon_model .* ON CONFLICT \(pokemon_id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := &model.ModelMetadata{PokemonID: 25, ModelPath: "/pokemon/25/a.dae", ModelType: "dae"}
	require.NoError(t, db.UpsertModel(context.Background(), m))
	assert.Equal(t, model.StorageLocal, m.StorageType)
	assert.False(t, m.UpdatedAt.IsZero())
}

func TestCheck_MissingTableCarriesHint(t *testing.T) {
	db, mock := newRepoWithMock(t)
	mock.ExpectExec(`SELECT 1 FROM users LIMIT 1`).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "users" does not exist`})

	err := db.Check(context.Background())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.HintFor("42P01"), appErr.Hint)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     error
		wantCode string
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, apperror.ErrConflict, "23505"},
		{"missing database", &pgconn.PgError{Code: "3D000"}, apperror.ErrStorage, "3D000"},
		{"non-pg error", errors.New("dial tcp"), apperror.ErrStorage, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err, "pokemon", "25")
			assert.True(t, errors.Is(got, tt.want))
			assert.Equal(t, tt.wantCode, apperror.CodeOf(got))
		})
	}
}
