// Package postgres implements the repository interfaces on PostgreSQL
// through pgx's database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/migrations"
	"github.com/sakif/pokedex/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// uniqueViolation is SQLSTATE 23505.
const uniqueViolation = "23505"

// DB implements repository.Store on a *sql.DB opened with the "pgx" driver.
type DB struct {
	conn *sql.DB
}

// New connects to dsn, verifies the connection and applies migrations.
func New(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", translate(err, "database", "ping"))
	}

	if err := migrations.Up(ctx, conn, migrations.Postgres); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// NewWithConn wraps an existing pool without touching the schema.
// Tests use it with go-sqlmock.
func NewWithConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Init re-applies migrations and checks the schema. It backs /api/db/init.
func (db *DB) Init(ctx context.Context) error {
	if err := migrations.Up(ctx, db.conn, migrations.Postgres); err != nil {
		return translate(err, "database", "migrate")
	}
	return db.Check(ctx)
}

// Check pings the database and probes both collection tables.
// A missing table surfaces as SQLSTATE 42P01, whose hint tells the operator
// to run the migrations.
func (db *DB) Check(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return translate(err, "database", "ping")
	}
	if _, err := db.conn.ExecContext(ctx, `SELECT 1 FROM users LIMIT 1`); err != nil {
		return fmt.Errorf("postgres: probing users: %w", translate(err, "table", "users"))
	}
	if _, err := db.conn.ExecContext(ctx, `SELECT 1 FROM user_pokemon LIMIT 1`); err != nil {
		return fmt.Errorf("postgres: probing user_pokemon: %w", translate(err, "table", "user_pokemon"))
	}
	return nil
}

// translate maps a driver error onto the apperror taxonomy.
// 23505 becomes a conflict; any other error is a storage error carrying the
// SQLSTATE when the server reported one.
func translate(err error, resource, id string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			conflict := apperror.Conflict(resource, id)
			conflict.Code = pgErr.Code
			return conflict
		}
		return apperror.Storage(pgErr.Code, err)
	}
	return apperror.Storage("", err)
}
