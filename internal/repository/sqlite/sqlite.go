// Package sqlite implements the repository interfaces on an embedded SQLite
// database. It backs local development and the fast test suites; production
// runs on repository/postgres.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so no C compiler is needed and the
// binary cross-compiles like any other Go program.
//
// ONE CONNECTION:
// The pool is capped at a single connection. A ":memory:" database lives
// inside one connection, and SQLite serialises writers anyway. Code running
// inside dbx.WithTx must therefore only use the tx handle it is given.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/migrations"
	"github.com/sakif/pokedex/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps the sql.DB pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and applies migrations.
//
// dbPath examples:
//   - "data/pokedex.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	// The driver registers itself as "sqlite"; sqlitedrv is imported by name
	// for its error type.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight. Foreign keys are
	// off by default in SQLite; user_pokemon relies on ON DELETE CASCADE.
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := migrations.Up(context.Background(), conn, migrations.SQLite); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Init re-applies migrations and checks the schema. It backs /api/db/init.
func (db *DB) Init(ctx context.Context) error {
	if err := migrations.Up(ctx, db.conn, migrations.SQLite); err != nil {
		return apperror.Storage("", err)
	}
	return db.Check(ctx)
}

// Check pings the database and probes both collection tables.
func (db *DB) Check(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return translate(err, "database", "ping")
	}
	for _, table := range []string{"users", "user_pokemon"} {
		var n int
		// table comes from the fixed list above, never from input
		if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return fmt.Errorf("sqlite: probing %s: %w", table, translate(err, "table", table))
		}
	}
	return nil
}

// translate maps a driver error onto the apperror taxonomy.
// UNIQUE and PRIMARY KEY violations become conflicts; everything else is a
// storage error carrying the SQLite extended result code.
func translate(err error, resource, id string) error {
	var sqliteErr *sqlitedrv.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		switch code {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			conflict := apperror.Conflict(resource, id)
			conflict.Code = strconv.Itoa(code)
			return conflict
		}
		return apperror.Storage(strconv.Itoa(code), err)
	}
	return apperror.Storage("", err)
}
