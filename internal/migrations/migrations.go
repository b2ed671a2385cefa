// Package migrations embeds the schema for both supported backends and
// applies it with goose.
//
// Each dialect has its own directory with the same numbered files so the
// two schemas stay in step.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Dialect selects the migration directory and the goose dialect.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func (d Dialect) goose() (goose.Dialect, error) {
	switch d {
	case Postgres:
		return goose.DialectPostgres, nil
	case SQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("migrations: unknown dialect %q", d)
	}
}

// FS returns the migration files for one dialect.
func FS(d Dialect) (fs.FS, error) {
	return fs.Sub(files, string(d))
}

// Up applies every pending migration. It is safe to call on every start.
//
// A goose Provider is used instead of the package-level goose functions so
// two databases with different dialects can migrate in the same process.
func Up(ctx context.Context, db *sql.DB, d Dialect) error {
	dialect, err := d.goose()
	if err != nil {
		return err
	}
	fsys, err := FS(d)
	if err != nil {
		return fmt.Errorf("migrations: opening %s files: %w", d, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("migrations: creating provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrations: applying %s migrations: %w", d, err)
	}
	return nil
}
