package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations_sqlite/*.sql
var sqliteMigrations embed.FS

// UpEmbeddedSQLite applies the bundled sqlite schema. It backs the local
// sqlite mode and the in-memory stores used by package tests, neither of
// which can rely on the working directory.
func UpEmbeddedSQLite(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	fsys, err := fs.Sub(sqliteMigrations, "migrations_sqlite")
	if err != nil {
		return fmt.Errorf("sqlite migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
