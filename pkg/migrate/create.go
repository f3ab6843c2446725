package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)
)

const postgresTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

const sqliteTemplate = `-- +goose Up
-- %[1]s

-- +goose Down
-- rollback %[1]s
`

// CreateSQLMigration creates a goose SQL migration file:
//
//	<dir>/<YYYYMMDDHHMMSS>_<name>.sql
func CreateSQLMigration(dir string, name string) (string, error) {
	safe, err := sanitizeName(name)
	if err != nil {
		return "", err
	}
	version := time.Now().UTC().Format("20060102150405")
	return writeMigration(dir, version, safe, postgresTemplate)
}

// CreateSQLMigrationPair creates the same version in the postgres and sqlite
// directories so ValidateLockstep keeps passing.
func CreateSQLMigrationPair(postgresDir, sqliteDir, name string) ([]string, error) {
	safe, err := sanitizeName(name)
	if err != nil {
		return nil, err
	}
	version := time.Now().UTC().Format("20060102150405")

	pgPath, err := writeMigration(postgresDir, version, safe, postgresTemplate)
	if err != nil {
		return nil, err
	}
	litePath, err := writeMigration(sqliteDir, version, safe, sqliteTemplate)
	if err != nil {
		_ = os.Remove(pgPath)
		return nil, err
	}
	return []string{pgPath, litePath}, nil
}

func sanitizeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	return safe, nil
}

func writeMigration(dir, version, safe, template string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, safe))
	if _, err := os.Stat(fullpath); err == nil {
		return "", fmt.Errorf("migration already exists: %s", fullpath)
	}

	if err := os.WriteFile(fullpath, []byte(fmt.Sprintf(template, safe)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}
