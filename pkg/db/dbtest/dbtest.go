// Package dbtest opens migrated in-memory sqlite stores for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/posengine-backend/pkg/config"
	"github.com/angelmondragon/posengine-backend/pkg/db"
	"github.com/angelmondragon/posengine-backend/pkg/migrate"
)

// Open returns a client over a fresh, fully migrated in-memory database.
// The store allows a single connection, so concurrent transactions queue.
func Open(t testing.TB) *db.Client {
	t.Helper()

	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000",
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	if err := migrate.UpEmbeddedSQLite(ctx, sqlDB); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return client
}
