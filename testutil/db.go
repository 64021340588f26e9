// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/d-chen/lowtierbot/backend/db"
)

// SetupTestDB opens a uniquely named in-memory SQLite database and runs
// migrations. Each call returns an isolated database, closed via t.Cleanup.
// A named in-memory DSN is used so the database survives connection pool
// recycling but is never shared between tests.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:test-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(context.Background(), database); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
