// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"session-todos/internal/database"
)

// NewSQLiteDB opens a migrated SQLite database in a per-test directory.
func NewSQLiteDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "todos.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.MigrateOrCreateSchema(ctx))
	return db
}
