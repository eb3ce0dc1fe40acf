package repository_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"session-todos/internal/database"
	"session-todos/internal/models"
	"session-todos/internal/repository"
)

// testcontainers panics when Docker is missing, so probe first.
func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

func newPostgresDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	if !dockerAvailable() {
		t.Skip("Docker not available, skipping PostgreSQL integration tests")
	}
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("todos"),
		postgres.WithUsername("todos"),
		postgres.WithPassword("todos"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pg); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	url, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := database.Open(ctx, url, 4)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.MigrateOrCreateSchema(ctx))
	require.NoError(t, db.MigrateOrCreateSchema(ctx), "migration is idempotent")
	return db
}

func TestPostgres_TodoLifecycle(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	repo := repository.NewTodoRepository(db)

	a := &models.Todo{OwnerID: "1", Title: "a"}
	b := &models.Todo{OwnerID: "1", Title: "b", Completed: true}
	c := &models.Todo{OwnerID: "2", Title: "c"}
	for _, td := range []*models.Todo{a, b, c} {
		require.NoError(t, repo.Create(ctx, td))
	}

	var nulls int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos WHERE completed IS NULL`).Scan(&nulls))
	assert.Equal(t, 2, nulls)

	n, err := repo.Update(ctx, a.ID, "2", "stolen", true)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.SetAllCompleted(ctx, "1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteCompleted(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := repo.ListByOwner(ctx, "2")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "c", left[0].Title)
}

func TestPostgres_DuplicateUsername(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)

	require.NoError(t, users.Create(ctx, &models.User{Username: "alice", HashedPassword: "x"}))
	err := users.Create(ctx, &models.User{Username: "alice", HashedPassword: "y"})
	assert.ErrorIs(t, err, repository.ErrDuplicateUsername)
}
