package persistence_test

import (
	"context"
	"os"
	"testing"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Skipf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("Failed to ping test database: %v", err)
	}

	_, _ = pool.Exec(ctx, "DELETE FROM tasks")

	return pool
}

func TestPostgresTaskRepository_SaveAndFindByID(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	repo := persistence.NewPostgresTaskRepositoryFromPool(pool)

	userID := uuid.New()
	tk, err := task.NewTask(userID, "Test Task")
	require.NoError(t, err)

	err = repo.Save(ctx, tk)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, tk.ID())
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, tk.ID(), found.ID())
	assert.Equal(t, tk.UserID(), found.UserID())
	assert.Equal(t, tk.Title(), found.Title())
}

func TestPostgresTaskRepository_FindByUserID(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	repo := persistence.NewPostgresTaskRepositoryFromPool(pool)

	userID := uuid.New()

	task1, err := task.NewTask(userID, "Task 1")
	require.NoError(t, err)

	task2, err := task.NewTask(userID, "Task 2")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, task1))
	require.NoError(t, repo.Save(ctx, task2))

	tasks, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestPostgresTaskRepository_FindPending(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	repo := persistence.NewPostgresTaskRepositoryFromPool(pool)

	userID := uuid.New()

	pendingTask, err := task.NewTask(userID, "Pending Task")
	require.NoError(t, err)

	completedTask, err := task.NewTask(userID, "Completed Task")
	require.NoError(t, err)
	require.NoError(t, completedTask.Complete())

	require.NoError(t, repo.Save(ctx, pendingTask))
	require.NoError(t, repo.Save(ctx, completedTask))

	tasks, err := repo.FindPending(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, pendingTask.ID(), tasks[0].ID())
}

func TestPostgresTaskRepository_Delete(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	repo := persistence.NewPostgresTaskRepositoryFromPool(pool)

	userID := uuid.New()

	tk, err := task.NewTask(userID, "Task to Delete")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tk))

	err = repo.Delete(ctx, tk.ID())
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, tk.ID())
	assert.Error(t, err)
}

func TestPostgresTaskRepository_Update(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	repo := persistence.NewPostgresTaskRepositoryFromPool(pool)

	userID := uuid.New()

	tk, err := task.NewTask(userID, "Original Title")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tk))

	require.NoError(t, tk.SetDescription("A description"))
	require.NoError(t, tk.SetImportance(value_objects.ImportanceHigh))
	estimate := 60
	require.NoError(t, tk.SetEstimatedMinutes(&estimate))
	require.NoError(t, repo.Save(ctx, tk))

	found, err := repo.FindByID(ctx, tk.ID())
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, "A description", found.Description())
	assert.Equal(t, value_objects.ImportanceHigh, found.Importance())
}

func TestPostgresTaskRepository_FindPending_ImportanceUrgencyOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	repo := persistence.NewPostgresTaskRepositoryFromPool(pool)

	userID := uuid.New()

	lowTask, _ := task.NewTask(userID, "Low Importance")
	require.NoError(t, lowTask.SetImportance(value_objects.ImportanceLow))

	highTask, _ := task.NewTask(userID, "High Importance")
	require.NoError(t, highTask.SetImportance(value_objects.ImportanceHigh))

	mediumTask, _ := task.NewTask(userID, "Medium Importance")
	require.NoError(t, mediumTask.SetImportance(value_objects.ImportanceMedium))

	require.NoError(t, repo.Save(ctx, lowTask))
	require.NoError(t, repo.Save(ctx, highTask))
	require.NoError(t, repo.Save(ctx, mediumTask))

	tasks, err := repo.FindPending(ctx, userID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, highTask.ID(), tasks[0].ID())
	assert.Equal(t, mediumTask.ID(), tasks[1].ID())
	assert.Equal(t, lowTask.ID(), tasks[2].ID())
}
