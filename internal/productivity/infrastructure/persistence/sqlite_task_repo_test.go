package persistence

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// setupSQLiteTestDB creates an in-memory SQLite database with the schema applied.
func setupSQLiteTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	schemaPath := filepath.Join("..", "..", "..", "shared", "infrastructure", "migrations", "sqlite", "000001_initial_schema.up.sql")
	schema, err := os.ReadFile(schemaPath)
	require.NoError(t, err, "Failed to read SQLite schema file")

	_, err = sqlDB.Exec(string(schema))
	require.NoError(t, err, "Failed to apply SQLite schema")

	return sqlDB
}

// createTestUser creates a user in the database for foreign key constraints.
func createTestUser(t *testing.T, sqlDB *sql.DB, userID uuid.UUID) {
	t.Helper()

	now := time.Now().Format(time.RFC3339)
	_, err := sqlDB.ExecContext(context.Background(),
		`INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		userID.String(), "test-"+userID.String()[:8]+"@example.com", "Test User", now, now,
	)
	require.NoError(t, err)
}

func TestSQLiteTaskRepository_Save_Create(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	userID := uuid.New()
	createTestUser(t, sqlDB, userID)

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	newTask, err := task.NewTask(userID, "Test Task")
	require.NoError(t, err)

	err = repo.Save(ctx, newTask)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, newTask.ID(), found.ID())
	assert.Equal(t, "Test Task", found.Title())
	assert.Equal(t, userID, found.UserID())
}

func TestSQLiteTaskRepository_Save_Update(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	userID := uuid.New()
	createTestUser(t, sqlDB, userID)

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	newTask, err := task.NewTask(userID, "Original Title")
	require.NoError(t, err)
	err = repo.Save(ctx, newTask)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)

	err = found.SetDescription("Updated description")
	require.NoError(t, err)

	err = repo.Save(ctx, found)
	require.NoError(t, err)

	updated, err := repo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)
	assert.Equal(t, "Updated description", updated.Description())
}

func TestSQLiteTaskRepository_Save_VersionConflict(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	userID := uuid.New()
	createTestUser(t, sqlDB, userID)

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	newTask, err := task.NewTask(userID, "Stale Task")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, newTask))

	staleCopy, err := repo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)

	freshCopy, err := repo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)
	require.NoError(t, freshCopy.SetDescription("updated once"))
	require.NoError(t, repo.Save(ctx, freshCopy))

	require.NoError(t, staleCopy.SetDescription("conflicting update"))
	err = repo.Save(ctx, staleCopy)
	assert.ErrorIs(t, err, ErrOptimisticLocking)
}

func TestSQLiteTaskRepository_FindByID_NotFound(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	found, err := repo.FindByID(ctx, uuid.New())
	assert.Error(t, err)
	assert.Nil(t, found)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSQLiteTaskRepository_FindByUserID(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	userID := uuid.New()
	createTestUser(t, sqlDB, userID)

	otherUserID := uuid.New()
	createTestUser(t, sqlDB, otherUserID)

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	task1, _ := task.NewTask(userID, "Task 1")
	task2, _ := task.NewTask(userID, "Task 2")
	task3, _ := task.NewTask(otherUserID, "Other User Task")

	require.NoError(t, repo.Save(ctx, task1))
	require.NoError(t, repo.Save(ctx, task2))
	require.NoError(t, repo.Save(ctx, task3))

	tasks, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	taskIDs := make(map[uuid.UUID]bool)
	for _, tsk := range tasks {
		taskIDs[tsk.ID()] = true
	}
	assert.True(t, taskIDs[task1.ID()])
	assert.True(t, taskIDs[task2.ID()])
	assert.False(t, taskIDs[task3.ID()])
}

func TestSQLiteTaskRepository_FindPending(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	userID := uuid.New()
	createTestUser(t, sqlDB, userID)

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	pendingTask, _ := task.NewTask(userID, "Pending Task")
	inProgressTask, _ := task.NewTask(userID, "In Progress Task")
	require.NoError(t, inProgressTask.Start())

	completedTask, _ := task.NewTask(userID, "Completed Task")
	require.NoError(t, completedTask.Complete())

	require.NoError(t, repo.Save(ctx, pendingTask))
	require.NoError(t, repo.Save(ctx, inProgressTask))
	require.NoError(t, repo.Save(ctx, completedTask))

	tasks, err := repo.FindPending(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	for _, tsk := range tasks {
		status := tsk.Status()
		assert.True(t, status == task.StatusTodo || status == task.StatusInProgress,
			"Expected todo or in_progress, got %s", status)
	}
}

func TestSQLiteTaskRepository_FindPending_ImportanceUrgencyOrdering(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	userID := uuid.New()
	createTestUser(t, sqlDB, userID)

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	lowTask, _ := task.NewTask(userID, "Low Importance")
	require.NoError(t, lowTask.SetImportance(value_objects.ImportanceLow))
	require.NoError(t, lowTask.SetUrgency(value_objects.UrgencyLow))

	highTask, _ := task.NewTask(userID, "High Importance")
	require.NoError(t, highTask.SetImportance(value_objects.ImportanceHigh))
	require.NoError(t, highTask.SetUrgency(value_objects.UrgencyHigh))

	mediumTask, _ := task.NewTask(userID, "Medium Importance")
	require.NoError(t, mediumTask.SetImportance(value_objects.ImportanceMedium))
	require.NoError(t, mediumTask.SetUrgency(value_objects.UrgencyMedium))

	require.NoError(t, repo.Save(ctx, lowTask))
	require.NoError(t, repo.Save(ctx, highTask))
	require.NoError(t, repo.Save(ctx, mediumTask))

	tasks, err := repo.FindPending(ctx, userID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, value_objects.ImportanceHigh, tasks[0].Importance())
	assert.Equal(t, value_objects.ImportanceMedium, tasks[1].Importance())
	assert.Equal(t, value_objects.ImportanceLow, tasks[2].Importance())
}

func TestSQLiteTaskRepository_Delete(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	userID := uuid.New()
	createTestUser(t, sqlDB, userID)

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	newTask, _ := task.NewTask(userID, "Task to Delete")
	require.NoError(t, repo.Save(ctx, newTask))

	found, err := repo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)
	require.NotNil(t, found)

	err = repo.Delete(ctx, newTask.ID())
	require.NoError(t, err)

	found, err = repo.FindByID(ctx, newTask.ID())
	assert.Error(t, err)
	assert.Nil(t, found)
}

func TestSQLiteTaskRepository_FullCRUDCycle(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	userID := uuid.New()
	createTestUser(t, sqlDB, userID)

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	// CREATE
	newTask, err := task.NewTask(userID, "Full Cycle Task")
	require.NoError(t, err)
	require.NoError(t, newTask.SetDescription("Test description"))
	require.NoError(t, newTask.SetImportance(value_objects.ImportanceHigh))

	estimate := 30
	require.NoError(t, newTask.SetEstimatedMinutes(&estimate))

	dueDate := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	require.NoError(t, newTask.SetDueDate(&dueDate))

	err = repo.Save(ctx, newTask)
	require.NoError(t, err)

	// READ
	found, err := repo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)
	assert.Equal(t, "Full Cycle Task", found.Title())
	assert.Equal(t, "Test description", found.Description())
	assert.Equal(t, value_objects.ImportanceHigh, found.Importance())
	require.NotNil(t, found.EstimatedMinutes())
	assert.Equal(t, 30, *found.EstimatedMinutes())

	// UPDATE - Start the task
	err = found.Start()
	require.NoError(t, err)
	err = repo.Save(ctx, found)
	require.NoError(t, err)

	updated, err := repo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, updated.Status())

	// UPDATE - Complete the task
	err = updated.Complete()
	require.NoError(t, err)
	err = repo.Save(ctx, updated)
	require.NoError(t, err)

	completed, err := repo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, completed.Status())
	assert.NotNil(t, completed.CompletedAt())

	// DELETE
	err = repo.Delete(ctx, newTask.ID())
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, newTask.ID())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSQLiteTaskRepository_WithDueDate(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	userID := uuid.New()
	createTestUser(t, sqlDB, userID)

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	newTask, _ := task.NewTask(userID, "Task with Due Date")
	dueDate := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	require.NoError(t, newTask.SetDueDate(&dueDate))

	err := repo.Save(ctx, newTask)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)
	require.NotNil(t, found.DueDate())

	assert.Equal(t, dueDate.Unix(), found.DueDate().Unix())
}

func TestSQLiteTaskRepository_WithDependenciesAndParent(t *testing.T) {
	sqlDB := setupSQLiteTestDB(t)
	defer sqlDB.Close()

	userID := uuid.New()
	createTestUser(t, sqlDB, userID)

	repo := NewSQLiteTaskRepository(sqlDB)
	ctx := context.Background()

	parent, _ := task.NewTask(userID, "Parent Task")
	require.NoError(t, repo.Save(ctx, parent))

	dep, _ := task.NewTask(userID, "Dependency Task")
	require.NoError(t, repo.Save(ctx, dep))

	child, _ := task.NewTask(userID, "Child Task")
	require.NoError(t, child.SetParentID(ptr(parent.ID())))
	require.NoError(t, child.AddDependency(dep.ID()))
	require.NoError(t, repo.Save(ctx, child))

	found, err := repo.FindByID(ctx, child.ID())
	require.NoError(t, err)
	require.NotNil(t, found.ParentID())
	assert.Equal(t, parent.ID(), *found.ParentID())
	require.Len(t, found.DependencyIDs(), 1)
	assert.Equal(t, dep.ID(), found.DependencyIDs()[0])
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }
