package app

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// mockSQLiteConnection implements database.Connection for testing.
type mockSQLiteConnection struct {
	db *sql.DB
}

func (m *mockSQLiteConnection) Driver() database.Driver {
	return database.DriverSQLite
}

func (m *mockSQLiteConnection) DB() *sql.DB {
	return m.db
}

func (m *mockSQLiteConnection) Close() error {
	return m.db.Close()
}

func (m *mockSQLiteConnection) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *mockSQLiteConnection) BeginTx(ctx context.Context) (database.Transaction, error) {
	return nil, nil // Not needed for this test
}

func (m *mockSQLiteConnection) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	return nil, nil
}

func (m *mockSQLiteConnection) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return nil
}

func (m *mockSQLiteConnection) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return nil, nil
}

// setupTestDB creates an in-memory SQLite database with schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	schemaDir := filepath.Join("..", "shared", "infrastructure", "migrations", "sqlite")
	entries, err := os.ReadDir(schemaDir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		schema, err := os.ReadFile(filepath.Join(schemaDir, name))
		require.NoError(t, err)
		_, err = sqlDB.Exec(string(schema))
		require.NoError(t, err)
	}

	return sqlDB
}

func createUser(t *testing.T, sqlDB *sql.DB, userID uuid.UUID) {
	t.Helper()

	now := time.Now().Format(time.RFC3339)
	_, err := sqlDB.Exec(
		"INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		userID.String(), "test-"+userID.String()[:8]+"@example.com", "Test User", now, now,
	)
	require.NoError(t, err)
}

func TestRepositoryFactory_TaskRepository_SQLite(t *testing.T) {
	sqlDB := setupTestDB(t)
	defer sqlDB.Close()

	// Create a mock connection that exposes the DB() method
	conn := &mockSQLiteConnection{db: sqlDB}

	// Create the factory
	factory := NewRepositoryFactory(conn)

	// Get the task repository
	taskRepo, err := factory.TaskRepository()
	require.NoError(t, err)
	require.NotNil(t, taskRepo)

	// Create a user (needed for foreign key)
	userID := uuid.New()
	createUser(t, sqlDB, userID)

	// Test the repository works
	ctx := context.Background()
	newTask, err := task.NewTask(userID, "Factory Test Task")
	require.NoError(t, err)

	err = taskRepo.Save(ctx, newTask)
	require.NoError(t, err)

	found, err := taskRepo.FindByID(ctx, newTask.ID())
	require.NoError(t, err)
	assert.Equal(t, "Factory Test Task", found.Title())
}

func TestRepositoryFactory_Driver(t *testing.T) {
	sqlDB := setupTestDB(t)
	defer sqlDB.Close()

	conn := &mockSQLiteConnection{db: sqlDB}
	factory := NewRepositoryFactory(conn)

	assert.Equal(t, database.DriverSQLite, factory.Driver())
}

func TestRepositoryFactory_Connection(t *testing.T) {
	sqlDB := setupTestDB(t)
	defer sqlDB.Close()

	conn := &mockSQLiteConnection{db: sqlDB}
	factory := NewRepositoryFactory(conn)

	assert.Equal(t, conn, factory.Connection())
}
