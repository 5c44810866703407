package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrOptimisticLocking = errors.New("optimistic locking conflict")
)

// PostgresTaskRepository implements task.Repository using PostgreSQL.
type PostgresTaskRepository struct {
	conn database.Connection
}

// NewPostgresTaskRepository creates a new PostgreSQL task repository.
func NewPostgresTaskRepository(conn database.Connection) *PostgresTaskRepository {
	return &PostgresTaskRepository{conn: conn}
}

// NewPostgresTaskRepositoryFromPool creates a new PostgreSQL task repository from a pool.
// Deprecated: Use NewPostgresTaskRepository with a database.Connection instead.
func NewPostgresTaskRepositoryFromPool(pool *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{conn: &poolWrapper{pool: pool}}
}

// poolWrapper wraps a pgxpool.Pool to implement database.Connection.
// This is temporary for backward compatibility.
type poolWrapper struct {
	pool *pgxpool.Pool
}

func (w *poolWrapper) Driver() database.Driver {
	return database.DriverPostgres
}

func (w *poolWrapper) Close() error {
	w.pool.Close()
	return nil
}

func (w *poolWrapper) Ping(ctx context.Context) error {
	return w.pool.Ping(ctx)
}

func (w *poolWrapper) BeginTx(ctx context.Context) (database.Transaction, error) {
	return nil, errors.New("use postgres.Connection for transactions")
}

func (w *poolWrapper) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	tag, err := w.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &poolResult{rowsAffected: tag.RowsAffected()}, nil
}

func (w *poolWrapper) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return w.pool.QueryRow(ctx, query, args...)
}

func (w *poolWrapper) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := w.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &poolRows{rows: rows}, nil
}

type poolResult struct {
	rowsAffected int64
}

func (r *poolResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }
func (r *poolResult) LastInsertId() (int64, error) {
	return 0, errors.New("not supported")
}

type poolRows struct {
	rows interface {
		Next() bool
		Scan(dest ...any) error
		Close()
		Err() error
	}
}

func (r *poolRows) Next() bool             { return r.rows.Next() }
func (r *poolRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *poolRows) Close() error           { r.rows.Close(); return nil }
func (r *poolRows) Err() error             { return r.rows.Err() }

// taskRow represents a database row for tasks.
type taskRow struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Title            string
	Description      *string
	Status           string
	Importance       string
	Urgency          string
	EnergyLevel      string
	EstimatedMinutes *int
	DueDate          *time.Time
	StartNotBefore   *time.Time
	PinnedDate       *time.Time
	IsFixedTime      bool
	StartTime        *time.Time
	EndTime          *time.Time
	ParentID         *uuid.UUID
	DependencyIDs    []uuid.UUID
	ProjectID        *uuid.UUID
	Progress         int
	CompletedAt      *time.Time
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const taskColumns = `id, user_id, title, description, status, importance, urgency, energy_level,
	       estimated_minutes, due_date, start_not_before, pinned_date, is_fixed_time,
	       start_time, end_time, parent_id, dependency_ids, project_id, progress,
	       completed_at, version, created_at, updated_at`

// Save persists a task to the database.
func (r *PostgresTaskRepository) Save(ctx context.Context, t *task.Task) error {
	query := `
		INSERT INTO tasks (
			id, user_id, title, description, status, importance, urgency, energy_level,
			estimated_minutes, due_date, start_not_before, pinned_date, is_fixed_time,
			start_time, end_time, parent_id, dependency_ids, project_id, progress,
			completed_at, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			importance = EXCLUDED.importance,
			urgency = EXCLUDED.urgency,
			energy_level = EXCLUDED.energy_level,
			estimated_minutes = EXCLUDED.estimated_minutes,
			due_date = EXCLUDED.due_date,
			start_not_before = EXCLUDED.start_not_before,
			pinned_date = EXCLUDED.pinned_date,
			is_fixed_time = EXCLUDED.is_fixed_time,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			parent_id = EXCLUDED.parent_id,
			dependency_ids = EXCLUDED.dependency_ids,
			project_id = EXCLUDED.project_id,
			progress = EXCLUDED.progress,
			completed_at = EXCLUDED.completed_at,
			version = tasks.version + 1,
			updated_at = NOW()
		WHERE tasks.version = $21
		RETURNING version
	`

	var description *string
	if t.Description() != "" {
		desc := t.Description()
		description = &desc
	}

	dependencyIDs := t.DependencyIDs()
	if dependencyIDs == nil {
		dependencyIDs = []uuid.UUID{}
	}

	var newVersion int
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query,
		t.ID(),
		t.UserID(),
		t.Title(),
		description,
		t.Status().String(),
		t.Importance().String(),
		t.Urgency().String(),
		t.EnergyLevel().String(),
		t.EstimatedMinutes(),
		t.DueDate(),
		t.StartNotBefore(),
		t.PinnedDate(),
		t.IsFixedTime(),
		t.StartTime(),
		t.EndTime(),
		t.ParentID(),
		dependencyIDs,
		t.ProjectID(),
		t.Progress(),
		t.CompletedAt(),
		t.Version(),
		t.CreatedAt(),
		t.UpdatedAt(),
	).Scan(&newVersion)

	if err != nil {
		if database.IsNoRows(err) {
			return ErrOptimisticLocking
		}
		return err
	}

	return nil
}

// FindByID retrieves a task by its ID.
func (r *PostgresTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var row taskRow
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query, id).Scan(
		&row.ID, &row.UserID, &row.Title, &row.Description, &row.Status,
		&row.Importance, &row.Urgency, &row.EnergyLevel, &row.EstimatedMinutes,
		&row.DueDate, &row.StartNotBefore, &row.PinnedDate, &row.IsFixedTime,
		&row.StartTime, &row.EndTime, &row.ParentID, &row.DependencyIDs,
		&row.ProjectID, &row.Progress, &row.CompletedAt, &row.Version,
		&row.CreatedAt, &row.UpdatedAt,
	)

	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return rowToTask(row)
}

// FindByUserID retrieves all tasks for a user.
func (r *PostgresTaskRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// FindPending retrieves non-terminal tasks for a user, highest scoring axes first.
func (r *PostgresTaskRepository) FindPending(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND status IN ('todo', 'in_progress', 'waiting')
		ORDER BY
			CASE importance WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
			CASE urgency WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
			due_date NULLS LAST,
			created_at
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// Delete removes a task from the database.
func (r *PostgresTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1`
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func scanTasks(rows database.Rows) ([]*task.Task, error) {
	var tasks []*task.Task

	for rows.Next() {
		var row taskRow
		err := rows.Scan(
			&row.ID, &row.UserID, &row.Title, &row.Description, &row.Status,
			&row.Importance, &row.Urgency, &row.EnergyLevel, &row.EstimatedMinutes,
			&row.DueDate, &row.StartNotBefore, &row.PinnedDate, &row.IsFixedTime,
			&row.StartTime, &row.EndTime, &row.ParentID, &row.DependencyIDs,
			&row.ProjectID, &row.Progress, &row.CompletedAt, &row.Version,
			&row.CreatedAt, &row.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		t, err := rowToTask(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func rowToTask(row taskRow) (*task.Task, error) {
	importance, err := value_objects.ParseImportance(row.Importance)
	if err != nil {
		return nil, err
	}
	urgency, err := value_objects.ParseUrgency(row.Urgency)
	if err != nil {
		return nil, err
	}
	energy, err := value_objects.ParseEnergyLevel(row.EnergyLevel)
	if err != nil {
		return nil, err
	}

	var status task.Status
	switch row.Status {
	case "todo":
		status = task.StatusTodo
	case "in_progress":
		status = task.StatusInProgress
	case "waiting":
		status = task.StatusWaiting
	case "done":
		status = task.StatusDone
	case "archived":
		status = task.StatusArchived
	default:
		status = task.StatusTodo
	}

	description := ""
	if row.Description != nil {
		description = *row.Description
	}

	return task.RehydrateTask(
		row.ID, row.UserID,
		row.Title, description,
		status,
		importance, urgency, energy,
		row.EstimatedMinutes,
		row.DueDate, row.StartNotBefore, row.PinnedDate,
		row.IsFixedTime, row.StartTime, row.EndTime,
		row.ParentID, row.DependencyIDs, row.ProjectID,
		row.Progress, row.CompletedAt,
		row.Version,
		row.CreatedAt, row.UpdatedAt,
	), nil
}
