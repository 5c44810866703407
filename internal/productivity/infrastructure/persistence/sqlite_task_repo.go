package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	sharedPersistence "github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteTaskRepository implements task.Repository using SQLite.
type SQLiteTaskRepository struct {
	dbConn *sql.DB
}

// NewSQLiteTaskRepository creates a new SQLite task repository.
func NewSQLiteTaskRepository(dbConn *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{dbConn: dbConn}
}

// querier abstracts over *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteTaskRepository) getQuerier(ctx context.Context) querier {
	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return r.dbConn
}

const sqliteTaskColumns = `id, user_id, title, description, status, importance, urgency, energy_level,
	estimated_minutes, due_date, start_not_before, pinned_date, is_fixed_time,
	start_time, end_time, parent_id, dependency_ids, project_id, progress,
	completed_at, version, created_at, updated_at`

// Save persists a task to the database, upserting by primary key.
func (r *SQLiteTaskRepository) Save(ctx context.Context, t *task.Task) error {
	q := r.getQuerier(ctx)

	depIDs, err := marshalDependencyIDs(t.DependencyIDs())
	if err != nil {
		return fmt.Errorf("failed to marshal dependency ids: %w", err)
	}

	var parentID, projectID *string
	if t.ParentID() != nil {
		s := t.ParentID().String()
		parentID = &s
	}
	if t.ProjectID() != nil {
		s := t.ProjectID().String()
		projectID = &s
	}

	result, err := q.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, status = ?, importance = ?, urgency = ?, energy_level = ?,
			estimated_minutes = ?, due_date = ?, start_not_before = ?, pinned_date = ?, is_fixed_time = ?,
			start_time = ?, end_time = ?, parent_id = ?, dependency_ids = ?, project_id = ?, progress = ?,
			completed_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`,
		t.Title(), nullableString(t.Description()), t.Status().String(), t.Importance().String(),
		t.Urgency().String(), t.EnergyLevel().String(), t.EstimatedMinutes(),
		formatTimePtr(t.DueDate()), formatTimePtr(t.StartNotBefore()), formatTimePtr(t.PinnedDate()),
		t.IsFixedTime(), formatTimePtr(t.StartTime()), formatTimePtr(t.EndTime()),
		parentID, depIDs, projectID, t.Progress(),
		formatTimePtr(t.CompletedAt()), time.Now().UTC().Format(time.RFC3339),
		t.ID().String(), t.Version(),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		// Either the task doesn't exist yet, or an optimistic-lock conflict.
		var exists int
		checkErr := q.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, t.ID().String()).Scan(&exists)
		if checkErr == nil {
			return ErrOptimisticLocking
		}
		if !errors.Is(checkErr, sql.ErrNoRows) {
			return checkErr
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO tasks (
				id, user_id, title, description, status, importance, urgency, energy_level,
				estimated_minutes, due_date, start_not_before, pinned_date, is_fixed_time,
				start_time, end_time, parent_id, dependency_ids, project_id, progress,
				completed_at, version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			t.ID().String(), t.UserID().String(), t.Title(), nullableString(t.Description()),
			t.Status().String(), t.Importance().String(), t.Urgency().String(), t.EnergyLevel().String(),
			t.EstimatedMinutes(), formatTimePtr(t.DueDate()), formatTimePtr(t.StartNotBefore()),
			formatTimePtr(t.PinnedDate()), t.IsFixedTime(), formatTimePtr(t.StartTime()),
			formatTimePtr(t.EndTime()), parentID, depIDs, projectID, t.Progress(),
			formatTimePtr(t.CompletedAt()), t.Version(),
			t.CreatedAt().Format(time.RFC3339), t.UpdatedAt().Format(time.RFC3339),
		)
		return err
	}

	return nil
}

// FindByID retrieves a task by its ID.
func (r *SQLiteTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	q := r.getQuerier(ctx)
	row := q.QueryRowContext(ctx, `SELECT `+sqliteTaskColumns+` FROM tasks WHERE id = ?`, id.String())
	t, err := scanSQLiteTaskRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

// FindByUserID retrieves all tasks for a user.
func (r *SQLiteTaskRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	q := r.getQuerier(ctx)
	rows, err := q.QueryContext(ctx, `SELECT `+sqliteTaskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteTaskRows(rows)
}

// FindPending retrieves non-terminal tasks for a user.
func (r *SQLiteTaskRepository) FindPending(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	q := r.getQuerier(ctx)
	rows, err := q.QueryContext(ctx, `
		SELECT `+sqliteTaskColumns+`
		FROM tasks
		WHERE user_id = ? AND status IN ('todo', 'in_progress', 'waiting')
		ORDER BY
			CASE importance WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
			CASE urgency WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
			due_date IS NULL, due_date,
			created_at
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteTaskRows(rows)
}

// Delete removes a task from the database.
func (r *SQLiteTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q := r.getQuerier(ctx)
	result, err := q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id.String())
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

type sqliteTaskRow struct {
	ID               string
	UserID           string
	Title            string
	Description      sql.NullString
	Status           string
	Importance       string
	Urgency          string
	EnergyLevel      string
	EstimatedMinutes sql.NullInt64
	DueDate          sql.NullString
	StartNotBefore   sql.NullString
	PinnedDate       sql.NullString
	IsFixedTime      bool
	StartTime        sql.NullString
	EndTime          sql.NullString
	ParentID         sql.NullString
	DependencyIDs    sql.NullString
	ProjectID        sql.NullString
	Progress         int
	CompletedAt      sql.NullString
	Version          int64
	CreatedAt        string
	UpdatedAt        string
}

type sqliteRowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTaskRow(row sqliteRowScanner) (*task.Task, error) {
	var r sqliteTaskRow
	if err := row.Scan(
		&r.ID, &r.UserID, &r.Title, &r.Description, &r.Status,
		&r.Importance, &r.Urgency, &r.EnergyLevel, &r.EstimatedMinutes,
		&r.DueDate, &r.StartNotBefore, &r.PinnedDate, &r.IsFixedTime,
		&r.StartTime, &r.EndTime, &r.ParentID, &r.DependencyIDs,
		&r.ProjectID, &r.Progress, &r.CompletedAt, &r.Version,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return sqliteRowToTask(r)
}

func scanSQLiteTaskRows(rows *sql.Rows) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0)
	for rows.Next() {
		t, err := scanSQLiteTaskRow(rows)
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

func sqliteRowToTask(row sqliteTaskRow) (*task.Task, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid task id: %w", err)
	}
	userID, err := uuid.Parse(row.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}

	importance, err := value_objects.ParseImportance(row.Importance)
	if err != nil {
		return nil, fmt.Errorf("invalid importance in database: %w", err)
	}
	urgency, err := value_objects.ParseUrgency(row.Urgency)
	if err != nil {
		return nil, fmt.Errorf("invalid urgency in database: %w", err)
	}
	energy, err := value_objects.ParseEnergyLevel(row.EnergyLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid energy level in database: %w", err)
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
	if row.Description.Valid {
		description = row.Description.String
	}

	var estimatedMinutes *int
	if row.EstimatedMinutes.Valid {
		m := int(row.EstimatedMinutes.Int64)
		estimatedMinutes = &m
	}

	dueDate, err := parseNullTime(row.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due_date: %w", err)
	}
	startNotBefore, err := parseNullTime(row.StartNotBefore)
	if err != nil {
		return nil, fmt.Errorf("invalid start_not_before: %w", err)
	}
	pinnedDate, err := parseNullTime(row.PinnedDate)
	if err != nil {
		return nil, fmt.Errorf("invalid pinned_date: %w", err)
	}
	startTime, err := parseNullTime(row.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time: %w", err)
	}
	endTime, err := parseNullTime(row.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end_time: %w", err)
	}
	completedAt, err := parseNullTime(row.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid completed_at: %w", err)
	}

	var parentID *uuid.UUID
	if row.ParentID.Valid {
		pid, err := uuid.Parse(row.ParentID.String)
		if err != nil {
			return nil, fmt.Errorf("invalid parent_id: %w", err)
		}
		parentID = &pid
	}

	var projectID *uuid.UUID
	if row.ProjectID.Valid {
		pid, err := uuid.Parse(row.ProjectID.String)
		if err != nil {
			return nil, fmt.Errorf("invalid project_id: %w", err)
		}
		projectID = &pid
	}

	dependencyIDs, err := unmarshalDependencyIDs(row.DependencyIDs)
	if err != nil {
		return nil, fmt.Errorf("invalid dependency_ids: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	return task.RehydrateTask(
		id, userID,
		row.Title, description,
		status,
		importance, urgency, energy,
		estimatedMinutes,
		dueDate, startNotBefore, pinnedDate,
		row.IsFixedTime, startTime, endTime,
		parentID, dependencyIDs, projectID,
		row.Progress, completedAt,
		int(row.Version),
		createdAt, updatedAt,
	), nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func marshalDependencyIDs(ids []uuid.UUID) (string, error) {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	b, err := json.Marshal(strs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalDependencyIDs(ns sql.NullString) ([]uuid.UUID, error) {
	if !ns.Valid || ns.String == "" {
		return []uuid.UUID{}, nil
	}
	var strs []string
	if err := json.Unmarshal([]byte(ns.String), &strs); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(strs))
	for i, s := range strs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
