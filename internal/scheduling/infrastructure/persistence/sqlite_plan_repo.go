package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	sharedPersistence "github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// ErrPlanNotFound is returned by lookups that find no matching row.
var ErrPlanNotFound = errors.New("schedule plan not found")

// SQLitePlanRepository implements sdomain.DailySchedulePlanRepository
// using SQLite, following the column-per-scalar / JSON-text-per-nested-
// collection shape of SQLiteTaskRepository (dependency_ids there maps to
// the time_blocks/task_snapshots/etc. columns here).
type SQLitePlanRepository struct {
	dbConn *sql.DB
}

// NewSQLitePlanRepository creates a SQLitePlanRepository.
func NewSQLitePlanRepository(dbConn *sql.DB) *SQLitePlanRepository {
	return &SQLitePlanRepository{dbConn: dbConn}
}

// querier abstracts over *sql.DB and *sql.Tx, mirroring
// productivity/infrastructure/persistence's SQLite repositories.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLitePlanRepository) getQuerier(ctx context.Context) querier {
	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return r.dbConn
}

const sqlitePlanColumns = `id, user_id, plan_group_id, plan_date, timezone, day_json,
	task_snapshots_json, unscheduled_tasks_json, excluded_tasks_json, time_blocks_json,
	pinned_overflow_json, plan_params_fingerprint, generated_at, version, created_at, updated_at`

// UpsertMany persists each plan row, replacing any existing row for the
// same (user_id, plan_date).
func (r *SQLitePlanRepository) UpsertMany(ctx context.Context, plans []*sdomain.DailySchedulePlan) error {
	q := r.getQuerier(ctx)
	for _, p := range plans {
		if err := r.upsertOne(ctx, q, p); err != nil {
			return fmt.Errorf("upsert plan %s: %w", p.ID(), err)
		}
	}
	return nil
}

func (r *SQLitePlanRepository) upsertOne(ctx context.Context, q querier, p *sdomain.DailySchedulePlan) error {
	dayJSON, err := json.Marshal(p.Day())
	if err != nil {
		return err
	}
	snapshotsJSON, err := json.Marshal(p.TaskSnapshots())
	if err != nil {
		return err
	}
	unscheduledJSON, err := json.Marshal(p.UnscheduledTasks())
	if err != nil {
		return err
	}
	excludedJSON, err := json.Marshal(p.ExcludedTasks())
	if err != nil {
		return err
	}
	blocksJSON, err := json.Marshal(p.TimeBlocks())
	if err != nil {
		return err
	}
	pinnedJSON, err := json.Marshal(p.PinnedOverflowTaskIDs())
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := q.ExecContext(ctx, `
		UPDATE schedule_plans SET
			plan_group_id = ?, timezone = ?, day_json = ?, task_snapshots_json = ?,
			unscheduled_tasks_json = ?, excluded_tasks_json = ?, time_blocks_json = ?,
			pinned_overflow_json = ?, plan_params_fingerprint = ?, generated_at = ?,
			version = version + 1, updated_at = ?
		WHERE user_id = ? AND plan_date = ?
	`,
		p.PlanGroupID().String(), p.Timezone(), string(dayJSON), string(snapshotsJSON),
		string(unscheduledJSON), string(excludedJSON), string(blocksJSON),
		string(pinnedJSON), p.PlanParamsFingerprint(), p.GeneratedAt().Format(time.RFC3339),
		now, p.UserID().String(), p.PlanDate().Format("2006-01-02"),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO schedule_plans (
			id, user_id, plan_group_id, plan_date, timezone, day_json,
			task_snapshots_json, unscheduled_tasks_json, excluded_tasks_json, time_blocks_json,
			pinned_overflow_json, plan_params_fingerprint, generated_at, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID().String(), p.UserID().String(), p.PlanGroupID().String(), p.PlanDate().Format("2006-01-02"),
		p.Timezone(), string(dayJSON), string(snapshotsJSON), string(unscheduledJSON),
		string(excludedJSON), string(blocksJSON), string(pinnedJSON), p.PlanParamsFingerprint(),
		p.GeneratedAt().Format(time.RFC3339), p.Version(), p.CreatedAt().Format(time.RFC3339), now,
	)
	return err
}

// GetByDate returns the plan row for (userID, date), or nil if absent.
func (r *SQLitePlanRepository) GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*sdomain.DailySchedulePlan, error) {
	q := r.getQuerier(ctx)
	row := q.QueryRowContext(ctx, `SELECT `+sqlitePlanColumns+` FROM schedule_plans WHERE user_id = ? AND plan_date = ?`,
		userID.String(), date.Format("2006-01-02"))
	plan, err := scanPlanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return plan, err
}

// ListByRange returns plan rows for userID within [start, end], ordered
// by plan_date ascending.
func (r *SQLitePlanRepository) ListByRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*sdomain.DailySchedulePlan, error) {
	q := r.getQuerier(ctx)
	rows, err := q.QueryContext(ctx, `SELECT `+sqlitePlanColumns+` FROM schedule_plans
		WHERE user_id = ? AND plan_date BETWEEN ? AND ? ORDER BY plan_date ASC`,
		userID.String(), start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*sdomain.DailySchedulePlan
	for rows.Next() {
		p, err := scanPlanRow(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// DeleteByPlanGroup removes every row belonging to planGroupID.
func (r *SQLitePlanRepository) DeleteByPlanGroup(ctx context.Context, userID uuid.UUID, planGroupID uuid.UUID) error {
	q := r.getQuerier(ctx)
	_, err := q.ExecContext(ctx, `DELETE FROM schedule_plans WHERE user_id = ? AND plan_group_id = ?`,
		userID.String(), planGroupID.String())
	return err
}

// UpdateTaskSnapshotForGroup refreshes snapshot across every row sharing
// planGroupID, the write-back propagation step after a move.
func (r *SQLitePlanRepository) UpdateTaskSnapshotForGroup(ctx context.Context, planGroupID uuid.UUID, snapshot sdomain.TaskPlanSnapshot) error {
	q := r.getQuerier(ctx)
	rows, err := q.QueryContext(ctx, `SELECT `+sqlitePlanColumns+` FROM schedule_plans WHERE plan_group_id = ?`, planGroupID.String())
	if err != nil {
		return err
	}
	var plans []*sdomain.DailySchedulePlan
	for rows.Next() {
		p, err := scanPlanRow(rows)
		if err != nil {
			rows.Close()
			return err
		}
		plans = append(plans, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range plans {
		p.UpdateTaskSnapshot(snapshot)
		if err := r.upsertOne(ctx, q, p); err != nil {
			return err
		}
	}
	return nil
}

type planRowScanner interface {
	Scan(dest ...any) error
}

func scanPlanRow(row planRowScanner) (*sdomain.DailySchedulePlan, error) {
	var (
		id, userID, planGroupID, planDate, timezone string
		dayJSON, snapshotsJSON, unscheduledJSON     string
		excludedJSON, blocksJSON, pinnedJSON        string
		fingerprint, generatedAt                    string
		version                                     int64
		createdAt, updatedAt                        string
	)
	if err := row.Scan(
		&id, &userID, &planGroupID, &planDate, &timezone, &dayJSON,
		&snapshotsJSON, &unscheduledJSON, &excludedJSON, &blocksJSON,
		&pinnedJSON, &fingerprint, &generatedAt, &version, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	idUUID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid plan id: %w", err)
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}
	groupUUID, err := uuid.Parse(planGroupID)
	if err != nil {
		return nil, fmt.Errorf("invalid plan_group_id: %w", err)
	}
	date, err := time.Parse("2006-01-02", planDate)
	if err != nil {
		return nil, fmt.Errorf("invalid plan_date: %w", err)
	}

	var day sdomain.ScheduleDay
	if err := json.Unmarshal([]byte(dayJSON), &day); err != nil {
		return nil, fmt.Errorf("invalid day_json: %w", err)
	}
	var snapshots []sdomain.TaskPlanSnapshot
	if err := json.Unmarshal([]byte(snapshotsJSON), &snapshots); err != nil {
		return nil, fmt.Errorf("invalid task_snapshots_json: %w", err)
	}
	var unscheduled []sdomain.UnscheduledTask
	if err := json.Unmarshal([]byte(unscheduledJSON), &unscheduled); err != nil {
		return nil, fmt.Errorf("invalid unscheduled_tasks_json: %w", err)
	}
	var excluded []sdomain.ExcludedTaskInfo
	if err := json.Unmarshal([]byte(excludedJSON), &excluded); err != nil {
		return nil, fmt.Errorf("invalid excluded_tasks_json: %w", err)
	}
	var blocks []sdomain.ScheduleTimeBlock
	if err := json.Unmarshal([]byte(blocksJSON), &blocks); err != nil {
		return nil, fmt.Errorf("invalid time_blocks_json: %w", err)
	}
	var pinned []uuid.UUID
	if err := json.Unmarshal([]byte(pinnedJSON), &pinned); err != nil {
		return nil, fmt.Errorf("invalid pinned_overflow_json: %w", err)
	}

	generatedAtTime, err := time.Parse(time.RFC3339, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid generated_at: %w", err)
	}
	createdAtTime, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAtTime, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	return sdomain.RehydrateDailySchedulePlan(
		idUUID, userUUID, groupUUID, date, timezone, day,
		snapshots, unscheduled, excluded, blocks, pinned,
		fingerprint, generatedAtTime, int(version), createdAtTime, updatedAtTime,
	), nil
}
