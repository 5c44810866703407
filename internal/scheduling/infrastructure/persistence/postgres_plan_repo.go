package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresPlanRepository implements sdomain.DailySchedulePlanRepository
// using PostgreSQL JSONB columns for the plan's nested collections
// (day/snapshots/unscheduled/excluded/blocks/pinned-overflow), following
// the database.Connection/ExecutorFromContext shape of
// PostgresTaskRepository.
type PostgresPlanRepository struct {
	conn database.Connection
}

// NewPostgresPlanRepository creates a PostgresPlanRepository.
func NewPostgresPlanRepository(conn database.Connection) *PostgresPlanRepository {
	return &PostgresPlanRepository{conn: conn}
}

const postgresPlanColumns = `id, user_id, plan_group_id, plan_date, timezone, day_json,
	task_snapshots_json, unscheduled_tasks_json, excluded_tasks_json, time_blocks_json,
	pinned_overflow_json, plan_params_fingerprint, generated_at, version, created_at, updated_at`

// UpsertMany persists each plan row, replacing any existing row for the
// same (user_id, plan_date).
func (r *PostgresPlanRepository) UpsertMany(ctx context.Context, plans []*sdomain.DailySchedulePlan) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	for _, p := range plans {
		if err := r.upsertOne(ctx, exec, p); err != nil {
			return fmt.Errorf("upsert plan %s: %w", p.ID(), err)
		}
	}
	return nil
}

func (r *PostgresPlanRepository) upsertOne(ctx context.Context, exec database.Executor, p *sdomain.DailySchedulePlan) error {
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

	query := `
		INSERT INTO schedule_plans (
			id, user_id, plan_group_id, plan_date, timezone, day_json,
			task_snapshots_json, unscheduled_tasks_json, excluded_tasks_json, time_blocks_json,
			pinned_overflow_json, plan_params_fingerprint, generated_at, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (user_id, plan_date) DO UPDATE SET
			plan_group_id = EXCLUDED.plan_group_id,
			timezone = EXCLUDED.timezone,
			day_json = EXCLUDED.day_json,
			task_snapshots_json = EXCLUDED.task_snapshots_json,
			unscheduled_tasks_json = EXCLUDED.unscheduled_tasks_json,
			excluded_tasks_json = EXCLUDED.excluded_tasks_json,
			time_blocks_json = EXCLUDED.time_blocks_json,
			pinned_overflow_json = EXCLUDED.pinned_overflow_json,
			plan_params_fingerprint = EXCLUDED.plan_params_fingerprint,
			generated_at = EXCLUDED.generated_at,
			version = schedule_plans.version + 1,
			updated_at = NOW()
	`
	_, err = exec.Exec(ctx, query,
		p.ID(), p.UserID(), p.PlanGroupID(), p.PlanDate(), p.Timezone(), dayJSON,
		snapshotsJSON, unscheduledJSON, excludedJSON, blocksJSON, pinnedJSON,
		p.PlanParamsFingerprint(), p.GeneratedAt(), p.Version(), p.CreatedAt(),
	)
	return err
}

// GetByDate returns the plan row for (userID, date), or nil if absent.
func (r *PostgresPlanRepository) GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*sdomain.DailySchedulePlan, error) {
	query := `SELECT ` + postgresPlanColumns + ` FROM schedule_plans WHERE user_id = $1 AND plan_date = $2`
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, query, userID, date.Format("2006-01-02"))
	plan, err := scanPostgresPlanRow(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

// ListByRange returns plan rows for userID within [start, end].
func (r *PostgresPlanRepository) ListByRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*sdomain.DailySchedulePlan, error) {
	query := `SELECT ` + postgresPlanColumns + ` FROM schedule_plans
		WHERE user_id = $1 AND plan_date BETWEEN $2 AND $3 ORDER BY plan_date ASC`
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, userID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*sdomain.DailySchedulePlan
	for rows.Next() {
		p, err := scanPostgresPlanRow(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// DeleteByPlanGroup removes every row belonging to planGroupID.
func (r *PostgresPlanRepository) DeleteByPlanGroup(ctx context.Context, userID uuid.UUID, planGroupID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `DELETE FROM schedule_plans WHERE user_id = $1 AND plan_group_id = $2`, userID, planGroupID)
	return err
}

// UpdateTaskSnapshotForGroup refreshes snapshot across every row sharing
// planGroupID.
func (r *PostgresPlanRepository) UpdateTaskSnapshotForGroup(ctx context.Context, planGroupID uuid.UUID, snapshot sdomain.TaskPlanSnapshot) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `SELECT `+postgresPlanColumns+` FROM schedule_plans WHERE plan_group_id = $1`, planGroupID)
	if err != nil {
		return err
	}
	var plans []*sdomain.DailySchedulePlan
	for rows.Next() {
		p, err := scanPostgresPlanRow(rows)
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
		if err := r.upsertOne(ctx, exec, p); err != nil {
			return err
		}
	}
	return nil
}

type postgresPlanRowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresPlanRow(row postgresPlanRowScanner) (*sdomain.DailySchedulePlan, error) {
	var (
		id, userID, planGroupID uuid.UUID
		planDate, generatedAt   time.Time
		timezone, fingerprint   string
		dayJSON, snapshotsJSON  []byte
		unscheduledJSON         []byte
		excludedJSON, blocksJSON []byte
		pinnedJSON              []byte
		version                 int
		createdAt, updatedAt    time.Time
	)
	if err := row.Scan(
		&id, &userID, &planGroupID, &planDate, &timezone, &dayJSON,
		&snapshotsJSON, &unscheduledJSON, &excludedJSON, &blocksJSON,
		&pinnedJSON, &fingerprint, &generatedAt, &version, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	var day sdomain.ScheduleDay
	if err := json.Unmarshal(dayJSON, &day); err != nil {
		return nil, fmt.Errorf("invalid day_json: %w", err)
	}
	var snapshots []sdomain.TaskPlanSnapshot
	if err := json.Unmarshal(snapshotsJSON, &snapshots); err != nil {
		return nil, fmt.Errorf("invalid task_snapshots_json: %w", err)
	}
	var unscheduled []sdomain.UnscheduledTask
	if err := json.Unmarshal(unscheduledJSON, &unscheduled); err != nil {
		return nil, fmt.Errorf("invalid unscheduled_tasks_json: %w", err)
	}
	var excluded []sdomain.ExcludedTaskInfo
	if err := json.Unmarshal(excludedJSON, &excluded); err != nil {
		return nil, fmt.Errorf("invalid excluded_tasks_json: %w", err)
	}
	var blocks []sdomain.ScheduleTimeBlock
	if err := json.Unmarshal(blocksJSON, &blocks); err != nil {
		return nil, fmt.Errorf("invalid time_blocks_json: %w", err)
	}
	var pinned []uuid.UUID
	if err := json.Unmarshal(pinnedJSON, &pinned); err != nil {
		return nil, fmt.Errorf("invalid pinned_overflow_json: %w", err)
	}

	return sdomain.RehydrateDailySchedulePlan(
		id, userID, planGroupID, planDate, timezone, day,
		snapshots, unscheduled, excluded, blocks, pinned,
		fingerprint, generatedAt, version, createdAt, updatedAt,
	), nil
}
