package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresSettingsRepository implements sdomain.ScheduleSettingsRepository
// using PostgreSQL, storing the [7]WorkdayHours array as JSONB.
type PostgresSettingsRepository struct {
	conn database.Connection
}

// NewPostgresSettingsRepository creates a PostgresSettingsRepository.
func NewPostgresSettingsRepository(conn database.Connection) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{conn: conn}
}

// Get returns the user's settings, or nil if none were saved.
func (r *PostgresSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*sdomain.ScheduleSettings, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `
		SELECT user_id, weekly_work_hours_json, buffer_hours, break_after_task_minutes
		FROM schedule_settings WHERE user_id = $1
	`, userID)

	var id uuid.UUID
	var weeklyJSON []byte
	var bufferHours float64
	var breakMinutes int
	if err := row.Scan(&id, &weeklyJSON, &bufferHours, &breakMinutes); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	var weekly [7]sdomain.WorkdayHours
	if err := json.Unmarshal(weeklyJSON, &weekly); err != nil {
		return nil, fmt.Errorf("invalid weekly_work_hours_json: %w", err)
	}

	return &sdomain.ScheduleSettings{
		UserID:                id,
		WeeklyWorkHours:       weekly,
		BufferHours:           bufferHours,
		BreakAfterTaskMinutes: breakMinutes,
	}, nil
}

// Save upserts settings for settings.UserID.
func (r *PostgresSettingsRepository) Save(ctx context.Context, settings sdomain.ScheduleSettings) error {
	weeklyJSON, err := json.Marshal(settings.WeeklyWorkHours)
	if err != nil {
		return err
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, `
		INSERT INTO schedule_settings (user_id, weekly_work_hours_json, buffer_hours, break_after_task_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			weekly_work_hours_json = EXCLUDED.weekly_work_hours_json,
			buffer_hours = EXCLUDED.buffer_hours,
			break_after_task_minutes = EXCLUDED.break_after_task_minutes,
			updated_at = NOW()
	`, settings.UserID, weeklyJSON, settings.BufferHours, settings.BreakAfterTaskMinutes)
	return err
}
