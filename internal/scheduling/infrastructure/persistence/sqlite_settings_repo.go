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

// SQLiteSettingsRepository implements sdomain.ScheduleSettingsRepository
// using SQLite, storing the [7]WorkdayHours array as a single JSON text
// column (the array shape doesn't map to a useful set of scalar
// columns the way tasks.dependency_ids does).
type SQLiteSettingsRepository struct {
	dbConn *sql.DB
}

// NewSQLiteSettingsRepository creates a SQLiteSettingsRepository.
func NewSQLiteSettingsRepository(dbConn *sql.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{dbConn: dbConn}
}

func (r *SQLiteSettingsRepository) getQuerier(ctx context.Context) querier {
	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return r.dbConn
}

// Get returns the user's settings, or nil if none were saved.
func (r *SQLiteSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*sdomain.ScheduleSettings, error) {
	q := r.getQuerier(ctx)
	row := q.QueryRowContext(ctx, `
		SELECT user_id, weekly_work_hours_json, buffer_hours, break_after_task_minutes
		FROM schedule_settings WHERE user_id = ?
	`, userID.String())

	var userIDStr, weeklyJSON string
	var bufferHours float64
	var breakMinutes int
	if err := row.Scan(&userIDStr, &weeklyJSON, &bufferHours, &breakMinutes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	id, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}
	var weekly [7]sdomain.WorkdayHours
	if err := json.Unmarshal([]byte(weeklyJSON), &weekly); err != nil {
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
func (r *SQLiteSettingsRepository) Save(ctx context.Context, settings sdomain.ScheduleSettings) error {
	q := r.getQuerier(ctx)

	weeklyJSON, err := json.Marshal(settings.WeeklyWorkHours)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE schedule_settings SET
			weekly_work_hours_json = ?, buffer_hours = ?, break_after_task_minutes = ?, updated_at = ?
		WHERE user_id = ?
	`, string(weeklyJSON), settings.BufferHours, settings.BreakAfterTaskMinutes,
		time.Now().UTC().Format(time.RFC3339), settings.UserID.String())
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

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = q.ExecContext(ctx, `
		INSERT INTO schedule_settings (user_id, weekly_work_hours_json, buffer_hours, break_after_task_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, settings.UserID.String(), string(weeklyJSON), settings.BufferHours, settings.BreakAfterTaskMinutes, now, now)
	return err
}
