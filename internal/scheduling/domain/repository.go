package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DailySchedulePlanRepository persists plan rows keyed by (user_id,
// plan_date), and the cross-row mutations a block move needs.
type DailySchedulePlanRepository interface {
	GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*DailySchedulePlan, error)
	ListByRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*DailySchedulePlan, error)
	UpsertMany(ctx context.Context, plans []*DailySchedulePlan) error
	DeleteByPlanGroup(ctx context.Context, userID uuid.UUID, planGroupID uuid.UUID) error
	UpdateTaskSnapshotForGroup(ctx context.Context, planGroupID uuid.UUID, snapshot TaskPlanSnapshot) error
}

// ScheduleSettingsRepository reads a user's capacity configuration.
type ScheduleSettingsRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*ScheduleSettings, error)
	Save(ctx context.Context, settings ScheduleSettings) error
}
