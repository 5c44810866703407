package queries

import (
	"context"
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/google/uuid"
)

// TodayTaskDTO is one time block reduced to what `schedule now`
// needs to render.
type TodayTaskDTO struct {
	TaskID  uuid.UUID
	Start   time.Time
	End     time.Time
	Kind    string
	IsGhost bool
}

// GetTodayTasksQuery asks for the subset of a user's plan touching the
// current calendar day.
type GetTodayTasksQuery struct {
	UserID uuid.UUID
	Now    time.Time
}

// GetTodayTasksHandler implements the `get_today_tasks` distillation: it
// reduces a full plan row to just today's blocks, sorted by start time.
type GetTodayTasksHandler struct {
	planRepo sdomain.DailySchedulePlanRepository
}

// NewGetTodayTasksHandler creates a GetTodayTasksHandler.
func NewGetTodayTasksHandler(planRepo sdomain.DailySchedulePlanRepository) *GetTodayTasksHandler {
	return &GetTodayTasksHandler{planRepo: planRepo}
}

// Handle returns an empty slice (not an error) when no plan row exists
// for today — "nothing planned" is a valid answer, not a failure.
func (h *GetTodayTasksHandler) Handle(ctx context.Context, query GetTodayTasksQuery) ([]TodayTaskDTO, error) {
	plan, err := h.planRepo.GetByDate(ctx, query.UserID, query.Now)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return []TodayTaskDTO{}, nil
	}

	blocks := append([]sdomain.ScheduleTimeBlock{}, plan.TimeBlocks()...)
	for i := 0; i < len(blocks)-1; i++ {
		for j := i + 1; j < len(blocks); j++ {
			if blocks[j].Start.Before(blocks[i].Start) {
				blocks[i], blocks[j] = blocks[j], blocks[i]
			}
		}
	}

	dtos := make([]TodayTaskDTO, 0, len(blocks))
	for _, b := range blocks {
		dtos = append(dtos, TodayTaskDTO{
			TaskID:  b.TaskID,
			Start:   b.Start,
			End:     b.End,
			Kind:    string(b.Kind),
			IsGhost: b.IsGhost,
		})
	}
	return dtos, nil
}
