package queries

import (
	"context"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/google/uuid"
)

// PlanStatus classifies a plan row's freshness against the live task set.
type PlanStatus string

const (
	// PlanStatusPlanned: every snapshotted task that still exists has the
	// fingerprint recorded when the plan was generated.
	PlanStatusPlanned PlanStatus = "planned"
	// PlanStatusStale: at least one snapshotted task's fingerprint has
	// drifted since generation. Tasks created or deleted since generation,
	// and the params the plan was generated with, are not compared.
	PlanStatusStale PlanStatus = "stale"
	// PlanStatusForecast: the row exists only as packer output that has
	// never been persisted — a query-time projection, not a plan.
	// GetPlanHandler does not return this status; it returns nil when no
	// row exists.
	PlanStatusForecast PlanStatus = "forecast"
)

// PendingChange names one task whose scheduling-relevant fields drifted
// since the plan was generated.
type PendingChange struct {
	TaskID uuid.UUID
	Title  string
}

// TimeBlockDTO is the read-side shape of a ScheduleTimeBlock.
type TimeBlockDTO struct {
	TaskID  uuid.UUID
	Start   time.Time
	End     time.Time
	Kind    string
	Status  string
	IsGhost bool
}

// GetPlanQuery requests the persisted plan for a single day.
type GetPlanQuery struct {
	UserID uuid.UUID
	Date   time.Time
}

// GetPlanResult is the plan read path's response.
type GetPlanResult struct {
	Status          PlanStatus
	Day             sdomain.ScheduleDay
	TimeBlocks       []TimeBlockDTO
	PendingChanges  []PendingChange
	GeneratedAt     time.Time
}

// GetPlanHandler serves the plan read path.
type GetPlanHandler struct {
	planRepo sdomain.DailySchedulePlanRepository
	taskRepo task.Repository
}

// NewGetPlanHandler creates a GetPlanHandler.
func NewGetPlanHandler(planRepo sdomain.DailySchedulePlanRepository, taskRepo task.Repository) *GetPlanHandler {
	return &GetPlanHandler{planRepo: planRepo, taskRepo: taskRepo}
}

// Handle returns nil, nil when no plan row exists for the date — callers
// distinguish "never generated" from "stale" by a nil result.
func (h *GetPlanHandler) Handle(ctx context.Context, query GetPlanQuery) (*GetPlanResult, error) {
	plan, err := h.planRepo.GetByDate(ctx, query.UserID, query.Date)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}

	tasks, err := h.taskRepo.FindByUserID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*task.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID()] = t
	}

	var pending []PendingChange
	for _, snap := range plan.TaskSnapshots() {
		t, ok := byID[snap.TaskID]
		if !ok {
			continue
		}
		if sdomain.TaskFingerprint(t) != snap.Fingerprint {
			pending = append(pending, PendingChange{TaskID: t.ID(), Title: t.Title()})
		}
	}

	status := PlanStatusPlanned
	if len(pending) > 0 {
		status = PlanStatusStale
	}

	blocks := make([]TimeBlockDTO, 0, len(plan.TimeBlocks()))
	for _, b := range plan.TimeBlocks() {
		blocks = append(blocks, TimeBlockDTO{
			TaskID:  b.TaskID,
			Start:   b.Start,
			End:     b.End,
			Kind:    string(b.Kind),
			Status:  string(b.Status),
			IsGhost: b.IsGhost,
		})
	}

	return &GetPlanResult{
		Status:         status,
		Day:            plan.Day(),
		TimeBlocks:     blocks,
		PendingChanges: pending,
		GeneratedAt:    plan.GeneratedAt(),
	}, nil
}
