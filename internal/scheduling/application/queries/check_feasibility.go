package queries

import (
	"context"
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// OverflowAction suggests one way to resolve a feasibility shortfall.
type OverflowAction string

const (
	ActionExtendHorizon  OverflowAction = "extend_horizon"
	ActionDropLowestScore OverflowAction = "drop_lowest_score"
	ActionManualTriage   OverflowAction = "manual_triage"
)

// CheckFeasibilityQuery asks whether a candidate generation over
// [StartDate, StartDate+MaxDays) can plausibly fit.
type CheckFeasibilityQuery struct {
	UserID    uuid.UUID
	StartDate time.Time
	MaxDays   int
}

// CheckFeasibilityResult reports the capacity/demand comparison and, when
// infeasible, ranked suggestions for resolving the shortfall.
type CheckFeasibilityResult struct {
	Feasible         bool
	TotalDemandMinutes   int
	TotalCapacityMinutes int
	ShortfallMinutes     int
	SuggestedActions     []OverflowAction
}

// CheckFeasibilityHandler implements the pre-check: it sums the
// candidate set's effective-minutes against the horizon's raw capacity
// without running the full day packer, so it can answer cheaply before a
// caller commits to a generation.
type CheckFeasibilityHandler struct {
	taskRepo         task.Repository
	settingsRepo     sdomain.ScheduleSettingsRepository
	scheduleDefaults sdomain.ScheduleDefaults
}

// NewCheckFeasibilityHandler creates a CheckFeasibilityHandler. defaults
// seeds a user's settings when ScheduleSettingsRepository.Get returns nil.
func NewCheckFeasibilityHandler(taskRepo task.Repository, settingsRepo sdomain.ScheduleSettingsRepository, defaults sdomain.ScheduleDefaults) *CheckFeasibilityHandler {
	return &CheckFeasibilityHandler{taskRepo: taskRepo, settingsRepo: settingsRepo, scheduleDefaults: defaults}
}

// Handle runs the pre-check.
func (h *CheckFeasibilityHandler) Handle(ctx context.Context, query CheckFeasibilityQuery) (*CheckFeasibilityResult, error) {
	settings, err := h.settingsRepo.Get(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		defaults := sdomain.NewDefaultScheduleSettings(query.UserID, h.scheduleDefaults)
		settings = &defaults
	}

	tasks, err := h.taskRepo.FindByUserID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	classification := sdomain.Classify(tasks)

	totalDemand := 0
	for _, t := range classification.Scheduled {
		totalDemand += task.EffectiveEstimateMinutes(t, classification.Scheduled)
	}

	totalCapacity := 0
	maxDays := query.MaxDays
	if maxDays <= 0 {
		maxDays = 1
	}
	for d := 0; d < maxDays; d++ {
		date := query.StartDate.AddDate(0, 0, d)
		totalCapacity += sdomain.BuildDayCapacity(*settings, date).CapacityMinutes
	}

	result := &CheckFeasibilityResult{
		TotalDemandMinutes:   totalDemand,
		TotalCapacityMinutes: totalCapacity,
		Feasible:             totalDemand <= totalCapacity,
	}
	if !result.Feasible {
		result.ShortfallMinutes = totalDemand - totalCapacity
		result.SuggestedActions = []OverflowAction{ActionExtendHorizon, ActionDropLowestScore, ActionManualTriage}
	}
	return result, nil
}
