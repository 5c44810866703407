package commands

import (
	"context"
	"fmt"
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/mugi0227/nagi-scheduler/internal/scheduling/application/services"
	sharedApplication "github.com/mugi0227/nagi-scheduler/internal/shared/application"
	"github.com/google/uuid"
)

// GeneratePlanCommand requests a fresh plan_group for UserID covering
// MaxDays starting at StartDate.
type GeneratePlanCommand struct {
	UserID           uuid.UUID
	StartDate        time.Time
	MaxDays          int
	FromNow          bool
	FilterByAssignee bool
}

// GeneratePlanResult reports the persisted plan rows and the
// classification/packer diagnostics that produced them.
type GeneratePlanResult struct {
	PlanGroupID      uuid.UUID
	Plans            []*sdomain.DailySchedulePlan
	UnscheduledTasks []sdomain.UnscheduledTask
	ExcludedTasks    []sdomain.ExcludedTask
}

// GeneratePlanHandler runs PlanGenerator and persists the resulting plan
// rows, replacing any prior plan_group for the covered date range.
type GeneratePlanHandler struct {
	generator *services.PlanGenerator
	planRepo  sdomain.DailySchedulePlanRepository
	uow       sharedApplication.UnitOfWork
}

// NewGeneratePlanHandler creates a GeneratePlanHandler.
func NewGeneratePlanHandler(generator *services.PlanGenerator, planRepo sdomain.DailySchedulePlanRepository, uow sharedApplication.UnitOfWork) *GeneratePlanHandler {
	return &GeneratePlanHandler{generator: generator, planRepo: planRepo, uow: uow}
}

// Handle generates and persists a new plan_group.
func (h *GeneratePlanHandler) Handle(ctx context.Context, cmd GeneratePlanCommand) (*GeneratePlanResult, error) {
	var result GeneratePlanResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		genResult, err := h.generator.Generate(txCtx, cmd.UserID, services.GenerateParams{
			StartDate:        cmd.StartDate,
			MaxDays:          cmd.MaxDays,
			FromNow:          cmd.FromNow,
			FilterByAssignee: cmd.FilterByAssignee,
		})
		if err != nil {
			return err
		}
		if len(genResult.Plans) == 0 {
			return fmt.Errorf("plan generation produced no rows for user %s", cmd.UserID)
		}

		if err := h.planRepo.UpsertMany(txCtx, genResult.Plans); err != nil {
			return err
		}

		result.PlanGroupID = genResult.Plans[0].PlanGroupID()
		result.Plans = genResult.Plans
		result.UnscheduledTasks = genResult.PackerOutput.UnscheduledTasks
		result.ExcludedTasks = genResult.Classification.Excluded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	return &result, nil
}
