package commands

import (
	"context"
	"fmt"
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	sharedApplication "github.com/mugi0227/nagi-scheduler/internal/shared/application"
	"github.com/google/uuid"
)

// MoveTimeBlockCommand relocates or resizes a single time block. A
// SameDate move resizes/shifts the block within its own plan row; a
// cross-date move removes it from OriginalDate's row and appends it to
// the row for NewStart's date.
type MoveTimeBlockCommand struct {
	UserID       uuid.UUID
	TaskID       uuid.UUID
	OriginalDate time.Time
	NewStart     time.Time
	NewEnd       time.Time
}

// MoveTimeBlockResult reports the relocated block. SnapshotsUpdated is 1
// once the task's refreshed snapshot has been written to the source
// row's plan_group_id; it is not a count of the rows refreshed.
type MoveTimeBlockResult struct {
	Block             sdomain.ScheduleTimeBlock
	SnapshotsUpdated  int
}

// MoveTimeBlockHandler applies a move/resize: it relocates the block,
// writes the new wall-clock range back onto the task when the task is
// fixed-time, and propagates the task's refreshed fingerprint to every
// plan row sharing the source row's plan_group_id so they do not
// immediately report `stale`.
type MoveTimeBlockHandler struct {
	planRepo sdomain.DailySchedulePlanRepository
	taskRepo task.Repository
	uow      sharedApplication.UnitOfWork
}

// NewMoveTimeBlockHandler creates a MoveTimeBlockHandler.
func NewMoveTimeBlockHandler(planRepo sdomain.DailySchedulePlanRepository, taskRepo task.Repository, uow sharedApplication.UnitOfWork) *MoveTimeBlockHandler {
	return &MoveTimeBlockHandler{planRepo: planRepo, taskRepo: taskRepo, uow: uow}
}

// Handle executes the move. A block not found at (TaskID, OriginalDate)
// is a no-op failure: it returns an error rather than silently creating
// a new block.
func (h *MoveTimeBlockHandler) Handle(ctx context.Context, cmd MoveTimeBlockCommand) (*MoveTimeBlockResult, error) {
	var result MoveTimeBlockResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		source, err := h.planRepo.GetByDate(txCtx, cmd.UserID, cmd.OriginalDate)
		if err != nil {
			return err
		}
		if source == nil {
			return fmt.Errorf("no plan row for user %s on %s", cmd.UserID, cmd.OriginalDate.Format("2006-01-02"))
		}

		sameDate := sameCalendarDay(cmd.OriginalDate, cmd.NewStart)

		var moved sdomain.ScheduleTimeBlock
		var ok bool
		if sameDate {
			moved, ok = source.MoveBlock(cmd.TaskID, cmd.NewStart, cmd.NewEnd)
		} else {
			moved, ok = source.RemoveBlock(cmd.TaskID)
		}
		if !ok {
			return fmt.Errorf("no time block for task %s on %s", cmd.TaskID, cmd.OriginalDate.Format("2006-01-02"))
		}

		plansToSave := []*sdomain.DailySchedulePlan{source}

		if !sameDate {
			moved.Start = cmd.NewStart
			moved.End = cmd.NewEnd

			target, err := h.planRepo.GetByDate(txCtx, cmd.UserID, cmd.NewStart)
			if err != nil {
				return err
			}
			if target == nil {
				return fmt.Errorf("no plan row for user %s on %s; generate a plan covering that date first", cmd.UserID, cmd.NewStart.Format("2006-01-02"))
			}
			target.AppendBlock(moved)
			plansToSave = append(plansToSave, target)
		}

		// Task write-back: a fixed-time task's own start/end must follow its
		// block, since the block exists only because the task carries them.
		// Failure here is fatal — a silently stale task would immediately
		// diverge from the plan that was just written.
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("task %s not found", cmd.TaskID)
		}
		if t.IsFixedTime() {
			start, end := moved.Start, moved.End
			if err := t.SetFixedTime(&start, &end); err != nil {
				return err
			}
		} else {
			minutes := moved.DurationMinutes()
			if err := t.SetEstimatedMinutes(&minutes); err != nil {
				return err
			}
		}
		if err := h.taskRepo.Save(txCtx, t); err != nil {
			return err
		}

		snapshot := sdomain.TaskPlanSnapshot{
			TaskID:      t.ID(),
			Title:       t.Title(),
			Fingerprint: sdomain.TaskFingerprint(t),
		}
		if err := h.planRepo.UpdateTaskSnapshotForGroup(txCtx, source.PlanGroupID(), snapshot); err != nil {
			return err
		}
		result.SnapshotsUpdated = 1
		for _, p := range plansToSave {
			p.UpdateTaskSnapshot(snapshot)
		}
		source.AddDomainEvent(sdomain.NewBlockMoved(source.ID(), cmd.TaskID,
			cmd.OriginalDate.Format("2006-01-02"), cmd.NewStart.Format("2006-01-02")))

		if err := h.planRepo.UpsertMany(txCtx, plansToSave); err != nil {
			return err
		}

		result.Block = moved
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move time block: %w", err)
	}

	return &result, nil
}

func sameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
