package commands

import (
	"context"
	"errors"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	sharedApplication "github.com/mugi0227/nagi-scheduler/internal/shared/application"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ErrNotTaskOwner is returned when a task update is attempted by a user
// that does not own the task.
var ErrNotTaskOwner = errors.New("user does not own this task")

// UpdateTaskCommand contains the data needed to update a task. Pointer
// fields left nil mean "no change".
type UpdateTaskCommand struct {
	TaskID              uuid.UUID
	UserID              uuid.UUID
	Title               *string
	Description         *string
	Importance          *string
	Urgency             *string
	EnergyLevel         *string
	EstimatedMinutes    *int
	DueDate             *time.Time
	ClearDueDate        bool
	StartNotBefore      *time.Time
	ClearStartNotBefore bool
	PinnedDate          *time.Time
	ClearPinnedDate     bool
	ProjectID           *uuid.UUID
	ClearProjectID      bool
	Progress            *int
}

// UpdateTaskHandler handles the UpdateTaskCommand.
type UpdateTaskHandler struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewUpdateTaskHandler creates a new UpdateTaskHandler.
func NewUpdateTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *UpdateTaskHandler {
	return &UpdateTaskHandler{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the UpdateTaskCommand.
func (h *UpdateTaskHandler) Handle(ctx context.Context, cmd UpdateTaskCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}

		if t.UserID() != cmd.UserID {
			return ErrNotTaskOwner
		}

		var updatedFields []string

		if cmd.Title != nil {
			if err := t.SetTitle(*cmd.Title); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "title")
		}

		if cmd.Description != nil {
			if err := t.SetDescription(*cmd.Description); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "description")
		}

		if cmd.Importance != nil {
			importance, err := value_objects.ParseImportance(*cmd.Importance)
			if err != nil {
				return err
			}
			if err := t.SetImportance(importance); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "importance")
		}

		if cmd.Urgency != nil {
			urgency, err := value_objects.ParseUrgency(*cmd.Urgency)
			if err != nil {
				return err
			}
			if err := t.SetUrgency(urgency); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "urgency")
		}

		if cmd.EnergyLevel != nil {
			energy, err := value_objects.ParseEnergyLevel(*cmd.EnergyLevel)
			if err != nil {
				return err
			}
			if err := t.SetEnergyLevel(energy); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "energy_level")
		}

		if cmd.EstimatedMinutes != nil {
			if err := t.SetEstimatedMinutes(cmd.EstimatedMinutes); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "estimated_minutes")
		}

		switch {
		case cmd.ClearDueDate:
			if err := t.SetDueDate(nil); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "due_date")
		case cmd.DueDate != nil:
			if err := t.SetDueDate(cmd.DueDate); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "due_date")
		}

		switch {
		case cmd.ClearStartNotBefore:
			if err := t.SetStartNotBefore(nil); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "start_not_before")
		case cmd.StartNotBefore != nil:
			if err := t.SetStartNotBefore(cmd.StartNotBefore); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "start_not_before")
		}

		switch {
		case cmd.ClearPinnedDate:
			if err := t.SetPinnedDate(nil); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "pinned_date")
		case cmd.PinnedDate != nil:
			if err := t.SetPinnedDate(cmd.PinnedDate); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "pinned_date")
		}

		switch {
		case cmd.ClearProjectID:
			if err := t.SetProjectID(nil); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "project_id")
		case cmd.ProjectID != nil:
			if err := t.SetProjectID(cmd.ProjectID); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "project_id")
		}

		if cmd.Progress != nil {
			if err := t.SetProgress(*cmd.Progress); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "progress")
		}

		if len(updatedFields) == 0 {
			return nil
		}

		t.AddDomainEvent(task.NewTaskUpdated(t.ID(), updatedFields))

		if err := h.taskRepo.Save(txCtx, t); err != nil {
			return err
		}

		events := t.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.UserID))

		msgs := make([]*outbox.Message, 0, len(events))
		for _, event := range events {
			msg, err := outbox.NewMessage(event)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return h.outboxRepo.SaveBatch(txCtx, msgs)
	})
}
