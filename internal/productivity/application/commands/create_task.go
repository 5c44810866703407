package commands

import (
	"context"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	sharedApplication "github.com/mugi0227/nagi-scheduler/internal/shared/application"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CreateTaskCommand contains the data needed to create a task.
type CreateTaskCommand struct {
	UserID           uuid.UUID
	Title            string
	Description      string
	Importance       string
	Urgency          string
	EnergyLevel      string
	EstimatedMinutes *int
	DueDate          *time.Time
	StartNotBefore   *time.Time
	PinnedDate       *time.Time
	ParentID         *uuid.UUID
	ProjectID        *uuid.UUID
	DependencyIDs    []uuid.UUID
}

// CreateTaskResult contains the result of creating a task.
type CreateTaskResult struct {
	TaskID uuid.UUID
}

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateTaskHandler {
	return &CreateTaskHandler{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the CreateTaskCommand.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*CreateTaskResult, error) {
	var result *CreateTaskResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := task.NewTask(cmd.UserID, cmd.Title)
		if err != nil {
			return err
		}

		if cmd.Description != "" {
			if err := t.SetDescription(cmd.Description); err != nil {
				return err
			}
		}

		if cmd.Importance != "" {
			importance, err := value_objects.ParseImportance(cmd.Importance)
			if err != nil {
				return err
			}
			if err := t.SetImportance(importance); err != nil {
				return err
			}
		}

		if cmd.Urgency != "" {
			urgency, err := value_objects.ParseUrgency(cmd.Urgency)
			if err != nil {
				return err
			}
			if err := t.SetUrgency(urgency); err != nil {
				return err
			}
		}

		if cmd.EnergyLevel != "" {
			energy, err := value_objects.ParseEnergyLevel(cmd.EnergyLevel)
			if err != nil {
				return err
			}
			if err := t.SetEnergyLevel(energy); err != nil {
				return err
			}
		}

		if cmd.EstimatedMinutes != nil {
			if err := t.SetEstimatedMinutes(cmd.EstimatedMinutes); err != nil {
				return err
			}
		}

		if cmd.DueDate != nil {
			if err := t.SetDueDate(cmd.DueDate); err != nil {
				return err
			}
		}

		if cmd.StartNotBefore != nil {
			if err := t.SetStartNotBefore(cmd.StartNotBefore); err != nil {
				return err
			}
		}

		if cmd.PinnedDate != nil {
			if err := t.SetPinnedDate(cmd.PinnedDate); err != nil {
				return err
			}
		}

		if cmd.ParentID != nil {
			if err := t.SetParentID(cmd.ParentID); err != nil {
				return err
			}
		}

		if cmd.ProjectID != nil {
			if err := t.SetProjectID(cmd.ProjectID); err != nil {
				return err
			}
		}

		for _, depID := range cmd.DependencyIDs {
			if err := t.AddDependency(depID); err != nil {
				return err
			}
		}

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
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}

		result = &CreateTaskResult{TaskID: t.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
