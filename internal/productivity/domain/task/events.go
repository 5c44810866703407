package task

import (
	"github.com/mugi0227/nagi-scheduler/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Task"

	RoutingKeyCreated   = "core.task.created"
	RoutingKeyUpdated   = "core.task.updated"
	RoutingKeyStarted   = "core.task.started"
	RoutingKeyCompleted = "core.task.completed"
	RoutingKeyArchived  = "core.task.archived"
)

// TaskCreated is emitted when a new task is created.
type TaskCreated struct {
	domain.BaseEvent
	Title      string `json:"title"`
	Importance string `json:"importance"`
	Urgency    string `json:"urgency"`
}

// NewTaskCreated creates a TaskCreated event.
func NewTaskCreated(taskID uuid.UUID, title, importance, urgency string) TaskCreated {
	return TaskCreated{
		BaseEvent:  domain.NewBaseEvent(taskID, AggregateType, RoutingKeyCreated),
		Title:      title,
		Importance: importance,
		Urgency:    urgency,
	}
}

// TaskUpdated is emitted when a task's mutable fields change. UpdatedFields
// names which fields changed, for selective cache invalidation and
// downstream scoring re-evaluation.
type TaskUpdated struct {
	domain.BaseEvent
	UpdatedFields []string `json:"updated_fields"`
}

// NewTaskUpdated creates a TaskUpdated event.
func NewTaskUpdated(taskID uuid.UUID, updatedFields []string) TaskUpdated {
	return TaskUpdated{
		BaseEvent:     domain.NewBaseEvent(taskID, AggregateType, RoutingKeyUpdated),
		UpdatedFields: updatedFields,
	}
}

// TaskStarted is emitted when a task transitions to in-progress.
type TaskStarted struct {
	domain.BaseEvent
}

// NewTaskStarted creates a TaskStarted event.
func NewTaskStarted(taskID uuid.UUID) TaskStarted {
	return TaskStarted{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyStarted),
	}
}

// TaskCompleted is emitted when a task is completed.
type TaskCompleted struct {
	domain.BaseEvent
}

// NewTaskCompleted creates a TaskCompleted event.
func NewTaskCompleted(taskID uuid.UUID) TaskCompleted {
	return TaskCompleted{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyCompleted),
	}
}

// TaskArchived is emitted when a task is archived.
type TaskArchived struct {
	domain.BaseEvent
}

// NewTaskArchived creates a TaskArchived event.
func NewTaskArchived(taskID uuid.UUID) TaskArchived {
	return TaskArchived{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyArchived),
	}
}
