package task

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	"github.com/mugi0227/nagi-scheduler/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrEmptyTitle           = errors.New("task title cannot be empty")
	ErrTaskAlreadyComplete  = errors.New("task is already completed")
	ErrTaskArchived         = errors.New("task is archived")
	ErrInvalidProgress      = errors.New("progress must be between 0 and 100")
	ErrInvalidFixedTimeSpan = errors.New("fixed-time task requires end after start")
	ErrSelfDependency       = errors.New("a task cannot depend on itself")
)

// Status represents the task lifecycle state.
type Status int

const (
	StatusTodo Status = iota
	StatusInProgress
	StatusWaiting
	StatusDone
	StatusArchived
)

func (s Status) String() string {
	switch s {
	case StatusTodo:
		return "todo"
	case StatusInProgress:
		return "in_progress"
	case StatusWaiting:
		return "waiting"
	case StatusDone:
		return "done"
	case StatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// DefaultEstimateMinutes is the effective estimate for a leaf task that
// carries no estimate of its own.
const DefaultEstimateMinutes = 60

// Task represents a unit of schedulable work.
//
// Importance and Urgency are independent axes; EnergyLevel feeds the
// day packer's energy-balance heuristic. A task with children is a
// "parent task" and is never directly scheduled: its effective estimate
// is the sum of its leaves (see EffectiveEstimateMinutes).
type Task struct {
	domain.BaseAggregateRoot
	userID           uuid.UUID
	title            string
	description      string
	status           Status
	importance       value_objects.Importance
	urgency          value_objects.Urgency
	energyLevel      value_objects.EnergyLevel
	estimatedMinutes *int
	dueDate          *time.Time
	startNotBefore   *time.Time
	pinnedDate       *time.Time
	isFixedTime      bool
	startTime        *time.Time
	endTime          *time.Time
	parentID         *uuid.UUID
	dependencyIDs    []uuid.UUID
	projectID        *uuid.UUID
	progress         int
	completedAt      *time.Time
}

// NewTask creates a new task with the given title, defaulting importance,
// urgency and energy level to their lowest values.
func NewTask(userID uuid.UUID, title string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	t := &Task{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		userID:            userID,
		title:             title,
		status:            StatusTodo,
		importance:        value_objects.ImportanceLow,
		urgency:           value_objects.UrgencyLow,
		energyLevel:       value_objects.EnergyLow,
		dependencyIDs:     make([]uuid.UUID, 0),
	}

	t.AddDomainEvent(NewTaskCreated(t.ID(), t.title, t.importance.String(), t.urgency.String()))

	return t, nil
}

// Getters

func (t *Task) UserID() uuid.UUID                     { return t.userID }
func (t *Task) Title() string                         { return t.title }
func (t *Task) Description() string                   { return t.description }
func (t *Task) Status() Status                        { return t.status }
func (t *Task) Importance() value_objects.Importance  { return t.importance }
func (t *Task) Urgency() value_objects.Urgency        { return t.urgency }
func (t *Task) EnergyLevel() value_objects.EnergyLevel { return t.energyLevel }
func (t *Task) EstimatedMinutes() *int                { return t.estimatedMinutes }
func (t *Task) DueDate() *time.Time                   { return t.dueDate }
func (t *Task) StartNotBefore() *time.Time            { return t.startNotBefore }
func (t *Task) PinnedDate() *time.Time                { return t.pinnedDate }
func (t *Task) IsFixedTime() bool                     { return t.isFixedTime }
func (t *Task) StartTime() *time.Time                 { return t.startTime }
func (t *Task) EndTime() *time.Time                   { return t.endTime }
func (t *Task) ParentID() *uuid.UUID                  { return t.parentID }
func (t *Task) DependencyIDs() []uuid.UUID            { return t.dependencyIDs }
func (t *Task) ProjectID() *uuid.UUID                 { return t.projectID }
func (t *Task) Progress() int                         { return t.progress }
func (t *Task) CompletedAt() *time.Time               { return t.completedAt }
func (t *Task) IsDone() bool                          { return t.status == StatusDone }
func (t *Task) IsCompleted() bool                     { return t.status == StatusDone }
func (t *Task) IsArchived() bool                      { return t.status == StatusArchived }
func (t *Task) IsWaiting() bool                       { return t.status == StatusWaiting }

// SetTitle updates the task title.
func (t *Task) SetTitle(title string) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	t.title = title
	t.Touch()
	return nil
}

// SetDescription updates the task description.
func (t *Task) SetDescription(description string) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	t.description = strings.TrimSpace(description)
	t.Touch()
	return nil
}

// SetImportance updates the task's importance axis.
func (t *Task) SetImportance(importance value_objects.Importance) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	t.importance = importance
	t.Touch()
	return nil
}

// SetUrgency updates the task's urgency axis.
func (t *Task) SetUrgency(urgency value_objects.Urgency) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	t.urgency = urgency
	t.Touch()
	return nil
}

// SetEnergyLevel updates the energy level the task demands.
func (t *Task) SetEnergyLevel(level value_objects.EnergyLevel) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	t.energyLevel = level
	t.Touch()
	return nil
}

// SetEstimatedMinutes sets, or clears with nil, the task's own estimate.
func (t *Task) SetEstimatedMinutes(minutes *int) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	if minutes != nil && *minutes <= 0 {
		return errors.New("estimated minutes must be positive")
	}
	t.estimatedMinutes = minutes
	t.Touch()
	return nil
}

// SetDueDate updates the due date.
func (t *Task) SetDueDate(dueDate *time.Time) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	t.dueDate = dueDate
	t.Touch()
	return nil
}

// SetStartNotBefore sets the earliest instant scheduling may place work.
func (t *Task) SetStartNotBefore(v *time.Time) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	t.startNotBefore = v
	t.Touch()
	return nil
}

// SetPinnedDate marks a calendar day this task must appear on.
func (t *Task) SetPinnedDate(v *time.Time) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	t.pinnedDate = v
	t.Touch()
	return nil
}

// SetParentID sets or clears the parent task reference.
func (t *Task) SetParentID(parentID *uuid.UUID) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	if parentID != nil && *parentID == t.ID() {
		return ErrSelfDependency
	}
	t.parentID = parentID
	t.Touch()
	return nil
}

// SetProjectID sets or clears the project reference.
func (t *Task) SetProjectID(projectID *uuid.UUID) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	t.projectID = projectID
	t.Touch()
	return nil
}

// SetProgress updates the completion percentage (0-100).
func (t *Task) SetProgress(progress int) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	if progress < 0 || progress > 100 {
		return ErrInvalidProgress
	}
	t.progress = progress
	t.Touch()
	return nil
}

// AddDependency appends a dependency task id, ignoring duplicates and
// self-references.
func (t *Task) AddDependency(depID uuid.UUID) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	if depID == t.ID() {
		return ErrSelfDependency
	}
	for _, existing := range t.dependencyIDs {
		if existing == depID {
			return nil
		}
	}
	t.dependencyIDs = append(t.dependencyIDs, depID)
	t.Touch()
	return nil
}

// RemoveDependency removes a dependency task id if present.
func (t *Task) RemoveDependency(depID uuid.UUID) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	for i, existing := range t.dependencyIDs {
		if existing == depID {
			t.dependencyIDs = append(t.dependencyIDs[:i], t.dependencyIDs[i+1:]...)
			t.Touch()
			return nil
		}
	}
	return nil
}

// SetFixedTime marks the task as a fixed-time item (e.g. a meeting)
// spanning [start, end), or clears fixed-time scheduling when both are nil.
func (t *Task) SetFixedTime(start, end *time.Time) error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	if start == nil && end == nil {
		t.isFixedTime = false
		t.startTime = nil
		t.endTime = nil
		t.Touch()
		return nil
	}
	if start == nil || end == nil || !end.After(*start) {
		return ErrInvalidFixedTimeSpan
	}
	t.isFixedTime = true
	t.startTime = start
	t.endTime = end
	t.Touch()
	return nil
}

// Wait marks the task as blocked, awaiting an external event.
func (t *Task) Wait() error {
	if t.IsArchived() {
		return ErrTaskArchived
	}
	if t.IsDone() {
		return ErrTaskAlreadyComplete
	}
	t.status = StatusWaiting
	t.Touch()
	return nil
}

// Start marks the task as in progress.
func (t *Task) Start() error {
	if t.IsDone() {
		return ErrTaskAlreadyComplete
	}
	if t.IsArchived() {
		return ErrTaskArchived
	}
	if t.status == StatusInProgress {
		return nil // Idempotent
	}
	t.status = StatusInProgress
	t.Touch()
	t.AddDomainEvent(NewTaskStarted(t.ID()))
	return nil
}

// Complete marks the task as done.
func (t *Task) Complete() error {
	if t.IsDone() {
		return ErrTaskAlreadyComplete
	}
	if t.IsArchived() {
		return ErrTaskArchived
	}

	now := time.Now().UTC()
	t.status = StatusDone
	t.progress = 100
	t.completedAt = &now
	t.Touch()

	t.AddDomainEvent(NewTaskCompleted(t.ID()))

	return nil
}

// Archive marks the task as archived.
func (t *Task) Archive() error {
	if t.IsArchived() {
		return nil // Idempotent
	}

	t.status = StatusArchived
	t.Touch()

	t.AddDomainEvent(NewTaskArchived(t.ID()))

	return nil
}

// EffectiveEstimateMinutes returns the task's scheduling-relevant estimate:
// the sum of its leaf children's effective estimates if it is a parent task
// (some task in allTasks has it as ParentID), else its own estimate,
// defaulting to DefaultEstimateMinutes anywhere in the subtree it is unset.
func EffectiveEstimateMinutes(t *Task, allTasks []*Task) int {
	children := childrenOf(t.ID(), allTasks)
	if len(children) == 0 {
		if t.estimatedMinutes != nil {
			return *t.estimatedMinutes
		}
		return DefaultEstimateMinutes
	}

	total := 0
	for _, child := range children {
		total += EffectiveEstimateMinutes(child, allTasks)
	}
	return total
}

func childrenOf(parentID uuid.UUID, allTasks []*Task) []*Task {
	var children []*Task
	for _, candidate := range allTasks {
		if candidate.parentID != nil && *candidate.parentID == parentID {
			children = append(children, candidate)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].CreatedAt().Before(children[j].CreatedAt())
	})
	return children
}

// RehydrateTask recreates a task from persisted state.
func RehydrateTask(
	id, userID uuid.UUID,
	title, description string,
	status Status,
	importance value_objects.Importance,
	urgency value_objects.Urgency,
	energyLevel value_objects.EnergyLevel,
	estimatedMinutes *int,
	dueDate, startNotBefore, pinnedDate *time.Time,
	isFixedTime bool,
	startTime, endTime *time.Time,
	parentID *uuid.UUID,
	dependencyIDs []uuid.UUID,
	projectID *uuid.UUID,
	progress int,
	completedAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *Task {
	baseEntity := domain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &Task{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(baseEntity, version),
		userID:            userID,
		title:             title,
		description:       description,
		status:            status,
		importance:        importance,
		urgency:           urgency,
		energyLevel:       energyLevel,
		estimatedMinutes:  estimatedMinutes,
		dueDate:           dueDate,
		startNotBefore:    startNotBefore,
		pinnedDate:        pinnedDate,
		isFixedTime:       isFixedTime,
		startTime:         startTime,
		endTime:           endTime,
		parentID:          parentID,
		dependencyIDs:     dependencyIDs,
		projectID:         projectID,
		progress:          progress,
		completedAt:       completedAt,
	}
}
