package queries

import (
	"context"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// TaskDTO is a data transfer object for tasks.
type TaskDTO struct {
	ID               uuid.UUID
	Title            string
	Description      string
	Status           string
	Importance       string
	Urgency          string
	EnergyLevel      string
	EstimatedMinutes *int
	DueDate          *time.Time
	PinnedDate       *time.Time
	Progress         int
	CompletedAt      *time.Time
	CreatedAt        time.Time
}

// ListTasksQuery contains the parameters for listing tasks.
type ListTasksQuery struct {
	UserID     uuid.UUID
	Status     string // "all", "todo", "in_progress", "waiting", "done", "archived"
	IncludeAll bool
	Importance string     // Filter by importance: "high", "medium", "low"
	Urgency    string     // Filter by urgency: "high", "medium", "low"
	DueBefore  *time.Time // Tasks due before this date
	DueAfter   *time.Time // Tasks due after this date
	Overdue    bool       // Only show overdue tasks
	DueToday   bool       // Only show tasks due today
	SortBy     string     // "score", "due_date", "created_at"
	SortOrder  string     // "asc", "desc"
	Limit      int        // Max number of tasks to return (0 = no limit)
}

// ListTasksHandler handles the ListTasksQuery.
type ListTasksHandler struct {
	taskRepo task.Repository
}

// NewListTasksHandler creates a new ListTasksHandler.
func NewListTasksHandler(taskRepo task.Repository) *ListTasksHandler {
	return &ListTasksHandler{taskRepo: taskRepo}
}

// Handle executes the ListTasksQuery.
func (h *ListTasksHandler) Handle(ctx context.Context, query ListTasksQuery) ([]TaskDTO, error) {
	var tasks []*task.Task
	var err error

	if query.IncludeAll || query.Status == "all" {
		tasks, err = h.taskRepo.FindByUserID(ctx, query.UserID)
	} else {
		tasks, err = h.taskRepo.FindPending(ctx, query.UserID)
	}

	if err != nil {
		return nil, err
	}

	if query.Status != "" && query.Status != "all" && query.Status != "todo" {
		tasks = filterByStatus(tasks, query.Status)
	}

	if query.Importance != "" {
		tasks = filterByImportance(tasks, query.Importance)
	}
	if query.Urgency != "" {
		tasks = filterByUrgency(tasks, query.Urgency)
	}

	now := time.Now()
	if query.Overdue {
		tasks = filterOverdue(tasks, now)
	}
	if query.DueToday {
		tasks = filterDueToday(tasks, now)
	}
	if query.DueBefore != nil {
		tasks = filterDueBefore(tasks, *query.DueBefore)
	}
	if query.DueAfter != nil {
		tasks = filterDueAfter(tasks, *query.DueAfter)
	}

	tasks = sortTasks(tasks, query.SortBy, query.SortOrder)

	if query.Limit > 0 && len(tasks) > query.Limit {
		tasks = tasks[:query.Limit]
	}

	return toTaskDTOs(tasks), nil
}

func filterByStatus(tasks []*task.Task, status string) []*task.Task {
	var filtered []*task.Task
	for _, t := range tasks {
		if t.Status().String() == status {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func filterByImportance(tasks []*task.Task, importance string) []*task.Task {
	var filtered []*task.Task
	for _, t := range tasks {
		if t.Importance().String() == importance {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func filterByUrgency(tasks []*task.Task, urgency string) []*task.Task {
	var filtered []*task.Task
	for _, t := range tasks {
		if t.Urgency().String() == urgency {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func filterOverdue(tasks []*task.Task, now time.Time) []*task.Task {
	var filtered []*task.Task
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, t := range tasks {
		if t.DueDate() != nil && t.DueDate().Before(today) && !t.IsCompleted() {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func filterDueToday(tasks []*task.Task, now time.Time) []*task.Task {
	var filtered []*task.Task
	for _, t := range tasks {
		if t.DueDate() != nil {
			due := *t.DueDate()
			if due.Year() == now.Year() && due.Month() == now.Month() && due.Day() == now.Day() {
				filtered = append(filtered, t)
			}
		}
	}
	return filtered
}

func filterDueBefore(tasks []*task.Task, before time.Time) []*task.Task {
	var filtered []*task.Task
	for _, t := range tasks {
		if t.DueDate() != nil && t.DueDate().Before(before) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func filterDueAfter(tasks []*task.Task, after time.Time) []*task.Task {
	var filtered []*task.Task
	for _, t := range tasks {
		if t.DueDate() != nil && t.DueDate().After(after) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func sortTasks(tasks []*task.Task, sortBy, sortOrder string) []*task.Task {
	if sortBy == "" {
		sortBy = "score" // Default sort
	}
	if sortOrder == "" {
		sortOrder = "desc" // Default order (highest-scoring first)
	}

	sorted := make([]*task.Task, len(tasks))
	copy(sorted, tasks)

	switch sortBy {
	case "score":
		for i := 0; i < len(sorted)-1; i++ {
			for j := i + 1; j < len(sorted); j++ {
				si := sorted[i].Importance().Weight() + sorted[i].Urgency().Weight()
				sj := sorted[j].Importance().Weight() + sorted[j].Urgency().Weight()
				shouldSwap := (sortOrder == "desc" && si < sj) || (sortOrder == "asc" && si > sj)
				if shouldSwap {
					sorted[i], sorted[j] = sorted[j], sorted[i]
				}
			}
		}
	case "due_date":
		for i := 0; i < len(sorted)-1; i++ {
			for j := i + 1; j < len(sorted); j++ {
				di := sorted[i].DueDate()
				dj := sorted[j].DueDate()
				if di == nil && dj != nil {
					sorted[i], sorted[j] = sorted[j], sorted[i]
				} else if di != nil && dj != nil {
					shouldSwap := (sortOrder == "asc" && di.After(*dj)) || (sortOrder == "desc" && di.Before(*dj))
					if shouldSwap {
						sorted[i], sorted[j] = sorted[j], sorted[i]
					}
				}
			}
		}
	case "created_at":
		for i := 0; i < len(sorted)-1; i++ {
			for j := i + 1; j < len(sorted); j++ {
				ci := sorted[i].CreatedAt()
				cj := sorted[j].CreatedAt()
				shouldSwap := (sortOrder == "asc" && ci.After(cj)) || (sortOrder == "desc" && ci.Before(cj))
				if shouldSwap {
					sorted[i], sorted[j] = sorted[j], sorted[i]
				}
			}
		}
	}

	return sorted
}

func toTaskDTOs(tasks []*task.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = TaskDTO{
			ID:               t.ID(),
			Title:            t.Title(),
			Description:      t.Description(),
			Status:           t.Status().String(),
			Importance:       t.Importance().String(),
			Urgency:          t.Urgency().String(),
			EnergyLevel:      t.EnergyLevel().String(),
			EstimatedMinutes: t.EstimatedMinutes(),
			DueDate:          t.DueDate(),
			PinnedDate:       t.PinnedDate(),
			Progress:         t.Progress(),
			CompletedAt:      t.CompletedAt(),
			CreatedAt:        t.CreatedAt(),
		}
	}
	return dtos
}
