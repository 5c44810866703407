package cli

import (
	"github.com/google/uuid"
	priorityCommands "github.com/mugi0227/nagi-scheduler/internal/productivity/application/commands"
	taskQueries "github.com/mugi0227/nagi-scheduler/internal/productivity/application/queries"
	scheduleCommands "github.com/mugi0227/nagi-scheduler/internal/scheduling/application/commands"
	scheduleQueries "github.com/mugi0227/nagi-scheduler/internal/scheduling/application/queries"
)

// App bundles every handler a CLI command may need plus the operator
// identity this process runs as. It is assembled once in cmd/orbita/main.go
// from a Container and installed with SetApp.
type App struct {
	CreateTaskHandler   *priorityCommands.CreateTaskHandler
	CompleteTaskHandler *priorityCommands.CompleteTaskHandler
	ArchiveTaskHandler  *priorityCommands.ArchiveTaskHandler
	StartTaskHandler    *priorityCommands.StartTaskHandler
	UpdateTaskHandler   *priorityCommands.UpdateTaskHandler
	ListTasksHandler    *taskQueries.ListTasksHandler
	GetTaskHandler      *taskQueries.GetTaskHandler

	PriorityRecalcHandler *priorityCommands.RecalculatePrioritiesHandler

	GeneratePlanHandler    *scheduleCommands.GeneratePlanHandler
	MoveTimeBlockHandler   *scheduleCommands.MoveTimeBlockHandler
	GetPlanHandler         *scheduleQueries.GetPlanHandler
	CheckFeasibilityHandler *scheduleQueries.CheckFeasibilityHandler
	GetTodayTasksHandler   *scheduleQueries.GetTodayTasksHandler

	// CurrentUserID is the single operator this process acts as, set via
	// SetCurrentUserID once the application's config is loaded.
	CurrentUserID uuid.UUID
}

// NewApp wires a App from the handlers a Container exposes.
func NewApp(
	createTaskHandler *priorityCommands.CreateTaskHandler,
	completeTaskHandler *priorityCommands.CompleteTaskHandler,
	archiveTaskHandler *priorityCommands.ArchiveTaskHandler,
	startTaskHandler *priorityCommands.StartTaskHandler,
	updateTaskHandler *priorityCommands.UpdateTaskHandler,
	listTasksHandler *taskQueries.ListTasksHandler,
	getTaskHandler *taskQueries.GetTaskHandler,
	priorityRecalcHandler *priorityCommands.RecalculatePrioritiesHandler,
	generatePlanHandler *scheduleCommands.GeneratePlanHandler,
	moveTimeBlockHandler *scheduleCommands.MoveTimeBlockHandler,
	getPlanHandler *scheduleQueries.GetPlanHandler,
	checkFeasibilityHandler *scheduleQueries.CheckFeasibilityHandler,
	getTodayTasksHandler *scheduleQueries.GetTodayTasksHandler,
) *App {
	return &App{
		CreateTaskHandler:       createTaskHandler,
		CompleteTaskHandler:     completeTaskHandler,
		ArchiveTaskHandler:      archiveTaskHandler,
		StartTaskHandler:        startTaskHandler,
		UpdateTaskHandler:       updateTaskHandler,
		ListTasksHandler:        listTasksHandler,
		GetTaskHandler:          getTaskHandler,
		PriorityRecalcHandler:   priorityRecalcHandler,
		GeneratePlanHandler:     generatePlanHandler,
		MoveTimeBlockHandler:    moveTimeBlockHandler,
		GetPlanHandler:          getPlanHandler,
		CheckFeasibilityHandler: checkFeasibilityHandler,
		GetTodayTasksHandler:    getTodayTasksHandler,
	}
}

// SetCurrentUserID records which user this process acts as.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

var currentApp *App

// SetApp installs the active App. Commands read it back with GetApp.
// Tests pass nil to simulate a CLI run with no database connection.
func SetApp(a *App) {
	currentApp = a
}

// GetApp returns the active App, or nil if none has been installed.
func GetApp() *App {
	return currentApp
}
