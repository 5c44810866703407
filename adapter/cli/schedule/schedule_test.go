package schedule

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mugi0227/nagi-scheduler/adapter/cli"
	internalApp "github.com/mugi0227/nagi-scheduler/internal/app"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/application/commands"
	scheduleQueries "github.com/mugi0227/nagi-scheduler/internal/scheduling/application/queries"
	"github.com/mugi0227/nagi-scheduler/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func setupLocalModeTestApp(t *testing.T) (*cli.App, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "schedule-cli-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := &config.Config{
		AppEnv:         "test",
		LocalMode:      true,
		DatabaseDriver: "sqlite",
		SQLitePath:     dbPath,
		LogLevel:       "error",
		UserID:         testUserID.String(),
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	ctx := context.Background()
	container, err := internalApp.NewLocalContainer(ctx, cfg, logger)
	require.NoError(t, err)

	cliApp := cli.NewApp(
		container.CreateTaskHandler,
		container.CompleteTaskHandler,
		container.ArchiveTaskHandler,
		container.StartTaskHandler,
		container.UpdateTaskHandler,
		container.ListTasksHandler,
		container.GetTaskHandler,
		container.PriorityRecalcHandler,
		container.GeneratePlanHandler,
		container.MoveTimeBlockHandler,
		container.GetPlanHandler,
		container.CheckFeasibilityHandler,
		container.GetTodayTasksHandler,
	)
	cliApp.SetCurrentUserID(testUserID)

	cleanup := func() {
		container.Close()
		os.RemoveAll(tmpDir)
	}

	return cliApp, cleanup
}

func TestShowCmd_NoPlanYet(t *testing.T) {
	app, cleanup := setupLocalModeTestApp(t)
	defer cleanup()

	cli.SetApp(app)
	defer cli.SetApp(nil)

	ctx := context.Background()

	result, err := app.GetPlanHandler.Handle(ctx, scheduleQueries.GetPlanQuery{
		UserID: app.CurrentUserID,
		Date:   time.Now(),
	})
	require.NoError(t, err)
	assert.Nil(t, result)

	showDate = ""
	showCmd.SetContext(ctx)
	err = showCmd.RunE(showCmd, []string{})
	require.NoError(t, err)
}

func TestShowCmd_InvalidDateFormat(t *testing.T) {
	app, cleanup := setupLocalModeTestApp(t)
	defer cleanup()

	cli.SetApp(app)
	defer cli.SetApp(nil)

	ctx := context.Background()
	showDate = "invalid-date"
	showCmd.SetContext(ctx)

	err := showCmd.RunE(showCmd, []string{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date format")
}

func TestPlanCmd_GeneratesPlanForPendingTask(t *testing.T) {
	app, cleanup := setupLocalModeTestApp(t)
	defer cleanup()

	cli.SetApp(app)
	defer cli.SetApp(nil)

	ctx := context.Background()

	_, err := app.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
		UserID:          app.CurrentUserID,
		Title:           "Write report",
		Priority:        "high",
		DurationMinutes: 60,
	})
	require.NoError(t, err)

	planStartDate = ""
	planMaxDays = 3
	planFromNow = false
	planCmd.SetContext(ctx)

	err = planCmd.RunE(planCmd, []string{})
	require.NoError(t, err)

	result, err := app.GetPlanHandler.Handle(ctx, scheduleQueries.GetPlanQuery{
		UserID: app.CurrentUserID,
		Date:   time.Now(),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, scheduleQueries.PlanStatusPlanned, result.Status)
}

func TestFeasibilityCmd_EmptyTaskListIsFeasible(t *testing.T) {
	app, cleanup := setupLocalModeTestApp(t)
	defer cleanup()

	cli.SetApp(app)
	defer cli.SetApp(nil)

	ctx := context.Background()
	feasibilityDate = ""
	feasibilityMaxDays = 7
	feasibilityCmd.SetContext(ctx)

	err := feasibilityCmd.RunE(feasibilityCmd, []string{})
	require.NoError(t, err)
}

func TestMoveCmd_InvalidTaskID(t *testing.T) {
	app, cleanup := setupLocalModeTestApp(t)
	defer cleanup()

	cli.SetApp(app)
	defer cli.SetApp(nil)

	ctx := context.Background()
	moveDate = ""
	moveNewStart = "09:00"
	moveNewEnd = "10:00"
	moveCmd.SetContext(ctx)

	err := moveCmd.RunE(moveCmd, []string{"not-a-uuid"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid task ID")
}

func TestMoveCmd_InvalidStartTime(t *testing.T) {
	app, cleanup := setupLocalModeTestApp(t)
	defer cleanup()

	cli.SetApp(app)
	defer cli.SetApp(nil)

	ctx := context.Background()
	moveDate = ""
	moveNewStart = "invalid"
	moveNewEnd = "10:00"
	moveCmd.SetContext(ctx)

	err := moveCmd.RunE(moveCmd, []string{uuid.NewString()})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start time format")
}

func TestShowCmd_NoApp(t *testing.T) {
	cli.SetApp(nil)

	ctx := context.Background()
	showDate = ""
	showCmd.SetContext(ctx)

	err := showCmd.RunE(showCmd, []string{})
	require.NoError(t, err)
}

func TestPlanCmd_NoApp(t *testing.T) {
	cli.SetApp(nil)

	ctx := context.Background()
	planStartDate = ""
	planCmd.SetContext(ctx)

	err := planCmd.RunE(planCmd, []string{})
	require.NoError(t, err)
}

func TestMoveCmd_NoApp(t *testing.T) {
	cli.SetApp(nil)

	ctx := context.Background()
	moveCmd.SetContext(ctx)

	err := moveCmd.RunE(moveCmd, []string{uuid.NewString()})
	require.NoError(t, err)
}

func TestTodayCmd_NoApp(t *testing.T) {
	cli.SetApp(nil)

	ctx := context.Background()
	todayCmd.SetContext(ctx)

	err := todayCmd.RunE(todayCmd, []string{})
	require.NoError(t, err)
}
