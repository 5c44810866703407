package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mugi0227/nagi-scheduler/adapter/cli"
	"github.com/mugi0227/nagi-scheduler/adapter/cli/priority"
	"github.com/mugi0227/nagi-scheduler/adapter/cli/schedule"
	"github.com/mugi0227/nagi-scheduler/adapter/cli/task"
	"github.com/mugi0227/nagi-scheduler/internal/app"
	"github.com/mugi0227/nagi-scheduler/pkg/config"
	"github.com/google/uuid"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// In development without .env, use defaults
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}

	// Update logger level based on config
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	cli.SetLogger(logger)

	// Initialize container based on mode
	var cliApp *cli.App
	var container *app.Container

	if cfg.IsLocalMode() {
		// Use SQLite local mode (zero-config, no external services)
		logger.Info("starting in local mode with SQLite", "database", cfg.SQLitePath)
		container, err = app.NewLocalContainer(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to initialize local container", "error", err)
			os.Exit(1)
		}
	} else {
		// Use full PostgreSQL mode with external services
		container, err = app.NewContainer(ctx, cfg, logger)
	}

	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
			// In development, allow CLI to run without database
			cliApp = nil
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()

		// Start outbox processor in background (optional in CLI, not available in local mode)
		if cfg.OutboxProcessorEnabled && container.OutboxProcessor != nil {
			go container.OutboxProcessor.Start(ctx)
		} else if container.OutboxProcessor == nil {
			logger.Debug("outbox processor not available in local mode")
		} else {
			logger.Info("outbox processor disabled in CLI")
		}

		// Start the periodic plan driver in background: generates today's
		// plan where none exists, emits heartbeats, and runs the weekly
		// retrospective.
		if container.Driver != nil {
			go container.Driver.Start(ctx)
			logger.Info("periodic plan driver started")
		}

		cliApp = cli.NewApp(
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

		userID, err := uuid.Parse(cfg.UserID)
		if err != nil {
			logger.Error("invalid user id", "error", err)
			os.Exit(1)
		}
		cliApp.SetCurrentUserID(userID)
	}

	// Set the CLI app
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(task.Cmd)
	cli.AddCommand(priority.Cmd)
	cli.AddCommand(schedule.Cmd)

	// Execute CLI
	cli.Execute()
}
