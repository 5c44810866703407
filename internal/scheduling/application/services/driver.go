package services

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// UserLister discovers the user ids the periodic driver should iterate.
// This codebase has no User aggregate (see DESIGN.md); a concrete
// implementation typically derives the list from distinct task owners.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// HeartbeatNotifier delivers a raised heartbeat to whatever channel the
// caller wires (chat message, notification row, ...).
type HeartbeatNotifier interface {
	Notify(ctx context.Context, userID uuid.UUID, result sdomain.HeartbeatResult) error
}

// DriverConfig tunes the periodic driver's three jobs.
type DriverConfig struct {
	TestMode                bool // disables all three jobs
	PlanGenerationInterval  time.Duration
	HeartbeatInterval       time.Duration
	RetrospectiveInterval   time.Duration
	NotificationWindowStart int // minute of day, default 09:00
	NotificationWindowEnd   int // minute of day, default 21:00
	NotificationLimitPerDay int
	NotificationCooldown    time.Duration
}

// DefaultDriverConfig returns the driver's baseline tuning.
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		PlanGenerationInterval:  time.Hour,
		HeartbeatInterval:       30 * time.Minute,
		RetrospectiveInterval:   time.Hour,
		NotificationWindowStart: 9 * 60,
		NotificationWindowEnd:   21 * 60,
		NotificationLimitPerDay: 5,
		NotificationCooldown:    6 * time.Hour,
	}
}

// Driver is the in-process periodic time-wheel: it regenerates today's plan
// per user, evaluates task heartbeat risk, and runs a weekly
// retrospective, each job isolating per-user errors so one user's
// failure never halts the batch. Modelled on outbox.Processor's
// Start/Stop/ticker shape (internal/shared/infrastructure/outbox/processor.go).
type Driver struct {
	generator *PlanGenerator
	taskRepo  task.Repository
	users     UserLister
	notifier  HeartbeatNotifier
	config    DriverConfig
	logger    *slog.Logger

	mu            sync.Mutex
	running       bool
	stopChan      chan struct{}
	wg            sync.WaitGroup
	lastNotified  map[uuid.UUID]time.Time
	lastRetroRun  map[uuid.UUID]time.Time
}

// NewDriver creates a Driver.
func NewDriver(generator *PlanGenerator, taskRepo task.Repository, users UserLister, notifier HeartbeatNotifier, config DriverConfig, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		generator:    generator,
		taskRepo:     taskRepo,
		users:        users,
		notifier:     notifier,
		config:       config,
		logger:       logger,
		stopChan:     make(chan struct{}),
		lastNotified: make(map[uuid.UUID]time.Time),
		lastRetroRun: make(map[uuid.UUID]time.Time),
	}
}

// Start launches the three jobs in background goroutines. A no-op under
// TestMode, so tests can construct a Driver without its tickers firing.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running || d.config.TestMode {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.stopChan = make(chan struct{})
	d.mu.Unlock()

	d.wg.Add(3)
	go d.runJob(ctx, d.config.PlanGenerationInterval, d.runPlanGeneration)
	go d.runJob(ctx, d.config.HeartbeatInterval, d.runHeartbeatChecks)
	go d.runJob(ctx, d.config.RetrospectiveInterval, d.runWeeklyRetrospective)

	d.logger.Info("scheduling driver started",
		"plan_generation_interval", d.config.PlanGenerationInterval,
		"heartbeat_interval", d.config.HeartbeatInterval,
		"retrospective_interval", d.config.RetrospectiveInterval,
	)
}

// Stop gracefully stops the driver and waits for in-flight jobs.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopChan)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("scheduling driver stopped")
}

// IsRunning reports whether the driver's jobs are active.
func (d *Driver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Driver) runJob(ctx context.Context, interval time.Duration, job func(context.Context)) {
	defer d.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopChan:
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

// runPlanGeneration generates and stores today's plan for every user
// lacking one, sleeping 0.2-0.8s between users to smooth I/O load.
func (d *Driver) runPlanGeneration(ctx context.Context) {
	userIDs, err := d.users.ListUserIDs(ctx)
	if err != nil {
		d.logger.Error("plan generation: failed to list users", "error", err)
		return
	}

	for _, userID := range userIDs {
		select {
		case <-d.stopChan:
			return
		default:
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("plan generation: panic isolated", "user_id", userID, "recovered", r)
				}
			}()
			today := time.Now()
			existing, err := d.generator.planRepo.GetByDate(ctx, userID, today)
			if err != nil {
				d.logger.Error("plan generation: failed to read today's plan", "user_id", userID, "error", err)
				return
			}
			if existing != nil {
				return
			}
			result, err := d.generator.Generate(ctx, userID, GenerateParams{
				StartDate:        today,
				MaxDays:          30,
				FromNow:          false,
				FilterByAssignee: true,
			})
			if err != nil {
				d.logger.Error("plan generation failed", "user_id", userID, "error", err)
				return
			}
			if err := d.generator.planRepo.UpsertMany(ctx, result.Plans); err != nil {
				d.logger.Error("plan generation: failed to persist plans", "user_id", userID, "error", err)
			}
		}()

		sleep := time.Duration(200+rand.Intn(600)) * time.Millisecond
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// runHeartbeatChecks evaluates every candidate task's risk score per
// user, notifying those at MEDIUM severity or above, respecting the
// per-task cooldown, the daily notification cap, and the local-time
// notification window.
func (d *Driver) runHeartbeatChecks(ctx context.Context) {
	userIDs, err := d.users.ListUserIDs(ctx)
	if err != nil {
		d.logger.Error("heartbeat check: failed to list users", "error", err)
		return
	}

	now := time.Now()
	minuteOfDay := now.Hour()*60 + now.Minute()
	if minuteOfDay < d.config.NotificationWindowStart || minuteOfDay > d.config.NotificationWindowEnd {
		return
	}

	for _, userID := range userIDs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("heartbeat check: panic isolated", "user_id", userID, "recovered", r)
				}
			}()
			d.evaluateUserHeartbeats(ctx, userID, now)
		}()
	}
}

func (d *Driver) evaluateUserHeartbeats(ctx context.Context, userID uuid.UUID, now time.Time) {
	tasks, err := d.taskRepo.FindPending(ctx, userID)
	if err != nil {
		d.logger.Error("heartbeat check failed", "user_id", userID, "error", err)
		return
	}

	sent := 0
	for _, t := range tasks {
		if sent >= d.config.NotificationLimitPerDay {
			return
		}
		result, ok := sdomain.EvaluateHeartbeat(sdomain.HeartbeatInput{
			TaskID:               t.ID(),
			Importance:           t.Importance(),
			RemainingMinutes:     task.EffectiveEstimateMinutes(t, tasks),
			DailyCapacityMinutes: 8 * 60,
			DueDate:              t.DueDate(),
			StartNotBefore:       t.StartNotBefore(),
			UpdatedAt:            t.UpdatedAt(),
			HasEstimate:          t.EstimatedMinutes() != nil,
			Now:                  now,
		})
		if !ok || result.Severity == sdomain.HeartbeatLow {
			continue
		}

		d.mu.Lock()
		last, notified := d.lastNotified[t.ID()]
		d.mu.Unlock()
		if notified && now.Sub(last) < d.config.NotificationCooldown {
			continue
		}

		if d.notifier == nil {
			continue
		}
		if err := d.notifier.Notify(ctx, userID, result); err != nil {
			d.logger.Error("heartbeat notify failed", "task_id", t.ID(), "error", err)
			continue
		}
		d.mu.Lock()
		d.lastNotified[t.ID()] = now
		d.mu.Unlock()
		sent++
	}
}

// runWeeklyRetrospective fires at the Friday 00:00 boundary (local
// approximated by the host clock) and catches up any user whose last
// retrospective predates the most recent Friday boundary.
func (d *Driver) runWeeklyRetrospective(ctx context.Context) {
	userIDs, err := d.users.ListUserIDs(ctx)
	if err != nil {
		d.logger.Error("retrospective: failed to list users", "error", err)
		return
	}

	boundary := mostRecentFridayBoundary(time.Now())

	for _, userID := range userIDs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("retrospective: panic isolated", "user_id", userID, "recovered", r)
				}
			}()

			d.mu.Lock()
			last, ran := d.lastRetroRun[userID]
			d.mu.Unlock()
			if ran && !last.Before(boundary) {
				return
			}

			tasks, err := d.taskRepo.FindByUserID(ctx, userID)
			if err != nil {
				d.logger.Error("retrospective failed", "user_id", userID, "error", err)
				return
			}
			doneSince := 0
			for _, t := range tasks {
				if t.IsDone() && t.CompletedAt() != nil && t.CompletedAt().After(boundary.AddDate(0, 0, -7)) {
					doneSince++
				}
			}
			d.logger.Info("weekly retrospective", "user_id", userID, "done_count", doneSince, "period_end", boundary)

			d.mu.Lock()
			d.lastRetroRun[userID] = time.Now()
			d.mu.Unlock()
		}()
	}
}

// mostRecentFridayBoundary returns the most recent Friday 00:00 at or
// before now.
func mostRecentFridayBoundary(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(midnight.Weekday()) - int(time.Friday) + 7) % 7
	return midnight.AddDate(0, 0, -offset)
}
