package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// ErrPlanStoreDegraded is returned by a read when the circuit is open or
// its half-open request quota is used up; the store is not called. No
// forecast is substituted: the error reaches the caller.
var ErrPlanStoreDegraded = errors.New("plan store circuit open")

// CircuitBreakerConfig tunes the breaker, mirroring the engine runtime's
// ExecutorConfig shape (internal/engine/runtime/executor.go).
type CircuitBreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig returns conservative defaults for a plan
// store backing the periodic driver.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitPlanRepository wraps a sdomain.DailySchedulePlanRepository with
// a gobreaker circuit so a flaky store degrades read calls to
// ErrPlanStoreDegraded instead of cascading failures into the periodic
// driver's per-user loop. Modelled on engine/runtime.Executor's
// getBreaker/execute pattern.
type CircuitPlanRepository struct {
	next    sdomain.DailySchedulePlanRepository
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewCircuitPlanRepository wraps next with a circuit breaker.
func NewCircuitPlanRepository(next sdomain.DailySchedulePlanRepository, config CircuitBreakerConfig, logger *slog.Logger) *CircuitPlanRepository {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        "schedule_plan_repository",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("plan repository circuit state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &CircuitPlanRepository{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

// GetByDate is breaker-protected: an open circuit returns
// ErrPlanStoreDegraded rather than blocking on a failing store.
func (c *CircuitPlanRepository) GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*sdomain.DailySchedulePlan, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.next.GetByDate(ctx, userID, date)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrPlanStoreDegraded
		}
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(*sdomain.DailySchedulePlan), nil
}

// ListByRange is breaker-protected the same way as GetByDate.
func (c *CircuitPlanRepository) ListByRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*sdomain.DailySchedulePlan, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.next.ListByRange(ctx, userID, start, end)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrPlanStoreDegraded
		}
		return nil, err
	}
	return result.([]*sdomain.DailySchedulePlan), nil
}

// UpsertMany, DeleteByPlanGroup and UpdateTaskSnapshotForGroup pass
// through uncircuited: a write failure must propagate to the caller
// (the generation command's unit of work) rather than be silently
// swallowed as a degraded read would be.
func (c *CircuitPlanRepository) UpsertMany(ctx context.Context, plans []*sdomain.DailySchedulePlan) error {
	return c.next.UpsertMany(ctx, plans)
}

func (c *CircuitPlanRepository) DeleteByPlanGroup(ctx context.Context, userID uuid.UUID, planGroupID uuid.UUID) error {
	return c.next.DeleteByPlanGroup(ctx, userID, planGroupID)
}

func (c *CircuitPlanRepository) UpdateTaskSnapshotForGroup(ctx context.Context, planGroupID uuid.UUID, snapshot sdomain.TaskPlanSnapshot) error {
	return c.next.UpdateTaskSnapshotForGroup(ctx, planGroupID, snapshot)
}
