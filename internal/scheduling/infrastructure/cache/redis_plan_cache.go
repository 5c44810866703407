package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// cachedPlanPayload is the JSON shape stored under each cache key —
// sdomain.DailySchedulePlan has no exported fields to marshal directly,
// so the read-side projection mirrors the repository's own persisted
// columns (day, snapshots, blocks, etc.).
type cachedPlanPayload struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	PlanGroupID           uuid.UUID
	PlanDate              time.Time
	Timezone              string
	Day                   sdomain.ScheduleDay
	TaskSnapshots         []sdomain.TaskPlanSnapshot
	UnscheduledTasks      []sdomain.UnscheduledTask
	ExcludedTasks         []sdomain.ExcludedTaskInfo
	TimeBlocks            []sdomain.ScheduleTimeBlock
	PinnedOverflowTaskIDs []uuid.UUID
	PlanParamsFingerprint string
	GeneratedAt           time.Time
	Version               int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func toPayload(p *sdomain.DailySchedulePlan) cachedPlanPayload {
	return cachedPlanPayload{
		ID: p.ID(), UserID: p.UserID(), PlanGroupID: p.PlanGroupID(), PlanDate: p.PlanDate(),
		Timezone: p.Timezone(), Day: p.Day(), TaskSnapshots: p.TaskSnapshots(),
		UnscheduledTasks: p.UnscheduledTasks(), ExcludedTasks: p.ExcludedTasks(),
		TimeBlocks: p.TimeBlocks(), PinnedOverflowTaskIDs: p.PinnedOverflowTaskIDs(),
		PlanParamsFingerprint: p.PlanParamsFingerprint(), GeneratedAt: p.GeneratedAt(),
		Version: p.Version(), CreatedAt: p.CreatedAt(), UpdatedAt: p.UpdatedAt(),
	}
}

func (c cachedPlanPayload) toPlan() *sdomain.DailySchedulePlan {
	return sdomain.RehydrateDailySchedulePlan(
		c.ID, c.UserID, c.PlanGroupID, c.PlanDate, c.Timezone, c.Day,
		c.TaskSnapshots, c.UnscheduledTasks, c.ExcludedTasks, c.TimeBlocks,
		c.PinnedOverflowTaskIDs, c.PlanParamsFingerprint, c.GeneratedAt,
		c.Version, c.CreatedAt, c.UpdatedAt,
	)
}

// RedisPlanCache is a read-through cache decorator for
// sdomain.DailySchedulePlanRepository, modelled on orbit/api.StorageAPIImpl's
// namespaced-key/TTL use of *redis.Client. It sits in front of
// GetByDate; UpsertMany invalidates the days it writes, and the other
// calls pass straight through, leaving cached days to expire by TTL.
type RedisPlanCache struct {
	next   sdomain.DailySchedulePlanRepository
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPlanCache wraps next with a Redis read cache.
func NewRedisPlanCache(next sdomain.DailySchedulePlanRepository, client *redis.Client, ttl time.Duration) *RedisPlanCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisPlanCache{next: next, client: client, ttl: ttl}
}

func planCacheKey(userID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("schedule:plan:%s:%s", userID, date.Format("2006-01-02"))
}

// GetByDate serves from cache on a hit; on a miss it loads from next and
// populates the cache before returning.
func (c *RedisPlanCache) GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*sdomain.DailySchedulePlan, error) {
	key := planCacheKey(userID, date)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var payload cachedPlanPayload
		if jsonErr := json.Unmarshal(raw, &payload); jsonErr == nil {
			return payload.toPlan(), nil
		}
	} else if err != redis.Nil {
		// Redis unavailable — degrade to the underlying repository rather
		// than failing the read.
		return c.next.GetByDate(ctx, userID, date)
	}

	plan, err := c.next.GetByDate(ctx, userID, date)
	if err != nil || plan == nil {
		return plan, err
	}

	if data, err := json.Marshal(toPayload(plan)); err == nil {
		_ = c.client.Set(ctx, key, data, c.ttl).Err()
	}
	return plan, nil
}

// ListByRange passes through uncached — it spans many keys and callers
// use it far less often than the per-day read path.
func (c *RedisPlanCache) ListByRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*sdomain.DailySchedulePlan, error) {
	return c.next.ListByRange(ctx, userID, start, end)
}

// UpsertMany writes through and invalidates every affected day's key.
func (c *RedisPlanCache) UpsertMany(ctx context.Context, plans []*sdomain.DailySchedulePlan) error {
	if err := c.next.UpsertMany(ctx, plans); err != nil {
		return err
	}
	for _, p := range plans {
		_ = c.client.Del(ctx, planCacheKey(p.UserID(), p.PlanDate())).Err()
	}
	return nil
}

// DeleteByPlanGroup passes through; it spans every day in the group and
// the cache entries simply expire by TTL.
func (c *RedisPlanCache) DeleteByPlanGroup(ctx context.Context, userID uuid.UUID, planGroupID uuid.UUID) error {
	return c.next.DeleteByPlanGroup(ctx, userID, planGroupID)
}

// UpdateTaskSnapshotForGroup passes through and relies on TTL expiry
// rather than enumerating the group's dates to invalidate precisely.
func (c *RedisPlanCache) UpdateTaskSnapshotForGroup(ctx context.Context, planGroupID uuid.UUID, snapshot sdomain.TaskPlanSnapshot) error {
	return c.next.UpdateTaskSnapshotForGroup(ctx, planGroupID, snapshot)
}
