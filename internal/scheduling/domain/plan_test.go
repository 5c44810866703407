package domain_test

import (
	"testing"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduleDay_DerivesMinuteTotals(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	allocations := []domain.TaskAllocation{{TaskID: uuid.New(), Minutes: 90}, {TaskID: uuid.New(), Minutes: 30}}

	day := domain.NewScheduleDay(date, 100, 15, allocations)

	assert.Equal(t, 120, day.AllocatedMinutes)
	assert.Equal(t, 20, day.OverflowMinutes)
	assert.Equal(t, 0, day.AvailableMinutes)
}

func TestNewScheduleDay_NoOverflowWhenUnderCapacity(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	allocations := []domain.TaskAllocation{{TaskID: uuid.New(), Minutes: 40}}

	day := domain.NewScheduleDay(date, 100, 0, allocations)

	assert.Equal(t, 40, day.AllocatedMinutes)
	assert.Equal(t, 0, day.OverflowMinutes)
	assert.Equal(t, 60, day.AvailableMinutes)
}

func TestScheduleTimeBlock_OverlapsWith(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	a := domain.ScheduleTimeBlock{Start: base, End: base.Add(time.Hour)}
	overlapping := domain.ScheduleTimeBlock{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)}
	disjoint := domain.ScheduleTimeBlock{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour)}

	assert.True(t, a.OverlapsWith(overlapping))
	assert.False(t, a.OverlapsWith(disjoint))

	ghost := overlapping
	ghost.IsGhost = true
	assert.False(t, a.OverlapsWith(ghost), "ghost blocks are exempt from the no-overlap check")
}

func TestScheduleTimeBlock_DurationMinutes(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	block := domain.ScheduleTimeBlock{Start: base, End: base.Add(45 * time.Minute)}
	assert.Equal(t, 45, block.DurationMinutes())
}

func newTestPlan(t *testing.T, taskID uuid.UUID, blockMinutes int) *domain.DailySchedulePlan {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	day := domain.NewScheduleDay(date, 480, 0, []domain.TaskAllocation{{TaskID: taskID, Minutes: blockMinutes}})
	blocks := []domain.ScheduleTimeBlock{
		{TaskID: taskID, Start: start, End: start.Add(time.Duration(blockMinutes) * time.Minute), Kind: domain.BlockKindAuto, Status: domain.BlockStatusScheduled},
	}
	plan := domain.NewDailySchedulePlan(uuid.New(), uuid.New(), date, "Asia/Tokyo", day, nil, nil, nil, blocks, nil, "fp")
	require.Len(t, plan.DomainEvents(), 1)
	return plan
}

func TestDailySchedulePlan_MoveBlock(t *testing.T) {
	taskID := uuid.New()
	plan := newTestPlan(t, taskID, 60)

	newStart := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	newEnd := newStart.Add(90 * time.Minute)

	moved, ok := plan.MoveBlock(taskID, newStart, newEnd)

	require.True(t, ok)
	assert.True(t, moved.Start.Equal(newStart))
	assert.True(t, moved.End.Equal(newEnd))
	assert.Equal(t, 90, plan.Day().AllocatedMinutes)
}

func TestDailySchedulePlan_MoveBlock_UnknownTaskReturnsFalse(t *testing.T) {
	plan := newTestPlan(t, uuid.New(), 60)
	_, ok := plan.MoveBlock(uuid.New(), time.Now(), time.Now().Add(time.Hour))
	assert.False(t, ok)
}

func TestDailySchedulePlan_RemoveBlock(t *testing.T) {
	taskID := uuid.New()
	plan := newTestPlan(t, taskID, 60)

	removed, ok := plan.RemoveBlock(taskID)

	require.True(t, ok)
	assert.Equal(t, taskID, removed.TaskID)
	assert.Empty(t, plan.TimeBlocks())
	assert.Equal(t, 0, plan.Day().AllocatedMinutes)
}

func TestDailySchedulePlan_AppendBlock(t *testing.T) {
	plan := newTestPlan(t, uuid.New(), 60)
	newTaskID := uuid.New()
	start := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

	plan.AppendBlock(domain.ScheduleTimeBlock{TaskID: newTaskID, Start: start, End: start.Add(30 * time.Minute), Kind: domain.BlockKindAuto})

	assert.Len(t, plan.TimeBlocks(), 2)
	assert.Equal(t, 90, plan.Day().AllocatedMinutes)
}

func TestDailySchedulePlan_UpdateTaskSnapshot(t *testing.T) {
	plan := newTestPlan(t, uuid.New(), 60)
	taskID := uuid.New()

	plan.UpdateTaskSnapshot(domain.TaskPlanSnapshot{TaskID: taskID, Title: "first", Fingerprint: "fp1"})
	require.Len(t, plan.TaskSnapshots(), 1)

	plan.UpdateTaskSnapshot(domain.TaskPlanSnapshot{TaskID: taskID, Title: "updated", Fingerprint: "fp2"})

	require.Len(t, plan.TaskSnapshots(), 1, "updating an existing snapshot must not append a duplicate")
	assert.Equal(t, "fp2", plan.TaskSnapshots()[0].Fingerprint)
}

func TestRehydrateDailySchedulePlan(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	day := domain.NewScheduleDay(date, 480, 0, nil)

	plan := domain.RehydrateDailySchedulePlan(
		id, userID, uuid.New(), date, "Asia/Tokyo", day,
		nil, nil, nil, nil, nil, "fp", date, 3, date, date,
	)

	assert.Equal(t, id, plan.ID())
	assert.Equal(t, userID, plan.UserID())
	assert.Equal(t, 3, plan.Version())
	assert.Empty(t, plan.DomainEvents(), "rehydration must not raise a PlanGenerated event")
}
