package services_test

import (
	"testing"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/mugi0227/nagi-scheduler/internal/scheduling/application/services"
	"github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekdaySettings(breakAfterTaskMinutes int) domain.ScheduleSettings {
	open := domain.WorkdayHours{Enabled: true, Start: "09:00", End: "17:00"}
	var week [7]domain.WorkdayHours
	for i := range week {
		week[i] = open
	}
	return domain.ScheduleSettings{WeeklyWorkHours: week, BreakAfterTaskMinutes: breakAfterTaskMinutes}
}

func TestTimeBlockBuilder_Build_PlacesAllocationAtDayStart(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	taskID := uuid.New()

	out := services.NewTimeBlockBuilder().Build(services.TimeBlockBuilderInput{
		Date:        date,
		Settings:    weekdaySettings(0),
		Allocations: []domain.TaskAllocation{{TaskID: taskID, Minutes: 60}},
	})

	require.Len(t, out.Blocks, 1)
	assert.True(t, out.Blocks[0].Start.Equal(date.Add(9*time.Hour)))
	assert.True(t, out.Blocks[0].End.Equal(date.Add(10*time.Hour)))
	assert.Empty(t, out.CarryoverAllocations)
}

func TestTimeBlockBuilder_Build_OverflowBecomesCarryover(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	taskID := uuid.New()

	out := services.NewTimeBlockBuilder().Build(services.TimeBlockBuilderInput{
		Date:        date,
		Settings:    weekdaySettings(0),
		Allocations: []domain.TaskAllocation{{TaskID: taskID, Minutes: 600}}, // > 8h day
	})

	require.Len(t, out.CarryoverAllocations, 1)
	assert.Equal(t, 120, out.CarryoverAllocations[0].Minutes)
}

func TestTimeBlockBuilder_Build_PinnedOverflowIsReportedNotCarriedOver(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	taskID := uuid.New()

	out := services.NewTimeBlockBuilder().Build(services.TimeBlockBuilderInput{
		Date:          date,
		Settings:      weekdaySettings(0),
		Allocations:   []domain.TaskAllocation{{TaskID: taskID, Minutes: 600}},
		PinnedTaskIDs: map[uuid.UUID]bool{taskID: true},
	})

	assert.Empty(t, out.CarryoverAllocations)
	assert.Contains(t, out.PinnedOverflowTaskIDs, taskID)
}

func TestTimeBlockBuilder_Build_MeetingBlocksAreCarvedOutAndExcludedFromWorkPlacement(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	userID := uuid.New()
	meetingStart := date.Add(9 * time.Hour)
	meetingEnd := date.Add(10 * time.Hour)

	meeting, err := task.NewTask(userID, "standup")
	require.NoError(t, err)
	require.NoError(t, meeting.SetFixedTime(&meetingStart, &meetingEnd))

	taskID := uuid.New()
	out := services.NewTimeBlockBuilder().Build(services.TimeBlockBuilderInput{
		Date:           date,
		Settings:       weekdaySettings(0),
		Allocations:    []domain.TaskAllocation{{TaskID: taskID, Minutes: 60}},
		FixedTimeTasks: []*task.Task{meeting},
	})

	var meetingBlock, workBlock *domain.ScheduleTimeBlock
	for i := range out.Blocks {
		b := &out.Blocks[i]
		if b.Kind == domain.BlockKindMeeting {
			meetingBlock = b
		} else {
			workBlock = b
		}
	}
	require.NotNil(t, meetingBlock)
	require.NotNil(t, workBlock)
	assert.False(t, workBlock.OverlapsWith(*meetingBlock))
	assert.True(t, workBlock.Start.Equal(meetingEnd), "work is placed after the meeting ends")
}

func TestTimeBlockBuilder_Build_BreakGapIsInsertedBetweenTasks(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	first, second := uuid.New(), uuid.New()

	out := services.NewTimeBlockBuilder().Build(services.TimeBlockBuilderInput{
		Date:     date,
		Settings: weekdaySettings(15),
		Allocations: []domain.TaskAllocation{
			{TaskID: first, Minutes: 60},
			{TaskID: second, Minutes: 60},
		},
	})

	require.Len(t, out.Blocks, 2)
	gap := out.Blocks[1].Start.Sub(out.Blocks[0].End)
	assert.Equal(t, 15*time.Minute, gap)
}

func TestTimeBlockBuilder_Build_FromNowTruncatesToCurrentTime(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	now := date.Add(11 * time.Hour) // 11:00, after the 09:00 workday start
	taskID := uuid.New()

	out := services.NewTimeBlockBuilder().Build(services.TimeBlockBuilderInput{
		Date:        date,
		Settings:    weekdaySettings(0),
		Allocations: []domain.TaskAllocation{{TaskID: taskID, Minutes: 60}},
		FromNow:     true,
		IsToday:     true,
		Now:         now,
	})

	require.Len(t, out.Blocks, 1)
	assert.True(t, out.Blocks[0].Start.Equal(now))
}

func TestTimeBlockBuilder_Build_GhostBlocksReuseVerbatimPlacement(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	now := date.Add(11 * time.Hour)
	doneTaskID := uuid.New()
	priorStart := date.Add(9 * time.Hour)
	priorEnd := date.Add(10 * time.Hour)

	out := services.NewTimeBlockBuilder().Build(services.TimeBlockBuilderInput{
		Date:     date,
		Settings: weekdaySettings(0),
		PreviouslyDoneToday: []domain.ScheduleTimeBlock{
			{TaskID: doneTaskID, Start: priorStart, End: priorEnd, Kind: domain.BlockKindAuto},
		},
		FromNow: true,
		IsToday: true,
		Now:     now,
	})

	var ghost *domain.ScheduleTimeBlock
	for i := range out.Blocks {
		if out.Blocks[i].TaskID == doneTaskID {
			ghost = &out.Blocks[i]
		}
	}
	require.NotNil(t, ghost)
	assert.True(t, ghost.IsGhost)
	assert.Equal(t, domain.BlockStatusGhost, ghost.Status)
	assert.True(t, ghost.Start.Equal(priorStart), "ghost blocks keep their original wall-clock placement")
}
