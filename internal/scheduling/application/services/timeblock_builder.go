package services

import (
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// TimeBlockBuilderInput is the time-block builder's request for a single day: the day's
// work capacity, the live task allocations the day packer produced for that day, the
// fixed-time tasks overlapping the day (meetings), any DONE tasks
// previously allocated today (for ghost blocks), and the from-now clock.
type TimeBlockBuilderInput struct {
	Date                  time.Time
	Settings              sdomain.ScheduleSettings
	Allocations           []sdomain.TaskAllocation
	FixedTimeTasks        []*task.Task
	PreviouslyDoneToday   []sdomain.ScheduleTimeBlock // prior live blocks for DONE tasks, reused as ghosts
	FromNow               bool
	IsToday               bool
	Now                   time.Time
	PinnedTaskIDs         map[uuid.UUID]bool
}

// TimeBlockBuilderOutput is the time-block builder's result for one day.
type TimeBlockBuilderOutput struct {
	Blocks                 []sdomain.ScheduleTimeBlock
	Day                    sdomain.ScheduleDay
	CarryoverAllocations   []sdomain.TaskAllocation // unplaced remainder, not pinned to today
	PinnedOverflowTaskIDs  []uuid.UUID
}

// TimeBlockBuilder converts per-day minute allocations
// into concrete wall-clock blocks.
type TimeBlockBuilder struct{}

// NewTimeBlockBuilder creates a TimeBlockBuilder.
func NewTimeBlockBuilder() *TimeBlockBuilder {
	return &TimeBlockBuilder{}
}

// Build runs the time-block construction algorithm for a single day.
func (b *TimeBlockBuilder) Build(in TimeBlockBuilderInput) TimeBlockBuilderOutput {
	work := sdomain.BuildDayCapacity(in.Settings, in.Date).Intervals

	meetingIntervals, meetingBlocks := meetingsFor(in.Date, in.FixedTimeTasks)
	meetingIntervals = sdomain.MergeIntervals(meetingIntervals)

	packable := sdomain.SubtractIntervals(work, meetingIntervals)

	restoredMeetingMinutes := 0
	if in.FromNow && in.IsToday {
		nowMinute := in.Now.Hour()*60 + in.Now.Minute()
		packable, restoredMeetingMinutes = truncateFromNow(packable, meetingIntervals, nowMinute)
	}

	var blocks []sdomain.ScheduleTimeBlock
	blocks = append(blocks, meetingBlocks...)

	if in.FromNow && in.IsToday {
		// Ghost blocks reuse the prior generation's own wall-clock range
		// verbatim — they are laid out against an independent copy of the
		// day (never consuming the live interval budget computed above).
		for _, prior := range in.PreviouslyDoneToday {
			ghost := prior
			ghost.IsGhost = true
			ghost.Status = sdomain.BlockStatusGhost
			blocks = append(blocks, ghost)
		}
	}

	remaining := append([]sdomain.MinuteInterval{}, packable...)
	var carryover []sdomain.TaskAllocation
	var pinnedOverflow []uuid.UUID

	for _, alloc := range in.Allocations {
		placed, newRemaining := placeMinutes(remaining, alloc.Minutes, in.Settings.BreakAfterTaskMinutes)
		for _, iv := range placed {
			blocks = append(blocks, sdomain.ScheduleTimeBlock{
				TaskID: alloc.TaskID,
				Start:  minuteToTime(in.Date, iv.Start),
				End:    minuteToTime(in.Date, iv.End),
				Kind:   sdomain.BlockKindAuto,
				Status: sdomain.BlockStatusScheduled,
			})
		}
		remaining = newRemaining

		placedMinutes := 0
		for _, iv := range placed {
			placedMinutes += iv.Duration()
		}
		leftover := alloc.Minutes - placedMinutes
		if leftover > 0 {
			if in.PinnedTaskIDs[alloc.TaskID] {
				pinnedOverflow = append(pinnedOverflow, alloc.TaskID)
			} else {
				carryover = append(carryover, sdomain.TaskAllocation{TaskID: alloc.TaskID, Minutes: leftover})
			}
		}
	}

	meetingMinutes := 0
	for _, iv := range meetingIntervals {
		meetingMinutes += iv.Duration()
	}
	meetingMinutes -= restoredMeetingMinutes

	day := sdomain.NewScheduleDay(in.Date, sdomain.BuildDayCapacity(in.Settings, in.Date).CapacityMinutes, meetingMinutes, allocationsFromBlocks(blocks))

	return TimeBlockBuilderOutput{
		Blocks:                blocks,
		Day:                   day,
		CarryoverAllocations:  carryover,
		PinnedOverflowTaskIDs: pinnedOverflow,
	}
}

func meetingsFor(date time.Time, fixedTimeTasks []*task.Task) ([]sdomain.MinuteInterval, []sdomain.ScheduleTimeBlock) {
	var intervals []sdomain.MinuteInterval
	var blocks []sdomain.ScheduleTimeBlock
	for _, t := range fixedTimeTasks {
		if t.StartTime() == nil || t.EndTime() == nil {
			continue
		}
		start, end := clampToDay(date, *t.StartTime(), *t.EndTime())
		if end <= start {
			continue
		}
		intervals = append(intervals, sdomain.MinuteInterval{Start: start, End: end})
		blocks = append(blocks, sdomain.ScheduleTimeBlock{
			TaskID: t.ID(),
			Start:  *t.StartTime(),
			End:    *t.EndTime(),
			Kind:   sdomain.BlockKindMeeting,
			Status: sdomain.BlockStatusScheduled,
		})
	}
	return intervals, blocks
}

// clampToDay maps a fixed-time task's [start, end) instants onto date's
// minute-of-day axis, clamping to [0, 1440). An all-day task (spanning
// past both day boundaries) consumes the full day.
func clampToDay(date, start, end time.Time) (int, int) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	if end.Before(dayStart) || start.After(dayEnd) {
		return 0, 0
	}
	s, e := start, end
	if s.Before(dayStart) {
		s = dayStart
	}
	if e.After(dayEnd) {
		e = dayEnd
	}
	return int(s.Sub(dayStart).Minutes()), int(e.Sub(dayStart).Minutes())
}

// truncateFromNow clips intervals to start no earlier than nowMinute and
// restores any meeting minutes that have already elapsed today into the
// returned capacity credit.
func truncateFromNow(intervals, meetings []sdomain.MinuteInterval, nowMinute int) ([]sdomain.MinuteInterval, int) {
	var clipped []sdomain.MinuteInterval
	for _, iv := range intervals {
		if iv.End <= nowMinute {
			continue
		}
		if iv.Start < nowMinute {
			iv.Start = nowMinute
		}
		clipped = append(clipped, iv)
	}
	restored := 0
	for _, m := range meetings {
		if m.End <= nowMinute {
			restored += m.Duration()
		} else if m.Start < nowMinute {
			restored += nowMinute - m.Start
		}
	}
	return clipped, restored
}

// placeMinutes greedily fills minutes from the front of remaining,
// splitting across intervals as needed, and inserts a breakGap after the
// last interval consumed. It returns the intervals actually placed into
// and the remaining capacity with the placed time (plus gap) removed.
func placeMinutes(remaining []sdomain.MinuteInterval, minutes, breakGap int) ([]sdomain.MinuteInterval, []sdomain.MinuteInterval) {
	var placed []sdomain.MinuteInterval
	var rest []sdomain.MinuteInterval
	needed := minutes
	gapApplied := false

	for i, iv := range remaining {
		if needed <= 0 {
			rest = append(rest, iv)
			continue
		}
		available := iv.Duration()
		if available <= needed {
			placed = append(placed, iv)
			needed -= available
		} else {
			cut := iv.Start + needed
			placed = append(placed, sdomain.MinuteInterval{Start: iv.Start, End: cut})
			needed = 0
			remainder := sdomain.MinuteInterval{Start: cut, End: iv.End}
			if breakGap > 0 {
				remainder.Start += breakGap
				gapApplied = true
			}
			if remainder.Start < remainder.End {
				rest = append(rest, remainder)
			}
			rest = append(rest, remaining[i+1:]...)
			break
		}
	}

	if needed == 0 && !gapApplied && breakGap > 0 && len(rest) > 0 {
		rest[0].Start += breakGap
		if rest[0].Start >= rest[0].End {
			rest = rest[1:]
		}
	}

	return placed, rest
}

func allocationsFromBlocks(blocks []sdomain.ScheduleTimeBlock) []sdomain.TaskAllocation {
	byTask := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, b := range blocks {
		if b.IsGhost || b.Kind == sdomain.BlockKindMeeting {
			continue
		}
		if _, ok := byTask[b.TaskID]; !ok {
			order = append(order, b.TaskID)
		}
		byTask[b.TaskID] += b.DurationMinutes()
	}
	allocations := make([]sdomain.TaskAllocation, 0, len(order))
	for _, id := range order {
		allocations = append(allocations, sdomain.TaskAllocation{TaskID: id, Minutes: byTask[id]})
	}
	return allocations
}

func minuteToTime(date time.Time, minute int) time.Time {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return dayStart.Add(time.Duration(minute) * time.Minute)
}
