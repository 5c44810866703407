package domain

import (
	"time"

	sharedDomain "github.com/mugi0227/nagi-scheduler/internal/shared/domain"
	"github.com/google/uuid"
)

// TaskAllocation is a per-day minute budget placed against a task.
type TaskAllocation struct {
	TaskID  uuid.UUID
	Minutes int
}

// ScheduleDay is one day's packing result. AllocatedMinutes,
// OverflowMinutes and AvailableMinutes are derived from CapacityMinutes,
// MeetingMinutes and TaskAllocations by NewScheduleDay — callers should
// not set them directly.
type ScheduleDay struct {
	Date             time.Time
	CapacityMinutes  int
	AllocatedMinutes int
	OverflowMinutes  int
	MeetingMinutes   int
	AvailableMinutes int
	TaskAllocations  []TaskAllocation
}

// NewScheduleDay builds a ScheduleDay, deriving AllocatedMinutes,
// OverflowMinutes and AvailableMinutes from capacityMinutes and
// allocations so callers never have to compute them by hand.
func NewScheduleDay(date time.Time, capacityMinutes, meetingMinutes int, allocations []TaskAllocation) ScheduleDay {
	allocated := 0
	for _, a := range allocations {
		allocated += a.Minutes
	}
	overflow := allocated - capacityMinutes
	if overflow < 0 {
		overflow = 0
	}
	available := capacityMinutes - allocated
	if available < 0 {
		available = 0
	}
	return ScheduleDay{
		Date:             date,
		CapacityMinutes:  capacityMinutes,
		AllocatedMinutes: allocated,
		OverflowMinutes:  overflow,
		MeetingMinutes:   meetingMinutes,
		AvailableMinutes: available,
		TaskAllocations:  allocations,
	}
}

// TaskScheduleInfo is the per-task output: when a task starts/ends
// across the packed horizon, and the score it was placed with.
type TaskScheduleInfo struct {
	TaskID        uuid.UUID
	Title         string
	PlannedStart  time.Time
	PlannedEnd    time.Time
	TotalMinutes  int
	PriorityScore float64
	ParentID      *uuid.UUID
	ProjectID     *uuid.UUID
}

// UnscheduledTask names a requested-but-not-placed task and why.
type UnscheduledTask struct {
	TaskID uuid.UUID
	Reason AbortReason
}

// BlockKind distinguishes a fixed-time meeting block from scheduler-placed
// work.
type BlockKind string

const (
	BlockKindMeeting BlockKind = "meeting"
	BlockKindAuto    BlockKind = "auto"
)

// BlockStatus reflects the underlying task's status for ghost blocks, or
// "scheduled" for ordinary live blocks.
type BlockStatus string

const (
	BlockStatusScheduled BlockStatus = "scheduled"
	BlockStatusGhost     BlockStatus = "done" // ghost blocks carry the source task's DONE status
)

// ScheduleTimeBlock is a concrete wall-clock allocation within a day.
// IsGhost marks a past-completed visual placeholder that does not consume
// live interval budget (glossary: Ghost block).
type ScheduleTimeBlock struct {
	TaskID     uuid.UUID
	Start      time.Time
	End        time.Time
	Kind       BlockKind
	Status     BlockStatus
	PinnedDate *time.Time
	IsGhost    bool
}

// DurationMinutes returns the block's length in minutes.
func (b ScheduleTimeBlock) DurationMinutes() int {
	return int(b.End.Sub(b.Start).Minutes())
}

// OverlapsWith reports whether two auto blocks occupy overlapping time.
// Ghost blocks are exempt from the no-overlap invariant.
func (b ScheduleTimeBlock) OverlapsWith(other ScheduleTimeBlock) bool {
	if b.IsGhost || other.IsGhost {
		return false
	}
	return b.Start.Before(other.End) && other.Start.Before(b.End)
}

// TaskPlanSnapshot is the persisted per-task fingerprint for drift
// detection.
type TaskPlanSnapshot struct {
	TaskID      uuid.UUID
	Title       string
	Fingerprint string
}

// PlanParams are the materialisation parameters whose fingerprint is
// compared against a fresh request to detect a stale plan.
type PlanParams struct {
	StartDate             time.Time
	MaxDays               int
	FilterByAssignee      bool
	WeeklyWorkHours       [7]WorkdayHours
	BufferHours           float64
	BreakAfterTaskMinutes int
}

// ExcludedTaskInfo pairs an excluded task id with its reason, scoped to a
// single plan row — distinct from the package-level ExcludedTask, which
// covers the full scheduling horizon rather than one day.
type ExcludedTaskInfo struct {
	TaskID uuid.UUID
	Reason ExclusionReason
}

// DailySchedulePlan is the aggregate persisted one row per (user,
// plan_date): the day's capacity allocation, its time blocks, the
// per-task snapshots and params fingerprint used for drift detection, and any
// pinned-overflow task ids for that day.
type DailySchedulePlan struct {
	sharedDomain.BaseAggregateRoot
	userID                uuid.UUID
	planGroupID           uuid.UUID
	planDate              time.Time
	timezone              string
	day                   ScheduleDay
	taskSnapshots         []TaskPlanSnapshot
	unscheduledTasks      []UnscheduledTask
	excludedTasks         []ExcludedTaskInfo
	timeBlocks            []ScheduleTimeBlock
	pinnedOverflowTaskIDs []uuid.UUID
	planParamsFingerprint string
	generatedAt           time.Time
}

// NewDailySchedulePlan creates a new plan row and raises a PlanGenerated
// event.
func NewDailySchedulePlan(
	userID, planGroupID uuid.UUID,
	planDate time.Time,
	timezone string,
	day ScheduleDay,
	taskSnapshots []TaskPlanSnapshot,
	unscheduledTasks []UnscheduledTask,
	excludedTasks []ExcludedTaskInfo,
	timeBlocks []ScheduleTimeBlock,
	pinnedOverflowTaskIDs []uuid.UUID,
	planParamsFingerprint string,
) *DailySchedulePlan {
	p := &DailySchedulePlan{
		BaseAggregateRoot:     sharedDomain.NewBaseAggregateRoot(),
		userID:                userID,
		planGroupID:           planGroupID,
		planDate:              planDate,
		timezone:              timezone,
		day:                   day,
		taskSnapshots:         taskSnapshots,
		unscheduledTasks:      unscheduledTasks,
		excludedTasks:         excludedTasks,
		timeBlocks:            timeBlocks,
		pinnedOverflowTaskIDs: pinnedOverflowTaskIDs,
		planParamsFingerprint: planParamsFingerprint,
		generatedAt:           time.Now().UTC(),
	}
	p.AddDomainEvent(NewPlanGenerated(p.ID(), planGroupID, planDate.Format("2006-01-02")))
	return p
}

// Getters

func (p *DailySchedulePlan) UserID() uuid.UUID                      { return p.userID }
func (p *DailySchedulePlan) PlanGroupID() uuid.UUID                 { return p.planGroupID }
func (p *DailySchedulePlan) PlanDate() time.Time                    { return p.planDate }
func (p *DailySchedulePlan) Timezone() string                       { return p.timezone }
func (p *DailySchedulePlan) Day() ScheduleDay                       { return p.day }
func (p *DailySchedulePlan) TaskSnapshots() []TaskPlanSnapshot      { return p.taskSnapshots }
func (p *DailySchedulePlan) UnscheduledTasks() []UnscheduledTask    { return p.unscheduledTasks }
func (p *DailySchedulePlan) ExcludedTasks() []ExcludedTaskInfo      { return p.excludedTasks }
func (p *DailySchedulePlan) TimeBlocks() []ScheduleTimeBlock        { return p.timeBlocks }
func (p *DailySchedulePlan) PinnedOverflowTaskIDs() []uuid.UUID     { return p.pinnedOverflowTaskIDs }
func (p *DailySchedulePlan) PlanParamsFingerprint() string          { return p.planParamsFingerprint }
func (p *DailySchedulePlan) GeneratedAt() time.Time                 { return p.generatedAt }

// MoveBlock relocates the block for taskID to [newStart, newEnd) within
// this plan row (the same-date case of a move) and recomputes the day's
// derived minute totals from the updated blocks.
func (p *DailySchedulePlan) MoveBlock(taskID uuid.UUID, newStart, newEnd time.Time) (ScheduleTimeBlock, bool) {
	for i, b := range p.timeBlocks {
		if b.TaskID != taskID || b.IsGhost {
			continue
		}
		oldMinutes := b.DurationMinutes()
		b.Start = newStart
		b.End = newEnd
		p.timeBlocks[i] = b
		p.rebuildAllocationForMove(taskID, oldMinutes, b.DurationMinutes())
		p.Touch()
		return b, true
	}
	return ScheduleTimeBlock{}, false
}

// RemoveBlock deletes the block for taskID from this plan row (used when
// a move relocates a block to a different date's row) and returns it.
func (p *DailySchedulePlan) RemoveBlock(taskID uuid.UUID) (ScheduleTimeBlock, bool) {
	for i, b := range p.timeBlocks {
		if b.TaskID != taskID || b.IsGhost {
			continue
		}
		p.timeBlocks = append(p.timeBlocks[:i], p.timeBlocks[i+1:]...)
		p.rebuildAllocationForMove(taskID, b.DurationMinutes(), 0)
		p.Touch()
		return b, true
	}
	return ScheduleTimeBlock{}, false
}

// AppendBlock adds block to this plan row (the target side of a
// cross-day move) and recomputes derived minute totals.
func (p *DailySchedulePlan) AppendBlock(block ScheduleTimeBlock) {
	p.timeBlocks = append(p.timeBlocks, block)
	p.rebuildAllocationForMove(block.TaskID, 0, block.DurationMinutes())
	p.Touch()
}

func (p *DailySchedulePlan) rebuildAllocationForMove(taskID uuid.UUID, oldMinutes, newMinutes int) {
	found := false
	for i, a := range p.day.TaskAllocations {
		if a.TaskID == taskID {
			p.day.TaskAllocations[i].Minutes = a.Minutes - oldMinutes + newMinutes
			found = true
			break
		}
	}
	if !found && newMinutes > 0 {
		p.day.TaskAllocations = append(p.day.TaskAllocations, TaskAllocation{TaskID: taskID, Minutes: newMinutes})
	}
	p.day = NewScheduleDay(p.day.Date, p.day.CapacityMinutes, p.day.MeetingMinutes, p.day.TaskAllocations)
}

// UpdateTaskSnapshot replaces the snapshot for taskID (or appends one) so
// the plan's fingerprint matches the task's post-mutation state, keeping
// every row that shares this plan's plan_group_id from immediately going
// stale after a write-back.
func (p *DailySchedulePlan) UpdateTaskSnapshot(snapshot TaskPlanSnapshot) {
	for i, s := range p.taskSnapshots {
		if s.TaskID == snapshot.TaskID {
			p.taskSnapshots[i] = snapshot
			p.Touch()
			return
		}
	}
	p.taskSnapshots = append(p.taskSnapshots, snapshot)
	p.Touch()
}

// RehydrateDailySchedulePlan recreates a plan row from persisted state.
func RehydrateDailySchedulePlan(
	id, userID, planGroupID uuid.UUID,
	planDate time.Time,
	timezone string,
	day ScheduleDay,
	taskSnapshots []TaskPlanSnapshot,
	unscheduledTasks []UnscheduledTask,
	excludedTasks []ExcludedTaskInfo,
	timeBlocks []ScheduleTimeBlock,
	pinnedOverflowTaskIDs []uuid.UUID,
	planParamsFingerprint string,
	generatedAt time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *DailySchedulePlan {
	baseEntity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &DailySchedulePlan{
		BaseAggregateRoot:     sharedDomain.RehydrateBaseAggregateRoot(baseEntity, version),
		userID:                userID,
		planGroupID:           planGroupID,
		planDate:              planDate,
		timezone:              timezone,
		day:                   day,
		taskSnapshots:         taskSnapshots,
		unscheduledTasks:      unscheduledTasks,
		excludedTasks:         excludedTasks,
		timeBlocks:            timeBlocks,
		pinnedOverflowTaskIDs: pinnedOverflowTaskIDs,
		planParamsFingerprint: planParamsFingerprint,
		generatedAt:           generatedAt,
	}
}
