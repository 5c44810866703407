package services

import (
	"context"
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// GenerateParams are the day-packing/time-block/fingerprint materialisation parameters for one
// generation request.
type GenerateParams struct {
	StartDate        time.Time
	MaxDays          int
	FromNow          bool
	FilterByAssignee bool
}

// GenerationResult bundles the plan rows a generation produced together
// with the classification and packer output that produced them, so a
// command handler can both persist the rows and report diagnostics.
type GenerationResult struct {
	Plans          []*sdomain.DailySchedulePlan
	Classification sdomain.Classification
	PackerOutput   DayPackerOutput
}

// PlanGenerator orchestrates dependency filtering, scoring, day packing,
// time-block construction, and fingerprinting into persistable plan rows.
// Where a simpler scheduler might greedily place priority-1..5 tasks into
// one day's slots, PlanGenerator packs a multi-day, capacity-aware
// horizon and records a drift fingerprint for every row it produces.
type PlanGenerator struct {
	taskRepo         task.Repository
	settingsRepo     sdomain.ScheduleSettingsRepository
	planRepo         sdomain.DailySchedulePlanRepository
	packer           *DayPacker
	builder          *TimeBlockBuilder
	scheduleDefaults sdomain.ScheduleDefaults
	now              func() time.Time
}

// NewPlanGenerator creates a PlanGenerator. defaults seeds a user's
// settings when ScheduleSettingsRepository.Get returns nil.
func NewPlanGenerator(
	taskRepo task.Repository,
	settingsRepo sdomain.ScheduleSettingsRepository,
	planRepo sdomain.DailySchedulePlanRepository,
	defaults sdomain.ScheduleDefaults,
) *PlanGenerator {
	return &PlanGenerator{
		taskRepo:         taskRepo,
		settingsRepo:     settingsRepo,
		planRepo:         planRepo,
		packer:           NewDayPacker(),
		builder:          NewTimeBlockBuilder(),
		scheduleDefaults: defaults,
		now:              func() time.Time { return time.Now() },
	}
}

// Generate builds a full plan_group for userID covering params' horizon.
// filter_by_assignee is accepted for API-surface compatibility but is a no-op
// here: this codebase has no TaskAssignmentRepository/Project aggregate
// (see DESIGN.md), so every task returned by task.Repository already
// belongs to the requesting user.
func (g *PlanGenerator) Generate(ctx context.Context, userID uuid.UUID, params GenerateParams) (*GenerationResult, error) {
	settings, err := g.settingsRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		defaults := sdomain.NewDefaultScheduleSettings(userID, g.scheduleDefaults)
		settings = &defaults
	}

	tasks, err := g.taskRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	classification := sdomain.Classify(tasks)
	graph := sdomain.BuildGraph(classification.Scheduled)

	packerOut := g.packer.Pack(DayPackerInput{
		Tasks:     classification.Scheduled,
		Graph:     graph,
		Settings:  *settings,
		StartDate: params.StartDate,
		MaxDays:   params.MaxDays,
	})

	var fixedTimeTasks []*task.Task
	for _, t := range tasks {
		if t.IsFixedTime() {
			fixedTimeTasks = append(fixedTimeTasks, t)
		}
	}

	pinnedIDs := make(map[uuid.UUID]bool)
	for _, t := range classification.Scheduled {
		if t.PinnedDate() != nil {
			pinnedIDs[t.ID()] = true
		}
	}

	planGroupID := uuid.New()
	planParamsFingerprint := sdomain.PlanParamsFingerprint(sdomain.PlanParams{
		StartDate:             params.StartDate,
		MaxDays:               params.MaxDays,
		FilterByAssignee:      params.FilterByAssignee,
		WeeklyWorkHours:       settings.WeeklyWorkHours,
		BufferHours:           settings.BufferHours,
		BreakAfterTaskMinutes: settings.BreakAfterTaskMinutes,
	})

	snapshots := make([]sdomain.TaskPlanSnapshot, 0, len(tasks))
	for _, t := range tasks {
		snapshots = append(snapshots, sdomain.TaskPlanSnapshot{
			TaskID:      t.ID(),
			Title:       t.Title(),
			Fingerprint: sdomain.TaskFingerprint(t),
		})
	}

	var excluded []sdomain.ExcludedTaskInfo
	for _, e := range classification.Excluded {
		excluded = append(excluded, sdomain.ExcludedTaskInfo{TaskID: e.TaskID, Reason: e.Reason})
	}

	now := g.now()
	var plans []*sdomain.DailySchedulePlan
	var pendingCarry []sdomain.TaskAllocation

	for i, day := range packerOut.Days {
		isToday := sameDay(day.Date, now)

		var previouslyDone []sdomain.ScheduleTimeBlock
		if params.FromNow && isToday {
			if existing, err := g.planRepo.GetByDate(ctx, userID, day.Date); err == nil && existing != nil {
				doneIDs := make(map[uuid.UUID]bool)
				for _, t := range tasks {
					if t.IsDone() {
						doneIDs[t.ID()] = true
					}
				}
				for _, b := range existing.TimeBlocks() {
					if b.Kind == sdomain.BlockKindAuto && !b.IsGhost && doneIDs[b.TaskID] {
						previouslyDone = append(previouslyDone, b)
					}
				}
			}
		}

		allocations := append([]sdomain.TaskAllocation{}, day.TaskAllocations...)
		allocations = mergeCarry(allocations, pendingCarry)
		pendingCarry = nil

		tbOut := g.builder.Build(TimeBlockBuilderInput{
			Date:                day.Date,
			Settings:            *settings,
			Allocations:         allocations,
			FixedTimeTasks:      fixedTimeTasks,
			PreviouslyDoneToday: previouslyDone,
			FromNow:             params.FromNow,
			IsToday:             isToday,
			Now:                 now,
			PinnedTaskIDs:       pinnedIDs,
		})

		if i+1 < len(packerOut.Days) {
			pendingCarry = tbOut.CarryoverAllocations
		}

		dayPinnedOverflow := append([]uuid.UUID{}, packerOut.PinnedOverflowByDate[day.Date.Format("2006-01-02")]...)
		dayPinnedOverflow = append(dayPinnedOverflow, tbOut.PinnedOverflowTaskIDs...)

		plan := sdomain.NewDailySchedulePlan(
			userID,
			planGroupID,
			day.Date,
			"Asia/Tokyo",
			tbOut.Day,
			snapshots,
			packerOut.UnscheduledTasks,
			excluded,
			tbOut.Blocks,
			dayPinnedOverflow,
			planParamsFingerprint,
		)
		plans = append(plans, plan)
	}

	return &GenerationResult{
		Plans:          plans,
		Classification: classification,
		PackerOutput:   packerOut,
	}, nil
}

func mergeCarry(allocations, carry []sdomain.TaskAllocation) []sdomain.TaskAllocation {
	if len(carry) == 0 {
		return allocations
	}
	byTask := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, a := range allocations {
		if _, ok := byTask[a.TaskID]; !ok {
			order = append(order, a.TaskID)
		}
		byTask[a.TaskID] += a.Minutes
	}
	for _, c := range carry {
		if _, ok := byTask[c.TaskID]; !ok {
			order = append(order, c.TaskID)
		}
		byTask[c.TaskID] += c.Minutes
	}
	merged := make([]sdomain.TaskAllocation, 0, len(order))
	for _, id := range order {
		merged = append(merged, sdomain.TaskAllocation{TaskID: id, Minutes: byTask[id]})
	}
	return merged
}
