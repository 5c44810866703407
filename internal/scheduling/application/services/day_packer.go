package services

import (
	"time"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// DayPackerInput is the day packer's request: the scheduled (non-excluded,
// non-blocked) candidate tasks produced by dependency classification, their dependency graph,
// the user's capacity settings, and the horizon to pack.
type DayPackerInput struct {
	Tasks             []*task.Task
	Graph             *sdomain.TaskGraph
	Settings          sdomain.ScheduleSettings
	ProjectPriorities map[uuid.UUID]int
	StartDate         time.Time
	MaxDays           int
}

// DayPackerOutput is the day packer's result: per-day allocations, per-task
// start/end summaries, and anything that could not be placed.
type DayPackerOutput struct {
	Days                 []sdomain.ScheduleDay
	TaskInfos            map[uuid.UUID]sdomain.TaskScheduleInfo
	UnscheduledTasks     []sdomain.UnscheduledTask
	PinnedOverflowByDate map[string][]uuid.UUID
}

// DayPacker implements topological, capacity-aware packing of ready
// tasks into successive days, with deadline-forced placement, an
// energy-mix preference, and pinned-date overflow tracking.
type DayPacker struct{}

// NewDayPacker creates a DayPacker.
func NewDayPacker() *DayPacker {
	return &DayPacker{}
}

type packerState struct {
	byID        map[uuid.UUID]*task.Task
	remaining   map[uuid.UUID]int
	taskStart   map[uuid.UUID]time.Time
	taskEnd     map[uuid.UUID]time.Time
	ready       []uuid.UUID
	inProgress  []uuid.UUID
	pinnedDone  map[uuid.UUID]bool
}

// Pack runs the packing algorithm over in.
func (p *DayPacker) Pack(in DayPackerInput) DayPackerOutput {
	st := &packerState{
		byID:       make(map[uuid.UUID]*task.Task, len(in.Tasks)),
		remaining:  make(map[uuid.UUID]int, len(in.Tasks)),
		taskStart:  make(map[uuid.UUID]time.Time),
		taskEnd:    make(map[uuid.UUID]time.Time),
		pinnedDone: make(map[uuid.UUID]bool),
	}
	for _, t := range in.Tasks {
		st.byID[t.ID()] = t
		st.remaining[t.ID()] = task.EffectiveEstimateMinutes(t, in.Tasks)
		if t.Status() == task.StatusInProgress {
			st.inProgress = append(st.inProgress, t.ID())
		}
	}
	for _, id := range in.Graph.Ready() {
		if st.inProgressHas(id) {
			continue
		}
		st.ready = append(st.ready, id)
	}

	out := DayPackerOutput{
		TaskInfos:            make(map[uuid.UUID]sdomain.TaskScheduleInfo, len(in.Tasks)),
		PinnedOverflowByDate: make(map[string][]uuid.UUID),
	}

	abortReason := sdomain.AbortReason("")

	maxDays := in.MaxDays
	if maxDays <= 0 {
		maxDays = 1
	}

	for d := 0; d < maxDays; d++ {
		date := in.StartDate.AddDate(0, 0, d)
		dayCapacity := sdomain.BuildDayCapacity(in.Settings, date)
		capacityRemaining := dayCapacity.CapacityMinutes

		var allocations []sdomain.TaskAllocation
		allocByTask := make(map[uuid.UUID]int)
		placedTotal, placedHigh, placedLow := 0, 0, 0

		addAllocation := func(id uuid.UUID, minutes int) {
			allocByTask[id] += minutes
			placedTotal += minutes
			if st.byID[id].EnergyLevel().String() == "high" {
				placedHigh += minutes
			} else {
				placedLow += minutes
			}
			if _, ok := st.taskStart[id]; !ok {
				st.taskStart[id] = date
			}
		}

		finish := func(id uuid.UUID) []uuid.UUID {
			st.taskEnd[id] = date
			st.ready = removeID(st.ready, id)
			st.inProgress = removeID(st.inProgress, id)
			freed := in.Graph.Release(id)
			st.ready = append(st.ready, freed...)
			return freed
		}

		// Step 3: forced placement — due today or earlier, placed first and
		// fully, ignoring capacity.
		forced := collectForced(st, date)
		for _, id := range orderByTieBreak(st, in.ProjectPriorities, forced, date) {
			minutes := st.remaining[id]
			if minutes <= 0 {
				continue
			}
			addAllocation(id, minutes)
			capacityRemaining -= minutes
			st.remaining[id] = 0
			finish(id)
		}

		// Step 4: regular packing while capacity remains.
		for capacityRemaining > 0 && (len(st.ready) > 0 || len(st.inProgress) > 0) {
			pool := st.inProgress
			if len(pool) == 0 {
				pool = st.ready
			}

			preference := energyPreference(placedTotal, placedHigh, placedLow)
			candidates := filterByEnergy(st, pool, preference)
			if len(candidates) == 0 {
				candidates = pool
			}

			selected := bestCandidate(st, in.ProjectPriorities, candidates, date)
			minutes := capacityRemaining
			if st.remaining[selected] < minutes {
				minutes = st.remaining[selected]
			}
			addAllocation(selected, minutes)
			capacityRemaining -= minutes
			st.remaining[selected] -= minutes

			if st.remaining[selected] == 0 {
				finish(selected)
			} else if !st.inProgressHas(selected) {
				st.ready = removeID(st.ready, selected)
				st.inProgress = append(st.inProgress, selected)
			}
		}

		// Pinned-date handling: a task pinned to today that still has
		// remaining minutes after today's packing loses that remainder —
		// it does not carry over — and is recorded as pinned overflow.
		dateKey := date.Format("2006-01-02")
		for _, t := range in.Tasks {
			if t.PinnedDate() == nil || !sameDay(*t.PinnedDate(), date) {
				continue
			}
			if st.pinnedDone[t.ID()] || st.remaining[t.ID()] <= 0 {
				continue
			}
			out.PinnedOverflowByDate[dateKey] = append(out.PinnedOverflowByDate[dateKey], t.ID())
			st.remaining[t.ID()] = 0
			st.pinnedDone[t.ID()] = true
			finish(t.ID())
		}

		for id, minutes := range allocByTask {
			allocations = append(allocations, sdomain.TaskAllocation{TaskID: id, Minutes: minutes})
		}
		out.Days = append(out.Days, sdomain.NewScheduleDay(date, dayCapacity.CapacityMinutes, 0, allocations))

		remainingWork := anyRemaining(st)
		if remainingWork && len(st.ready) == 0 && len(st.inProgress) == 0 {
			abortReason = sdomain.AbortDependencyCycle
			break
		}
		if remainingWork && d == maxDays-1 {
			abortReason = sdomain.AbortMaxDaysExceeded
		}
	}

	for _, t := range in.Tasks {
		id := t.ID()
		info := sdomain.TaskScheduleInfo{
			TaskID:       id,
			Title:        t.Title(),
			TotalMinutes: task.EffectiveEstimateMinutes(t, in.Tasks),
			ParentID:     t.ParentID(),
			ProjectID:    t.ProjectID(),
		}
		if start, ok := st.taskStart[id]; ok {
			info.PlannedStart = start
		}
		if end, ok := st.taskEnd[id]; ok {
			info.PlannedEnd = end
		}
		info.PriorityScore = sdomain.Score(sdomain.ScoreInputsFromTask(t, in.ProjectPriorities[projectKey(t)]), in.StartDate)
		out.TaskInfos[id] = info

		if st.remaining[id] > 0 && abortReason != "" {
			out.UnscheduledTasks = append(out.UnscheduledTasks, sdomain.UnscheduledTask{TaskID: id, Reason: abortReason})
		}
	}

	return out
}

func (st *packerState) inProgressHas(id uuid.UUID) bool {
	for _, x := range st.inProgress {
		if x == id {
			return true
		}
	}
	return false
}

func collectForced(st *packerState, date time.Time) []uuid.UUID {
	var forced []uuid.UUID
	candidates := append(append([]uuid.UUID{}, st.ready...), st.inProgress...)
	for _, id := range candidates {
		t := st.byID[id]
		if t.DueDate() != nil && !t.DueDate().After(endOfDay(date)) {
			forced = append(forced, id)
		}
	}
	return forced
}

func orderByTieBreak(st *packerState, projectPriorities map[uuid.UUID]int, ids []uuid.UUID, date time.Time) []uuid.UUID {
	sorted := append([]uuid.UUID{}, ids...)
	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			if less(st, projectPriorities, sorted[j], sorted[i], date) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	return sorted
}

func bestCandidate(st *packerState, projectPriorities map[uuid.UUID]int, ids []uuid.UUID, date time.Time) uuid.UUID {
	best := ids[0]
	for _, id := range ids[1:] {
		if less(st, projectPriorities, id, best, date) {
			best = id
		}
	}
	return best
}

func less(st *packerState, projectPriorities map[uuid.UUID]int, a, b uuid.UUID, date time.Time) bool {
	ta, tb := st.byID[a], st.byID[b]
	scoreA := sdomain.Score(sdomain.ScoreInputsFromTask(ta, projectPriorities[projectKey(ta)]), date)
	scoreB := sdomain.Score(sdomain.ScoreInputsFromTask(tb, projectPriorities[projectKey(tb)]), date)
	return sdomain.LessByTieBreak(scoreA, scoreB, ta.DueDate(), tb.DueDate(), ta.CreatedAt(), tb.CreatedAt())
}

func projectKey(t *task.Task) uuid.UUID {
	if t.ProjectID() == nil {
		return uuid.Nil
	}
	return *t.ProjectID()
}

// energyPreference implements the 40%/60% energy-balance rule. A placed
// total of 0 yields no preference — the first task placed has none to
// balance against.
func energyPreference(placedTotal, placedHigh, placedLow int) string {
	if placedTotal == 0 {
		return ""
	}
	if float64(placedHigh)/float64(placedTotal) > 0.4 {
		return "low"
	}
	if float64(placedLow)/float64(placedTotal) > 0.6 {
		return "high"
	}
	return ""
}

func filterByEnergy(st *packerState, ids []uuid.UUID, energy string) []uuid.UUID {
	if energy == "" {
		return ids
	}
	var filtered []uuid.UUID
	for _, id := range ids {
		if st.byID[id].EnergyLevel().String() == energy {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

func removeID(ids []uuid.UUID, target uuid.UUID) []uuid.UUID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func anyRemaining(st *packerState) bool {
	for _, minutes := range st.remaining {
		if minutes > 0 {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func endOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, date.Location())
}
