package domain

import (
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
)

// DueBonusHorizonDays bounds the linear due-date interpolation window.
const DueBonusHorizonDays = 14.0

// MaxDueBonus is the bonus applied to a task due on or before the
// reference day.
const MaxDueBonus = 30.0

// DefaultProjectPriority is used when a task carries no project.
const DefaultProjectPriority = 5

// ScoreInputs carries the signals the scoring function needs. It
// mirrors productivity's PrioritySignals (application/services/priority_engine.go)
// but adds the IN_PROGRESS/due-date/reference-day shape the day packer
// re-evaluates every day, rather than once at recalculation time.
type ScoreInputs struct {
	Importance      value_objects.Importance
	Urgency         value_objects.Urgency
	EnergyLevel     value_objects.EnergyLevel
	InProgress      bool
	DueDate         *time.Time
	ProjectPriority int // 0 means "no project", resolved to DefaultProjectPriority
}

// BaseScore computes the date-independent component of a task's score.
func BaseScore(in ScoreInputs) float64 {
	importanceScore := float64(in.Importance.Weight()) * 10
	urgencyScore := float64(in.Urgency.Weight()) * 8

	inProgressBonus := 0.0
	if in.InProgress {
		inProgressBonus = 2
	}

	energyBonus := 0.0
	if in.EnergyLevel == value_objects.EnergyLow {
		energyBonus = 1
	}

	base := importanceScore + urgencyScore + inProgressBonus + energyBonus

	projectPriority := in.ProjectPriority
	if projectPriority == 0 {
		projectPriority = DefaultProjectPriority
	}

	return base * (1 + float64(projectPriority)*0.05)
}

// DueBonus returns the due-date urgency bonus for a task evaluated at
// referenceDay: MaxDueBonus for a task due on or before referenceDay, 0
// for anything 14+ days out, and a linear ramp in between.
func DueBonus(dueDate *time.Time, referenceDay time.Time) float64 {
	if dueDate == nil {
		return 0
	}
	d := daysBetween(referenceDay, *dueDate)
	if d <= 0 {
		return MaxDueBonus
	}
	if d >= DueBonusHorizonDays {
		return 0
	}
	step := MaxDueBonus / DueBonusHorizonDays
	return step * (DueBonusHorizonDays - d)
}

// Score returns the task's total score for referenceDay: BaseScore plus
// DueBonus.
func Score(in ScoreInputs, referenceDay time.Time) float64 {
	return BaseScore(in) + DueBonus(in.DueDate, referenceDay)
}

func daysBetween(referenceDay, due time.Time) float64 {
	refDate := time.Date(referenceDay.Year(), referenceDay.Month(), referenceDay.Day(), 0, 0, 0, 0, referenceDay.Location())
	dueDate := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, due.Location())
	return dueDate.Sub(refDate).Hours() / 24
}

// LessByTieBreak orders two candidates by (-score, due_date or +inf,
// created_at) — highest score first, earlier due date first, then
// earlier created_at first.
func LessByTieBreak(aScore, bScore float64, aDue, bDue *time.Time, aCreated, bCreated time.Time) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	aHasDue, bHasDue := aDue != nil, bDue != nil
	if aHasDue != bHasDue {
		return aHasDue
	}
	if aHasDue && bHasDue && !aDue.Equal(*bDue) {
		return aDue.Before(*bDue)
	}
	return aCreated.Before(bCreated)
}

// ScoreInputsFromTask builds ScoreInputs from a task and the priority of
// its project (0 when the task has no project).
func ScoreInputsFromTask(t *task.Task, projectPriority int) ScoreInputs {
	return ScoreInputs{
		Importance:      t.Importance(),
		Urgency:         t.Urgency(),
		EnergyLevel:     t.EnergyLevel(),
		InProgress:      t.Status() == task.StatusInProgress,
		DueDate:         t.DueDate(),
		ProjectPriority: projectPriority,
	}
}
