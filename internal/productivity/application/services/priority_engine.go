package services

import (
	"fmt"
	"math"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
)

// DueBonusHorizonDays bounds the linear due-date interpolation window.
const DueBonusHorizonDays = 14.0

// MaxDueBonus is the bonus applied to a task due today or earlier.
const MaxDueBonus = 30.0

// DefaultProjectPriority is used when a task carries no project, or the
// project carries no explicit priority.
const DefaultProjectPriority = 5

// PrioritySignals contains the attributes that influence a task's score.
type PrioritySignals struct {
	Importance      value_objects.Importance
	Urgency         value_objects.Urgency
	EnergyLevel     value_objects.EnergyLevel
	InProgress      bool
	DueDate         *time.Time
	ProjectPriority int // 0..10, defaults to DefaultProjectPriority
}

// PriorityEngine computes scheduling priority scores from task signals.
//
// The base score rewards importance more than urgency (importance weight
// *10, urgency weight *8), gives a small nudge to work already in
// progress and to low-energy tasks (which are easier to slot into any
// remaining capacity), then scales the result by the owning project's
// priority and adds a due-date urgency bonus that rises linearly as the
// due date approaches, capped at MaxDueBonus for anything due today or
// overdue.
type PriorityEngine struct{}

// NewPriorityEngine creates a new scoring engine.
func NewPriorityEngine() *PriorityEngine {
	return &PriorityEngine{}
}

// Score computes a score and human-readable explanation for the provided signals.
func (e *PriorityEngine) Score(signals PrioritySignals) (float64, string) {
	importanceScore := float64(signals.Importance.Weight()) * 10
	urgencyScore := float64(signals.Urgency.Weight()) * 8

	inProgressBonus := 0.0
	if signals.InProgress {
		inProgressBonus = 2
	}

	energyBonus := 0.0
	if signals.EnergyLevel == value_objects.EnergyLow {
		energyBonus = 1
	}

	base := importanceScore + urgencyScore + inProgressBonus + energyBonus

	projectPriority := signals.ProjectPriority
	if projectPriority == 0 {
		projectPriority = DefaultProjectPriority
	}
	scaled := base * (1 + float64(projectPriority)*0.05)

	dueBonus := e.dueBonus(signals.DueDate)

	score := math.Round((scaled+dueBonus)*100) / 100

	explanation := fmt.Sprintf(
		"importance=%.1f urgency=%.1f in_progress=%.1f energy=%.1f project_scale=x%.2f due_bonus=%.1f",
		importanceScore, urgencyScore, inProgressBonus, energyBonus,
		1+float64(projectPriority)*0.05, dueBonus,
	)

	return score, explanation
}

// dueBonus rises linearly from 0 (14+ days out) to MaxDueBonus (due today
// or overdue) over DueBonusHorizonDays.
func (e *PriorityEngine) dueBonus(due *time.Time) float64 {
	if due == nil {
		return 0
	}
	now := time.Now()
	daysRemaining := due.Sub(now).Hours() / 24
	if daysRemaining <= 0 {
		return MaxDueBonus
	}
	if daysRemaining >= DueBonusHorizonDays {
		return 0
	}
	fraction := (DueBonusHorizonDays - daysRemaining) / DueBonusHorizonDays
	return MaxDueBonus * fraction
}
