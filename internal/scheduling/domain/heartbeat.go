package domain

import (
	"math"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
)

// HeartbeatSeverity classifies how at-risk a task is of missing its
// due date, per the periodic driver's heartbeat check.
type HeartbeatSeverity string

const (
	HeartbeatCritical HeartbeatSeverity = "CRITICAL"
	HeartbeatHigh     HeartbeatSeverity = "HIGH"
	HeartbeatMedium   HeartbeatSeverity = "MEDIUM"
	HeartbeatLow      HeartbeatSeverity = "LOW"
)

// heartbeatImportanceWeight is a distinct scale from the day packer's scoring
// weights (3/2/1): the heartbeat risk score amplifies importance more
// aggressively, carried over from the source's task_heartbeat_service
// weight table.
var heartbeatImportanceWeight = map[value_objects.Importance]float64{
	value_objects.ImportanceHigh:   16,
	value_objects.ImportanceMedium: 8,
	value_objects.ImportanceLow:    4,
}

// HeartbeatInput carries the signals used to evaluate one task's risk.
type HeartbeatInput struct {
	TaskID               uuid.UUID
	Importance            value_objects.Importance
	RemainingMinutes      int
	DailyCapacityMinutes  int // a representative daily capacity, used to estimate required days
	DueDate               *time.Time
	StartNotBefore        *time.Time
	UpdatedAt             time.Time
	HasEstimate           bool
	Now                   time.Time
}

// HeartbeatResult is the outcome of evaluating one task.
type HeartbeatResult struct {
	TaskID   uuid.UUID
	Score    float64
	Severity HeartbeatSeverity
	Slack    float64
}

// isSameDayTask reports whether a task's start_not_before and due_date
// fall on the same calendar day — such tasks are always excluded from
// risk evaluation.
func isSameDayTask(in HeartbeatInput) bool {
	if in.StartNotBefore == nil || in.DueDate == nil {
		return false
	}
	s, d := *in.StartNotBefore, *in.DueDate
	return s.Year() == d.Year() && s.Month() == d.Month() && s.Day() == d.Day()
}

// EvaluateHeartbeat computes a task's risk score and severity. The
// second return is false when the task is excluded outright (a
// same-day task).
func EvaluateHeartbeat(in HeartbeatInput) (HeartbeatResult, bool) {
	if isSameDayTask(in) {
		return HeartbeatResult{}, false
	}

	requiredDays := requiredDaysByCapacity(in.RemainingMinutes, in.DailyCapacityMinutes)
	daysUntilDue := math.Inf(1)
	if in.DueDate != nil {
		daysUntilDue = in.DueDate.Sub(in.Now).Hours() / 24
	}
	slack := daysUntilDue - requiredDays

	score := heartbeatImportanceWeight[in.Importance]
	score += timePressureComponent(slack)
	score += stalenessComponent(in.Now.Sub(in.UpdatedAt).Hours() / 24)
	if !in.HasEstimate {
		score += 5
	}
	if in.DueDate != nil && in.DueDate.Before(in.Now) {
		score += 15
	}

	return HeartbeatResult{
		TaskID:   in.TaskID,
		Score:    score,
		Severity: severityFromSlack(slack),
		Slack:    slack,
	}, true
}

func requiredDaysByCapacity(remainingMinutes, dailyCapacityMinutes int) float64 {
	if dailyCapacityMinutes <= 0 {
		return math.Inf(1)
	}
	return math.Ceil(float64(remainingMinutes) / float64(dailyCapacityMinutes))
}

func timePressureComponent(slack float64) float64 {
	switch {
	case slack < 0:
		return 20
	case slack <= 1:
		return 12
	case slack <= 3:
		return 6
	default:
		return 0
	}
}

func stalenessComponent(daysSinceUpdate float64) float64 {
	switch {
	case daysSinceUpdate >= 14:
		return 10
	case daysSinceUpdate >= 7:
		return 5
	case daysSinceUpdate >= 3:
		return 2
	default:
		return 0
	}
}

func severityFromSlack(slack float64) HeartbeatSeverity {
	switch {
	case slack < 0:
		return HeartbeatCritical
	case slack <= 1:
		return HeartbeatHigh
	case slack <= 3:
		return HeartbeatMedium
	default:
		return HeartbeatLow
	}
}
