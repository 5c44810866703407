package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// canonicalTaskFields is the fixed, ordered field set that affects
// scheduling. Struct field order is JSON key order here, so this type
// IS the canonical key order drift detection relies on; any new
// scheduling-relevant field on task.Task must be added here or drift
// detection silently breaks.
type canonicalTaskFields struct {
	EstimatedMinutes *int       `json:"estimated_minutes"`
	DueDate          *time.Time `json:"due_date"`
	StartNotBefore   *time.Time `json:"start_not_before"`
	PinnedDate       *time.Time `json:"pinned_date"`
	ParentID         *uuid.UUID `json:"parent_id"`
	DependencyIDs    []string   `json:"dependency_ids"`
	Importance       string     `json:"importance"`
	Urgency          string     `json:"urgency"`
	EnergyLevel      string     `json:"energy_level"`
	IsFixedTime      bool       `json:"is_fixed_time"`
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	Status           string     `json:"status"`
}

// TaskFingerprint computes a fingerprint for t: a canonical JSON
// serialisation of its scheduling-relevant fields, hashed with SHA-256
// and hex-encoded.
func TaskFingerprint(t *task.Task) string {
	deps := make([]string, len(t.DependencyIDs()))
	for i, id := range t.DependencyIDs() {
		deps[i] = id.String()
	}
	sort.Strings(deps)

	fields := canonicalTaskFields{
		EstimatedMinutes: t.EstimatedMinutes(),
		DueDate:          t.DueDate(),
		StartNotBefore:   t.StartNotBefore(),
		PinnedDate:       t.PinnedDate(),
		ParentID:         t.ParentID(),
		DependencyIDs:    deps,
		Importance:       t.Importance().String(),
		Urgency:          t.Urgency().String(),
		EnergyLevel:      t.EnergyLevel().String(),
		IsFixedTime:      t.IsFixedTime(),
		StartTime:        t.StartTime(),
		EndTime:          t.EndTime(),
		Status:           t.Status().String(),
	}

	return hashJSON(fields)
}

// canonicalPlanParams mirrors PlanParams in a fixed, ordered shape for
// hashing.
type canonicalPlanParams struct {
	StartDate             string          `json:"start_date"`
	MaxDays               int             `json:"max_days"`
	FilterByAssignee      bool            `json:"filter_by_assignee"`
	WeeklyWorkHours       [7]WorkdayHours `json:"weekly_work_hours"`
	BufferHours           float64         `json:"buffer_hours"`
	BreakAfterTaskMinutes int             `json:"break_after_task_minutes"`
}

// PlanParamsFingerprint computes the fingerprint for the
// materialisation parameters of a generation request.
func PlanParamsFingerprint(params PlanParams) string {
	fields := canonicalPlanParams{
		StartDate:             params.StartDate.Format("2006-01-02"),
		MaxDays:               params.MaxDays,
		FilterByAssignee:      params.FilterByAssignee,
		WeeklyWorkHours:       params.WeeklyWorkHours,
		BufferHours:           params.BufferHours,
		BreakAfterTaskMinutes: params.BreakAfterTaskMinutes,
	}
	return hashJSON(fields)
}

func hashJSON(v interface{}) string {
	// json.Marshal on a struct is deterministic: keys follow field
	// declaration order, not map iteration order.
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
