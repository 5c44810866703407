package domain

import (
	sharedDomain "github.com/mugi0227/nagi-scheduler/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "DailySchedulePlan"

	RoutingKeyPlanGenerated  = "core.schedule.plan_generated"
	RoutingKeyBlockMoved     = "core.schedule.block_moved"
	RoutingKeyHeartbeatRaised = "core.schedule.heartbeat_raised"
)

// PlanGenerated is emitted once per (user, date) row produced by a
// generation (day packing, time-block construction, and fingerprinting).
type PlanGenerated struct {
	sharedDomain.BaseEvent
	PlanGroupID uuid.UUID `json:"plan_group_id"`
	PlanDate    string    `json:"plan_date"`
}

// NewPlanGenerated creates a PlanGenerated event.
func NewPlanGenerated(planID, planGroupID uuid.UUID, planDate string) PlanGenerated {
	return PlanGenerated{
		BaseEvent:   sharedDomain.NewBaseEvent(planID, AggregateType, RoutingKeyPlanGenerated),
		PlanGroupID: planGroupID,
		PlanDate:    planDate,
	}
}

// BlockMoved is emitted when a command moves or resizes a time block.
type BlockMoved struct {
	sharedDomain.BaseEvent
	TaskID   uuid.UUID `json:"task_id"`
	FromDate string    `json:"from_date"`
	ToDate   string    `json:"to_date"`
}

// NewBlockMoved creates a BlockMoved event.
func NewBlockMoved(planID, taskID uuid.UUID, fromDate, toDate string) BlockMoved {
	return BlockMoved{
		BaseEvent: sharedDomain.NewBaseEvent(planID, AggregateType, RoutingKeyBlockMoved),
		TaskID:    taskID,
		FromDate:  fromDate,
		ToDate:    toDate,
	}
}

// HeartbeatRaised describes a task whose at-risk severity meets the
// notification threshold. The periodic driver reports such tasks through
// its HeartbeatNotifier and does not raise this event.
type HeartbeatRaised struct {
	sharedDomain.BaseEvent
	TaskID   uuid.UUID `json:"task_id"`
	Severity string    `json:"severity"`
	Score    float64   `json:"score"`
}

// NewHeartbeatRaised creates a HeartbeatRaised event.
func NewHeartbeatRaised(taskID uuid.UUID, severity string, score float64) HeartbeatRaised {
	return HeartbeatRaised{
		BaseEvent: sharedDomain.NewBaseEvent(taskID, AggregateType, RoutingKeyHeartbeatRaised),
		TaskID:    taskID,
		Severity:  severity,
		Score:     score,
	}
}
