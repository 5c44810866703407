package domain

import (
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// ExclusionReason explains why a task is reported but never scheduled.
type ExclusionReason string

const (
	ExclusionWaiting    ExclusionReason = "waiting"
	ExclusionParentTask ExclusionReason = "parent_task"
)

// BlockedReason explains why an otherwise-schedulable task is withheld
// pending a dependency.
type BlockedReason string

const (
	BlockedDependencyMissing    BlockedReason = "dependency_missing"
	BlockedDependencyUnresolved BlockedReason = "dependency_unresolved"
)

// AbortReason reports why the day packer stopped before finishing
// every scheduled task.
type AbortReason string

const (
	AbortDependencyCycle  AbortReason = "dependency_cycle"
	AbortMaxDaysExceeded  AbortReason = "max_days_exceeded"
)

// ExcludedTask is a task reported but never scheduled.
type ExcludedTask struct {
	TaskID uuid.UUID
	Reason ExclusionReason
}

// BlockedTask is a candidate withheld by an unresolved dependency.
type BlockedTask struct {
	TaskID       uuid.UUID
	DependencyID uuid.UUID
	Reason       BlockedReason
}

// Classification is the dependency classifier's output: the task set partitioned into the
// buckets the rest of the pipeline needs.
type Classification struct {
	Scheduled []*task.Task
	Done      []*task.Task
	Excluded  []ExcludedTask
	Blocked   []BlockedTask
}

// Classify partitions tasks into excluded (waiting or a parent task),
// done, blocked (dependency missing or unresolved), and scheduled
// (everything else).
func Classify(tasks []*task.Task) Classification {
	byID := make(map[uuid.UUID]*task.Task, len(tasks))
	isParent := make(map[uuid.UUID]bool)
	for _, t := range tasks {
		byID[t.ID()] = t
		if t.ParentID() != nil {
			isParent[*t.ParentID()] = true
		}
	}

	var result Classification
	candidateBase := make(map[uuid.UUID]*task.Task)

	for _, t := range tasks {
		switch {
		case t.Status() == task.StatusArchived:
			continue
		case t.Status() == task.StatusDone:
			result.Done = append(result.Done, t)
		case t.Status() == task.StatusWaiting:
			result.Excluded = append(result.Excluded, ExcludedTask{TaskID: t.ID(), Reason: ExclusionWaiting})
		case isParent[t.ID()]:
			result.Excluded = append(result.Excluded, ExcludedTask{TaskID: t.ID(), Reason: ExclusionParentTask})
		default:
			candidateBase[t.ID()] = t
		}
	}

	blockedIDs := make(map[uuid.UUID]bool)
	for _, t := range candidateBase {
		for _, depID := range t.DependencyIDs() {
			dep, ok := byID[depID]
			switch {
			case !ok:
				result.Blocked = append(result.Blocked, BlockedTask{TaskID: t.ID(), DependencyID: depID, Reason: BlockedDependencyMissing})
				blockedIDs[t.ID()] = true
			case dep.Status() == task.StatusDone:
				// satisfied, no edge needed
			case candidateBase[depID] != nil:
				// dependency will itself be scheduled; DAG edge handles ordering
			default:
				result.Blocked = append(result.Blocked, BlockedTask{TaskID: t.ID(), DependencyID: depID, Reason: BlockedDependencyUnresolved})
				blockedIDs[t.ID()] = true
			}
		}
	}

	for id, t := range candidateBase {
		if !blockedIDs[id] {
			result.Scheduled = append(result.Scheduled, t)
		}
	}

	return result
}

// GraphNode tracks one scheduled task's dependency state.
type GraphNode struct {
	TaskID     uuid.UUID
	Indegree   int
	Dependents []uuid.UUID
}

// TaskGraph is the dependency DAG over the scheduled task set.
type TaskGraph struct {
	Nodes map[uuid.UUID]*GraphNode
}

// BuildGraph constructs the DAG over scheduled tasks. Edges run
// dependency -> dependent; edges pointing outside the scheduled set are
// dropped, since those dependencies are already satisfied (DONE).
func BuildGraph(scheduled []*task.Task) *TaskGraph {
	g := &TaskGraph{Nodes: make(map[uuid.UUID]*GraphNode, len(scheduled))}
	scheduledSet := make(map[uuid.UUID]bool, len(scheduled))
	for _, t := range scheduled {
		scheduledSet[t.ID()] = true
		g.Nodes[t.ID()] = &GraphNode{TaskID: t.ID()}
	}
	for _, t := range scheduled {
		for _, depID := range t.DependencyIDs() {
			if !scheduledSet[depID] {
				continue
			}
			g.Nodes[depID].Dependents = append(g.Nodes[depID].Dependents, t.ID())
			g.Nodes[t.ID()].Indegree++
		}
	}
	return g
}

// Ready returns the ids of every node with indegree 0.
func (g *TaskGraph) Ready() []uuid.UUID {
	var ready []uuid.UUID
	for id, node := range g.Nodes {
		if node.Indegree == 0 {
			ready = append(ready, id)
		}
	}
	return ready
}

// Release decrements the indegree of taskID's dependents and returns
// those that newly reached indegree 0.
func (g *TaskGraph) Release(taskID uuid.UUID) []uuid.UUID {
	node, ok := g.Nodes[taskID]
	if !ok {
		return nil
	}
	var freed []uuid.UUID
	for _, depID := range node.Dependents {
		dependent := g.Nodes[depID]
		dependent.Indegree--
		if dependent.Indegree == 0 {
			freed = append(freed, depID)
		}
	}
	return freed
}
