package syncer

import (
	"PromptKeeper/internal/engine"
	"PromptKeeper/internal/model"
)

// State of the orchestrator. Transitions are strictly
// Idle -> Fetching -> Deciding -> Executing -> Idle, with Failed as a
// terminal marker of the last run visible through State().
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateDeciding
	StateExecuting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateDeciding:
		return "deciding"
	case StateExecuting:
		return "executing"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome of a single sync run, suitable for direct display.
type Result struct {
	Success   bool
	Action    engine.Action
	Strategy  engine.Strategy
	Reason    string
	Counts    model.Counts
	Conflicts []model.ConflictResolution
	Message   string
	Errors    []string
}
