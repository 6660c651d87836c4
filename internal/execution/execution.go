// Package execution defines the collaborator contract the negotiation
// controller hands confirmed strategies to, plus a simulated collaborator
// for development and demos.
package execution

import (
	"context"
	"fmt"

	"maestro/internal/strategy"
	"maestro/internal/task"
)

// Result reports what an execution actually cost and produced.
type Result struct {
	ActualCost    float64 `json:"actual_cost"`
	ActualQuality float64 `json:"actual_quality"`
	ActualTime    int     `json:"actual_time_seconds"`
	Succeeded     int     `json:"succeeded"`
	Processed     int     `json:"processed"`
	OutputFile    string  `json:"output_file,omitempty"`
}

// ExecutionError reports a failed or interrupted execution. Partial holds
// whatever was completed before the failure, and may be nil.
type ExecutionError struct {
	Reason  string
	Partial *Result
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("execution failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("execution failed: %s", e.Reason)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Collaborator executes a confirmed option for a task. Implementations run
// synchronously and honor ctx cancellation; on failure they return an
// *ExecutionError.
type Collaborator interface {
	Execute(ctx context.Context, t task.Task, opt strategy.Option) (*Result, error)
}

// PhaseFunc observes simulated execution progress. done and total count
// units within the named phase.
type PhaseFunc func(phase string, done, total int)
