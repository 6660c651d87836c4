// Package strategy synthesizes execution options from the tool catalog and
// evaluates them against user constraints. Synthesis is pure: the same task,
// constraint and catalog always produce the same options.
package strategy

import "fmt"

// Priority names the dimension the user cares about most.
type Priority string

const (
	PriorityCost     Priority = "cost"
	PriorityQuality  Priority = "quality"
	PriorityTime     Priority = "time"
	PriorityBalanced Priority = "balanced"
)

// Dimension names a constrained dimension.
type Dimension string

const (
	DimensionBudget  Dimension = "budget"
	DimensionQuality Dimension = "quality"
	DimensionTime    Dimension = "time"
)

// PriorityFor maps a violated dimension to the priority that protects it.
func PriorityFor(d Dimension) Priority {
	switch d {
	case DimensionBudget:
		return PriorityCost
	case DimensionQuality:
		return PriorityQuality
	case DimensionTime:
		return PriorityTime
	}
	return PriorityBalanced
}

// Constraint holds the user's hard limits, soft targets and priority. Nil
// limits are undefined and never violated.
type Constraint struct {
	BudgetMax  *float64
	QualityMin *float64
	TimeMax    *float64 // seconds

	BudgetTarget  *float64
	QualityTarget *float64
	TimeTarget    *float64

	Priority    Priority
	PrioritySet bool // true once the user explicitly chose a priority
}

// DefaultConstraint returns an unconstrained, balanced-priority constraint.
func DefaultConstraint() Constraint {
	return Constraint{Priority: PriorityBalanced}
}

// Canonical option names.
const (
	NameBudget   = "Budget Optimized"
	NameBalanced = "Balanced"
	NameQuality  = "Quality Focused"
	NameSpeed    = "Speed Optimized"
	NameScope    = "Scope Reduction"
)

// Option is one candidate execution strategy with estimated outcomes.
type Option struct {
	Name        string
	Strategy    string
	Cost        float64 // dollars
	Quality     float64 // expected fraction of usable results, [0,1]
	TimeSeconds int
	Tools       []string
	Explanation string
	Recommended bool
	Volume      int // units this option processes
}

// Status classifies an option against the active constraint.
type Status string

const (
	StatusPass    Status = "pass"
	StatusPartial Status = "partial"
	StatusFail    Status = "fail"
)

// Violation reports one exceeded hard limit.
type Violation struct {
	Dimension Dimension
	Limit     float64
	Actual    float64
	DeltaPct  float64
}

// InvalidTaskVolumeError reports a task volume that cannot be synthesized.
type InvalidTaskVolumeError struct {
	Count int
}

func (e *InvalidTaskVolumeError) Error() string {
	return fmt.Sprintf("task volume must be at least 1, got %d", e.Count)
}
