// Package preference records the tradeoffs a user accepts at confirmation
// and advises future default recommendations from that history. Records are
// append-only; nothing is ever rewritten.
package preference

import (
	"time"

	"github.com/google/uuid"

	"maestro/internal/strategy"
)

// DimensionNone marks a confirmation with no violated or no protected
// dimension.
const DimensionNone = "none"

// Record captures one confirmed choice: which dimension the user let slip,
// by how much, and which defined limit the chosen option respected.
type Record struct {
	ID        string    `json:"id"`
	TaskType  string    `json:"task_type"`
	Relaxed   string    `json:"relaxed_dimension"`
	Protected string    `json:"protected_dimension"`
	DeltaPct  float64   `json:"delta_pct"`
	Timestamp time.Time `json:"timestamp"`
}

// Store persists preference records. Append must keep insertion order;
// Query returns records for a task type in that order.
type Store interface {
	Append(rec Record) error
	Query(taskType string) ([]Record, error)
	All() ([]Record, error)
}

// NewRecord builds a record from the violations of the confirmed option and
// the constraint in force at confirmation.
//
// Relaxed is the violated dimension with the largest overshoot. Protected is
// the first defined, satisfied dimension in budget, quality, time order.
func NewRecord(taskType string, violations []strategy.Violation, c strategy.Constraint, now time.Time) Record {
	rec := Record{
		ID:        uuid.New().String(),
		TaskType:  taskType,
		Relaxed:   DimensionNone,
		Protected: DimensionNone,
		Timestamp: now,
	}

	violated := make(map[strategy.Dimension]bool, len(violations))
	for _, v := range violations {
		violated[v.Dimension] = true
		if rec.Relaxed == DimensionNone || v.DeltaPct > rec.DeltaPct {
			rec.Relaxed = string(v.Dimension)
			rec.DeltaPct = v.DeltaPct
		}
	}

	type limit struct {
		dim     strategy.Dimension
		defined bool
	}
	for _, l := range []limit{
		{strategy.DimensionBudget, c.BudgetMax != nil},
		{strategy.DimensionQuality, c.QualityMin != nil},
		{strategy.DimensionTime, c.TimeMax != nil},
	} {
		if l.defined && !violated[l.dim] {
			rec.Protected = string(l.dim)
			break
		}
	}
	return rec
}
