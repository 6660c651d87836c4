package strategy

import "math"

// failThresholdPct is the violation size past which an option stops being a
// near miss and fails outright.
const failThresholdPct = 10.0

// Evaluate checks an option against the constraint's hard limits and returns
// the overall status plus every violation. An option with no violations
// passes; violations all under the threshold make it partial; any violation
// at or past the threshold fails it.
func Evaluate(opt Option, c Constraint) (Status, []Violation) {
	var violations []Violation

	if c.BudgetMax != nil && opt.Cost > *c.BudgetMax {
		violations = append(violations, Violation{
			Dimension: DimensionBudget,
			Limit:     *c.BudgetMax,
			Actual:    opt.Cost,
			DeltaPct:  round1((opt.Cost / *c.BudgetMax - 1) * 100),
		})
	}
	if c.QualityMin != nil && opt.Quality < *c.QualityMin {
		violations = append(violations, Violation{
			Dimension: DimensionQuality,
			Limit:     *c.QualityMin,
			Actual:    opt.Quality,
			DeltaPct:  round1((1 - opt.Quality / *c.QualityMin) * 100),
		})
	}
	if c.TimeMax != nil && float64(opt.TimeSeconds) > *c.TimeMax {
		violations = append(violations, Violation{
			Dimension: DimensionTime,
			Limit:     *c.TimeMax,
			Actual:    float64(opt.TimeSeconds),
			DeltaPct:  round1((float64(opt.TimeSeconds) / *c.TimeMax - 1) * 100),
		})
	}

	if len(violations) == 0 {
		return StatusPass, nil
	}
	for _, v := range violations {
		if v.DeltaPct >= failThresholdPct {
			return StatusFail, violations
		}
	}
	return StatusPartial, violations
}

// Advisories reports soft targets an option misses. Targets never affect
// status; they only annotate the presentation.
func Advisories(opt Option, c Constraint) []string {
	var notes []string
	if c.BudgetTarget != nil && opt.Cost > *c.BudgetTarget {
		notes = append(notes, "above cost target")
	}
	if c.QualityTarget != nil && opt.Quality < *c.QualityTarget {
		notes = append(notes, "below quality target")
	}
	if c.TimeTarget != nil && float64(opt.TimeSeconds) > *c.TimeTarget {
		notes = append(notes, "above time target")
	}
	return notes
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
