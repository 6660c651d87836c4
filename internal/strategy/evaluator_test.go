package strategy

import "testing"

func ptr(v float64) *float64 { return &v }

func TestEvaluatePassWithoutLimits(t *testing.T) {
	status, violations := Evaluate(Option{Cost: 100, Quality: 0.1, TimeSeconds: 9999}, DefaultConstraint())
	if status != StatusPass {
		t.Errorf("status = %s, want pass", status)
	}
	if violations != nil {
		t.Errorf("violations = %v, want none", violations)
	}
}

func TestEvaluateBudgetViolation(t *testing.T) {
	c := DefaultConstraint()
	c.BudgetMax = ptr(0.10)

	status, violations := Evaluate(Option{Cost: 0.12, Quality: 0.72}, c)
	if status != StatusFail {
		t.Errorf("status = %s, want fail", status)
	}
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	v := violations[0]
	if v.Dimension != DimensionBudget {
		t.Errorf("dimension = %s, want budget", v.Dimension)
	}
	if v.DeltaPct != 20 {
		t.Errorf("delta = %v, want 20", v.DeltaPct)
	}
}

func TestEvaluatePartialUnderThreshold(t *testing.T) {
	c := DefaultConstraint()
	c.BudgetMax = ptr(1.00)

	status, violations := Evaluate(Option{Cost: 1.05}, c)
	if status != StatusPartial {
		t.Errorf("status = %s, want partial", status)
	}
	if violations[0].DeltaPct != 5 {
		t.Errorf("delta = %v, want 5", violations[0].DeltaPct)
	}
}

func TestEvaluateFailAtExactThreshold(t *testing.T) {
	c := DefaultConstraint()
	c.BudgetMax = ptr(1.00)

	status, _ := Evaluate(Option{Cost: 1.10}, c)
	if status != StatusFail {
		t.Errorf("status = %s, want fail at the 10%% boundary", status)
	}
}

func TestEvaluateQualityShortfall(t *testing.T) {
	c := DefaultConstraint()
	c.QualityMin = ptr(0.90)

	status, violations := Evaluate(Option{Quality: 0.72}, c)
	if status != StatusFail {
		t.Errorf("status = %s, want fail", status)
	}
	if violations[0].Dimension != DimensionQuality {
		t.Errorf("dimension = %s, want quality", violations[0].Dimension)
	}
	if violations[0].DeltaPct != 20 {
		t.Errorf("delta = %v, want 20", violations[0].DeltaPct)
	}

	status, violations = Evaluate(Option{Quality: 0.84}, c)
	if status != StatusPartial {
		t.Errorf("status = %s, want partial", status)
	}
	if violations[0].DeltaPct != 6.7 {
		t.Errorf("delta = %v, want 6.7", violations[0].DeltaPct)
	}
}

func TestEvaluateTimeViolation(t *testing.T) {
	c := DefaultConstraint()
	c.TimeMax = ptr(30.0)

	status, violations := Evaluate(Option{TimeSeconds: 39}, c)
	if status != StatusFail {
		t.Errorf("status = %s, want fail", status)
	}
	if violations[0].Dimension != DimensionTime {
		t.Errorf("dimension = %s, want time", violations[0].Dimension)
	}
	if violations[0].DeltaPct != 30 {
		t.Errorf("delta = %v, want 30", violations[0].DeltaPct)
	}
}

func TestEvaluateMultipleViolationsWorstDecides(t *testing.T) {
	c := DefaultConstraint()
	c.BudgetMax = ptr(1.00)
	c.TimeMax = ptr(100.0)

	// Budget slips 5%, time blows through the threshold.
	status, violations := Evaluate(Option{Cost: 1.05, TimeSeconds: 150}, c)
	if status != StatusFail {
		t.Errorf("status = %s, want fail", status)
	}
	if len(violations) != 2 {
		t.Errorf("got %d violations, want 2", len(violations))
	}
}

func TestAdvisories(t *testing.T) {
	c := DefaultConstraint()
	c.BudgetTarget = ptr(0.15)
	c.QualityTarget = ptr(0.90)

	notes := Advisories(Option{Cost: 0.18, Quality: 0.84}, c)
	if len(notes) != 2 {
		t.Fatalf("got %d advisories, want 2", len(notes))
	}

	// Targets never affect status.
	status, _ := Evaluate(Option{Cost: 0.18, Quality: 0.84}, c)
	if status != StatusPass {
		t.Errorf("status = %s, want pass with only soft targets", status)
	}
}
