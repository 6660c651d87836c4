package negotiation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"maestro/internal/catalog"
	"maestro/internal/execution"
	"maestro/internal/logging"
	"maestro/internal/preference"
	"maestro/internal/strategy"
	"maestro/internal/task"
)

// fakeCollab is a scripted collaborator for controller tests.
type fakeCollab struct {
	res     *execution.Result
	err     error
	gotOpt  strategy.Option
	called  int
}

func (f *fakeCollab) Execute(ctx context.Context, t task.Task, opt strategy.Option) (*execution.Result, error) {
	f.called++
	f.gotOpt = opt
	if f.err != nil {
		return nil, f.err
	}
	if f.res != nil {
		return f.res, nil
	}
	return &execution.Result{
		ActualCost:    opt.Cost,
		ActualQuality: opt.Quality,
		ActualTime:    opt.TimeSeconds,
		Succeeded:     opt.Volume,
		Processed:     opt.Volume,
	}, nil
}

func newController(collab execution.Collaborator, store preference.Store) *Controller {
	var prefs *preference.Model
	if store != nil {
		prefs = preference.NewModel(store)
	}
	return New(
		task.NewPatternInterpreter(),
		strategy.NewSynthesizer(catalog.Default()),
		prefs,
		collab,
		logging.New(),
	)
}

func utter(t *testing.T, c *Controller, text string) *Turn {
	t.Helper()
	turn, err := c.HandleUtterance(context.Background(), text)
	if err != nil {
		t.Fatalf("HandleUtterance(%q) failed: %v", text, err)
	}
	return turn
}

func TestTaskUtteranceRecommends(t *testing.T) {
	c := newController(&fakeCollab{}, nil)

	turn := utter(t, c, "Scrape 100 dive shop websites")
	if turn.Phase != PhaseAwaitingDecision {
		t.Fatalf("phase = %s, want awaiting_decision", turn.Phase)
	}
	if turn.Presentation == nil {
		t.Fatal("no presentation")
	}
	if turn.Presentation.ShowAll {
		t.Error("first presentation should be the single recommendation view")
	}

	rec := turn.Presentation.RecommendedOption()
	if rec.Option.Name != strategy.NameBalanced {
		t.Errorf("recommended = %s, want Balanced", rec.Option.Name)
	}
	if rec.Option.Cost != 0.18 {
		t.Errorf("recommended cost = %v, want 0.18", rec.Option.Cost)
	}
	if rec.Status != strategy.StatusPass {
		t.Errorf("recommended status = %s, want pass", rec.Status)
	}
	if c.State().Task.Parameters.Count != 100 {
		t.Errorf("task count = %d, want 100", c.State().Task.Parameters.Count)
	}
}

func TestBudgetAdjustmentTriggersScopeReduction(t *testing.T) {
	c := newController(&fakeCollab{}, nil)
	utter(t, c, "Scrape 100 dive shop websites")

	turn := utter(t, c, "do it for under $0.10")
	if turn.Phase != PhaseNegotiating {
		t.Fatalf("phase = %s, want negotiating", turn.Phase)
	}
	if !turn.Presentation.ShowAll {
		t.Error("renegotiation should show the full comparison")
	}
	if len(turn.Presentation.Options) != 5 {
		t.Fatalf("got %d options, want 5 with scope reduction", len(turn.Presentation.Options))
	}

	rec := turn.Presentation.RecommendedOption()
	if rec.Option.Name != strategy.NameScope {
		t.Errorf("recommended = %s, want Scope Reduction", rec.Option.Name)
	}
	if rec.Option.Volume != 55 {
		t.Errorf("scope volume = %d, want 55", rec.Option.Volume)
	}
	if rec.Option.Cost > 0.10+1e-9 {
		t.Errorf("scope cost %v exceeds the budget", rec.Option.Cost)
	}
}

func TestInvalidSelectionLeavesStateUntouched(t *testing.T) {
	c := newController(&fakeCollab{}, nil)
	utter(t, c, "Scrape 100 dive shop websites")
	before := len(c.State().Rounds)

	_, err := c.HandleUtterance(context.Background(), "option h")
	var invalid *InvalidSelectionError
	if !errors.As(err, &invalid) {
		t.Fatalf("want InvalidSelectionError, got %v", err)
	}
	if len(invalid.Valid) != 4 {
		t.Errorf("valid ids = %v, want 4 entries", invalid.Valid)
	}
	if c.Phase() != PhaseAwaitingDecision {
		t.Errorf("phase = %s, want awaiting_decision unchanged", c.Phase())
	}
	if len(c.State().Rounds) != before {
		t.Error("failed turn was recorded")
	}
}

func TestPreferenceHistoryAdvisesRecommendation(t *testing.T) {
	store := preference.NewMemoryStore()
	for i := 0; i < 3; i++ {
		store.Append(preference.Record{
			ID:       fmt.Sprintf("seed-%d", i),
			TaskType: "scraping",
			Relaxed:  string(strategy.DimensionBudget),
		})
	}

	c := newController(&fakeCollab{}, store)
	turn := utter(t, c, "Scrape 100 dive shop websites")

	rec := turn.Presentation.RecommendedOption()
	if rec.Option.Name != strategy.NameBudget {
		t.Errorf("recommended = %s, want Budget Optimized from history", rec.Option.Name)
	}
}

func TestExplicitPriorityOverridesHistory(t *testing.T) {
	store := preference.NewMemoryStore()
	for i := 0; i < 3; i++ {
		store.Append(preference.Record{
			ID:       fmt.Sprintf("seed-%d", i),
			TaskType: "scraping",
			Relaxed:  string(strategy.DimensionBudget),
		})
	}

	c := newController(&fakeCollab{}, store)
	utter(t, c, "Scrape 100 dive shop websites")
	turn := utter(t, c, "faster please")

	rec := turn.Presentation.RecommendedOption()
	if rec.Option.Name != strategy.NameSpeed {
		t.Errorf("recommended = %s, want Speed Optimized over history", rec.Option.Name)
	}
}

func TestAcceptExecutesAndRecordsPreference(t *testing.T) {
	collab := &fakeCollab{}
	store := preference.NewMemoryStore()
	c := newController(collab, store)

	utter(t, c, "Scrape 100 dive shop websites")
	turn := utter(t, c, "yes")

	if turn.Phase != PhaseComplete {
		t.Fatalf("phase = %s, want complete", turn.Phase)
	}
	if turn.Result == nil {
		t.Fatal("no execution result")
	}
	if collab.gotOpt.Name != strategy.NameBalanced {
		t.Errorf("executed %s, want the recommended Balanced", collab.gotOpt.Name)
	}

	all, _ := store.All()
	if len(all) != 1 {
		t.Fatalf("got %d preference records, want 1", len(all))
	}
	if all[0].Relaxed != preference.DimensionNone {
		t.Errorf("relaxed = %s, want none with no limits set", all[0].Relaxed)
	}
}

func TestPickExecutesNamedOption(t *testing.T) {
	collab := &fakeCollab{}
	c := newController(collab, nil)

	utter(t, c, "Scrape 100 dive shop websites")
	first := c.State().Current.Options[0].Option.Name
	turn := utter(t, c, "option a")

	if turn.Phase != PhaseComplete {
		t.Fatalf("phase = %s, want complete", turn.Phase)
	}
	if collab.gotOpt.Name != first {
		t.Errorf("executed %s, want option A (%s)", collab.gotOpt.Name, first)
	}
}

func TestCancelIsOneTransition(t *testing.T) {
	c := newController(&fakeCollab{}, nil)
	utter(t, c, "Scrape 100 dive shop websites")

	var transitions []Phase
	c.OnTransition = func(from, to Phase) {
		transitions = append(transitions, to)
	}

	turn := utter(t, c, "cancel")
	if turn.Phase != PhaseCancelled {
		t.Fatalf("phase = %s, want cancelled", turn.Phase)
	}
	if len(transitions) != 1 || transitions[0] != PhaseCancelled {
		t.Errorf("transitions = %v, want exactly [cancelled]", transitions)
	}
}

func TestCancelIsOneTransitionFromNegotiating(t *testing.T) {
	c := newController(&fakeCollab{}, nil)
	utter(t, c, "Scrape 100 dive shop websites")
	turn := utter(t, c, "do it for under $0.10")
	if turn.Phase != PhaseNegotiating {
		t.Fatalf("phase = %s, want negotiating before cancel", turn.Phase)
	}

	var transitions []Phase
	c.OnTransition = func(from, to Phase) {
		transitions = append(transitions, to)
	}

	turn = utter(t, c, "cancel")
	if turn.Phase != PhaseCancelled {
		t.Fatalf("phase = %s, want cancelled", turn.Phase)
	}
	if len(transitions) != 1 || transitions[0] != PhaseCancelled {
		t.Errorf("transitions = %v, want exactly [cancelled]", transitions)
	}
}

func TestCancelDuringExecution(t *testing.T) {
	collab := &fakeCollab{
		err: &execution.ExecutionError{
			Reason:  "cancelled",
			Partial: &execution.Result{Processed: 40, Succeeded: 37},
			Err:     context.Canceled,
		},
	}
	c := newController(collab, nil)
	utter(t, c, "Scrape 100 dive shop websites")

	turn := utter(t, c, "yes")
	if turn.Phase != PhaseCancelled {
		t.Fatalf("phase = %s, want cancelled", turn.Phase)
	}
	if turn.Failure == nil || turn.Failure.Partial.Processed != 40 {
		t.Error("partial progress lost on cancellation")
	}
}

func TestExecutionFailure(t *testing.T) {
	collab := &fakeCollab{
		err: &execution.ExecutionError{Reason: "success rate 38% below the 50% floor"},
	}
	store := preference.NewMemoryStore()
	c := newController(collab, store)

	utter(t, c, "Scrape 100 dive shop websites")
	turn := utter(t, c, "yes")

	if turn.Phase != PhaseFailed {
		t.Fatalf("phase = %s, want failed", turn.Phase)
	}
	if turn.Failure == nil {
		t.Fatal("no failure details")
	}

	// Failed runs record no preference.
	all, _ := store.All()
	if len(all) != 0 {
		t.Errorf("got %d preference records after failure, want 0", len(all))
	}
}

func TestTerminalPhaseResetsOnNextUtterance(t *testing.T) {
	c := newController(&fakeCollab{}, nil)
	utter(t, c, "Scrape 100 dive shop websites")
	firstSession := c.State().SessionID
	utter(t, c, "yes")

	turn := utter(t, c, "analyze 5000 rows of customer data")
	if turn.Phase != PhaseAwaitingDecision {
		t.Fatalf("phase = %s, want awaiting_decision for the fresh session", turn.Phase)
	}
	if c.State().SessionID == firstSession {
		t.Error("session not reset after a terminal phase")
	}
	if c.State().Task.Type != task.TypeAnalysis {
		t.Errorf("task type = %s, want analysis", c.State().Task.Type)
	}
}

func TestInvalidConstraintValues(t *testing.T) {
	c := newController(&fakeCollab{}, nil)
	utter(t, c, "Scrape 100 dive shop websites")

	for _, text := range []string{"$0", "0%"} {
		_, err := c.HandleUtterance(context.Background(), text)
		var invalid *InvalidConstraintValueError
		if !errors.As(err, &invalid) {
			t.Errorf("HandleUtterance(%q): want InvalidConstraintValueError, got %v", text, err)
		}
	}
	if c.Phase() != PhaseAwaitingDecision {
		t.Errorf("phase = %s, constraint errors must not advance the session", c.Phase())
	}
}

func TestScopeIntentShrinksTask(t *testing.T) {
	c := newController(&fakeCollab{}, nil)
	utter(t, c, "Scrape 100 dive shop websites")

	turn := utter(t, c, "only 40")
	if turn.Phase != PhaseNegotiating {
		t.Fatalf("phase = %s, want negotiating", turn.Phase)
	}
	if c.State().Task.Parameters.Count != 40 {
		t.Errorf("task count = %d, want 40", c.State().Task.Parameters.Count)
	}
	for _, ro := range turn.Presentation.Options {
		if ro.Option.Volume != 40 {
			t.Errorf("option %s volume = %d, want 40", ro.Option.Name, ro.Option.Volume)
		}
	}
}

func TestNewTaskMidSessionStartsOver(t *testing.T) {
	c := newController(&fakeCollab{}, nil)
	utter(t, c, "Scrape 100 dive shop websites")
	firstSession := c.State().SessionID

	turn := utter(t, c, "analyze 5000 rows of customer data")
	if turn.Phase != PhaseAwaitingDecision {
		t.Fatalf("phase = %s, want awaiting_decision", turn.Phase)
	}
	if c.State().SessionID == firstSession {
		t.Error("new task should start a fresh session")
	}
}

func TestQualityConstraintMarksViolations(t *testing.T) {
	c := newController(&fakeCollab{}, nil)
	utter(t, c, "Scrape 100 dive shop websites")

	turn := utter(t, c, "at least 90%")
	var budgetStatus strategy.Status
	for _, ro := range turn.Presentation.Options {
		if ro.Option.Name == strategy.NameBudget {
			budgetStatus = ro.Status
		}
	}
	// Budget option sits at 0.72 against a 0.90 floor, a 20% shortfall.
	if budgetStatus != strategy.StatusFail {
		t.Errorf("Budget status = %s, want fail under a 0.90 quality floor", budgetStatus)
	}
}
