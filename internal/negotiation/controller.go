package negotiation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"maestro/internal/execution"
	"maestro/internal/logging"
	"maestro/internal/preference"
	"maestro/internal/strategy"
	"maestro/internal/task"
)

// Round records one utterance and the phase it left the session in.
type Round struct {
	Utterance string
	Phase     Phase
	Timestamp time.Time
}

// State is the controller's per-session snapshot.
type State struct {
	SessionID  string
	Task       *task.Task
	Constraint strategy.Constraint
	Current    *Presentation
	Selected   *strategy.Option
	Phase      Phase
	Rounds     []Round
}

// Turn is what one utterance produced: the resulting phase and whatever
// should be rendered for it.
type Turn struct {
	Phase        Phase
	Presentation *Presentation
	Message      string
	Selected     *strategy.Option
	Result       *execution.Result
	Failure      *execution.ExecutionError
}

// Controller owns the negotiation state machine. It is single-session and
// not safe for concurrent use; callers drive it one utterance at a time.
type Controller struct {
	interp task.Interpreter
	synth  *strategy.Synthesizer
	prefs  *preference.Model
	collab execution.Collaborator
	log    *logging.Logger

	// OnTransition observes phase changes, mainly for display hooks.
	OnTransition func(from, to Phase)

	state *State
}

// New creates a Controller. prefs may be nil to disable preference advice.
func New(interp task.Interpreter, synth *strategy.Synthesizer, prefs *preference.Model, collab execution.Collaborator, log *logging.Logger) *Controller {
	return &Controller{
		interp: interp,
		synth:  synth,
		prefs:  prefs,
		collab: collab,
		log:    log.WithComponent("negotiation"),
	}
}

// State exposes the live session state, nil before the first task.
func (c *Controller) State() *State {
	return c.state
}

// Phase returns the current phase, PhaseInitial when no session exists.
func (c *Controller) Phase() Phase {
	if c.state == nil {
		return PhaseInitial
	}
	return c.state.Phase
}

// HandleUtterance advances the session by one user turn. Recoverable
// problems (ambiguous input, bad values, bad selections) come back as errors
// with the session state untouched; the returned Turn is nil in that case.
func (c *Controller) HandleUtterance(ctx context.Context, text string) (*Turn, error) {
	if c.state != nil && c.state.Phase.Terminal() {
		c.state = nil
	}

	var active *task.Task
	if c.state != nil {
		active = c.state.Task
	}

	res, err := c.interp.Interpret(text, active)
	if err != nil {
		return nil, err
	}

	var turn *Turn
	if res.Task != nil {
		turn, err = c.startSession(*res.Task)
	} else {
		c.log.WithSession(c.state.SessionID).IntentResolved(string(res.Intent.Kind))
		turn, err = c.handleIntent(ctx, res.Intent)
	}
	if err != nil {
		return nil, err
	}

	c.state.Rounds = append(c.state.Rounds, Round{
		Utterance: text,
		Phase:     c.state.Phase,
		Timestamp: time.Now().UTC(),
	})
	return turn, nil
}

// startSession begins a fresh session around an interpreted task. Any
// session in progress is abandoned; a new task means a new negotiation.
func (c *Controller) startSession(t task.Task) (*Turn, error) {
	constraint := strategy.DefaultConstraint()
	options, err := c.synthesize(t, constraint)
	if err != nil {
		return nil, err
	}

	c.state = &State{
		SessionID:  uuid.New().String(),
		Task:       &t,
		Constraint: constraint,
		Phase:      PhaseInitial,
	}
	log := c.log.WithSession(c.state.SessionID)
	log.TaskInterpreted(string(t.Type), t.Parameters.Count)

	c.transition(PhaseRecommending)
	c.state.Current = rate(options, constraint, false)
	log.OptionsSynthesized(len(options), c.state.Current.RecommendedOption().Option.Name)
	c.transition(PhaseAwaitingDecision)

	return &Turn{
		Phase:        c.state.Phase,
		Presentation: c.state.Current,
		Message:      taskSummary(t),
	}, nil
}

// handleIntent applies a decision or adjustment intent to the live session.
func (c *Controller) handleIntent(ctx context.Context, in *task.Intent) (*Turn, error) {
	switch in.Kind {
	case task.IntentCancel:
		c.transition(PhaseCancelled)
		return &Turn{Phase: PhaseCancelled, Message: "Cancelled. Nothing was executed."}, nil

	case task.IntentAccept:
		sel := c.state.Current.RecommendedOption().Option
		return c.confirmAndExecute(ctx, sel)

	case task.IntentPick:
		ro, ok := c.state.Current.ByID(in.OptionID)
		if !ok {
			return nil, &InvalidSelectionError{ID: in.OptionID, Valid: c.state.Current.ValidIDs()}
		}
		return c.confirmAndExecute(ctx, ro.Option)

	case task.IntentShowOptions:
		return c.renegotiate(true)

	case task.IntentSetBudget:
		if !in.HasValue || in.Value <= 0 {
			return nil, &InvalidConstraintValueError{Field: "budget", Value: in.Value, Reason: "must be a positive dollar amount"}
		}
		v := in.Value
		c.state.Constraint.BudgetMax = &v
		return c.renegotiate(true)

	case task.IntentSetQuality:
		if !in.HasValue || in.Value <= 0 || in.Value > 1 {
			return nil, &InvalidConstraintValueError{Field: "quality", Value: in.Value, Reason: "must be between 0 and 1"}
		}
		v := in.Value
		c.state.Constraint.QualityMin = &v
		return c.renegotiate(true)

	case task.IntentSetTime:
		if !in.HasValue || in.Value <= 0 {
			return nil, &InvalidConstraintValueError{Field: "time", Value: in.Value, Reason: "must be a positive number of seconds"}
		}
		v := in.Value
		c.state.Constraint.TimeMax = &v
		return c.renegotiate(true)

	case task.IntentPrioritize:
		p := strategy.Priority(in.Priority)
		switch p {
		case strategy.PriorityCost, strategy.PriorityQuality, strategy.PriorityTime, strategy.PriorityBalanced:
		default:
			return nil, &InvalidConstraintValueError{Field: "priority", Reason: "must be cost, quality, time or balanced"}
		}
		c.state.Constraint.Priority = p
		c.state.Constraint.PrioritySet = true
		return c.renegotiate(true)

	case task.IntentReduceScope:
		if in.Count < 1 {
			return nil, &InvalidConstraintValueError{Field: "scope", Value: float64(in.Count), Reason: "must process at least 1 unit"}
		}
		derived := c.state.Task.WithCount(in.Count)
		c.state.Task = &derived
		return c.renegotiate(true)
	}

	return c.renegotiate(true)
}

// renegotiate re-synthesizes the option set under the current constraint
// and task, moving the session into Negotiating.
func (c *Controller) renegotiate(showAll bool) (*Turn, error) {
	options, err := c.synthesize(*c.state.Task, c.state.Constraint)
	if err != nil {
		return nil, err
	}
	if c.state.Phase != PhaseNegotiating {
		c.transition(PhaseNegotiating)
	}
	c.state.Current = rate(options, c.state.Constraint, showAll)
	c.log.WithSession(c.state.SessionID).OptionsSynthesized(len(options), c.state.Current.RecommendedOption().Option.Name)
	return &Turn{Phase: c.state.Phase, Presentation: c.state.Current}, nil
}

// synthesize runs the synthesizer with preference advice applied. Advice
// only flows when the user never chose a priority themselves.
func (c *Controller) synthesize(t task.Task, constraint strategy.Constraint) ([]strategy.Option, error) {
	var advised strategy.Priority
	if c.prefs != nil && !constraint.PrioritySet {
		if p, ok := c.prefs.PredictDefaultPriority(string(t.Type)); ok {
			advised = p
		}
	}
	return c.synth.Synthesize(t, constraint, advised)
}

// confirmAndExecute locks in a selection, hands it to the collaborator and
// settles the session in a terminal phase.
func (c *Controller) confirmAndExecute(ctx context.Context, sel strategy.Option) (*Turn, error) {
	c.state.Selected = &sel
	c.transition(PhaseConfirmed)

	// Snapshot the accepted tradeoff before execution mutates nothing but
	// time: this is what the preference model learns from.
	_, violations := strategy.Evaluate(sel, c.state.Constraint)
	constraintSnapshot := c.state.Constraint

	c.transition(PhaseExecuting)
	res, err := c.collab.Execute(ctx, *c.state.Task, sel)
	if err != nil {
		var execErr *execution.ExecutionError
		if !errors.As(err, &execErr) {
			execErr = &execution.ExecutionError{Reason: err.Error(), Err: err}
		}
		if errors.Is(execErr.Err, context.Canceled) {
			c.transition(PhaseCancelled)
			return &Turn{Phase: PhaseCancelled, Selected: &sel, Failure: execErr, Message: "Execution cancelled."}, nil
		}
		c.transition(PhaseFailed)
		return &Turn{Phase: PhaseFailed, Selected: &sel, Failure: execErr}, nil
	}

	c.transition(PhaseComplete)
	if c.prefs != nil {
		rec, err := c.prefs.RecordChoice(string(c.state.Task.Type), violations, constraintSnapshot)
		if err != nil {
			c.log.WithSession(c.state.SessionID).Warn("preference_record_failed", map[string]interface{}{"error": err.Error()})
		} else {
			c.log.WithSession(c.state.SessionID).PreferenceRecorded(rec.TaskType, rec.Relaxed)
		}
	}

	return &Turn{Phase: PhaseComplete, Selected: &sel, Result: res}, nil
}

// transition moves the session to a new phase, logging and notifying.
func (c *Controller) transition(to Phase) {
	from := c.state.Phase
	c.state.Phase = to
	c.log.WithSession(c.state.SessionID).Transition(string(from), string(to))
	if c.OnTransition != nil {
		c.OnTransition(from, to)
	}
}

// taskSummary phrases the interpreted task back to the user.
func taskSummary(t task.Task) string {
	switch t.Type {
	case task.TypeScraping:
		subject := t.Parameters.Domain
		if subject == "" {
			subject = "websites"
		}
		return fmt.Sprintf("Understood: scrape %d %s sites.", t.Parameters.Count, subject)
	case task.TypeAnalysis:
		subject := t.Parameters.Source
		if subject == "" {
			subject = "your data"
		}
		return fmt.Sprintf("Understood: analyze %d rows of %s.", t.Parameters.Count, subject)
	case task.TypeAPI:
		subject := t.Parameters.Source
		if subject == "" {
			subject = "external"
		}
		return fmt.Sprintf("Understood: call %d %s endpoints.", t.Parameters.Count, subject)
	}
	return "Understood."
}
