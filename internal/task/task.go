// Package task interprets user utterances into structured tasks and
// negotiation intents. Two interpreter implementations exist behind one
// interface: a deterministic pattern interpreter and a model-backed one.
package task

import (
	"fmt"
	"strings"
)

// Type classifies a task into one of the supported families.
type Type string

const (
	TypeScraping Type = "scraping"
	TypeAnalysis Type = "analysis"
	TypeAPI      Type = "api"
)

// Parameters holds the structured details extracted from an utterance.
type Parameters struct {
	Count        int    `json:"count"`
	Domain       string `json:"domain,omitempty"`        // scraping: what kind of sites
	Target       string `json:"target,omitempty"`        // scraping/api: what data to get
	Source       string `json:"source,omitempty"`        // analysis/api: what to read from
	AnalysisType string `json:"analysis_type,omitempty"` // analysis: what to find
}

// Task is an interpreted unit of work.
type Task struct {
	Type        Type       `json:"type"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// WithCount returns a copy of the task at a reduced volume. Tasks are
// treated as immutable once interpreted; scope changes derive new values.
func (t Task) WithCount(n int) Task {
	t.Parameters.Count = n
	return t
}

// IntentKind identifies what the user wants to do next.
type IntentKind string

const (
	IntentAccept      IntentKind = "accept"
	IntentShowOptions IntentKind = "show_options"
	IntentSetBudget   IntentKind = "set_budget"
	IntentSetQuality  IntentKind = "set_quality_min"
	IntentSetTime     IntentKind = "set_time_max"
	IntentPrioritize  IntentKind = "prioritize"
	IntentPick        IntentKind = "pick"
	IntentReduceScope IntentKind = "reduce_scope"
	IntentCancel      IntentKind = "cancel"
)

// Intent is a parsed user decision or adjustment.
type Intent struct {
	Kind     IntentKind
	Value    float64 // dollars, quality fraction, or seconds
	HasValue bool
	OptionID string // pick: option label, e.g. "B"
	Priority string // prioritize: cost|quality|time|balanced
	Count    int    // reduce_scope: new volume
}

// Result is the outcome of interpreting one utterance. Exactly one of
// Task or Intent is set.
type Result struct {
	Task   *Task
	Intent *Intent
}

// Interpreter turns an utterance into a Result. When active is non-nil an
// ongoing negotiation exists and the utterance may be an adjustment
// against it; when nil only a fresh task is acceptable.
type Interpreter interface {
	Interpret(utterance string, active *Task) (Result, error)
}

// AmbiguousTaskError reports an utterance that matches more than one task
// family with equal strength.
type AmbiguousTaskError struct {
	Utterance  string
	Candidates []Type
}

func (e *AmbiguousTaskError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = string(c)
	}
	return fmt.Sprintf("utterance is ambiguous between %s task types", strings.Join(names, " and "))
}

// UnsupportedTaskTypeError reports an utterance that matches no task family.
type UnsupportedTaskTypeError struct {
	Utterance string
}

func (e *UnsupportedTaskTypeError) Error() string {
	return "utterance does not describe a supported task (scraping, analysis, or api)"
}
