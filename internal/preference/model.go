package preference

import (
	"fmt"
	"time"

	"maestro/internal/strategy"
)

// minRecords is how much history a task type needs before the model offers
// a prediction.
const minRecords = 3

// Model advises default recommendations from recorded history.
type Model struct {
	store Store
}

// NewModel creates a Model over the given store.
func NewModel(store Store) *Model {
	return &Model{store: store}
}

// RecordChoice appends a record for a confirmed option.
func (m *Model) RecordChoice(taskType string, violations []strategy.Violation, c strategy.Constraint) (Record, error) {
	rec := NewRecord(taskType, violations, c, time.Now().UTC())
	if err := m.store.Append(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// PredictDefaultPriority suggests the priority whose dimension the user most
// often relaxes for this task type. A user who repeatedly accepts budget
// overruns is telling us cost limits matter less than the work itself, so the
// cost-lean option becomes the default suggestion.
//
// No prediction is made below minRecords of history, or when no relaxed
// dimension holds a strict majority. Majority ties break toward the dimension
// relaxed most recently.
func (m *Model) PredictDefaultPriority(taskType string) (strategy.Priority, bool) {
	records, err := m.store.Query(taskType)
	if err != nil || len(records) < minRecords {
		return "", false
	}

	counts := make(map[string]int)
	lastSeen := make(map[string]int)
	relaxedTotal := 0
	for i, rec := range records {
		if rec.Relaxed == DimensionNone {
			continue
		}
		counts[rec.Relaxed]++
		lastSeen[rec.Relaxed] = i
		relaxedTotal++
	}
	if relaxedTotal == 0 {
		return "", false
	}

	best := ""
	for dim, n := range counts {
		switch {
		case best == "" || n > counts[best]:
			best = dim
		case n == counts[best] && lastSeen[dim] > lastSeen[best]:
			best = dim
		}
	}
	if counts[best]*2 <= len(records) {
		return "", false
	}
	return strategy.PriorityFor(strategy.Dimension(best)), true
}

// Summary aggregates the full history for the history command.
type Summary struct {
	Total      int
	ByRelaxed  map[string]int
	ByTaskType map[string]int
	Patterns   []string
}

// Summarize builds a Summary over all recorded choices.
func (m *Model) Summarize() (Summary, error) {
	records, err := m.store.All()
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Total:      len(records),
		ByRelaxed:  make(map[string]int),
		ByTaskType: make(map[string]int),
	}
	for _, rec := range records {
		s.ByRelaxed[rec.Relaxed]++
		s.ByTaskType[rec.TaskType]++
	}
	if s.Total == 0 {
		return s, nil
	}

	for _, p := range []struct{ dim, label string }{
		{string(strategy.DimensionBudget), "budget overruns"},
		{string(strategy.DimensionQuality), "quality shortfalls"},
		{string(strategy.DimensionTime), "time overruns"},
	} {
		if s.ByRelaxed[p.dim]*2 > s.Total {
			s.Patterns = append(s.Patterns, fmt.Sprintf("Tends to accept %s", p.label))
		}
	}
	if s.ByRelaxed[DimensionNone]*2 > s.Total {
		s.Patterns = append(s.Patterns, "Usually confirms options within limits")
	}
	return s, nil
}
