package task

import (
	"errors"
	"testing"
)

func TestClassifyScraping(t *testing.T) {
	tests := []struct {
		utterance string
		count     int
		domain    string
	}{
		{"Scrape 100 dive shop websites", 100, "dive shop"},
		{"crawl 25 restaurant pages", 25, "restaurant"},
		{"scrape product listing sites", 50, "product listing"},
		{"Scrape 1,000 e-commerce sites", 1000, ""},
	}

	interp := NewPatternInterpreter()
	for _, tt := range tests {
		res, err := interp.Interpret(tt.utterance, nil)
		if err != nil {
			t.Fatalf("Interpret(%q) failed: %v", tt.utterance, err)
		}
		if res.Task == nil {
			t.Fatalf("Interpret(%q): no task", tt.utterance)
		}
		if res.Task.Type != TypeScraping {
			t.Errorf("Interpret(%q): type = %s, want scraping", tt.utterance, res.Task.Type)
		}
		if res.Task.Parameters.Count != tt.count {
			t.Errorf("Interpret(%q): count = %d, want %d", tt.utterance, res.Task.Parameters.Count, tt.count)
		}
		if tt.domain != "" && res.Task.Parameters.Domain != tt.domain {
			t.Errorf("Interpret(%q): domain = %q, want %q", tt.utterance, res.Task.Parameters.Domain, tt.domain)
		}
	}
}

func TestClassifyAnalysis(t *testing.T) {
	tests := []struct {
		utterance string
		count     int
	}{
		{"analyze 5000 rows of customer data", 5000},
		{"process the sales records for trends", 1000},
		{"summarize 200 entries of survey data", 200},
	}

	interp := NewPatternInterpreter()
	for _, tt := range tests {
		res, err := interp.Interpret(tt.utterance, nil)
		if err != nil {
			t.Fatalf("Interpret(%q) failed: %v", tt.utterance, err)
		}
		if res.Task == nil || res.Task.Type != TypeAnalysis {
			t.Fatalf("Interpret(%q): want analysis task, got %+v", tt.utterance, res.Task)
		}
		if res.Task.Parameters.Count != tt.count {
			t.Errorf("Interpret(%q): count = %d, want %d", tt.utterance, res.Task.Parameters.Count, tt.count)
		}
	}
}

func TestClassifyAPI(t *testing.T) {
	interp := NewPatternInterpreter()
	res, err := interp.Interpret("call 30 hotel booking APIs for pricing", nil)
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if res.Task == nil || res.Task.Type != TypeAPI {
		t.Fatalf("want api task, got %+v", res.Task)
	}
	if res.Task.Parameters.Count != 30 {
		t.Errorf("count = %d, want 30", res.Task.Parameters.Count)
	}
}

func TestClassifyAPIDefaultCount(t *testing.T) {
	interp := NewPatternInterpreter()
	res, err := interp.Interpret("query the weather endpoints", nil)
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if res.Task == nil || res.Task.Type != TypeAPI {
		t.Fatalf("want api task, got %+v", res.Task)
	}
	if res.Task.Parameters.Count != defaultAPICount {
		t.Errorf("count = %d, want %d", res.Task.Parameters.Count, defaultAPICount)
	}
}

func TestClassifyAmbiguousScrapeAPI(t *testing.T) {
	interp := NewPatternInterpreter()
	_, err := interp.Interpret("scrape 20 APIs", nil)

	var ambiguous *AmbiguousTaskError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("want AmbiguousTaskError, got %v", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Fatalf("candidates = %v, want 2", ambiguous.Candidates)
	}
	if ambiguous.Candidates[0] != TypeScraping || ambiguous.Candidates[1] != TypeAPI {
		t.Errorf("candidates = %v, want [scraping api]", ambiguous.Candidates)
	}
}

func TestClassifyAmbiguousScrapeAnalysis(t *testing.T) {
	interp := NewPatternInterpreter()
	_, err := interp.Interpret("crawl and summarize the customer data", nil)

	var ambiguous *AmbiguousTaskError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("want AmbiguousTaskError, got %v", err)
	}
	if ambiguous.Candidates[0] != TypeScraping || ambiguous.Candidates[1] != TypeAnalysis {
		t.Errorf("candidates = %v, want [scraping analysis]", ambiguous.Candidates)
	}
}

func TestClassifyGenericExtractWithAnalysisIsAnalysis(t *testing.T) {
	interp := NewPatternInterpreter()
	res, err := interp.Interpret("extract and analyze trends from the sales data", nil)
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if res.Task == nil || res.Task.Type != TypeAnalysis {
		t.Fatalf("want analysis task, got %+v", res.Task)
	}
}

func TestClassifyUnsupported(t *testing.T) {
	interp := NewPatternInterpreter()
	_, err := interp.Interpret("write me a poem about the sea", nil)

	var unsupported *UnsupportedTaskTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("want UnsupportedTaskTypeError, got %v", err)
	}
}

func TestParseIntentDecisions(t *testing.T) {
	tests := []struct {
		utterance string
		kind      IntentKind
	}{
		{"yes", IntentAccept},
		{"go", IntentAccept},
		{"proceed", IntentAccept},
		{"cancel", IntentCancel},
		{"no", IntentCancel},
		{"quit", IntentCancel},
		{"show options", IntentShowOptions},
		{"compare them", IntentShowOptions},
	}

	interp := NewPatternInterpreter()
	active := &Task{Type: TypeScraping, Parameters: Parameters{Count: 100}}
	for _, tt := range tests {
		res, err := interp.Interpret(tt.utterance, active)
		if err != nil {
			t.Fatalf("Interpret(%q) failed: %v", tt.utterance, err)
		}
		if res.Intent == nil {
			t.Fatalf("Interpret(%q): no intent", tt.utterance)
		}
		if res.Intent.Kind != tt.kind {
			t.Errorf("Interpret(%q): kind = %s, want %s", tt.utterance, res.Intent.Kind, tt.kind)
		}
	}
}

func TestParseIntentAdjustments(t *testing.T) {
	tests := []struct {
		utterance string
		kind      IntentKind
		value     float64
		count     int
	}{
		{"do it for under $0.10", IntentSetBudget, 0.10, 0},
		{"$5", IntentSetBudget, 5, 0},
		{"at least 90%", IntentSetQuality, 0.90, 0},
		{"95%", IntentSetQuality, 0.95, 0},
		{"within 5 minutes", IntentSetTime, 300, 0},
		{"under 45 seconds", IntentSetTime, 45, 0},
		{"only 55", IntentReduceScope, 0, 55},
		{"just 20 of them", IntentReduceScope, 0, 20},
		// A numeric token wins over a comparison keyword.
		{"compare under $5", IntentSetBudget, 5, 0},
		// A trailing percent makes it a quality floor, not a volume.
		{"only 50%", IntentSetQuality, 0.50, 0},
	}

	interp := NewPatternInterpreter()
	active := &Task{Type: TypeScraping, Parameters: Parameters{Count: 100}}
	for _, tt := range tests {
		res, err := interp.Interpret(tt.utterance, active)
		if err != nil {
			t.Fatalf("Interpret(%q) failed: %v", tt.utterance, err)
		}
		if res.Intent == nil {
			t.Fatalf("Interpret(%q): no intent", tt.utterance)
		}
		if res.Intent.Kind != tt.kind {
			t.Errorf("Interpret(%q): kind = %s, want %s", tt.utterance, res.Intent.Kind, tt.kind)
			continue
		}
		if tt.kind == IntentReduceScope {
			if res.Intent.Count != tt.count {
				t.Errorf("Interpret(%q): count = %d, want %d", tt.utterance, res.Intent.Count, tt.count)
			}
		} else if res.Intent.Value != tt.value {
			t.Errorf("Interpret(%q): value = %v, want %v", tt.utterance, res.Intent.Value, tt.value)
		}
	}
}

func TestParseIntentPick(t *testing.T) {
	tests := []struct {
		utterance string
		id        string
	}{
		{"a", "A"},
		{"option b", "B"},
		{"pick C", "C"},
		{"2", "B"},
		{"take 1", "A"},
	}

	interp := NewPatternInterpreter()
	active := &Task{Type: TypeScraping, Parameters: Parameters{Count: 100}}
	for _, tt := range tests {
		res, err := interp.Interpret(tt.utterance, active)
		if err != nil {
			t.Fatalf("Interpret(%q) failed: %v", tt.utterance, err)
		}
		if res.Intent == nil || res.Intent.Kind != IntentPick {
			t.Fatalf("Interpret(%q): want pick intent, got %+v", tt.utterance, res.Intent)
		}
		if res.Intent.OptionID != tt.id {
			t.Errorf("Interpret(%q): id = %s, want %s", tt.utterance, res.Intent.OptionID, tt.id)
		}
	}
}

func TestParseIntentPriorities(t *testing.T) {
	tests := []struct {
		utterance string
		priority  string
	}{
		{"make it cheaper", "cost"},
		{"I need better quality", "quality"},
		{"faster please", "time"},
		{"go back to balanced", "balanced"},
	}

	interp := NewPatternInterpreter()
	active := &Task{Type: TypeScraping, Parameters: Parameters{Count: 100}}
	for _, tt := range tests {
		res, err := interp.Interpret(tt.utterance, active)
		if err != nil {
			t.Fatalf("Interpret(%q) failed: %v", tt.utterance, err)
		}
		if res.Intent == nil || res.Intent.Kind != IntentPrioritize {
			t.Fatalf("Interpret(%q): want prioritize intent, got %+v", tt.utterance, res.Intent)
		}
		if res.Intent.Priority != tt.priority {
			t.Errorf("Interpret(%q): priority = %s, want %s", tt.utterance, res.Intent.Priority, tt.priority)
		}
	}
}

func TestNewTaskMidSession(t *testing.T) {
	interp := NewPatternInterpreter()
	active := &Task{Type: TypeScraping, Parameters: Parameters{Count: 100}}

	res, err := interp.Interpret("analyze 5000 rows of customer data", active)
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if res.Task == nil {
		t.Fatal("want a fresh task, got intent")
	}
	if res.Task.Type != TypeAnalysis {
		t.Errorf("type = %s, want analysis", res.Task.Type)
	}
}

func TestUnparseableMidSessionDefaultsToShowOptions(t *testing.T) {
	interp := NewPatternInterpreter()
	active := &Task{Type: TypeScraping, Parameters: Parameters{Count: 100}}

	res, err := interp.Interpret("hmm what do you think", active)
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if res.Intent == nil || res.Intent.Kind != IntentShowOptions {
		t.Fatalf("want show_options fallback, got %+v", res)
	}
}

func TestCommaSeparatedCounts(t *testing.T) {
	interp := NewPatternInterpreter()
	res, err := interp.Interpret("analyze 10,000 rows of sensor data", nil)
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if res.Task.Parameters.Count != 10000 {
		t.Errorf("count = %d, want 10000", res.Task.Parameters.Count)
	}
}

func TestWithCountDerivesNewTask(t *testing.T) {
	orig := Task{Type: TypeScraping, Parameters: Parameters{Count: 100, Domain: "dive shop"}}
	derived := orig.WithCount(55)

	if derived.Parameters.Count != 55 {
		t.Errorf("derived count = %d, want 55", derived.Parameters.Count)
	}
	if orig.Parameters.Count != 100 {
		t.Errorf("original count mutated to %d", orig.Parameters.Count)
	}
	if derived.Parameters.Domain != "dive shop" {
		t.Errorf("domain not carried: %q", derived.Parameters.Domain)
	}
}
