package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"maestro/internal/logging"
	"maestro/internal/strategy"
	"maestro/internal/task"
)

// phase is one stage of a simulated run.
type phase struct {
	name     string
	units    int
	failRate float64
}

// Simulator is a mock collaborator. It walks tool-derived phases, draws
// per-unit success from a seedable RNG, and writes a structured result file.
type Simulator struct {
	OutputDir string
	Delay     time.Duration // per-unit pause, zero in tests
	OnPhase   PhaseFunc

	rng *rand.Rand
	log *logging.Logger
}

// NewSimulator creates a Simulator writing result files to outputDir.
// A zero seed derives one from the clock.
func NewSimulator(outputDir string, seed int64, log *logging.Logger) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		OutputDir: outputDir,
		rng:       rand.New(rand.NewSource(seed)),
		log:       log.WithComponent("execution"),
	}
}

// Execute implements Collaborator.
func (s *Simulator) Execute(ctx context.Context, t task.Task, opt strategy.Option) (*Result, error) {
	start := time.Now()
	ctx, span := startExecutionSpan(ctx, opt)
	s.log.ExecutionStart(opt.Name)

	var succeeded, processed int
	partial := func() *Result {
		return &Result{
			ActualCost:    round2(float64(processed) / float64(max(opt.Volume, 1)) * opt.Cost),
			ActualQuality: ratio(succeeded, processed),
			ActualTime:    int(time.Since(start).Seconds()),
			Succeeded:     succeeded,
			Processed:     processed,
		}
	}

	for _, ph := range s.buildPhases(opt) {
		phCtx, phSpan := startPhaseSpan(ctx, ph.name, ph.units)
		phaseSucceeded := 0
		for i := 0; i < ph.units; i++ {
			if err := phCtx.Err(); err != nil {
				execErr := &ExecutionError{Reason: "cancelled", Partial: partial(), Err: err}
				endPhaseSpan(phSpan, phaseSucceeded, execErr)
				endExecutionSpan(span, execErr.Partial, execErr)
				s.log.ExecutionComplete(opt.Name, time.Since(start), "cancelled")
				return nil, execErr
			}
			if s.Delay > 0 {
				time.Sleep(s.Delay)
			}
			if s.rng.Float64() > ph.failRate {
				succeeded++
				phaseSucceeded++
			}
			processed++
			if s.OnPhase != nil {
				s.OnPhase(ph.name, i+1, ph.units)
			}
		}
		endPhaseSpan(phSpan, phaseSucceeded, nil)
	}

	// Estimates carry variance; actuals land near but not on them.
	variance := 1.0 + s.rng.NormFloat64()*0.05
	if variance < 0.85 {
		variance = 0.85
	}
	res := &Result{
		ActualCost:    round2(opt.Cost * variance),
		ActualQuality: ratio(succeeded, processed),
		ActualTime:    int(float64(opt.TimeSeconds) * (0.85 + s.rng.Float64()*0.3)),
		Succeeded:     succeeded,
		Processed:     processed,
	}

	if res.ActualQuality < 0.5 {
		execErr := &ExecutionError{
			Reason:  fmt.Sprintf("success rate %.0f%% below the 50%% floor", res.ActualQuality*100),
			Partial: res,
		}
		endExecutionSpan(span, res, execErr)
		s.log.ExecutionComplete(opt.Name, time.Since(start), "failed")
		return nil, execErr
	}

	if s.OutputDir != "" {
		path, err := s.writeResults(t, opt, res)
		if err != nil {
			s.log.Warn("result_write_failed", map[string]interface{}{"error": err.Error()})
		} else {
			res.OutputFile = path
		}
	}

	endExecutionSpan(span, res, nil)
	s.log.ExecutionComplete(opt.Name, time.Since(start), "complete")
	return res, nil
}

// buildPhases derives execution phases from the option's tool list.
func (s *Simulator) buildPhases(opt strategy.Option) []phase {
	count := opt.Volume
	tools := make(map[string]bool, len(opt.Tools))
	for _, t := range opt.Tools {
		tools[t] = true
	}

	var phases []phase
	switch {
	case tools["scrapy"] && tools["playwright"]:
		scrapyCount := count * 85 / 100
		phases = append(phases,
			phase{fmt.Sprintf("Crawling with Scrapy (%d pages)", scrapyCount), scrapyCount, 0.03},
			phase{fmt.Sprintf("Rendering JS pages with Playwright (%d pages)", count - scrapyCount), count - scrapyCount, 0.05},
		)
	case tools["scrapy"]:
		phases = append(phases, phase{fmt.Sprintf("Crawling with Scrapy (%d pages)", count), count, 0.15})
	case tools["pandas"]:
		phases = append(phases, phase{fmt.Sprintf("Processing with pandas (%d rows)", count), count, 0.02})
	case tools["polars"]:
		phases = append(phases, phase{fmt.Sprintf("Processing with polars (%d rows)", count), count, 0.02})
	case tools["requests"]:
		phases = append(phases, phase{fmt.Sprintf("Calling APIs with requests (%d endpoints)", count), count, 0.08})
	case tools["httpx"]:
		phases = append(phases, phase{fmt.Sprintf("Calling APIs with httpx (%d endpoints)", count), count, 0.05})
	}

	model := "DeepSeek"
	if tools["claude"] {
		model = "Claude"
	}
	phases = append(phases, phase{fmt.Sprintf("Extracting with %s (%d units)", model, count), count, 0.08})
	return phases
}

// writeResults writes a structured JSON result file and returns its path.
func (s *Simulator) writeResults(t task.Task, opt strategy.Option, res *Result) (string, error) {
	if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
		return "", err
	}

	subject := t.Parameters.Domain
	if subject == "" {
		subject = t.Parameters.Source
	}
	if subject == "" {
		subject = "items"
	}
	target := t.Parameters.Target
	if target == "" {
		target = "data"
	}

	type item struct {
		URL       string            `json:"url"`
		Status    string            `json:"status"`
		Extracted map[string]string `json:"extracted"`
	}
	items := make([]item, 0, res.Succeeded)
	slug := strings.ReplaceAll(subject, " ", "-")
	for i := 1; i <= res.Succeeded; i++ {
		items = append(items, item{
			URL:    fmt.Sprintf("https://example-%s-%d.com", slug, i),
			Status: "success",
			Extracted: map[string]string{
				"name": fmt.Sprintf("Sample %s #%d", subject, i),
				target: fmt.Sprintf("Sample %s data for item %d", target, i),
			},
		})
	}

	payload := map[string]interface{}{
		"meta": map[string]interface{}{
			"task":      t.Description,
			"strategy":  opt.Strategy,
			"tools":     opt.Tools,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
		"summary": map[string]interface{}{
			"total_requested": opt.Volume,
			"total_processed": res.Processed,
			"total_succeeded": res.Succeeded,
			"success_rate":    res.ActualQuality,
			"actual_cost_usd": res.ActualCost,
		},
		"results": items,
	}

	name := fmt.Sprintf("maestro_results_%s.json", time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(s.OutputDir, name)
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return round2(float64(a) / float64(b))
}

func round2(x float64) float64 {
	return float64(int(x*100+0.5)) / 100
}
