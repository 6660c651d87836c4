package strategy

import (
	"fmt"
	"math"
	"sort"

	"maestro/internal/catalog"
	"maestro/internal/task"
)

// Synthesizer generates options for a task from catalog pricing.
type Synthesizer struct {
	catalog *catalog.Catalog
}

// NewSynthesizer creates a Synthesizer reading from the given catalog.
func NewSynthesizer(cat *catalog.Catalog) *Synthesizer {
	return &Synthesizer{catalog: cat}
}

// family captures the per-task-type synthesis machinery: the four baseline
// options at full volume, a builder for the balanced strategy at a reduced
// volume, and the balanced per-unit rates scope reduction divides by.
type family struct {
	baselines   []Option
	balancedAt  func(n int) Option
	unitCost    float64
	unitSeconds float64
	minUseful   int
	unitNoun    string
}

// Synthesize produces the full option set for a task under a constraint.
// advised carries the preference model's suggestion and only matters when
// the user has not chosen a priority themselves.
func (s *Synthesizer) Synthesize(t task.Task, c Constraint, advised Priority) ([]Option, error) {
	if t.Parameters.Count < 1 {
		return nil, &InvalidTaskVolumeError{Count: t.Parameters.Count}
	}

	var fam family
	switch t.Type {
	case task.TypeAnalysis:
		fam = s.analysisFamily(t)
	case task.TypeAPI:
		fam = s.apiFamily(t)
	case task.TypeScraping:
		fam = s.scrapingFamily(t)
	default:
		return nil, fmt.Errorf("unknown task type %q", t.Type)
	}

	options := fam.baselines
	if scope, ok := s.scopeReduction(t, c, fam); ok {
		options = append(options, scope)
	}

	orderOptions(options, c.Priority)
	markRecommended(options, c, advised)
	return options, nil
}

// scrapingFamily builds the scraping option set.
//
// Budget and Speed crawl with scrapy alone; Balanced and Quality add a
// playwright fallback for the JavaScript fraction scrapy cannot render.
// DeepSeek extracts for everything but the Quality option, which pays for
// Claude.
func (s *Synthesizer) scrapingFamily(t task.Task) family {
	count := t.Parameters.Count
	n := float64(count)

	scrapy := s.catalog.MustTool("scrapy")
	playwright := s.catalog.MustTool("playwright")
	deepseek := s.catalog.MustTool("deepseek")
	claude := s.catalog.MustTool("claude")

	dsCost := deepseek.LLMPageCost()
	clCost := claude.LLMPageCost()
	jsFraction := 1 - scrapy.SuccessRate

	dsExtract := ceilDiv(n, deepseek.PagesPerSecond)
	clExtract := ceilDiv(n, claude.PagesPerSecond)
	scrapyTime := ceilDiv(n*scrapy.SuccessRate, scrapy.PagesPerSecond)
	pwTime := ceilDiv(n*jsFraction, playwright.PagesPerSecond)

	budget := Option{
		Name:        NameBudget,
		Strategy:    "Scrapy-only crawling + DeepSeek extraction",
		Cost:        round2(n * (scrapy.CostPerPage + dsCost)),
		Quality:     round2(scrapy.SuccessRate * deepseek.Quality),
		TimeSeconds: ceilDiv(n, scrapy.PagesPerSecond) + dsExtract,
		Tools:       []string{"scrapy", "deepseek"},
		Volume:      count,
		Explanation: fmt.Sprintf(
			"Scrapy handles crawling (free) and DeepSeek extracts data ($%.4f/page). "+
				"No JavaScript rendering, so JS-heavy sites fail and reduce the success rate.",
			dsCost),
	}

	balancedQuality := round2(scrapy.SuccessRate*deepseek.Quality + jsFraction*playwright.SuccessRate*deepseek.Quality)
	balancedAt := func(n int) Option {
		nf := float64(n)
		return Option{
			Name:        NameBalanced,
			Strategy:    "Scrapy + Playwright fallback + DeepSeek extraction",
			Cost:        round2(nf * (scrapy.CostPerPage + jsFraction*playwright.CostPerPage + dsCost)),
			Quality:     balancedQuality,
			TimeSeconds: ceilDiv(nf*scrapy.SuccessRate, scrapy.PagesPerSecond) + ceilDiv(nf*jsFraction, playwright.PagesPerSecond) + ceilDiv(nf, deepseek.PagesPerSecond),
			Tools:       []string{"scrapy", "playwright", "deepseek"},
			Volume:      n,
			Explanation: fmt.Sprintf(
				"Scrapy crawls first (free, handles ~%.0f%% of sites). Playwright renders "+
					"JavaScript-heavy sites as fallback (~$%.3f/page for ~%.0f%% of sites). "+
					"DeepSeek extracts structured data from all pages.",
				scrapy.SuccessRate*100, playwright.CostPerPage, jsFraction*100),
		}
	}

	quality := Option{
		Name:        NameQuality,
		Strategy:    "Scrapy + Playwright fallback + Claude extraction",
		Cost:        round2(n * (scrapy.CostPerPage + jsFraction*playwright.CostPerPage + clCost)),
		Quality:     round2(scrapy.SuccessRate*claude.Quality + jsFraction*playwright.SuccessRate*claude.Quality),
		TimeSeconds: scrapyTime + pwTime + clExtract,
		Tools:       []string{"scrapy", "playwright", "claude"},
		Volume:      count,
		Explanation: fmt.Sprintf(
			"Same crawling strategy as Balanced, but uses Claude for extraction "+
				"($%.4f/page vs $%.4f/page). Significantly better at understanding "+
				"complex page layouts and extracting nuanced data.",
			clCost, dsCost),
	}

	speed := Option{
		Name:        NameSpeed,
		Strategy:    "Parallel Scrapy (3 workers) + DeepSeek extraction",
		Cost:        round2(n * (scrapy.CostPerPage + dsCost)),
		Quality:     round2(scrapy.SuccessRate * deepseek.Quality),
		TimeSeconds: ceilDiv(n, scrapy.PagesPerSecond*3) + dsExtract,
		Tools:       []string{"scrapy", "deepseek"},
		Volume:      count,
		Explanation: "Runs 3 parallel Scrapy workers for maximum throughput. " +
			"No Playwright fallback, trading JS-heavy site coverage for speed. " +
			"Same extraction cost as Budget (DeepSeek).",
	}

	return family{
		baselines:   []Option{budget, balancedAt(count), quality, speed},
		balancedAt:  balancedAt,
		unitCost:    scrapy.CostPerPage + jsFraction*playwright.CostPerPage + dsCost,
		unitSeconds: scrapy.SuccessRate/scrapy.PagesPerSecond + jsFraction/playwright.PagesPerSecond + 1/deepseek.PagesPerSecond,
		minUseful:   5,
		unitNoun:    "sites",
	}
}

// Analysis batching assumptions: 50 rows per model batch, ~200 input and
// ~100 output tokens per batch.
const (
	rowsPerBatch          = 50
	inputTokensPerBatch   = 200
	outputTokensPerBatch  = 100
	analysisBatchesPer1k  = 1000 / rowsPerBatch
)

func llmCostPer1kRows(spec catalog.ToolSpec) float64 {
	in := float64(inputTokensPerBatch*analysisBatchesPer1k) / 1e6 * spec.CostPerMillionInput
	out := float64(outputTokensPerBatch*analysisBatchesPer1k) / 1e6 * spec.CostPerMillionOutput
	return in + out
}

// analysisFamily builds the analysis option set. Local processing is free;
// the model doing the insight pass is the cost driver.
func (s *Synthesizer) analysisFamily(t task.Task) family {
	count := t.Parameters.Count
	n := float64(count)

	pandas := s.catalog.MustTool("pandas")
	polars := s.catalog.MustTool("polars")
	deepseek := s.catalog.MustTool("deepseek")
	claude := s.catalog.MustTool("claude")

	dsCost1k := llmCostPer1kRows(deepseek)
	clCost1k := llmCostPer1kRows(claude)
	rowUnits := n / 1000

	dsAnalysis := ceilDiv(n, deepseek.PagesPerSecond*rowsPerBatch)
	clAnalysis := ceilDiv(n, claude.PagesPerSecond*rowsPerBatch)
	polarsTime := ceilDiv(n, polars.RowsPerSecond)

	budget := Option{
		Name:        NameBudget,
		Strategy:    "pandas processing + DeepSeek analysis",
		Cost:        round2(rowUnits * dsCost1k),
		Quality:     round2(pandas.Quality * deepseek.Quality),
		TimeSeconds: ceilDiv(n, pandas.RowsPerSecond) + dsAnalysis,
		Tools:       []string{"pandas", "deepseek"},
		Volume:      count,
		Explanation: fmt.Sprintf(
			"pandas processes data locally (free) and DeepSeek generates insights "+
				"($%.4f/1k rows). Reliable for standard tabular data.",
			dsCost1k),
	}

	balancedQuality := round2(polars.Quality * deepseek.Quality)
	balancedAt := func(n int) Option {
		nf := float64(n)
		return Option{
			Name:        NameBalanced,
			Strategy:    "polars processing + DeepSeek analysis",
			Cost:        round2(nf / 1000 * dsCost1k),
			Quality:     balancedQuality,
			TimeSeconds: ceilDiv(nf, polars.RowsPerSecond) + ceilDiv(nf, deepseek.PagesPerSecond*rowsPerBatch),
			Tools:       []string{"polars", "deepseek"},
			Volume:      n,
			Explanation: fmt.Sprintf(
				"polars processes data locally (free, 5x faster than pandas) and "+
					"DeepSeek generates insights ($%.4f/1k rows). Best value for most "+
					"analysis tasks.",
				dsCost1k),
		}
	}

	quality := Option{
		Name:        NameQuality,
		Strategy:    "polars processing + Claude analysis",
		Cost:        round2(rowUnits * clCost1k),
		Quality:     round2(polars.Quality * claude.Quality),
		TimeSeconds: polarsTime + clAnalysis,
		Tools:       []string{"polars", "claude"},
		Volume:      count,
		Explanation: fmt.Sprintf(
			"polars for fast local processing, Claude for premium analysis "+
				"($%.4f/1k rows vs $%.4f/1k rows). Significantly better at nuanced "+
				"insights and complex patterns.",
			clCost1k, dsCost1k),
	}

	speed := Option{
		Name:        NameSpeed,
		Strategy:    "parallel polars (3 workers) + DeepSeek analysis",
		Cost:        round2(rowUnits * dsCost1k),
		Quality:     round2(polars.Quality * deepseek.Quality),
		TimeSeconds: ceilDiv(n, polars.RowsPerSecond*3) + dsAnalysis,
		Tools:       []string{"polars", "deepseek"},
		Volume:      count,
		Explanation: "Runs 3 parallel polars workers for maximum throughput. " +
			"Same analysis cost as Budget/Balanced (DeepSeek). Ideal for large " +
			"datasets where processing time matters.",
	}

	return family{
		baselines:   []Option{budget, balancedAt(count), quality, speed},
		balancedAt:  balancedAt,
		unitCost:    dsCost1k / 1000,
		unitSeconds: 1/polars.RowsPerSecond + 1/(deepseek.PagesPerSecond*rowsPerBatch),
		minUseful:   10,
		unitNoun:    "rows",
	}
}

// API responses run larger than scraped pages: ~800 input and ~200 output
// tokens per response.
const (
	inputTokensPerResponse  = 800
	outputTokensPerResponse = 200
)

func llmCostPerResponse(spec catalog.ToolSpec) float64 {
	in := float64(inputTokensPerResponse) / 1e6 * spec.CostPerMillionInput
	out := float64(outputTokensPerResponse) / 1e6 * spec.CostPerMillionOutput
	return in + out
}

// apiFamily builds the API integration option set.
func (s *Synthesizer) apiFamily(t task.Task) family {
	count := t.Parameters.Count
	n := float64(count)

	requests := s.catalog.MustTool("requests")
	httpx := s.catalog.MustTool("httpx")
	deepseek := s.catalog.MustTool("deepseek")
	claude := s.catalog.MustTool("claude")

	dsCost := llmCostPerResponse(deepseek)
	clCost := llmCostPerResponse(claude)

	dsParse := ceilDiv(n, deepseek.PagesPerSecond)
	clParse := ceilDiv(n, claude.PagesPerSecond)

	budget := Option{
		Name:        NameBudget,
		Strategy:    "requests (sequential) + DeepSeek parsing",
		Cost:        round2(n * (requests.CostPerRequest + dsCost)),
		Quality:     round2(requests.SuccessRate * deepseek.Quality),
		TimeSeconds: ceilDiv(n, requests.RequestsPerSecond) + dsParse,
		Tools:       []string{"requests", "deepseek"},
		Volume:      count,
		Explanation: fmt.Sprintf(
			"requests calls APIs sequentially (free, simple) and DeepSeek parses "+
				"responses ($%.4f/response). Slower due to sequential calls.",
			dsCost),
	}

	balancedQuality := round2(httpx.SuccessRate * deepseek.Quality)
	balancedAt := func(n int) Option {
		nf := float64(n)
		return Option{
			Name:        NameBalanced,
			Strategy:    "httpx (async) + DeepSeek parsing",
			Cost:        round2(nf * (httpx.CostPerRequest + dsCost)),
			Quality:     balancedQuality,
			TimeSeconds: ceilDiv(nf, httpx.RequestsPerSecond) + ceilDiv(nf, deepseek.PagesPerSecond),
			Tools:       []string{"httpx", "deepseek"},
			Volume:      n,
			Explanation: fmt.Sprintf(
				"httpx handles concurrent API calls (free, async) and DeepSeek parses "+
					"responses ($%.4f/response). Good speed and cost.",
				dsCost),
		}
	}

	quality := Option{
		Name:        NameQuality,
		Strategy:    "httpx (async) + Claude parsing",
		Cost:        round2(n * (httpx.CostPerRequest + clCost)),
		Quality:     round2(httpx.SuccessRate * claude.Quality),
		TimeSeconds: ceilDiv(n, httpx.RequestsPerSecond) + clParse,
		Tools:       []string{"httpx", "claude"},
		Volume:      count,
		Explanation: fmt.Sprintf(
			"httpx for fast API calls, Claude for premium response parsing "+
				"($%.4f/response vs $%.4f/response). Better at understanding "+
				"complex API responses.",
			clCost, dsCost),
	}

	speed := Option{
		Name:        NameSpeed,
		Strategy:    "httpx parallel (3 workers) + DeepSeek parsing",
		Cost:        round2(n * (httpx.CostPerRequest + dsCost)),
		Quality:     round2(httpx.SuccessRate * deepseek.Quality),
		TimeSeconds: ceilDiv(n, httpx.RequestsPerSecond*3) + dsParse,
		Tools:       []string{"httpx", "deepseek"},
		Volume:      count,
		Explanation: "Runs 3 parallel httpx workers for maximum throughput. " +
			"Same parsing cost as Balanced (DeepSeek). Ideal when response time matters.",
	}

	return family{
		baselines:   []Option{budget, balancedAt(count), quality, speed},
		balancedAt:  balancedAt,
		unitCost:    httpx.CostPerRequest + dsCost,
		unitSeconds: 1/httpx.RequestsPerSecond + 1/deepseek.PagesPerSecond,
		minUseful:   2,
		unitNoun:    "endpoints",
	}
}

// scopeReduction derives a smaller-volume variant of the balanced strategy
// when every baseline fails a hard limit outright. The reduced volume is the
// largest one that fits both the budget and the time limit.
func (s *Synthesizer) scopeReduction(t task.Task, c Constraint, fam family) (Option, bool) {
	if c.BudgetMax == nil && c.TimeMax == nil {
		return Option{}, false
	}
	for _, opt := range fam.baselines {
		if status, _ := Evaluate(opt, c); status != StatusFail {
			return Option{}, false
		}
	}

	count := t.Parameters.Count
	reduced := count
	if c.BudgetMax != nil && fam.unitCost > 0 {
		reduced = min(reduced, int(*c.BudgetMax/fam.unitCost))
	}
	if c.TimeMax != nil && fam.unitSeconds > 0 {
		reduced = min(reduced, int(*c.TimeMax/fam.unitSeconds))
	}
	if reduced >= count || reduced < fam.minUseful {
		return Option{}, false
	}

	// Rounding and ceil effects can push the built option just past a limit;
	// back off until it fits. No fitting volume at or above the minimum
	// useful size means there is nothing worth offering.
	opt := fam.balancedAt(reduced)
	for {
		overBudget := c.BudgetMax != nil && opt.Cost > *c.BudgetMax
		overTime := c.TimeMax != nil && float64(opt.TimeSeconds) > *c.TimeMax
		if !overBudget && !overTime {
			break
		}
		if reduced <= fam.minUseful {
			return Option{}, false
		}
		reduced--
		opt = fam.balancedAt(reduced)
	}

	opt.Name = NameScope
	opt.Strategy = fmt.Sprintf("Balanced approach but %d %s instead of %d", reduced, fam.unitNoun, count)
	opt.Explanation = fmt.Sprintf(
		"Same strategy as Balanced but processes %d %s instead of %d to fit "+
			"within the hard limits. Quality stays the same, you just get fewer results.",
		reduced, fam.unitNoun, count)
	return opt, true
}

// orderOptions sorts by the prioritized dimension, tie-breaking on the
// canonical Budget, Balanced, Quality, Speed, Scope order so output stays
// deterministic.
func orderOptions(options []Option, p Priority) {
	canonical := map[string]int{
		NameBudget:   0,
		NameBalanced: 1,
		NameQuality:  2,
		NameSpeed:    3,
		NameScope:    4,
	}
	sort.SliceStable(options, func(i, j int) bool {
		a, b := options[i], options[j]
		switch p {
		case PriorityCost:
			if a.Cost != b.Cost {
				return a.Cost < b.Cost
			}
		case PriorityQuality:
			if a.Quality != b.Quality {
				return a.Quality > b.Quality
			}
		case PriorityTime:
			if a.TimeSeconds != b.TimeSeconds {
				return a.TimeSeconds < b.TimeSeconds
			}
		}
		return canonical[a.Name] < canonical[b.Name]
	})
}

// markRecommended sets exactly one recommended option. A scope reduction
// that is the sole non-failing option wins; otherwise an explicit user
// priority, then a preference-model suggestion, then Balanced.
func markRecommended(options []Option, c Constraint, advised Priority) {
	for i := range options {
		options[i].Recommended = false
	}

	nonFailing := -1
	soleNonFailing := true
	for i := range options {
		status, _ := Evaluate(options[i], c)
		if status != StatusFail {
			if nonFailing >= 0 {
				soleNonFailing = false
			}
			nonFailing = i
		}
	}
	if nonFailing >= 0 && soleNonFailing && options[nonFailing].Name == NameScope {
		options[nonFailing].Recommended = true
		return
	}

	target := ""
	if c.Priority != PriorityBalanced && c.Priority != "" {
		target = nameForPriority(c.Priority)
	} else if advised != "" && advised != PriorityBalanced {
		target = nameForPriority(advised)
	}
	if target != "" {
		for i := range options {
			if options[i].Name == target {
				options[i].Recommended = true
				return
			}
		}
	}

	for i := range options {
		if options[i].Name == NameBalanced {
			options[i].Recommended = true
			return
		}
	}
	options[0].Recommended = true
}

func nameForPriority(p Priority) string {
	switch p {
	case PriorityCost:
		return NameBudget
	case PriorityQuality:
		return NameQuality
	case PriorityTime:
		return NameSpeed
	}
	return NameBalanced
}

func ceilDiv(n, rate float64) int {
	if rate <= 0 {
		return 0
	}
	return int(math.Ceil(n / rate))
}
