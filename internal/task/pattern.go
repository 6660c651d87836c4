package task

import (
	"regexp"
	"strconv"
	"strings"
)

// PatternInterpreter parses utterances with regex heuristics. It is fully
// deterministic and needs no network access.
type PatternInterpreter struct{}

// NewPatternInterpreter creates a PatternInterpreter.
func NewPatternInterpreter() *PatternInterpreter {
	return &PatternInterpreter{}
}

var (
	scrapeVerbs  = regexp.MustCompile(`(?i)\b(scrape|scraping|crawl|crawling|extract|fetch|pull\s+data|harvest)\b`)
	strongScrape = regexp.MustCompile(`(?i)\b(scrape|scraping|crawl|crawling|harvest)\b`)
	webNouns     = regexp.MustCompile(`(?i)\b(websites?|sites?|pages?|urls?)\b`)
	apiNouns     = regexp.MustCompile(`(?i)\b(api|apis|endpoint|endpoints)\b`)
	apiActions   = regexp.MustCompile(`(?i)\b(call|fetch|hit|query|poll|invoke|integrate|connect)\b`)

	analysisVerbs    = regexp.MustCompile(`(?i)\b(analy[sz]e|analy[sz]ing|process|classify|cluster|predict|summarize|aggregate)\b`)
	analysisDataKws  = regexp.MustCompile(`(?i)\b(data|rows?|records?|csv|json|dataset|table|entries)\b`)
	analysisTypeKws  = regexp.MustCompile(`(?i)\b(trends?|anomal(?:y|ies)|patterns?|clusters?|segments?|predictions?|classification|summary|statistics|correlations?)\b`)
	digitCommas      = regexp.MustCompile(`(\d),(\d)`)
	leadingFillers   = regexp.MustCompile(`(?i)^(scrape|scraping|crawl|crawling|extract|fetch|pull|call|query|poll|invoke|hit|analy[sz]e|process|classify|the|all|some|every|\d+)\s+`)
	targetKeywordsRe = regexp.MustCompile(`(?i)\b(pricing|prices?|contacts?|emails?|phones?|addresses?|products?|reviews?|availability|status|inventory|rates?|info|details?)\b`)
)

var scrapeCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s+(?:web)?sites?`),
	regexp.MustCompile(`(?i)(\d+)\s+pages?`),
	regexp.MustCompile(`(?i)(\d+)\s+urls?`),
	regexp.MustCompile(`(?i)scrape\s+(\d+)`),
	regexp.MustCompile(`(?i)crawl\s+(\d+)`),
}

var analysisCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s+rows?`),
	regexp.MustCompile(`(?i)(\d+)\s+records?`),
	regexp.MustCompile(`(?i)(\d+)\s+entries`),
	regexp.MustCompile(`(?i)analy[sz]e\s+(\d+)`),
	regexp.MustCompile(`(?i)process\s+(\d+)`),
}

var apiCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s+(?:api|apis|endpoint|endpoints)`),
	regexp.MustCompile(`(?i)(?:call|fetch|hit|query|poll|invoke)\s+(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s+(?:service|services)`),
}

var domainPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d+\s+([\w\s]{2,30}?)\s+(?:web)?(?:sites?|pages?)\b`),
	regexp.MustCompile(`(?i)\b([\w][\w\s]{1,30}?)\s+(?:web)?(?:sites?|pages?)\b`),
	regexp.MustCompile(`(?i)(?:from|on|of)\s+([\w\s]{2,30}?)(?:\s+and|\s*$|,)`),
}

var sourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:of|from)\s+([\w\s]{2,30}?)\s+(?:data|csv|json|records?|rows?)`),
	regexp.MustCompile(`(?i)([\w]+(?:\s+\w+)?)\s+(?:data|csv|json|dataset)`),
}

var apiSourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:from|to)\s+([\w\s]{2,30}?)\s+(?:api|apis|endpoint|endpoints)`),
	regexp.MustCompile(`(?i)([\w]+(?:\s+\w+)?)\s+(?:api|apis|endpoint|endpoints)`),
}

var extractTargetPattern = regexp.MustCompile(`(?i)(?:extract|get|pull|fetch)\s+(?:the\s+)?([\w\s,]+?)(?:\s+from|\s+on|\s+via|\s*$)`)

// Default volumes per task family when the utterance names none.
const (
	defaultScrapingCount = 50
	defaultAnalysisCount = 1000
	defaultAPICount      = 20
)

// Adjustment grammar.
var (
	pickPattern     = regexp.MustCompile(`(?i)^(?:option\s+|pick\s+|choose\s+|take\s+)?([a-h]|\d)$`)
	budgetPattern   = regexp.MustCompile(`(?i)(?:under|below|max|within|for|do)\s*\$(\d+(?:\.\d+)?)`)
	bareDollar      = regexp.MustCompile(`(?i)^\$(\d+(?:\.\d+)?)\s*$`)
	qualityPattern  = regexp.MustCompile(`(?i)(?:at least|above|minimum|min)\s*(\d+)\s*%`)
	barePercent     = regexp.MustCompile(`(?i)^(\d+)\s*%$`)
	timeMinPattern  = regexp.MustCompile(`(?i)(?:under|below|within|max)\s*(\d+)\s*min`)
	timeSecPattern  = regexp.MustCompile(`(?i)(?:under|below|within|max)\s*(\d+)\s*sec`)
	scopePattern    = regexp.MustCompile(`(?i)(?:only|just|reduce to|limit to)\s*(\d+)\s*(%)?`)
)

// Interpret classifies an utterance. With an active task, decision and
// adjustment intents are tried first; an utterance that reads as a fresh
// task description starts over with a new Task.
func (p *PatternInterpreter) Interpret(utterance string, active *Task) (Result, error) {
	text := strings.TrimSpace(utterance)
	text = digitCommas.ReplaceAllString(text, "${1}${2}")

	if active != nil {
		if intent := parseIntent(text); intent != nil {
			return Result{Intent: intent}, nil
		}
		if t, err := classify(text); err == nil {
			return Result{Task: t}, nil
		}
		return Result{Intent: &Intent{Kind: IntentShowOptions}}, nil
	}

	t, err := classify(text)
	if err != nil {
		return Result{}, err
	}
	return Result{Task: t}, nil
}

// parseIntent resolves decision and adjustment utterances. Resolution order:
// selection, then numeric values with units, then keywords. Returns nil when
// nothing matches.
func parseIntent(text string) *Intent {
	lower := strings.ToLower(text)

	switch lower {
	case "quit", "exit", "cancel", "no", "stop", "q":
		return &Intent{Kind: IntentCancel}
	case "yes", "y", "go", "proceed", "ok", "sure", "accept":
		return &Intent{Kind: IntentAccept}
	}

	if m := pickPattern.FindStringSubmatch(lower); m != nil {
		id := m[1]
		if id >= "0" && id <= "9" {
			n, _ := strconv.Atoi(id)
			if n < 1 || n > 8 {
				return nil
			}
			id = string(rune('a' + n - 1))
		}
		return &Intent{Kind: IntentPick, OptionID: strings.ToUpper(id)}
	}

	if m := budgetPattern.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return &Intent{Kind: IntentSetBudget, Value: v, HasValue: true}
	}
	if m := bareDollar.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return &Intent{Kind: IntentSetBudget, Value: v, HasValue: true}
	}
	if m := qualityPattern.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return &Intent{Kind: IntentSetQuality, Value: v / 100, HasValue: true}
	}
	if m := barePercent.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return &Intent{Kind: IntentSetQuality, Value: v / 100, HasValue: true}
	}
	if m := timeMinPattern.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return &Intent{Kind: IntentSetTime, Value: v * 60, HasValue: true}
	}
	if m := timeSecPattern.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return &Intent{Kind: IntentSetTime, Value: v, HasValue: true}
	}
	if m := scopePattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		if m[2] == "%" {
			// "only 90%" is a quality floor, not a volume.
			return &Intent{Kind: IntentSetQuality, Value: float64(n) / 100, HasValue: true}
		}
		return &Intent{Kind: IntentReduceScope, Count: n}
	}

	for _, kw := range []string{"show option", "all option", "compare", "alternatives", "list"} {
		if strings.Contains(lower, kw) {
			return &Intent{Kind: IntentShowOptions}
		}
	}

	for _, kw := range []string{"cheaper", "less expensive", "lower cost", "budget"} {
		if strings.Contains(lower, kw) {
			return &Intent{Kind: IntentPrioritize, Priority: "cost"}
		}
	}
	for _, kw := range []string{"better quality", "higher quality", "more accurate", "quality"} {
		if strings.Contains(lower, kw) {
			return &Intent{Kind: IntentPrioritize, Priority: "quality"}
		}
	}
	for _, kw := range []string{"faster", "quicker", "speed"} {
		if strings.Contains(lower, kw) {
			return &Intent{Kind: IntentPrioritize, Priority: "time"}
		}
	}
	if strings.Contains(lower, "balanced") {
		return &Intent{Kind: IntentPrioritize, Priority: "balanced"}
	}

	return nil
}

// classify determines the task family of a fresh utterance.
func classify(text string) (*Task, error) {
	hasAPINoun := apiNouns.MatchString(text)
	hasWebNoun := webNouns.MatchString(text)
	hasScrapeVerb := scrapeVerbs.MatchString(text)
	hasStrongScrape := strongScrape.MatchString(text)
	isAnalysis := analysisVerbs.MatchString(text) && analysisDataKws.MatchString(text)
	isAPI := hasAPINoun && !hasWebNoun && (hasScrapeVerb || apiActions.MatchString(text))

	switch {
	case isAPI && hasStrongScrape:
		return nil, &AmbiguousTaskError{Utterance: text, Candidates: []Type{TypeScraping, TypeAPI}}
	case isAPI:
		return parseAPI(text), nil
	case hasStrongScrape && isAnalysis:
		return nil, &AmbiguousTaskError{Utterance: text, Candidates: []Type{TypeScraping, TypeAnalysis}}
	case hasScrapeVerb && isAnalysis && !hasWebNoun:
		return parseAnalysis(text), nil
	case hasScrapeVerb:
		return parseScraping(text), nil
	case isAnalysis:
		return parseAnalysis(text), nil
	}
	return nil, &UnsupportedTaskTypeError{Utterance: text}
}

func parseScraping(text string) *Task {
	t := &Task{
		Type:        TypeScraping,
		Description: strings.TrimSpace(text),
		Parameters:  Parameters{Count: firstCount(text, scrapeCountPatterns, defaultScrapingCount)},
	}
	t.Parameters.Domain = extractPhrase(text, domainPatterns)
	t.Parameters.Target = extractTarget(text)
	return t
}

func parseAnalysis(text string) *Task {
	t := &Task{
		Type:        TypeAnalysis,
		Description: strings.TrimSpace(text),
		Parameters:  Parameters{Count: firstCount(text, analysisCountPatterns, defaultAnalysisCount)},
	}
	t.Parameters.Source = extractPhrase(text, sourcePatterns)
	if m := analysisTypeKws.FindString(text); m != "" {
		t.Parameters.AnalysisType = strings.ToLower(m)
	}
	return t
}

func parseAPI(text string) *Task {
	t := &Task{
		Type:        TypeAPI,
		Description: strings.TrimSpace(text),
		Parameters:  Parameters{Count: firstCount(text, apiCountPatterns, defaultAPICount)},
	}
	t.Parameters.Source = extractPhrase(text, apiSourcePatterns)
	t.Parameters.Target = extractTarget(text)
	return t
}

func firstCount(text string, patterns []*regexp.Regexp, fallback int) int {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				return n
			}
		}
	}
	return fallback
}

// extractPhrase finds the first noun phrase match and strips leading verbs,
// numbers and filler words.
func extractPhrase(text string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		phrase := strings.TrimSpace(m[1])
		// Strip twice to cover "Scrape 100 dive shop".
		phrase = leadingFillers.ReplaceAllString(phrase, "")
		phrase = leadingFillers.ReplaceAllString(phrase, "")
		phrase = strings.TrimSpace(phrase)
		switch strings.ToLower(phrase) {
		case "", "scrape", "crawl", "extract", "fetch", "pull", "data":
			continue
		}
		if len(phrase) > 1 {
			return phrase
		}
	}
	return ""
}

func extractTarget(text string) string {
	if m := extractTargetPattern.FindStringSubmatch(text); m != nil {
		phrase := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), ","))
		if phrase != "" && !webNouns.MatchString(phrase) {
			return phrase
		}
	}
	seen := make(map[string]bool)
	var parts []string
	for _, m := range targetKeywordsRe.FindAllString(text, -1) {
		kw := strings.ToLower(m)
		if !seen[kw] {
			seen[kw] = true
			parts = append(parts, kw)
		}
	}
	return strings.Join(parts, ", ")
}
