package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const systemPrompt = `You are a task classifier. Given a user's request, determine if it is a web scraping task, a data analysis task, or an API integration task. Respond with a JSON object only.

If the request IS a scraping task, respond:
{"type": "scraping", "count": <number of sites/pages, int or null>, "domain": <what kind of sites, string or null>, "target": <what data to extract, string or null>}

If the request IS a data analysis task, respond:
{"type": "analysis", "count": <number of rows/records, int or null>, "source": <what data to analyze, string or null>, "analysis_type": <what to find, string or null>}

If the request IS an API integration task, respond:
{"type": "api", "count": <number of endpoints/APIs, int or null>, "source": <what APIs to call, string or null>, "target": <what data to fetch, string or null>}

If the request is NEITHER, respond:
{"type": null}

Rules:
- count should be an integer if mentioned, otherwise null
- For scraping: domain is a short noun phrase (e.g. "dive shops"), target is what to extract
- For analysis: source is the data being analyzed (e.g. "customer data"), analysis_type is the goal (e.g. "trends")
- For api: source is what kind of APIs (e.g. "hotel booking"), target is what data to fetch (e.g. "pricing")
- Respond with JSON only, no explanation`

// LLMInterpreter classifies fresh task utterances through a JSON-mode chat
// completion endpoint. It only handles task classification; decision and
// adjustment grammar stays with the pattern interpreter.
type LLMInterpreter struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewLLMInterpreter creates an interpreter against the given endpoint.
func NewLLMInterpreter(apiKey, baseURL, model string, timeout time.Duration) *LLMInterpreter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LLMInterpreter{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Available reports whether an API key is configured.
func (l *LLMInterpreter) Available() bool {
	return l.APIKey != ""
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat responseFmt   `json:"response_format"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type classification struct {
	Type         *string `json:"type"`
	Count        *int    `json:"count"`
	Domain       *string `json:"domain"`
	Source       *string `json:"source"`
	Target       *string `json:"target"`
	AnalysisType *string `json:"analysis_type"`
}

// Classify calls the model to parse a fresh task utterance.
func (l *LLMInterpreter) Classify(ctx context.Context, utterance string) (*Task, error) {
	body, err := json.Marshal(chatRequest{
		Model: l.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: utterance},
		},
		ResponseFormat: responseFmt{Type: "json_object"},
		Temperature:    0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.APIKey)

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("interpreter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("interpreter request failed: status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("interpreter returned no choices")
	}

	var c classification
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &c); err != nil {
		return nil, fmt.Errorf("failed to parse classification: %w", err)
	}

	if c.Type == nil {
		return nil, &UnsupportedTaskTypeError{Utterance: utterance}
	}
	typ := Type(*c.Type)

	t := &Task{Type: typ, Description: utterance}
	switch typ {
	case TypeScraping:
		t.Parameters.Count = defaultScrapingCount
		if c.Domain != nil {
			t.Parameters.Domain = *c.Domain
		}
		if c.Target != nil {
			t.Parameters.Target = *c.Target
		}
	case TypeAnalysis:
		t.Parameters.Count = defaultAnalysisCount
		if c.Source != nil {
			t.Parameters.Source = *c.Source
		}
		if c.AnalysisType != nil {
			t.Parameters.AnalysisType = *c.AnalysisType
		}
	case TypeAPI:
		t.Parameters.Count = defaultAPICount
		if c.Source != nil {
			t.Parameters.Source = *c.Source
		}
		if c.Target != nil {
			t.Parameters.Target = *c.Target
		}
	default:
		return nil, &UnsupportedTaskTypeError{Utterance: utterance}
	}
	if c.Count != nil {
		t.Parameters.Count = *c.Count
	}
	return t, nil
}

// Interpret satisfies Interpreter for model-only deployments. Adjustments
// against an active task are delegated to the pattern grammar.
func (l *LLMInterpreter) Interpret(utterance string, active *Task) (Result, error) {
	if active != nil {
		return NewPatternInterpreter().Interpret(utterance, active)
	}
	t, err := l.Classify(context.Background(), utterance)
	if err != nil {
		return Result{}, err
	}
	return Result{Task: t}, nil
}

// Facade tries the model first and falls back to patterns, so behavior
// degrades to regex-only when no key is configured or the call fails.
type Facade struct {
	llm     *LLMInterpreter
	pattern *PatternInterpreter
}

// NewFacade creates the facade. llm may be nil.
func NewFacade(llm *LLMInterpreter) *Facade {
	return &Facade{llm: llm, pattern: NewPatternInterpreter()}
}

// Interpret implements Interpreter.
func (f *Facade) Interpret(utterance string, active *Task) (Result, error) {
	if active != nil {
		return f.pattern.Interpret(utterance, active)
	}
	if f.llm != nil && f.llm.Available() {
		if t, err := f.llm.Classify(context.Background(), utterance); err == nil {
			return Result{Task: t}, nil
		}
	}
	return f.pattern.Interpret(utterance, active)
}
