// Package catalog provides the tool cost/quality/time table that option
// synthesis reads from. A default table ships embedded; deployments can
// override it with a YAML file and hot-reload edits.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tools.yaml
var defaultTools []byte

// Kind classifies a catalog tool.
type Kind string

const (
	KindCrawler   Kind = "crawler"
	KindLLM       Kind = "llm"
	KindProcessor Kind = "processor"
	KindHTTP      Kind = "http"
)

// ToolSpec describes one tool's cost, quality and throughput characteristics.
// Fields are populated per kind; unused fields stay zero.
type ToolSpec struct {
	Kind Kind `yaml:"kind"`

	// crawler / http
	CostPerPage    float64 `yaml:"cost_per_page"`
	CostPerRequest float64 `yaml:"cost_per_request"`
	SuccessRate    float64 `yaml:"success_rate"`

	// llm
	CostPerMillionInput  float64 `yaml:"cost_per_million_input"`
	CostPerMillionOutput float64 `yaml:"cost_per_million_output"`
	InputTokensPerPage   float64 `yaml:"input_tokens_per_page"`
	OutputTokensPerPage  float64 `yaml:"output_tokens_per_page"`
	Quality              float64 `yaml:"quality"`

	// throughput
	PagesPerSecond    float64 `yaml:"pages_per_second"`
	RowsPerSecond     float64 `yaml:"rows_per_second"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// file is the on-disk YAML shape.
type file struct {
	Tools map[string]ToolSpec `yaml:"tools"`
}

// required lists the tools option synthesis depends on.
var required = []string{
	"scrapy", "playwright", "deepseek", "claude",
	"pandas", "polars", "requests", "httpx",
}

// Catalog is a threadsafe view over the tool table. Reload swaps the table
// atomically so readers never observe a half-applied update.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]ToolSpec
}

// Default returns a catalog built from the embedded table.
func Default() *Catalog {
	c, err := parse(defaultTools)
	if err != nil {
		// The embedded table is validated by tests; a parse failure here
		// means a broken build, not a runtime condition.
		panic(fmt.Sprintf("embedded tool catalog invalid: %v", err))
	}
	return c
}

// LoadFile loads and validates a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

func parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := validate(f.Tools); err != nil {
		return nil, err
	}
	return &Catalog{tools: f.Tools}, nil
}

// validate checks that every required tool is present with sane rates.
func validate(tools map[string]ToolSpec) error {
	for _, name := range required {
		spec, ok := tools[name]
		if !ok {
			return fmt.Errorf("missing required tool %q", name)
		}
		switch spec.Kind {
		case KindCrawler, KindHTTP:
			if spec.SuccessRate <= 0 || spec.SuccessRate > 1 {
				return fmt.Errorf("tool %q: success_rate must be in (0,1], got %v", name, spec.SuccessRate)
			}
		case KindLLM, KindProcessor:
			if spec.Quality <= 0 || spec.Quality > 1 {
				return fmt.Errorf("tool %q: quality must be in (0,1], got %v", name, spec.Quality)
			}
		default:
			return fmt.Errorf("tool %q: unknown kind %q", name, spec.Kind)
		}
		if spec.PagesPerSecond < 0 || spec.RowsPerSecond < 0 || spec.RequestsPerSecond < 0 {
			return fmt.Errorf("tool %q: throughput must be non-negative", name)
		}
	}
	return nil
}

// Tool returns the spec for a named tool.
func (c *Catalog) Tool(name string) (ToolSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.tools[name]
	return spec, ok
}

// MustTool returns the spec for a required tool. Validation guarantees
// presence for the required set, so a miss indicates a programming error.
func (c *Catalog) MustTool(name string) ToolSpec {
	spec, ok := c.Tool(name)
	if !ok {
		panic(fmt.Sprintf("catalog: unknown tool %q", name))
	}
	return spec
}

// Len returns the number of tools in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

// Reload replaces the table with the contents of path. On any error the
// previous table stays in effect.
func (c *Catalog) Reload(path string) error {
	fresh, err := LoadFile(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.tools = fresh.tools
	c.mu.Unlock()
	return nil
}

// LLMPageCost returns a model's cost of extracting one page.
func (s ToolSpec) LLMPageCost() float64 {
	return (s.InputTokensPerPage/1e6)*s.CostPerMillionInput +
		(s.OutputTokensPerPage/1e6)*s.CostPerMillionOutput
}
