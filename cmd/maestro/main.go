// Package main is the entry point for the maestro CLI.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"maestro/internal/catalog"
	"maestro/internal/config"
	"maestro/internal/execution"
	"maestro/internal/logging"
	"maestro/internal/negotiation"
	"maestro/internal/preference"
	"maestro/internal/render"
	"maestro/internal/setup"
	"maestro/internal/strategy"
	"maestro/internal/task"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func init() {
	// Load .env for API keys and other env vars
	_ = godotenv.Load()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("maestro"),
		kong.Description("Negotiate an execution strategy before anything runs."),
		kong.UsageOnError(),
		kongVars(),
	)

	var err error
	switch ctx.Command() {
	case "run":
		err = runREPL(cli.Run)
	case "setup":
		err = setup.Run()
	case "history":
		err = showHistory(cli.History)
	case "validate-tools <path>":
		err = validateTools(cli.ValidateTools)
	case "version":
		fmt.Printf("maestro version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	default:
		err = fmt.Errorf("unknown command: %s", ctx.Command())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file named on the command line, or maestro.toml
// from the working directory, or defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadDefault()
}

// runREPL wires up the negotiation controller and drives it from stdin.
func runREPL(cmd RunCmd) error {
	cfg, err := loadConfig(cmd.Config)
	if err != nil {
		return err
	}
	if cmd.Catalog != "" {
		cfg.Catalog.Path = cmd.Catalog
	}
	if cmd.Seed != 0 {
		cfg.Execution.Seed = cmd.Seed
	}
	if cmd.LogLevel != "" {
		cfg.Logging.Level = cmd.LogLevel
	}
	if cmd.Ephemeral {
		cfg.Storage.PersistPreferences = false
	}

	log := logging.New()
	log.SetLevel(logging.ParseLevel(cfg.Logging.Level))

	if cfg.Telemetry.Enabled {
		shutdown, err := setupTracing(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer shutdown()
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		watcher, err := catalog.NewWatcher(cfg.Catalog.Path, cat, log)
		if err != nil {
			return fmt.Errorf("failed to watch catalog: %w", err)
		}
		if err := watcher.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to watch catalog: %w", err)
		}
		defer watcher.Stop()
	}

	prefs, err := buildPreferenceModel(cfg)
	if err != nil {
		return err
	}

	interp := buildInterpreter(cfg)
	synth := strategy.NewSynthesizer(cat)
	collab := execution.NewSimulator(cfg.Execution.OutputDir, cfg.Execution.Seed, log)
	ctrl := negotiation.New(interp, synth, prefs, collab, log)

	fmt.Println(render.Divider())
	fmt.Println("  maestro: tell me what you need done, and we'll settle on how.")
	fmt.Println("  ('quit' to leave)")
	fmt.Println(render.Divider())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		// Ctrl+C during execution cancels the run, not the REPL.
		uttCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		turn, err := ctrl.HandleUtterance(uttCtx, line)
		stop()

		if err != nil {
			fmt.Println(friendlyError(err))
			continue
		}
		printTurn(turn)
	}
	return scanner.Err()
}

// printTurn renders one controller turn to the terminal.
func printTurn(turn *negotiation.Turn) {
	if turn.Message != "" {
		fmt.Println("\n  " + turn.Message)
	}
	switch turn.Phase {
	case negotiation.PhaseComplete:
		fmt.Print(render.Report(turn.Result))
	case negotiation.PhaseFailed:
		fmt.Print(render.Failure(turn.Failure))
	case negotiation.PhaseCancelled:
		if turn.Failure != nil {
			fmt.Print(render.Failure(turn.Failure))
		}
	default:
		if turn.Presentation != nil {
			if turn.Presentation.ShowAll {
				fmt.Print(render.Options(turn.Presentation))
			} else {
				fmt.Print(render.Recommendation(turn.Presentation))
			}
		}
	}
}

// friendlyError phrases recoverable negotiation errors for the user.
func friendlyError(err error) string {
	var ambiguous *task.AmbiguousTaskError
	if errors.As(err, &ambiguous) {
		names := make([]string, len(ambiguous.Candidates))
		for i, c := range ambiguous.Candidates {
			names[i] = string(c)
		}
		return fmt.Sprintf("  I can read that as %s. Which did you mean?", strings.Join(names, " or "))
	}

	var unsupported *task.UnsupportedTaskTypeError
	if errors.As(err, &unsupported) {
		return "  I can help with web scraping, data analysis and API integration tasks. What would you like done?"
	}

	var volume *strategy.InvalidTaskVolumeError
	if errors.As(err, &volume) {
		return fmt.Sprintf("  %d units is not something I can plan around. Give me a count of at least 1.", volume.Count)
	}

	var selection *negotiation.InvalidSelectionError
	if errors.As(err, &selection) {
		return fmt.Sprintf("  There's no option %s. Pick one of %s.", selection.ID, strings.Join(selection.Valid, ", "))
	}

	var constraint *negotiation.InvalidConstraintValueError
	if errors.As(err, &constraint) {
		return fmt.Sprintf("  That %s value won't work: %s.", constraint.Field, constraint.Reason)
	}

	return "  " + err.Error()
}

// loadCatalog loads the configured catalog file, or the embedded defaults.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

// buildPreferenceModel picks file or memory backing per config.
func buildPreferenceModel(cfg *config.Config) (*preference.Model, error) {
	if !cfg.Storage.PersistPreferences {
		return preference.NewModel(preference.NewMemoryStore()), nil
	}
	base, err := cfg.ResolveStoragePath()
	if err != nil {
		return nil, err
	}
	store, err := preference.NewFileStore(filepath.Join(base, "preferences.jsonl"))
	if err != nil {
		return nil, err
	}
	return preference.NewModel(store), nil
}

// buildInterpreter returns the model-backed facade when a key is configured,
// otherwise the pattern interpreter alone.
func buildInterpreter(cfg *config.Config) task.Interpreter {
	if cfg.Interpreter.Provider == "pattern" {
		return task.NewFacade(nil)
	}
	key := cfg.GetAPIKey()
	if key == "" {
		return task.NewFacade(nil)
	}
	llm := task.NewLLMInterpreter(key, cfg.Interpreter.BaseURL, cfg.Interpreter.Model,
		time.Duration(cfg.Interpreter.TimeoutS)*time.Second)
	return task.NewFacade(llm)
}

// setupTracing installs a stdout span exporter as the global tracer provider.
func setupTracing(tc config.TelemetryConfig) (func(), error) {
	w := os.Stderr
	if tc.TraceFile != "" {
		f, err := os.OpenFile(tc.TraceFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		w = f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}, nil
}

// showHistory prints a summary of the recorded preference history.
func showHistory(cmd HistoryCmd) error {
	cfg, err := loadConfig(cmd.Config)
	if err != nil {
		return err
	}
	model, err := buildPreferenceModel(cfg)
	if err != nil {
		return err
	}

	summary, err := model.Summarize()
	if err != nil {
		return err
	}
	if summary.Total == 0 {
		fmt.Println("No preference history yet. Confirm a few strategies first.")
		return nil
	}

	fmt.Printf("Recorded choices: %d\n\n", summary.Total)
	fmt.Println("By task type:")
	for _, tt := range []string{string(task.TypeScraping), string(task.TypeAnalysis), string(task.TypeAPI)} {
		if n := summary.ByTaskType[tt]; n > 0 {
			fmt.Printf("  %-10s %d\n", tt, n)
		}
	}
	fmt.Println("\nRelaxed dimensions:")
	for _, dim := range []string{
		string(strategy.DimensionBudget),
		string(strategy.DimensionQuality),
		string(strategy.DimensionTime),
		preference.DimensionNone,
	} {
		if n := summary.ByRelaxed[dim]; n > 0 {
			fmt.Printf("  %-10s %d\n", dim, n)
		}
	}
	if len(summary.Patterns) > 0 {
		fmt.Println("\nPatterns:")
		for _, p := range summary.Patterns {
			fmt.Println("  " + p)
		}
	}
	return nil
}

// validateTools checks a catalog file and reports what it holds.
func validateTools(cmd ValidateToolsCmd) error {
	cat, err := catalog.LoadFile(cmd.Path)
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s: %d tools\n", cmd.Path, cat.Len())
	return nil
}
