// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the maestro configuration.
type Config struct {
	Interpreter InterpreterConfig `toml:"interpreter"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Storage     StorageConfig     `toml:"storage"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	Execution   ExecutionConfig   `toml:"execution"`
	Logging     LoggingConfig     `toml:"logging"`
}

// InterpreterConfig contains task interpreter settings. When the provider is
// "pattern" (or the API key env var is unset) only the pattern interpreter runs.
type InterpreterConfig struct {
	Provider  string `toml:"provider"`    // "pattern" or "deepseek"
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	BaseURL   string `toml:"base_url"`
	TimeoutS  int    `toml:"timeout_seconds"`
}

// CatalogConfig contains tool catalog settings.
type CatalogConfig struct {
	Path  string `toml:"path"`  // empty = embedded defaults
	Watch bool   `toml:"watch"` // hot-reload the catalog file on change
}

// StorageConfig contains persistent storage settings.
type StorageConfig struct {
	Path               string `toml:"path"`                // Base directory for all persistent data
	PersistPreferences bool   `toml:"persist_preferences"` // true = preference history survives across runs
}

// TelemetryConfig contains trace export settings.
type TelemetryConfig struct {
	Enabled   bool   `toml:"enabled"`
	TraceFile string `toml:"trace_file"` // stdout trace exporter target, empty = stderr
}

// ExecutionConfig contains simulated collaborator settings.
type ExecutionConfig struct {
	OutputDir string `toml:"output_dir"` // where execution result files are written
	Seed      int64  `toml:"seed"`       // 0 = time-seeded
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `toml:"level"` // debug|info|warn|error
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		Interpreter: InterpreterConfig{
			Provider: "pattern",
			Model:    "deepseek-chat",
			BaseURL:  "https://api.deepseek.com/chat/completions",
			TimeoutS: 30,
		},
		Storage: StorageConfig{
			Path:               "~/.local/maestro",
			PersistPreferences: true,
		},
		Execution: ExecutionConfig{
			OutputDir: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Default returns a default configuration.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from maestro.toml in the current directory,
// falling back to defaults when no file exists.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	path := filepath.Join(cwd, "maestro.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// GetAPIKey returns the interpreter API key from the configured environment
// variable. If api_key_env is not set, uses the provider default.
func (c *Config) GetAPIKey() string {
	envVar := c.Interpreter.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(c.Interpreter.Provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

// DefaultAPIKeyEnv returns the default environment variable name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "deepseek":
		return "DEEPSEEK_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// ResolveStoragePath expands a leading ~ in the storage path.
func (c *Config) ResolveStoragePath() (string, error) {
	path := c.Storage.Path
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}
