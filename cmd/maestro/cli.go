// Package main defines the CLI structure using kong.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Run           RunCmd           `cmd:"" default:"1" help:"Start an interactive negotiation session"`
	Setup         SetupCmd         `cmd:"" help:"Interactive setup wizard"`
	History       HistoryCmd       `cmd:"" help:"Show recorded preference history"`
	ValidateTools ValidateToolsCmd `cmd:"" name:"validate-tools" help:"Validate a tool catalog file"`
	Version       VersionCmd       `cmd:"" help:"Show version information"`
}

// RunCmd starts the interactive negotiation loop.
type RunCmd struct {
	Config    string `short:"c" help:"Config file path (default: ./maestro.toml)"`
	Catalog   string `help:"Tool catalog path (overrides config)"`
	Seed      int64  `help:"Execution RNG seed, 0 = time-seeded (overrides config)"`
	LogLevel  string `help:"Log level: debug, info, warn, error (overrides config)"`
	Ephemeral bool   `help:"Keep preference history in memory only for this run"`
}

// SetupCmd runs the interactive setup wizard.
type SetupCmd struct{}

// HistoryCmd summarizes the recorded preference history.
type HistoryCmd struct {
	Config string `short:"c" help:"Config file path (default: ./maestro.toml)"`
}

// ValidateToolsCmd checks a catalog file for schema and consistency errors.
type ValidateToolsCmd struct {
	Path string `arg:"" help:"Catalog YAML file to validate"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
