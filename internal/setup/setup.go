// Package setup provides the interactive setup wizard that writes
// maestro.toml.
package setup

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"maestro/internal/config"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Step represents a setup wizard step.
type Step int

const (
	StepWelcome Step = iota
	StepInterpreter
	StepAPIKeyEnv
	StepCatalogPath
	StepCatalogWatch
	StepStoragePath
	StepPersistPrefs
	StepTelemetry
	StepOutputDir
	StepConfirm
	StepComplete
)

// Model is the bubbletea model for the setup wizard.
type Model struct {
	step      Step
	cursor    int
	textInput textinput.Model
	cfg       *config.Config
	err       error
	written   string
	editMode  bool
}

// New creates a new setup model, pre-populated from an existing
// maestro.toml when one exists in the working directory.
func New() Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	m := Model{
		step:      StepWelcome,
		textInput: ti,
		cfg:       config.New(),
	}
	if cfg, err := config.LoadFile("maestro.toml"); err == nil {
		m.cfg = cfg
		m.editMode = true
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 && !m.isTextStep() {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.choices())-1 && !m.isTextStep() {
			m.cursor++
		}
		return m, nil
	case "enter":
		return m.advance()
	}

	if m.isTextStep() {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// isTextStep reports whether the current step takes free text.
func (m Model) isTextStep() bool {
	switch m.step {
	case StepAPIKeyEnv, StepCatalogPath, StepStoragePath, StepOutputDir:
		return true
	}
	return false
}

// choices returns the list options for the current step.
func (m Model) choices() []string {
	switch m.step {
	case StepInterpreter:
		return []string{"pattern (offline, regex based)", "deepseek (model backed, needs API key)"}
	case StepCatalogWatch, StepPersistPrefs, StepTelemetry:
		return []string{"yes", "no"}
	case StepConfirm:
		return []string{"write maestro.toml", "quit without writing"}
	}
	return nil
}

// advance applies the current step's answer and moves on.
func (m Model) advance() (tea.Model, tea.Cmd) {
	switch m.step {
	case StepWelcome:
		m.step = StepInterpreter

	case StepInterpreter:
		if m.cursor == 0 {
			m.cfg.Interpreter.Provider = "pattern"
			m.step = StepCatalogPath
			m.textInput.SetValue(m.cfg.Catalog.Path)
			m.textInput.Placeholder = "empty = built-in catalog"
		} else {
			m.cfg.Interpreter.Provider = "deepseek"
			m.step = StepAPIKeyEnv
			m.textInput.SetValue(m.cfg.Interpreter.APIKeyEnv)
			m.textInput.Placeholder = config.DefaultAPIKeyEnv("deepseek")
		}

	case StepAPIKeyEnv:
		m.cfg.Interpreter.APIKeyEnv = strings.TrimSpace(m.textInput.Value())
		m.step = StepCatalogPath
		m.textInput.SetValue(m.cfg.Catalog.Path)
		m.textInput.Placeholder = "empty = built-in catalog"

	case StepCatalogPath:
		m.cfg.Catalog.Path = strings.TrimSpace(m.textInput.Value())
		if m.cfg.Catalog.Path == "" {
			m.cfg.Catalog.Watch = false
			m.step = StepStoragePath
			m.textInput.SetValue(m.cfg.Storage.Path)
			m.textInput.Placeholder = "~/.local/maestro"
		} else {
			m.step = StepCatalogWatch
		}

	case StepCatalogWatch:
		m.cfg.Catalog.Watch = m.cursor == 0
		m.step = StepStoragePath
		m.textInput.SetValue(m.cfg.Storage.Path)
		m.textInput.Placeholder = "~/.local/maestro"

	case StepStoragePath:
		if v := strings.TrimSpace(m.textInput.Value()); v != "" {
			m.cfg.Storage.Path = v
		}
		m.step = StepPersistPrefs

	case StepPersistPrefs:
		m.cfg.Storage.PersistPreferences = m.cursor == 0
		m.step = StepTelemetry

	case StepTelemetry:
		m.cfg.Telemetry.Enabled = m.cursor == 0
		m.step = StepOutputDir
		m.textInput.SetValue(m.cfg.Execution.OutputDir)
		m.textInput.Placeholder = "."

	case StepOutputDir:
		if v := strings.TrimSpace(m.textInput.Value()); v != "" {
			m.cfg.Execution.OutputDir = v
		}
		m.step = StepConfirm

	case StepConfirm:
		if m.cursor != 0 {
			return m, tea.Quit
		}
		if err := m.write(); err != nil {
			m.err = err
		} else {
			m.written = "maestro.toml"
		}
		m.step = StepComplete

	case StepComplete:
		return m, tea.Quit
	}

	m.cursor = 0
	return m, nil
}

// write persists the assembled config.
func (m *Model) write() error {
	f, err := os.Create("maestro.toml")
	if err != nil {
		return fmt.Errorf("failed to create maestro.toml: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(m.cfg); err != nil {
		return fmt.Errorf("failed to write maestro.toml: %w", err)
	}
	return nil
}

// View renders the current step.
func (m Model) View() string {
	var b strings.Builder

	switch m.step {
	case StepWelcome:
		b.WriteString(titleStyle.Render("maestro setup") + "\n")
		if m.editMode {
			b.WriteString(subtitleStyle.Render("Existing maestro.toml found; current values are preloaded.") + "\n")
		} else {
			b.WriteString(subtitleStyle.Render("A few questions and you're negotiating.") + "\n")
		}
		b.WriteString(dimStyle.Render("press enter to begin, esc to quit"))

	case StepInterpreter:
		b.WriteString(titleStyle.Render("Task interpreter") + "\n")
		b.WriteString(m.renderChoices())

	case StepAPIKeyEnv:
		b.WriteString(titleStyle.Render("API key environment variable") + "\n")
		b.WriteString(subtitleStyle.Render("The key itself stays in your environment, never in the config.") + "\n")
		b.WriteString(m.textInput.View())

	case StepCatalogPath:
		b.WriteString(titleStyle.Render("Tool catalog file") + "\n")
		b.WriteString(subtitleStyle.Render("Path to a tools.yaml override, or empty for the built-in catalog.") + "\n")
		b.WriteString(m.textInput.View())

	case StepCatalogWatch:
		b.WriteString(titleStyle.Render("Hot-reload the catalog on change?") + "\n")
		b.WriteString(m.renderChoices())

	case StepStoragePath:
		b.WriteString(titleStyle.Render("Storage directory") + "\n")
		b.WriteString(m.textInput.View())

	case StepPersistPrefs:
		b.WriteString(titleStyle.Render("Persist preference history across runs?") + "\n")
		b.WriteString(m.renderChoices())

	case StepTelemetry:
		b.WriteString(titleStyle.Render("Enable trace export?") + "\n")
		b.WriteString(m.renderChoices())

	case StepOutputDir:
		b.WriteString(titleStyle.Render("Execution output directory") + "\n")
		b.WriteString(m.textInput.View())

	case StepConfirm:
		b.WriteString(titleStyle.Render("Ready to write maestro.toml") + "\n")
		b.WriteString(m.renderChoices())

	case StepComplete:
		if m.err != nil {
			b.WriteString(errorStyle.Render("setup failed: "+m.err.Error()) + "\n")
		} else {
			b.WriteString(successStyle.Render("Wrote "+m.written) + "\n")
			b.WriteString(dimStyle.Render("Run 'maestro run' to start negotiating."))
		}
	}

	b.WriteString("\n")
	return b.String()
}

func (m Model) renderChoices() string {
	var b strings.Builder
	for i, choice := range m.choices() {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+choice) + "\n")
		} else {
			b.WriteString(normalStyle.Render("  "+choice) + "\n")
		}
	}
	b.WriteString(dimStyle.Render("up/down to move, enter to select"))
	return b.String()
}

// Run launches the wizard.
func Run() error {
	_, err := tea.NewProgram(New()).Run()
	return err
}
