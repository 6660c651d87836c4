// Package render formats negotiation output for the terminal.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Structural / metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - labels, hints

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")) // White bold - headers

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")) // White - metric values

	// Options
	optionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")) // Blue - option labels

	recommendStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("13")) // Magenta - recommendation tag

	// Constraint verdicts
	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // Yellow - partial

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")) // Red

	divider = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(strings.Repeat("━", 60))
)
