// Package ui is the interactive product browser of the console.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary     = lipgloss.AdaptiveColor{Light: "#101F38", Dark: "#8BC34A"}
	colorBorder      = lipgloss.AdaptiveColor{Light: "#dce0e5", Dark: "#2a3850"}
	colorMuted       = lipgloss.AdaptiveColor{Light: "#6a737d", Dark: "#8b949e"}
	colorDestructive = lipgloss.Color("#e53935")
	colorSuccess     = lipgloss.Color("#8BC34A")
	colorWarning     = lipgloss.Color("#FFC107")
)

// Styles groups the styles used by the page
type Styles struct {
	Header  lipgloss.Style
	Content lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Input   lipgloss.Style
	Focused lipgloss.Style
	Form    lipgloss.Style
	Label   lipgloss.Style
	Rating  lipgloss.Style
}

// DefaultStyles returns the console palette
func DefaultStyles() Styles {
	input := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(colorPrimary).
			Padding(0, 1),
		Content: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorBorder),
		Info:    lipgloss.NewStyle().Foreground(colorPrimary),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
		Error:   lipgloss.NewStyle().Foreground(colorDestructive).Bold(true),
		Success: lipgloss.NewStyle().Foreground(colorSuccess),
		Input:   input,
		Focused: input.BorderForeground(colorPrimary),
		Form: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2),
		Label:  lipgloss.NewStyle().Width(10).Foreground(colorMuted),
		Rating: lipgloss.NewStyle().Foreground(colorWarning),
	}
}
