// Package ui holds the terminal styling shared by the CLI: a severity
// color palette, status styles and TTY detection.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/advanced-security/policy-as-code/pkg/severity"
)

// Severity colors, matching the conventions of mainstream scanners.
var (
	ColorCritical = lipgloss.Color("#FF0000")
	ColorHigh     = lipgloss.Color("#FF6B6B")
	ColorMedium   = lipgloss.Color("#FFD93D")
	ColorLow      = lipgloss.Color("#6BCB77")
	ColorInfo     = lipgloss.Color("#4D96FF")

	// Status colors
	ColorSuccess = lipgloss.Color("#00D26A")
	ColorWarning = lipgloss.Color("#FFB800")
	ColorError   = lipgloss.Color("#FF3838")
	ColorMuted   = lipgloss.Color("#6B7280")
)

// Pre-configured styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
)

// severityStyles maps severity ranks to their display style.
var severityStyles = map[severity.Severity]lipgloss.Style{
	severity.Critical: lipgloss.NewStyle().Foreground(ColorCritical).Bold(true),
	severity.High:     lipgloss.NewStyle().Foreground(ColorHigh),
	severity.Error:    lipgloss.NewStyle().Foreground(ColorError),
	severity.Medium:   lipgloss.NewStyle().Foreground(ColorMedium),
	severity.Moderate: lipgloss.NewStyle().Foreground(ColorMedium),
	severity.Low:      lipgloss.NewStyle().Foreground(ColorLow),
	severity.Warning:  lipgloss.NewStyle().Foreground(ColorWarning),
	severity.Note:     lipgloss.NewStyle().Foreground(ColorInfo),
}

// SeverityStyle returns the display style for a severity label,
// muted for anything outside the taxonomy.
func SeverityStyle(sev severity.Severity) lipgloss.Style {
	if style, ok := severityStyles[sev]; ok {
		return style
	}
	return MutedStyle
}
