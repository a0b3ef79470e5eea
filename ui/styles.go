package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	success = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	danger  = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	warning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	muted   = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	errorStyle   = lipgloss.NewStyle().Foreground(danger)
	hintStyle    = lipgloss.NewStyle().Foreground(muted)
	statusStyle  = lipgloss.NewStyle().Foreground(warning)
	ownStyle     = lipgloss.NewStyle().Bold(true).Foreground(success)
	authorStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	freshStyle   = lipgloss.NewStyle().Foreground(warning)
	imageStyle   = lipgloss.NewStyle().Italic(true).Foreground(muted)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(accent).Foreground(lipgloss.Color("#000000"))
	composeStyle = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1)
)
