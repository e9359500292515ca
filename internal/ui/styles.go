package ui

import (
	"github.com/charmbracelet/lipgloss"

	"magpie/internal/model"
)

// Color palette
var (
	ColorBase    = lipgloss.Color("#15181E")
	ColorSurface = lipgloss.Color("#222833")
	ColorZebra   = lipgloss.Color("#1B2029")
	ColorMuted   = lipgloss.Color("#7A8494")
	ColorText    = lipgloss.Color("#DCE1EA")
	ColorAccent  = lipgloss.Color("#6FA8DC")
	ColorGreen   = lipgloss.Color("#a6e3a1")
	ColorRed     = lipgloss.Color("#f38ba8")
	ColorYellow  = lipgloss.Color("#f9e2af")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ColorMuted)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true).
				Padding(0, 1).
				Background(ColorSurface)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorBase).
				Background(ColorAccent)

	NormalRowStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SkeletonStyle = lipgloss.NewStyle().
			Foreground(ColorSurface)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	InputStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorSurface).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorMuted).
			Padding(1, 2)

	ActivePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(ColorAccent).
				Padding(1, 2)

	BreadcrumbStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	BreadcrumbActiveStyle = lipgloss.NewStyle().
				Foreground(ColorAccent)

	EmptyStateStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true).
			Padding(2, 4)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)

// toneColor maps a source health tone to its foreground.
func toneColor(tone model.HealthTone) lipgloss.TerminalColor {
	switch tone {
	case model.ToneHealthy:
		return ColorGreen
	case model.ToneMixed:
		return ColorYellow
	case model.ToneUnhealthy:
		return ColorRed
	default:
		return ColorMuted
	}
}

// reputationColor maps a reputation label to its foreground.
func reputationColor(label string) lipgloss.TerminalColor {
	switch label {
	case "good":
		return ColorGreen
	case "neutral":
		return ColorYellow
	case "poor":
		return ColorRed
	default:
		return ColorMuted
	}
}
