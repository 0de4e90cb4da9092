package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary   = lipgloss.Color("#326CE5") // Kubernetes blue
	colorSuccess   = lipgloss.Color("#04B575")
	colorWarning   = lipgloss.Color("#FFBD2E")
	colorError     = lipgloss.Color("#FF6B6B")
	colorMuted     = lipgloss.Color("#626262")
	colorHighlight = lipgloss.Color("#7D56F4")
	colorProdBg    = lipgloss.Color("#8B0000")
	colorWarnBg    = lipgloss.Color("#CC7700")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	clusterStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF")).
			PaddingLeft(1).
			PaddingRight(1)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Bold(true)

	focusedStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted).
			Underline(true)

	groupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted)

	sidebarStyle = lipgloss.NewStyle().
			Width(28).
			PaddingRight(1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(colorMuted)

	toastSuccessStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)

	toastErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	bannerWarnStyle = lipgloss.NewStyle().
			Background(colorWarnBg).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			PaddingLeft(1).
			PaddingRight(1)

	bannerProdStyle = lipgloss.NewStyle().
			Background(colorProdBg).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			PaddingLeft(1).
			PaddingRight(1)

	liveStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)
)

func colorizeStatus(status string) string {
	base, _, cordoned := strings.Cut(status, ",")
	var style lipgloss.Style
	switch base {
	case "Ready":
		style = lipgloss.NewStyle().Foreground(colorSuccess)
	case "NotReady":
		style = lipgloss.NewStyle().Foreground(colorError)
	default:
		style = lipgloss.NewStyle().Foreground(colorMuted)
	}
	if cordoned {
		style = style.Foreground(colorWarning)
	}
	return style.Render(status)
}
