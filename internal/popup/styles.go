package popup

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#63B3ED")
	colorText      = lipgloss.Color("#FAFAFA")
	colorTextMuted = lipgloss.Color("#A0A0B0")
	colorTextDim   = lipgloss.Color("#6B6B80")
	colorSurface   = lipgloss.Color("#2D2D44")
	colorBar       = lipgloss.Color("#FBBF24")
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1)

	styleIcon = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	styleDevices = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface).
			Padding(0, 1)

	styleBold = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	styleBarFilled = lipgloss.NewStyle().
			Foreground(colorBar)

	styleBarEmpty = lipgloss.NewStyle().
			Foreground(colorTextDim)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorTextDim).
			MarginTop(1)
)
