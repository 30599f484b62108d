package tui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF0000")
	ColorGreen   = lipgloss.Color("#00FF00")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorOrange  = lipgloss.Color("#FFA500")
	ColorCyan    = lipgloss.Color("#00F2FF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	StatusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	ListeningDotStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				Bold(true)

	SpeakingDotStyle = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Bold(true)

	IdleDotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	UserStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	MiraStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	PartialTextStyle = lipgloss.NewStyle().
				Foreground(ColorYellow)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	BarFilledStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	BarEmptyStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	TextOnlyBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#000000")).
				Background(ColorOrange).
				Bold(true).
				Padding(0, 1)

	InsecureBannerStyle = lipgloss.NewStyle().
				Foreground(ColorWhite).
				Background(ColorRed).
				Padding(0, 1)

	HelpBannerStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorCyan).
			Padding(0, 1)

	FadingStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	NotificationStyle = lipgloss.NewStyle().
				Foreground(ColorGreen)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)
