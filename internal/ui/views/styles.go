package views

import "github.com/charmbracelet/lipgloss"

// Shared palette. ANSI 256 codes keep the UI usable on plain terminals.
var (
	ColorPrimary = lipgloss.Color("63")  // purple
	ColorSuccess = lipgloss.Color("42")  // green
	ColorWarning = lipgloss.Color("214") // orange
	ColorError   = lipgloss.Color("196") // red
	ColorDim     = lipgloss.Color("241") // gray
)

var (
	UserMessageStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true)

	AssistantMessageStyle = lipgloss.NewStyle()

	ToolMessageStyle = lipgloss.NewStyle().
				Foreground(ColorDim)

	SystemMessageStyle = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Italic(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ColorError)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim).
			Padding(0, 1)

	StatusThinkingStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary)

	StatusExecutingStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	StatusDoneStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorError)

	StatusDefaultStyle = lipgloss.NewStyle().
				Foreground(ColorDim)

	PopupBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)

	RiskBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)
)
