package views

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/navvylabs/navvy/internal/ui/services"
)

// RenderRoot renders the complete UI layout.
func RenderRoot(s State, renderer services.MarkdownRenderer) string {
	// Popups replace the frame: one decision at a time.
	if s.PendingApproval != nil {
		return overlay(s, RenderApprovalPopup(s))
	}

	sections := []string{
		RenderChat(s, renderer),
		RenderInput(s),
		RenderStatus(s),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// overlay centers a popup in the full window.
func overlay(s State, popup string) string {
	return lipgloss.Place(
		s.Width,
		s.Height,
		lipgloss.Center,
		lipgloss.Center,
		popup,
		lipgloss.WithWhitespaceChars(""),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("0")),
	)
}
