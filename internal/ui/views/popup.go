package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderApprovalPopup renders the held tool call for a decision.
func RenderApprovalPopup(s State) string {
	req := s.PendingApproval
	if req == nil {
		return ""
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Permission required"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("%s  %s", req.Tool, RiskBadgeStyle.Render(req.Risk)))
	if req.Detail != "" {
		lines = append(lines, "")
		lines = append(lines, req.Detail)
	}
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Faint(true).Render("y: Allow  n: Deny  Esc: Deny"))

	return PopupBoxStyle.Render(strings.Join(lines, "\n"))
}

// FormatQuestion renders a follow-up question for the transcript. Options
// are numbered; typing a number submits that option verbatim.
func FormatQuestion(q Question) string {
	var sb strings.Builder
	sb.WriteString(q.Question)
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, opt)
	}
	if len(q.Options) > 0 {
		sb.WriteString("\n\nReply with a number or free text.")
	}
	return sb.String()
}
