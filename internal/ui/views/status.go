package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatus renders the status bar: task activity on the left, session
// facts on the right.
func RenderStatus(s State) string {
	left := renderActivity(s)

	var facts []string
	if s.ModelName != "" {
		facts = append(facts, s.ModelName)
	}
	if s.Mode != "" {
		facts = append(facts, s.Mode)
	}
	if s.Usage.Total > 0 {
		facts = append(facts, fmt.Sprintf("%d tok", s.Usage.Total))
	}
	if len(facts) == 0 {
		return left
	}

	right := StatusDefaultStyle.Render(strings.Join(facts, " · "))
	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}

func renderActivity(s State) string {
	switch s.TaskState {
	case "running":
		if s.Thinking {
			dots := strings.Repeat(".", s.DotCount)
			return StatusThinkingStyle.Render(fmt.Sprintf("%s Generating%s", s.Spinner.View(), dots))
		}
		msg := s.StatusMessage
		if msg == "" {
			msg = "Working"
		}
		return StatusExecutingStyle.Render(fmt.Sprintf("%s %s", s.Spinner.View(), msg))
	case "waiting_approval":
		return StatusExecutingStyle.Render("⚠ Waiting for approval")
	case "paused":
		return StatusDefaultStyle.Render("⏸ Paused - /resume to continue")
	case "completed":
		return StatusDoneStyle.Render("✔ Task completed")
	case "failed":
		return StatusErrorStyle.Render("✘ Task failed")
	case "cancelled":
		return StatusDefaultStyle.Render("✘ Task cancelled")
	default:
		if s.StatusMessage != "" {
			return StatusDefaultStyle.Render(s.StatusMessage)
		}
		return StatusDefaultStyle.Render("Ready")
	}
}
