// Package ui is the Bubble Tea front end. It consumes the task engine's
// event stream and turns key presses into engine and supervisor calls;
// it never touches the conversation or the tools directly.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/navvylabs/navvy/internal/ui/services"
)

// Options carry session facts for the status bar and an optional
// markdown renderer override.
type Options struct {
	ModelName string
	Mode      string
	Renderer  services.MarkdownRenderer // defaults to glamour
}

// UI wraps the Bubble Tea program.
type UI struct {
	program *tea.Program
}

// New builds the UI over a task engine and a process supervisor.
func New(agent Agent, procs ProcessManager, opts Options) *UI {
	if opts.Renderer == nil {
		opts.Renderer = services.NewGlamourRenderer()
	}
	model := newModel(agent, procs, opts)
	return &UI{program: tea.NewProgram(model, tea.WithAltScreen())}
}

// Run blocks until the operator quits.
func (u *UI) Run() error {
	_, err := u.program.Run()
	return err
}
