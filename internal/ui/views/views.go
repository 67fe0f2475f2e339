// Package views renders the terminal UI. Every render function is a pure
// function of State; all mutation happens in the update loop one package
// up.
package views

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
)

// Message is one entry in the transcript.
type Message struct {
	Role    string // user, assistant, tool, system
	Content string
}

// Approval is a tool call held for the operator.
type Approval struct {
	CallID string
	Tool   string
	Risk   string
	Detail string // pre-formatted preview of what the call would do
}

// Question is a follow-up question from the model. The next submitted
// input answers it.
type Question struct {
	CallID   string
	Question string
	Options  []string
}

// Usage is the running token total for the session.
type Usage struct {
	Prompt     int
	Completion int
	Total      int
}

// State is everything the views need to draw one frame.
type State struct {
	Width  int
	Height int

	Input    textinput.Model
	Viewport viewport.Model
	Spinner  spinner.Model

	Messages  []Message
	Streaming string // assistant prose still arriving

	TaskState     string
	Thinking      bool
	DotCount      int
	StatusMessage string

	ModelName string
	Mode      string

	PendingApproval *Approval
	PendingQuestion *Question

	Usage Usage
}
