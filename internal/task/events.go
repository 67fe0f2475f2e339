package task

import (
	"github.com/navvylabs/navvy/internal/conversation"
	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/provider"
)

// Event is the interface implemented by everything the engine publishes
// on its event channel. Consumers switch on the concrete type.
type Event interface {
	isEvent()
}

// StateEvent announces a lifecycle transition.
type StateEvent struct {
	State State
}

// ThinkingEvent marks the start of a model turn, before the first chunk
// arrives.
type ThinkingEvent struct{}

// TextEvent carries one incremental piece of assistant prose.
type TextEvent struct {
	Text string
}

// ToolStartEvent fires when a call is handed to the dispatcher.
type ToolStartEvent struct {
	CallID string
	Name   string
	Args   map[string]any
}

// ToolProgressEvent carries partial output from a running call.
type ToolProgressEvent struct {
	CallID string
	Name   string
	Chunk  string
}

// ToolEndEvent fires when a call's result has been appended to the
// conversation, in call order.
type ToolEndEvent struct {
	CallID string
	Name   string
	Result conversation.ToolResult
}

// ApprovalRequestEvent fires when a call is held for the operator.
// Resolve it with Engine.Approve or Engine.Reject.
type ApprovalRequestEvent struct {
	CallID string
	Name   string
	Risk   permission.Risk
	Args   map[string]any
}

// QuestionEvent fires when the model asks the operator something. The
// next Submit answers it.
type QuestionEvent struct {
	CallID   string
	Question string
	Options  []string
}

// CompletionEvent fires when the model declares the task done.
type CompletionEvent struct {
	Result  string
	Command string
}

// UsageEvent reports token accounting for one model turn.
type UsageEvent struct {
	Usage provider.Usage
}

// ErrorEvent reports a failed step. The task returns to idle and a new
// Submit retries.
type ErrorEvent struct {
	Err error
}

func (StateEvent) isEvent()           {}
func (ThinkingEvent) isEvent()        {}
func (TextEvent) isEvent()            {}
func (ToolStartEvent) isEvent()       {}
func (ToolProgressEvent) isEvent()    {}
func (ToolEndEvent) isEvent()         {}
func (ApprovalRequestEvent) isEvent() {}
func (QuestionEvent) isEvent()        {}
func (CompletionEvent) isEvent()      {}
func (UsageEvent) isEvent()           {}
func (ErrorEvent) isEvent()           {}
