package ui

import (
	"github.com/navvylabs/navvy/internal/process"
	"github.com/navvylabs/navvy/internal/task"
)

// Agent is the slice of the task engine the UI drives. Submissions,
// approvals and lifecycle commands flow in through these methods; all
// feedback comes back on the event channel.
type Agent interface {
	Events() <-chan task.Event
	State() task.State
	Submit(instruction string) error
	Cancel() error
	Pause() error
	Resume() error
	Approve(callID string) error
	Reject(callID, reason string) error
}

// ProcessManager is the slice of the process supervisor exposed through
// slash commands: the operator can inspect, feed and kill workspace
// processes directly, without going through the model.
type ProcessManager interface {
	SendInput(id int, data string) error
	Kill(id int) error
	Live() []process.Snapshot
}
