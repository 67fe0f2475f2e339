package process

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProcess is returned for IDs the supervisor has never seen
	// or has already drained.
	ErrUnknownProcess = errors.New("unknown process id")

	// ErrNotRunning is returned when input is sent to a process that has
	// already reached a terminal state.
	ErrNotRunning = errors.New("process is not running")

	// ErrSupervisorClosed is returned by Start after Shutdown.
	ErrSupervisorClosed = errors.New("supervisor is shut down")
)

// SpawnError wraps failures to launch a command.
type SpawnError struct {
	Command string
	Cause   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %q: %v", e.Command, e.Cause)
}

func (e *SpawnError) Unwrap() error { return e.Cause }
