package task

import "errors"

var (
	// ErrBusy is returned when an operation needs an idle or finished
	// task but one is still in flight.
	ErrBusy = errors.New("a task is already in progress")

	// ErrNotRunning is returned when an operation needs a live task.
	ErrNotRunning = errors.New("no task is running")

	// ErrNotPaused is returned by Resume when the task is not paused.
	ErrNotPaused = errors.New("task is not paused")

	// ErrStreamProtocol marks a model stream that violated chunk
	// ordering. The step is abandoned and the task returns to idle.
	ErrStreamProtocol = errors.New("model stream protocol violated")

	// ErrMaxSteps marks a task that hit the step ceiling without
	// completing.
	ErrMaxSteps = errors.New("step limit reached")
)
