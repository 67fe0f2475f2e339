package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTool is returned when a name is registered twice. The
	// caller treats this as fatal at startup.
	ErrDuplicateTool = errors.New("tool name already registered")

	// ErrUnknownTool is returned when a call names no registered tool.
	ErrUnknownTool = errors.New("unknown tool")
)

// ValidationError marks a call rejected before execution: malformed
// arguments, schema mismatch, or an unknown tool name. The handler never
// ran and no side effect occurred.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid call to %s: %s", e.Tool, e.Reason)
}

// ExecutionError marks a tool that started and failed.
type ExecutionError struct {
	Tool  string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }
