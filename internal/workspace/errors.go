package workspace

import (
	"errors"
	"fmt"
)

var (
	// ErrOutsideWorkspace is returned when a path escapes the workspace
	// boundary. Tool dispatch reports it as a sandbox violation.
	ErrOutsideWorkspace = errors.New("path is outside the workspace")

	// ErrRootNotSet is returned when resolving against an empty root.
	ErrRootNotSet = errors.New("workspace root is not set")

	// ErrNotADirectory is returned when the workspace root is not a directory.
	ErrNotADirectory = errors.New("workspace root is not a directory")
)

// RootError wraps failures while canonicalising the workspace root.
type RootError struct {
	Root  string
	Cause error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("invalid workspace root %q: %v", e.Root, e.Cause)
}

func (e *RootError) Unwrap() error { return e.Cause }
