package conversation

import "errors"

var (
	ErrEmptyCallID         = errors.New("tool call id is empty")
	ErrDuplicateCallID     = errors.New("duplicate tool call id")
	ErrUnknownCall         = errors.New("tool result references unknown call")
	ErrCallAlreadyResolved = errors.New("tool call already has a result")
)
