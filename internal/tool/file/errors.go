package file

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrFileMissing   = errors.New("file or path does not exist")
	ErrIsDirectory   = errors.New("path is a directory")
	ErrNotADirectory = errors.New("path is not a directory")
)

// MalformedDiffError reports a SEARCH/REPLACE payload that does not parse.
type MalformedDiffError struct {
	Line   int
	Reason string
}

func (e *MalformedDiffError) Error() string {
	return fmt.Sprintf("malformed search/replace diff at line %d: %s", e.Line, e.Reason)
}

// SearchNotFoundError reports a SEARCH block whose text is absent from the
// file being edited.
type SearchNotFoundError struct {
	Block int
}

func (e *SearchNotFoundError) Error() string {
	return fmt.Sprintf("search block %d not found in file", e.Block)
}
