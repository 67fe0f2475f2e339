package web

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var ErrNoSearchProvider = errors.New("no web search provider configured")

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
	}
	return fmt.Sprintf("unexpected status %d from %s: %s", e.Status, e.URL, e.Body)
}
