package memory

import "errors"

var ErrEntityNotFound = errors.New("entity not found")
