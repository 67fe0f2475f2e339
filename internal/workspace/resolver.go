// Package workspace bounds all tool side effects to a single directory
// tree: path resolution with an escape check, gitignore-aware traversal
// filtering, and path-scoped locking for concurrent tool calls.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver resolves tool-supplied paths against the workspace boundary.
type Resolver struct {
	root string
}

// NewResolver creates a resolver for a canonicalised workspace root.
func NewResolver(root string) *Resolver {
	return &Resolver{root: root}
}

// CanonicaliseRoot makes a workspace root absolute and resolves symlinks.
// Returns an error if the path doesn't exist or isn't a directory.
func CanonicaliseRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &RootError{Root: root, Cause: err}
	}

	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &RootError{Root: absRoot, Cause: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &RootError{Root: resolved, Cause: err}
	}
	if !info.IsDir() {
		return "", &RootError{Root: resolved, Cause: fmt.Errorf("%w: %s", ErrNotADirectory, resolved)}
	}
	return resolved, nil
}

// Root returns the canonical workspace root.
func (r *Resolver) Root() string {
	return r.root
}

// Abs resolves any path to absolute and validates it is within the
// workspace boundary. Relative paths are joined to the root; "../" chains
// and absolute paths pointing elsewhere fail with ErrOutsideWorkspace.
func (r *Resolver) Abs(path string) (string, error) {
	if r.root == "" {
		return "", ErrRootNotSet
	}

	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(r.root, path))
	}

	// Boundary check: must be the root itself or a child of the root
	if !strings.HasPrefix(abs, r.root+string(filepath.Separator)) && abs != r.root {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}

	return abs, nil
}

// Rel resolves any path to workspace-relative form, validating the
// boundary. The root itself maps to "".
func (r *Resolver) Rel(path string) (string, error) {
	abs, err := r.Abs(path)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}

	if rel == "." {
		return "", nil
	}

	return filepath.ToSlash(rel), nil
}
