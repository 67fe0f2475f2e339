package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Directories that tool traversal always skips, gitignore or not.
var alwaysSkipped = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Ignore filters workspace traversal using the root .gitignore plus a set
// of always-skipped directories.
type Ignore struct {
	matcher gitignore.Matcher
}

// LoadIgnore reads .gitignore from the workspace root. A missing file
// yields a matcher that only applies the built-in skips.
func LoadIgnore(root string) (*Ignore, error) {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Ignore{}, nil
		}
		return nil, &RootError{Root: root, Cause: err}
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if p := gitignore.ParsePattern(line, nil); p != nil {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return &Ignore{}, nil
	}
	return &Ignore{matcher: gitignore.NewMatcher(patterns)}, nil
}

// Skip reports whether a workspace-relative path should be excluded from
// traversal. isDir matters for trailing-slash patterns.
func (ig *Ignore) Skip(rel string, isDir bool) bool {
	segments := splitSegments(rel)
	for _, seg := range segments {
		if alwaysSkipped[seg] {
			return true
		}
	}
	if ig.matcher == nil {
		return false
	}
	return ig.matcher.Match(segments, isDir)
}

// splitSegments normalizes separators and drops empty and "." parts.
func splitSegments(path string) []string {
	normalized := filepath.ToSlash(path)
	parts := strings.Split(normalized, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}
