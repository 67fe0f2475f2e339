package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/navvylabs/navvy/internal/tool"
)

type listRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

func (t *Tools) listFiles(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req listRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}

	abs, err := t.resolver.Abs(req.Path)
	if err != nil {
		return tool.Result{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return tool.ErrorText(fmt.Sprintf("%v: %s", ErrFileMissing, req.Path)), nil
		}
		return tool.Result{}, err
	}
	if !info.IsDir() {
		return tool.ErrorText(fmt.Sprintf("%v: %s", ErrNotADirectory, req.Path)), nil
	}

	entries, truncated, err := t.collectEntries(ctx, abs, req.Recursive)
	if err != nil {
		return tool.Result{}, err
	}

	if len(entries) == 0 {
		return tool.Text("(empty directory)"), nil
	}
	sort.Strings(entries)
	out := strings.Join(entries, "\n")
	if truncated {
		out += fmt.Sprintf("\n[listing truncated at %d entries]", t.listLimit)
	}
	return tool.Text(out), nil
}

// collectEntries walks the tree rooted at abs, honoring the ignore rules.
// Entries are workspace-relative; directories get a trailing slash.
func (t *Tools) collectEntries(ctx context.Context, abs string, recursive bool) ([]string, bool, error) {
	var entries []string
	truncated := false

	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == abs {
			return nil
		}

		rel, relErr := t.resolver.Rel(path)
		if relErr != nil {
			return nil
		}
		if t.ignore.Skip(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if len(entries) >= t.listLimit {
			truncated = true
			return filepath.SkipAll
		}
		if d.IsDir() {
			entries = append(entries, rel+"/")
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		entries = append(entries, rel)
		return nil
	})
	if walkErr != nil {
		return nil, false, walkErr
	}
	return entries, truncated, nil
}
