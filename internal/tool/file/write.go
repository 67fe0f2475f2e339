package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/navvylabs/navvy/internal/tool"
)

type writeRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (t *Tools) writeFile(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req writeRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}

	abs, err := t.resolver.Abs(req.Path)
	if err != nil {
		return tool.Result{}, err
	}
	rel, err := t.resolver.Rel(req.Path)
	if err != nil {
		return tool.Result{}, err
	}

	var before string
	existed := false
	if data, err := os.ReadFile(abs); err == nil {
		before = string(data)
		existed = true
	} else if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
		return tool.ErrorText(fmt.Sprintf("%v: %s", ErrIsDirectory, req.Path)), nil
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return tool.Result{}, err
	}
	if err := os.WriteFile(abs, []byte(req.Content), 0o644); err != nil {
		return tool.Result{}, err
	}

	if !existed {
		return tool.Text(fmt.Sprintf("Created %s (%d bytes)", rel, len(req.Content))), nil
	}
	return tool.Text(fmt.Sprintf("Updated %s\n\n%s", rel, unifiedDiff(rel, before, req.Content))), nil
}

// unifiedDiff renders the change the way code review would show it.
func unifiedDiff(rel, before, after string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + rel,
		ToFile:   "b/" + rel,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "(diff unavailable)"
	}
	if text == "" {
		return "(no changes)"
	}
	return text
}
