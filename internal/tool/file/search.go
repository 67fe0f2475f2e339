package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/navvylabs/navvy/internal/tool"
)

type searchRequest struct {
	Path        string `json:"path"`
	Regex       string `json:"regex"`
	FilePattern string `json:"file_pattern"`
}

// maxSearchFileSize skips obviously huge files; content search targets
// source trees, not build artifacts.
const maxSearchFileSize = 2 * 1024 * 1024

func (t *Tools) searchFiles(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req searchRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}

	re, err := regexp.Compile(req.Regex)
	if err != nil {
		return tool.ErrorText(fmt.Sprintf("invalid regex: %v", err)), nil
	}

	abs, err := t.resolver.Abs(req.Path)
	if err != nil {
		return tool.Result{}, err
	}
	if info, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return tool.ErrorText(fmt.Sprintf("%v: %s", ErrFileMissing, req.Path)), nil
		}
		return tool.Result{}, err
	} else if !info.IsDir() {
		return tool.ErrorText(fmt.Sprintf("%v: %s", ErrNotADirectory, req.Path)), nil
	}

	var b strings.Builder
	matches := 0
	truncated := false

	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, relErr := t.resolver.Rel(path)
		if relErr != nil || path == abs {
			return nil
		}
		if t.ignore.Skip(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if req.FilePattern != "" {
			if ok, _ := filepath.Match(req.FilePattern, d.Name()); !ok {
				return nil
			}
		}
		if info, err := d.Info(); err != nil || info.Size() > maxSearchFileSize {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil || isBinary(data) {
			return nil
		}

		fileMatches, count := searchContent(rel, string(data), re, t.matchLimit-matches)
		if count > 0 {
			b.WriteString(fileMatches)
			matches += count
		}
		if matches >= t.matchLimit {
			truncated = true
			return filepath.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return tool.Result{}, walkErr
	}

	if matches == 0 {
		return tool.Text("No matches found."), nil
	}
	out := strings.TrimRight(b.String(), "\n")
	if truncated {
		out += fmt.Sprintf("\n[results truncated at %d matches]", t.matchLimit)
	}
	return tool.Text(out), nil
}

// searchContent formats the matching lines of one file with surrounding
// context rows, grouped under the file path. Returns the rendered block
// and the number of matches it contains.
func searchContent(rel, content string, re *regexp.Regexp, budget int) (string, int) {
	if budget <= 0 {
		return "", 0
	}
	lines := strings.Split(content, "\n")

	matched := make([]int, 0, 8)
	for i, line := range lines {
		if re.MatchString(line) {
			matched = append(matched, i)
			if len(matched) >= budget {
				break
			}
		}
	}
	if len(matched) == 0 {
		return "", 0
	}

	var b strings.Builder
	b.WriteString(rel + "\n")
	lastPrinted := -1
	for _, idx := range matched {
		from := idx - defaultContextRows
		if from < 0 {
			from = 0
		}
		to := idx + defaultContextRows
		if to >= len(lines) {
			to = len(lines) - 1
		}
		if from > lastPrinted+1 {
			b.WriteString("│----\n")
		}
		for i := from; i <= to; i++ {
			if i <= lastPrinted {
				continue
			}
			b.WriteString(fmt.Sprintf("│ %d: %s\n", i+1, lines[i]))
			lastPrinted = i
		}
	}
	b.WriteString("│----\n\n")
	return b.String(), len(matched)
}

// isBinary applies the NUL-byte heuristic to the head of the file.
func isBinary(data []byte) bool {
	sample := data
	if len(sample) > 8000 {
		sample = sample[:8000]
	}
	for _, b := range sample {
		if b == 0 {
			return true
		}
	}
	return false
}
