package file

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/navvylabs/navvy/internal/tool"
)

const (
	markerSearch  = "<<<<<<< SEARCH"
	markerDivider = "======="
	markerReplace = ">>>>>>> REPLACE"
)

type replaceRequest struct {
	Path string `json:"path"`
	Diff string `json:"diff"`
}

// editBlock is one parsed SEARCH/REPLACE pair.
type editBlock struct {
	search  string
	replace string
}

func (t *Tools) replaceInFile(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req replaceRequest
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

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return tool.ErrorText(fmt.Sprintf("%v: %s", ErrFileMissing, req.Path)), nil
		}
		return tool.Result{}, err
	}
	before := string(data)

	blocks, err := parseEditBlocks(req.Diff)
	if err != nil {
		return tool.ErrorText(err.Error()), nil
	}

	// All blocks apply to an in-memory copy; the file is written only if
	// every one matches.
	after := before
	for i, block := range blocks {
		if !strings.Contains(after, block.search) {
			return tool.ErrorText((&SearchNotFoundError{Block: i + 1}).Error()), nil
		}
		after = strings.Replace(after, block.search, block.replace, 1)
	}

	if err := os.WriteFile(abs, []byte(after), 0o644); err != nil {
		return tool.Result{}, err
	}
	return tool.Text(fmt.Sprintf("Updated %s\n\n%s", rel, unifiedDiff(rel, before, after))), nil
}

// parseEditBlocks scans SEARCH/REPLACE markers line by line. Blocks apply
// in the order written.
func parseEditBlocks(diff string) ([]editBlock, error) {
	const (
		stateOutside = iota
		stateSearch
		stateReplace
	)

	var blocks []editBlock
	var searchLines, replaceLines []string
	state := stateOutside

	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimRight(line, "\r")
		switch state {
		case stateOutside:
			switch {
			case trimmed == markerSearch:
				state = stateSearch
				searchLines = nil
				replaceLines = nil
			case strings.TrimSpace(trimmed) == "":
				// blank lines between blocks
			default:
				return nil, &MalformedDiffError{Line: lineNo, Reason: fmt.Sprintf("expected %q", markerSearch)}
			}
		case stateSearch:
			switch trimmed {
			case markerDivider:
				state = stateReplace
			case markerSearch, markerReplace:
				return nil, &MalformedDiffError{Line: lineNo, Reason: fmt.Sprintf("expected %q", markerDivider)}
			default:
				searchLines = append(searchLines, trimmed)
			}
		case stateReplace:
			switch trimmed {
			case markerReplace:
				if len(searchLines) == 0 {
					return nil, &MalformedDiffError{Line: lineNo, Reason: "empty search block"}
				}
				blocks = append(blocks, editBlock{
					search:  strings.Join(searchLines, "\n"),
					replace: strings.Join(replaceLines, "\n"),
				})
				state = stateOutside
			case markerSearch, markerDivider:
				return nil, &MalformedDiffError{Line: lineNo, Reason: fmt.Sprintf("expected %q", markerReplace)}
			default:
				replaceLines = append(replaceLines, trimmed)
			}
		}
	}

	if state != stateOutside {
		return nil, &MalformedDiffError{Line: len(lines), Reason: "unterminated block"}
	}
	if len(blocks) == 0 {
		return nil, &MalformedDiffError{Line: 1, Reason: "no search/replace blocks found"}
	}
	return blocks, nil
}
