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

type definitionsRequest struct {
	Path string `json:"path"`
}

// definitionPatterns matches top-level definition lines per extension.
// A line-regex scan is deliberate: it covers the languages agents meet in
// practice without dragging a parser per grammar into the build.
var definitionPatterns = map[string][]*regexp.Regexp{
	".go": {
		regexp.MustCompile(`^func\s+(\(\s*\w+\s+[^)]+\)\s*)?\w+\s*\(`),
		regexp.MustCompile(`^type\s+\w+\s+(struct|interface)\b`),
	},
	".py": {
		regexp.MustCompile(`^\s*(def|class)\s+\w+`),
	},
	".js":  jsPatterns,
	".jsx": jsPatterns,
	".ts":  jsPatterns,
	".tsx": jsPatterns,
	".rs": {
		regexp.MustCompile(`^\s*(pub\s+)?(fn|struct|enum|trait|impl)\b`),
	},
	".java": {
		regexp.MustCompile(`^\s*(public|private|protected)?\s*(static\s+)?(class|interface|enum)\s+\w+`),
	},
	".rb": {
		regexp.MustCompile(`^\s*(def|class|module)\s+\w+`),
	},
}

var jsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(export\s+)?(default\s+)?(async\s+)?function\s*\*?\s*\w+`),
	regexp.MustCompile(`^\s*(export\s+)?(abstract\s+)?class\s+\w+`),
	regexp.MustCompile(`^\s*(export\s+)?(const|let)\s+\w+\s*=\s*(async\s*)?\(`),
}

const maxDefinitionFiles = 50

func (t *Tools) listDefinitions(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req definitionsRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
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
	scanned := 0

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

		patterns, ok := definitionPatterns[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		if scanned >= maxDefinitionFiles {
			return filepath.SkipAll
		}
		scanned++

		data, err := os.ReadFile(path)
		if err != nil || isBinary(data) {
			return nil
		}

		defs := scanDefinitions(string(data), patterns)
		if len(defs) > 0 {
			b.WriteString(rel + "\n")
			for _, def := range defs {
				b.WriteString("  " + def + "\n")
			}
			b.WriteString("\n")
		}
		return nil
	})
	if walkErr != nil {
		return tool.Result{}, walkErr
	}

	if b.Len() == 0 {
		return tool.Text("No definitions found."), nil
	}
	return tool.Text(strings.TrimRight(b.String(), "\n")), nil
}

func scanDefinitions(content string, patterns []*regexp.Regexp) []string {
	var defs []string
	for _, line := range strings.Split(content, "\n") {
		for _, re := range patterns {
			if re.MatchString(line) {
				defs = append(defs, strings.TrimSpace(strings.TrimRight(line, "{ \t")))
				break
			}
		}
	}
	return defs
}
