package file

import (
	"context"
	"fmt"
	"os"

	"github.com/navvylabs/navvy/internal/tool"
)

type readRequest struct {
	Path string `json:"path"`
}

func (t *Tools) readFile(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req readRequest
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
	if info.IsDir() {
		return tool.ErrorText(fmt.Sprintf("%v: %s", ErrIsDirectory, req.Path)), nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return tool.Result{}, err
	}
	return tool.Text(string(data)), nil
}
