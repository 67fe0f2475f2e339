package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/navvylabs/navvy/internal/process"
	"github.com/navvylabs/navvy/internal/tool"
)

type commandIDRequest struct {
	CommandID int `json:"command_id"`
}

func (t *Tools) getCommandResult(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req commandIDRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}

	snap, err := t.super.Poll(req.CommandID)
	if err != nil {
		if errors.Is(err, process.ErrUnknownProcess) {
			return tool.ErrorText(fmt.Sprintf("command %d not found; it may have already been reported or terminated", req.CommandID)), nil
		}
		return tool.Result{}, err
	}

	if snap.State.Terminal() {
		return tool.Text(renderFinished(snap)), nil
	}
	return tool.Text(renderRunning(snap)), nil
}
