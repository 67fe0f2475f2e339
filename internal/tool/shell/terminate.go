package shell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/navvylabs/navvy/internal/process"
	"github.com/navvylabs/navvy/internal/tool"
)

// reapWindow bounds how long terminate_command waits for the interrupted
// process to actually die before reporting back.
const reapWindow = 10 * time.Second

func (t *Tools) terminateCommand(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req commandIDRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}

	// Existence check first so a mistyped ID reads as an error rather
	// than a silent success.
	if _, _, err := t.super.Wait(ctx, req.CommandID, 0); err != nil {
		if errors.Is(err, process.ErrUnknownProcess) {
			return tool.ErrorText(fmt.Sprintf("command %d not found", req.CommandID)), nil
		}
		return tool.Result{}, err
	}

	if err := t.super.Kill(req.CommandID); err != nil {
		return tool.Result{}, err
	}

	snap, finished, err := t.super.Wait(ctx, req.CommandID, reapWindow)
	if err != nil {
		return tool.Result{}, err
	}
	if !finished {
		return tool.Text(fmt.Sprintf("Termination of command %d requested; it has not exited yet.", req.CommandID)), nil
	}

	// Drain the terminal entry.
	_, _ = t.super.Poll(req.CommandID)
	return tool.Text(fmt.Sprintf("Command with ID %d successfully terminated.\nOutput:\n%s", snap.ID, snap.Output)), nil
}
