package shell

import (
	"context"
	"fmt"

	"github.com/navvylabs/navvy/internal/process"
	"github.com/navvylabs/navvy/internal/tool"
)

type executeRequest struct {
	Command string `json:"command"`
}

func (t *Tools) executeCommand(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req executeRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}

	id, err := t.super.Start(process.Spec{
		Command: req.Command,
		Dir:     t.workdir,
		Timeout: t.timeout,
		Sink: func(_ int, _ process.Stream, line string) {
			inv.Progress(line)
		},
	})
	if err != nil {
		return tool.Result{}, err
	}

	snap, finished, err := t.super.Wait(ctx, id, t.waitWindow)
	if err != nil {
		// The wait only fails on task cancellation; the command dies
		// with the call it belongs to.
		_ = t.super.Kill(id)
		return tool.Result{}, err
	}
	if finished {
		// Drain the entry now that the result is being reported.
		if drained, err := t.super.Poll(id); err == nil {
			snap = drained
		}
		return tool.Text(renderFinished(snap)), nil
	}
	return tool.Text(renderRunning(snap)), nil
}

// renderFinished formats a terminal command the way the model reads it
// back: ID, exit status, then the collected output.
func renderFinished(snap process.Snapshot) string {
	return fmt.Sprintf("Command ID: %d\nExit Status: %s\nOutput:\n%s",
		snap.ID, exitStatus(snap), snap.Output)
}

func renderRunning(snap process.Snapshot) string {
	return fmt.Sprintf("Command ID: %d\nCommand Still Running\nOutput:\n%s",
		snap.ID, snap.Output)
}

func exitStatus(snap process.Snapshot) string {
	switch snap.State {
	case process.StateKilled:
		return "Killed"
	case process.StateTimedOut:
		return "TimedOut"
	default:
		code := -1
		if snap.ExitCode != nil {
			code = *snap.ExitCode
		}
		return fmt.Sprintf("Exited(%d)", code)
	}
}
