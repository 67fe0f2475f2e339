package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/navvylabs/navvy/internal/conversation"
	"github.com/navvylabs/navvy/internal/workspace"
)

// Dispatcher validates, locks and executes authorized tool calls. Every
// failure mode becomes an error ToolResult the model can react to; the
// dispatcher itself never returns a Go error to the engine.
type Dispatcher struct {
	registry *Registry
	resolver *workspace.Resolver
	locks    *workspace.LockSet
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher. All dependencies are required.
func NewDispatcher(registry *Registry, resolver *workspace.Resolver, locks *workspace.LockSet, log *slog.Logger) *Dispatcher {
	if registry == nil {
		panic("registry is required")
	}
	if resolver == nil {
		panic("resolver is required")
	}
	if locks == nil {
		panic("locks is required")
	}
	if log == nil {
		panic("log is required")
	}
	return &Dispatcher{
		registry: registry,
		resolver: resolver,
		locks:    locks,
		log:      log,
	}
}

// Registry exposes the descriptor table for authorization lookups.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs one authorized call to completion and returns its result.
// Safe to invoke concurrently for calls of the same turn; the lock set
// serializes conflicting path access.
func (d *Dispatcher) Dispatch(ctx context.Context, call conversation.ToolCall, sink ProgressSink) conversation.ToolResult {
	desc, ok := d.registry.Lookup(call.Name)
	if !ok {
		verr := &ValidationError{Tool: call.Name, Reason: ErrUnknownTool.Error()}
		return conversation.ErrorResult(call.ID, verr.Error())
	}

	if err := desc.Parameters.Validate(call.Args); err != nil {
		verr := &ValidationError{Tool: call.Name, Reason: err.Error()}
		d.log.Warn("call rejected by schema", "tool", call.Name, "call_id", call.ID, "reason", err.Error())
		return conversation.ErrorResult(call.ID, verr.Error())
	}

	lockPaths, err := d.resolveLockPaths(desc, call.Args)
	if err != nil {
		if errors.Is(err, workspace.ErrOutsideWorkspace) {
			d.log.Warn("sandbox violation", "tool", call.Name, "call_id", call.ID, "error", err.Error())
			return conversation.ErrorResult(call.ID, fmt.Sprintf("sandbox violation: %v", err))
		}
		verr := &ValidationError{Tool: call.Name, Reason: err.Error()}
		return conversation.ErrorResult(call.ID, verr.Error())
	}

	var release func()
	if desc.Exclusive {
		release = d.locks.AcquireExclusive()
	} else {
		release = d.locks.Acquire(lockPaths, desc.Writes)
	}
	defer release()

	if ctx.Err() != nil {
		return conversation.ErrorResult(call.ID, "cancelled before completion")
	}

	started := time.Now()
	res, execErr := desc.Handler.Execute(ctx, NewInvocation(call.ID, sink), call.Args)
	elapsed := time.Since(started)

	if execErr != nil {
		return d.classify(call, desc, execErr, elapsed)
	}

	d.log.Debug("call completed", "tool", call.Name, "call_id", call.ID,
		"duration_ms", elapsed.Milliseconds(), "is_error", res.IsError)
	return conversation.ToolResult{CallID: call.ID, Blocks: res.Blocks, IsError: res.IsError}
}

// resolveLockPaths maps declared path arguments through the workspace
// boundary. Escaping paths fail here, before any handler runs.
func (d *Dispatcher) resolveLockPaths(desc *Descriptor, args map[string]any) ([]string, error) {
	if len(desc.PathArgs) == 0 {
		return nil, nil
	}
	paths := make([]string, 0, len(desc.PathArgs))
	for _, argName := range desc.PathArgs {
		raw, ok := args[argName]
		if !ok {
			continue
		}
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("field %q must be a string path", argName)
		}
		abs, err := d.resolver.Abs(str)
		if err != nil {
			return nil, err
		}
		paths = append(paths, abs)
	}
	return paths, nil
}

func (d *Dispatcher) classify(call conversation.ToolCall, desc *Descriptor, err error, elapsed time.Duration) conversation.ToolResult {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return conversation.ErrorResult(call.ID, "cancelled before completion")
	case errors.Is(err, workspace.ErrOutsideWorkspace):
		d.log.Warn("sandbox violation", "tool", call.Name, "call_id", call.ID, "error", err.Error())
		return conversation.ErrorResult(call.ID, fmt.Sprintf("sandbox violation: %v", err))
	default:
		var verr *ValidationError
		if errors.As(err, &verr) {
			return conversation.ErrorResult(call.ID, verr.Error())
		}
		xerr := &ExecutionError{Tool: call.Name, Cause: err}
		d.log.Error("call failed", "tool", call.Name, "call_id", call.ID,
			"duration_ms", elapsed.Milliseconds(), "error", err.Error())
		return conversation.ErrorResult(call.ID, xerr.Error())
	}
}
