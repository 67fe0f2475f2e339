package task

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/navvylabs/navvy/internal/conversation"
	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/provider"
	"github.com/navvylabs/navvy/internal/tool"
	"github.com/navvylabs/navvy/internal/tool/control"
)

type stepOutcome int

const (
	stepContinue stepOutcome = iota
	stepIdle
	stepCompleted
	stepCancelled
	stepFailed
)

// run is the task goroutine. It loops model steps until one of them
// settles the task or the step ceiling is hit.
func (e *Engine) run(ctx context.Context) {
	for steps := 0; ; steps++ {
		if ctx.Err() != nil {
			e.finishCancelled()
			return
		}
		if cancelled := e.parkIfPaused(ctx); cancelled {
			e.finishCancelled()
			return
		}
		if steps >= e.maxSteps {
			e.emit(ErrorEvent{Err: fmt.Errorf("%w: %d steps without completion", ErrMaxSteps, steps)})
			e.finishIdle()
			return
		}

		switch e.step(ctx) {
		case stepContinue:
		case stepIdle:
			e.finishIdle()
			return
		case stepCompleted:
			e.finishCompleted()
			return
		case stepCancelled:
			e.finishCancelled()
			return
		case stepFailed:
			e.finishFailed()
			return
		}
	}
}

// parkIfPaused holds the goroutine while a pause is in effect. Reports
// whether the task was cancelled while parked.
func (e *Engine) parkIfPaused(ctx context.Context) bool {
	e.mu.Lock()
	requested := e.pauseRequested
	e.pauseRequested = false
	if !requested {
		e.mu.Unlock()
		return false
	}
	e.state = StatePaused
	e.mu.Unlock()

	e.emit(StateEvent{State: StatePaused})
	e.saveHistory()

	select {
	case <-e.resume:
		e.mu.Lock()
		e.state = StateRunning
		e.mu.Unlock()
		e.emit(StateEvent{State: StateRunning})
		return false
	case <-ctx.Done():
		return true
	}
}

// step runs one model turn: stream the reply, record it, and resolve
// every call in it.
func (e *Engine) step(ctx context.Context) stepOutcome {
	e.emit(ThinkingEvent{})

	e.mu.Lock()
	req := &provider.Request{
		System: e.system,
		Turns:  e.conv.Turns(),
		Tools:  e.dispatcher.Registry().Declarations(),
	}
	e.mu.Unlock()

	stream, err := e.provider.Stream(ctx, req)
	if err != nil {
		return e.stepError(ctx, err)
	}
	defer stream.Close()

	acc := newAccumulator()
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return e.stepError(ctx, err)
		}
		delta, err := acc.feed(chunk)
		if err != nil {
			return e.stepError(ctx, err)
		}
		if delta != "" {
			e.emit(TextEvent{Text: delta})
		}
		if chunk.Kind == provider.ChunkDone {
			break
		}
	}

	text, calls, usage := acc.finish()
	if usage != nil {
		e.emit(UsageEvent{Usage: *usage})
	}

	// A turn with nothing in it ends the exchange.
	if text == "" && len(calls) == 0 {
		return stepIdle
	}

	turnCalls := make([]conversation.ToolCall, len(calls))
	for i, ac := range calls {
		turnCalls[i] = ac.call
	}
	// Rejection leaves the log untouched, so a malformed model turn
	// (duplicate or empty call IDs) costs the step, not the task.
	if err := e.appendAssistant(text, turnCalls); err != nil {
		e.log.Error("conversation rejected assistant turn", "error", err)
		e.emit(ErrorEvent{Err: err})
		return stepIdle
	}

	if len(calls) == 0 {
		return stepIdle
	}
	return e.resolveCalls(ctx, calls)
}

// stepError sorts a failed step: operator cancellation settles the task,
// anything else is surfaced and the task returns to idle so a new Submit
// can retry. Transport failures never mark the task failed.
func (e *Engine) stepError(ctx context.Context, err error) stepOutcome {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return stepCancelled
	}
	e.log.Error("model step failed", "error", err)
	e.emit(ErrorEvent{Err: err})
	return stepIdle
}

// slot pairs a call with its eventual result. Dispatch runs concurrently
// but results are appended strictly in call order.
type slot struct {
	call   conversation.ToolCall
	result conversation.ToolResult
	done   chan struct{}
}

func settled(call conversation.ToolCall, res conversation.ToolResult) *slot {
	s := &slot{call: call, result: res, done: make(chan struct{})}
	close(s.done)
	return s
}

// resolveCalls drives every call of one assistant turn to a result.
// Authorization is sequential in call order; approved calls dispatch
// concurrently and the path locks inside the dispatcher serialize what
// must not overlap.
func (e *Engine) resolveCalls(ctx context.Context, calls []accCall) stepOutcome {
	var (
		slots     []*slot
		completed bool
		parked    string
		cancelled bool
	)

	launch := func(call conversation.ToolCall) {
		s := &slot{call: call, done: make(chan struct{})}
		slots = append(slots, s)
		e.emit(ToolStartEvent{CallID: call.ID, Name: call.Name, Args: call.Args})
		go func() {
			s.result = e.dispatcher.Dispatch(ctx, call, e.progressSink(call.Name))
			close(s.done)
		}()
	}

authorize:
	for _, ac := range calls {
		call := ac.call

		if parked != "" {
			slots = append(slots, settled(call, conversation.ErrorResult(call.ID, "not executed: waiting for the operator's answer")))
			continue
		}
		if ac.malformed != "" {
			verr := &tool.ValidationError{Tool: call.Name, Reason: ac.malformed}
			slots = append(slots, settled(call, conversation.ErrorResult(call.ID, verr.Error())))
			continue
		}

		switch call.Name {
		case control.AskFollowupQuestion:
			// No result yet: the next Submit answers this call.
			parked = call.ID
			var q control.QuestionArgs
			if err := tool.DecodeArgs(call.Args, &q); err == nil {
				e.emit(QuestionEvent{CallID: call.ID, Question: q.Question, Options: q.Options})
			}
			continue
		case control.AttemptCompletion:
			completed = true
			var c control.CompletionArgs
			if err := tool.DecodeArgs(call.Args, &c); err == nil {
				e.emit(CompletionEvent{Result: c.Result, Command: c.Command})
			}
		}

		desc, known := e.dispatcher.Registry().Lookup(call.Name)
		if !known {
			// The dispatcher answers unknown tools itself; nothing to gate.
			launch(call)
			continue
		}

		decision, err := e.gate.Authorize(call.ID, desc.Risk)
		if err != nil {
			slots = append(slots, settled(call, conversation.ErrorResult(call.ID, fmt.Sprintf("not authorized: %v", err))))
			continue
		}
		switch decision.Verdict {
		case permission.VerdictDeny:
			slots = append(slots, settled(call, conversation.ErrorResult(call.ID, decision.Reason)))
		case permission.VerdictAsk:
			e.setState(StateWaitingApproval)
			e.emit(ApprovalRequestEvent{CallID: call.ID, Name: call.Name, Risk: desc.Risk, Args: call.Args})
			res, aerr := e.gate.Await(ctx)
			if aerr != nil {
				if ctx.Err() != nil {
					cancelled = true
					slots = append(slots, settled(call, conversation.ErrorResult(call.ID, "cancelled before completion")))
					break authorize
				}
				e.setState(StateRunning)
				slots = append(slots, settled(call, conversation.ErrorResult(call.ID, fmt.Sprintf("approval not resolved: %v", aerr))))
				continue
			}
			e.setState(StateRunning)
			if !res.Approved {
				reason := res.Reason
				if reason == "" {
					reason = "rejected by the operator"
				}
				slots = append(slots, settled(call, conversation.ErrorResult(call.ID, reason)))
				continue
			}
			launch(call)
		default:
			launch(call)
		}
	}

	// Append in call order; launched slots are waited on here, so no
	// dispatch goroutine outlives the turn.
	for _, s := range slots {
		<-s.done
		res := s.result
		if e.env != nil && !cancelled {
			res.Blocks = append(res.Blocks, conversation.TextBlock("\n"+e.env.Render(res.Text())))
		}
		if err := e.appendResult(res); err != nil {
			e.log.Error("conversation rejected tool result", "call", s.call.ID, "error", err)
			e.emit(ErrorEvent{Err: err})
			return stepFailed
		}
		e.emit(ToolEndEvent{CallID: s.call.ID, Name: s.call.Name, Result: s.result})
	}

	switch {
	case cancelled:
		return stepCancelled
	case completed:
		if parked != "" {
			// Completion supersedes the question in the same turn.
			if err := e.appendResult(conversation.TextResult(parked, "")); err != nil {
				e.log.Error("conversation rejected completion sweep", "call", parked, "error", err)
				e.emit(ErrorEvent{Err: err})
				return stepFailed
			}
		}
		return stepCompleted
	case parked != "":
		e.mu.Lock()
		e.pendingQuestion = parked
		e.mu.Unlock()
		return stepIdle
	default:
		return stepContinue
	}
}

func (e *Engine) progressSink(name string) tool.ProgressSink {
	return func(callID, text string) {
		e.emit(ToolProgressEvent{CallID: callID, Name: name, Chunk: text})
	}
}
