// Package task drives one coding task at a time. The engine feeds the
// conversation to the model, folds the streamed reply into prose and
// tool calls, routes every call through the permission gate and the
// dispatcher, and appends results until the model declares completion,
// asks the operator a question, or the operator intervenes.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/navvylabs/navvy/internal/conversation"
	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/provider"
	"github.com/navvylabs/navvy/internal/session"
	"github.com/navvylabs/navvy/internal/tool"
	"github.com/navvylabs/navvy/internal/tool/control"
)

// State is the task lifecycle state.
type State string

const (
	StateIdle            State = "idle"
	StateRunning         State = "running"
	StateWaitingApproval State = "waiting_approval"
	StatePaused          State = "paused"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
	StateCancelled       State = "cancelled"
)

const (
	defaultMaxSteps    = 50
	defaultGrace       = 5 * time.Second
	defaultEventBuffer = 64
)

// Procs is the slice of the process supervisor the engine needs: when a
// task is cancelled, every process it spawned dies with it.
type Procs interface {
	KillAll(ctx context.Context) error
}

// Options carry the engine's optional collaborators and tuning knobs.
type Options struct {
	Procs  Procs         // reaped on cancellation
	Store  session.Store // conversation persisted at quiet points
	Env    *Environment  // details block attached to operator turns
	System string        // standing instructions for the model

	MaxSteps    int           // per task, default 50
	Grace       time.Duration // reap budget on cancellation, default 5s
	EventBuffer int           // event channel capacity, default 64
}

// Engine owns the conversation and the task lifecycle. All exported
// methods are safe for concurrent use; the conversation itself is only
// ever mutated by the engine.
type Engine struct {
	provider   provider.Provider
	dispatcher *tool.Dispatcher
	gate       *permission.Gate
	procs      Procs
	store      session.Store
	env        *Environment
	log        *slog.Logger

	system   string
	maxSteps int
	grace    time.Duration

	events chan Event
	resume chan struct{}

	mu              sync.Mutex
	state           State
	conv            *conversation.Log
	pendingQuestion string
	cancelTask      context.CancelFunc
	pauseRequested  bool
}

// New builds an engine in the idle state with an empty conversation.
func New(p provider.Provider, d *tool.Dispatcher, gate *permission.Gate, log *slog.Logger, opts Options) *Engine {
	if p == nil {
		panic("provider is required")
	}
	if d == nil {
		panic("dispatcher is required")
	}
	if gate == nil {
		panic("gate is required")
	}
	if log == nil {
		panic("log is required")
	}
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = defaultGrace
	}
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &Engine{
		provider:   p,
		dispatcher: d,
		gate:       gate,
		procs:      opts.Procs,
		store:      opts.Store,
		env:        opts.Env,
		log:        log,
		system:     opts.System,
		maxSteps:   maxSteps,
		grace:      grace,
		events:     make(chan Event, buffer),
		resume:     make(chan struct{}, 1),
		state:      StateIdle,
		conv:       conversation.New(),
	}
}

// Events returns the engine's event stream. The channel is never closed;
// consumers must keep draining it while a task runs.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// History returns a snapshot of the conversation.
func (e *Engine) History() []conversation.Turn {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conv.Turns()
}

// LoadHistory replaces the conversation with previously persisted turns.
// Only valid on a fresh engine, before the first Submit. A question the
// model asked before shutdown is re-armed so the next Submit answers it;
// any other dangling call gets an interrupted result.
func (e *Engine) LoadHistory(turns []conversation.Turn) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle || e.conv.Len() > 0 {
		return fmt.Errorf("%w: history loads only into a fresh engine", ErrBusy)
	}
	restored, err := conversation.Restore(turns)
	if err != nil {
		return err
	}
	for _, call := range restored.Unresolved() {
		if call.Name == control.AskFollowupQuestion && e.pendingQuestion == "" {
			e.pendingQuestion = call.ID
			continue
		}
		if err := restored.AppendToolResult(conversation.ErrorResult(call.ID, "interrupted before completion")); err != nil {
			return err
		}
	}
	e.conv = restored
	return nil
}

// Submit starts a task from the given instruction, or resumes a finished
// conversation with a follow-up. If the model is waiting on a question,
// the instruction becomes that call's answer instead of a fresh user
// turn.
func (e *Engine) Submit(instruction string) error {
	text := instruction
	if e.env != nil {
		text = instruction + "\n\n" + e.env.Render(instruction)
	}

	e.mu.Lock()
	switch e.state {
	case StateIdle, StateCompleted, StateCancelled, StateFailed:
	default:
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: state %s", ErrBusy, state)
	}

	if callID := e.pendingQuestion; callID != "" {
		e.pendingQuestion = ""
		if err := e.conv.AppendToolResult(conversation.TextResult(callID, text)); err != nil {
			e.mu.Unlock()
			return err
		}
	} else {
		e.conv.AppendUser(text)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancelTask = cancel
	e.pauseRequested = false
	e.state = StateRunning
	e.mu.Unlock()

	e.emit(StateEvent{State: StateRunning})
	go e.run(ctx)
	return nil
}

// Cancel aborts the task. The model stream is torn down, workspace
// processes are killed, and every unresolved call gets a cancelled
// result before the state lands on cancelled.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	state := e.state
	cancel := e.cancelTask
	e.mu.Unlock()

	switch state {
	case StateRunning, StateWaitingApproval, StatePaused:
	default:
		return fmt.Errorf("%w: state %s", ErrNotRunning, state)
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// Pause asks the task to hold at the next step boundary. Calls already
// in flight run to completion first.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateRunning, StateWaitingApproval:
		e.pauseRequested = true
		return nil
	default:
		return fmt.Errorf("%w: state %s", ErrNotRunning, e.state)
	}
}

// Resume wakes a paused task.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return fmt.Errorf("%w: state %s", ErrNotPaused, e.state)
	}
	select {
	case e.resume <- struct{}{}:
	default:
	}
	return nil
}

// Approve releases the call currently held for the operator.
func (e *Engine) Approve(callID string) error {
	return e.gate.Approve(callID)
}

// Reject refuses the held call. The reason becomes the call's result
// text, so the model reads exactly what the operator said.
func (e *Engine) Reject(callID, reason string) error {
	return e.gate.Reject(callID, reason)
}

// Mode reports the gate's session permission mode.
func (e *Engine) Mode() permission.Mode {
	return e.gate.Mode()
}

func (e *Engine) emit(ev Event) {
	e.events <- ev
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.emit(StateEvent{State: s})
}

func (e *Engine) appendAssistant(text string, calls []conversation.ToolCall) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conv.AppendAssistant(text, calls)
}

func (e *Engine) appendResult(res conversation.ToolResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conv.AppendToolResult(res)
}

func (e *Engine) saveHistory() {
	if e.store == nil {
		return
	}
	e.mu.Lock()
	turns := e.conv.Turns()
	e.mu.Unlock()
	if err := e.store.Save(turns); err != nil {
		e.log.Warn("history save failed", "error", err)
	}
}

func (e *Engine) finishIdle() {
	e.setState(StateIdle)
	e.saveHistory()
}

func (e *Engine) finishCompleted() {
	e.setState(StateCompleted)
	e.saveHistory()
}

func (e *Engine) finishFailed() {
	e.setState(StateFailed)
	e.saveHistory()
}

// finishCancelled reaps workspace processes within the grace budget and
// closes out every call the model is still waiting on.
func (e *Engine) finishCancelled() {
	if e.procs != nil {
		reapCtx, cancel := context.WithTimeout(context.Background(), e.grace)
		if err := e.procs.KillAll(reapCtx); err != nil {
			e.log.Warn("process reap incomplete after cancel", "error", err)
		}
		cancel()
	}

	e.mu.Lock()
	for _, call := range e.conv.Unresolved() {
		if err := e.conv.AppendToolResult(conversation.ErrorResult(call.ID, "cancelled before completion")); err != nil {
			e.log.Error("cancel sweep failed", "call", call.ID, "error", err)
		}
	}
	e.pendingQuestion = ""
	e.mu.Unlock()

	e.setState(StateCancelled)
	e.saveHistory()
}
