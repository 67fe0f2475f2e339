// Package process supervises the external commands spawned by tool calls.
// Processes may outlive the call that started them; the supervisor owns
// every live handle and guarantees none survive shutdown.
package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle phase of a managed process.
type State string

const (
	StateStarting  State = "starting"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateKilled    State = "killed"
	StateTimedOut  State = "timed_out"
)

// Terminal reports whether a state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateKilled || s == StateTimedOut
}

// Stream tags output origin.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// OutputSink receives output lines as they arrive, tagged by origin.
// Called from pump goroutines; implementations must be safe for
// concurrent use and must not block.
type OutputSink func(id int, stream Stream, line string)

// Spec describes one command to run. The command string is executed
// through the shell, matching what an agent types into a terminal.
type Spec struct {
	Command string
	Dir     string
	Env     []string // appended to the parent environment
	Timeout time.Duration
	Sink    OutputSink
}

// Snapshot is a point-in-time copy of a managed process, safe to hold
// after the entry is gone.
type Snapshot struct {
	ID        int
	Command   string
	Dir       string
	State     State
	ExitCode  *int // nil until the process completes
	Output    string
	Truncated bool
	StartedAt time.Time
}

// Options tune the supervisor. Zero values fall back to defaults.
type Options struct {
	// MaxOutputBytes caps the retained output per process.
	MaxOutputBytes int

	// GraceTimeout is how long a process gets between interrupt and
	// forced kill.
	GraceTimeout time.Duration
}

const (
	defaultMaxOutputBytes = 512 * 1024
	defaultGraceTimeout   = 3 * time.Second
)

// Supervisor owns the live-process table. IDs are small integers assigned
// in spawn order and never reused within a session.
type Supervisor struct {
	log   *slog.Logger
	opts  Options
	shell string

	mu     sync.Mutex
	procs  map[int]*managed
	nextID int
	closed bool
}

type managed struct {
	id      int
	spec    Spec
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	output  *collector
	started time.Time

	mu       sync.Mutex
	state    State
	exitCode *int
	killed   bool // kill requested, decides terminal state
	timedOut bool

	// done closes once the process is reaped and both pumps finished.
	done chan struct{}
}

// NewSupervisor creates a supervisor. The logger is required.
func NewSupervisor(log *slog.Logger, opts Options) *Supervisor {
	if log == nil {
		panic("log is required")
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = defaultMaxOutputBytes
	}
	if opts.GraceTimeout <= 0 {
		opts.GraceTimeout = defaultGraceTimeout
	}
	return &Supervisor{
		log:   log,
		opts:  opts,
		shell: defaultShell(),
		procs: make(map[int]*managed),
	}
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "sh"
}

// Start spawns a process and registers it in the live table. The spawned
// process is not bound to any call context: it keeps running after the
// originating tool call returns and dies only via Kill, its own exit, its
// timeout, or supervisor shutdown.
func (s *Supervisor) Start(spec Spec) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSupervisorClosed
	}
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	cmd := exec.Command(s.shell, "-c", spec.Command)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	setProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return 0, &SpawnError{Command: spec.Command, Cause: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, &SpawnError{Command: spec.Command, Cause: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, &SpawnError{Command: spec.Command, Cause: err}
	}

	proc := &managed{
		id:      id,
		spec:    spec,
		cmd:     cmd,
		stdin:   stdin,
		output:  newCollector(s.opts.MaxOutputBytes),
		started: time.Now(),
		state:   StateStarting,
		done:    make(chan struct{}),
	}

	if err := cmd.Start(); err != nil {
		return 0, &SpawnError{Command: spec.Command, Cause: err}
	}

	proc.mu.Lock()
	proc.state = StateRunning
	proc.mu.Unlock()

	s.mu.Lock()
	if s.closed {
		// Shutdown raced the spawn; do not leak the process.
		s.mu.Unlock()
		_ = killProcess(cmd)
		_, _ = cmd.Process.Wait()
		return 0, ErrSupervisorClosed
	}
	s.procs[id] = proc
	s.mu.Unlock()

	s.log.Info("process started", "id", id, "command", spec.Command, "dir", spec.Dir)

	var pumps sync.WaitGroup
	pumps.Add(2)
	go s.pump(proc, StreamStdout, stdout, &pumps)
	go s.pump(proc, StreamStderr, stderr, &pumps)
	go s.reap(proc, &pumps)
	if spec.Timeout > 0 {
		go s.watchTimeout(proc, spec.Timeout)
	}

	return id, nil
}

// pump copies one output stream into the collector and the sink, line by
// line. Pipes reach EOF when the process exits or is killed.
func (s *Supervisor) pump(proc *managed, stream Stream, r io.Reader, pumps *sync.WaitGroup) {
	defer pumps.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		_, _ = proc.output.Write([]byte(line + "\n"))
		if proc.spec.Sink != nil {
			proc.spec.Sink(proc.id, stream, line)
		}
	}
	// Keep draining after a scan error so the child never blocks on a
	// full pipe.
	_, _ = io.Copy(io.Discard, r)
}

// reap waits for pump completion then the process itself, records the
// terminal state and closes done.
func (s *Supervisor) reap(proc *managed, pumps *sync.WaitGroup) {
	pumps.Wait()
	err := proc.cmd.Wait()

	code := exitCode(err)
	proc.mu.Lock()
	proc.exitCode = &code
	switch {
	case proc.timedOut:
		proc.state = StateTimedOut
	case proc.killed:
		proc.state = StateKilled
	default:
		proc.state = StateCompleted
	}
	state := proc.state
	proc.mu.Unlock()

	_ = proc.stdin.Close()
	close(proc.done)
	s.log.Info("process reaped", "id", proc.id, "state", string(state), "exit_code", code)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	type exitCoder interface {
		ExitCode() int
	}
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return -1
}

func (s *Supervisor) watchTimeout(proc *managed, timeout time.Duration) {
	select {
	case <-proc.done:
	case <-time.After(timeout):
		proc.mu.Lock()
		if proc.state.Terminal() {
			proc.mu.Unlock()
			return
		}
		proc.timedOut = true
		proc.mu.Unlock()
		s.log.Warn("process timed out", "id", proc.id, "timeout", timeout)
		s.terminate(proc)
	}
}

// terminate runs the interrupt-then-kill ladder against the whole process
// group without blocking the caller beyond the signal itself.
func (s *Supervisor) terminate(proc *managed) {
	_ = interruptProcess(proc.cmd)
	go func() {
		select {
		case <-proc.done:
		case <-time.After(s.opts.GraceTimeout):
			_ = killProcess(proc.cmd)
		}
	}()
}

// lookup returns the managed entry.
func (s *Supervisor) lookup(id int) (*managed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc, ok := s.procs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProcess, id)
	}
	return proc, nil
}

func (proc *managed) snapshot() Snapshot {
	proc.mu.Lock()
	defer proc.mu.Unlock()
	snap := Snapshot{
		ID:        proc.id,
		Command:   proc.spec.Command,
		Dir:       proc.spec.Dir,
		State:     proc.state,
		Output:    proc.output.String(),
		Truncated: proc.output.Truncated(),
		StartedAt: proc.started,
	}
	if proc.exitCode != nil {
		code := *proc.exitCode
		snap.ExitCode = &code
	}
	return snap
}

// Poll returns the current snapshot. A terminal process is drained by the
// poll: its entry leaves the live table and subsequent polls return
// ErrUnknownProcess.
func (s *Supervisor) Poll(id int) (Snapshot, error) {
	proc, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	snap := proc.snapshot()
	if snap.State.Terminal() {
		s.mu.Lock()
		delete(s.procs, id)
		s.mu.Unlock()
	}
	return snap, nil
}

// Wait blocks until the process reaches a terminal state, the given
// duration elapses, or ctx is cancelled. It reports whether the process
// finished. Unlike Poll it never drains the entry.
func (s *Supervisor) Wait(ctx context.Context, id int, d time.Duration) (Snapshot, bool, error) {
	proc, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, false, err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-proc.done:
		return proc.snapshot(), true, nil
	case <-timer.C:
		return proc.snapshot(), false, nil
	case <-ctx.Done():
		return proc.snapshot(), false, ctx.Err()
	}
}

// SendInput writes a line to the process stdin. A trailing newline is
// added when missing so interactive prompts see complete lines.
func (s *Supervisor) SendInput(id int, data string) error {
	proc, err := s.lookup(id)
	if err != nil {
		return err
	}
	proc.mu.Lock()
	terminal := proc.state.Terminal()
	proc.mu.Unlock()
	if terminal {
		return fmt.Errorf("%w: %d", ErrNotRunning, id)
	}

	if !strings.HasSuffix(data, "\n") {
		data += "\n"
	}
	if _, err := io.WriteString(proc.stdin, data); err != nil {
		return fmt.Errorf("send input to process %d: %w", id, err)
	}
	return nil
}

// Kill requests termination. Killing a process that is already dead or
// already drained is a no-op, never an error.
func (s *Supervisor) Kill(id int) error {
	s.mu.Lock()
	proc, ok := s.procs[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	proc.mu.Lock()
	if proc.state.Terminal() || proc.killed {
		proc.mu.Unlock()
		return nil
	}
	proc.killed = true
	proc.mu.Unlock()

	s.log.Info("killing process", "id", id)
	s.terminate(proc)
	return nil
}

// Live returns snapshots of every process still in the table, in ID
// order. Observing does not drain terminal entries.
func (s *Supervisor) Live() []Snapshot {
	s.mu.Lock()
	procs := make([]*managed, 0, len(s.procs))
	for _, proc := range s.procs {
		procs = append(procs, proc)
	}
	s.mu.Unlock()

	snaps := make([]Snapshot, 0, len(procs))
	for _, proc := range procs {
		snaps = append(snaps, proc.snapshot())
	}
	sortSnapshots(snaps)
	return snaps
}

func sortSnapshots(snaps []Snapshot) {
	for i := 1; i < len(snaps); i++ {
		for j := i; j > 0 && snaps[j-1].ID > snaps[j].ID; j-- {
			snaps[j-1], snaps[j] = snaps[j], snaps[j-1]
		}
	}
}

// KillAll terminates every live process and waits until each is reaped or
// the context expires. The table is cleared for all reaped entries.
func (s *Supervisor) KillAll(ctx context.Context) error {
	s.mu.Lock()
	procs := make([]*managed, 0, len(s.procs))
	for _, proc := range s.procs {
		procs = append(procs, proc)
	}
	s.mu.Unlock()

	for _, proc := range procs {
		_ = s.Kill(proc.id)
	}

	for _, proc := range procs {
		select {
		case <-proc.done:
			s.mu.Lock()
			delete(s.procs, proc.id)
			s.mu.Unlock()
		case <-ctx.Done():
			return fmt.Errorf("process %d not reaped: %w", proc.id, ctx.Err())
		}
	}
	return nil
}

// Shutdown kills and reaps everything, then refuses further starts.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.KillAll(ctx)
}
