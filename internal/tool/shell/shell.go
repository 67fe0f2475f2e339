// Package shell exposes command execution as tools backed by the process
// supervisor. Commands that finish inside the wait window report their
// result synchronously; slower ones stay managed and are inspected with
// get_command_result or stopped with terminate_command.
package shell

import (
	"time"

	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/process"
	"github.com/navvylabs/navvy/internal/tool"
)

const defaultWaitWindow = 30 * time.Second

// Tools bundles the command handlers around one supervisor.
type Tools struct {
	super      *process.Supervisor
	workdir    string
	waitWindow time.Duration
	timeout    time.Duration // hard cap per command, zero means none
}

// Options tune the handlers. Zero values fall back to defaults.
type Options struct {
	// WaitWindow is how long execute_command blocks before handing a
	// still-running command back as in progress.
	WaitWindow time.Duration

	// Timeout is the hard per-command limit enforced by the supervisor.
	Timeout time.Duration
}

// New creates the shell tool set. Commands run in workdir.
func New(super *process.Supervisor, workdir string, opts Options) *Tools {
	if super == nil {
		panic("super is required")
	}
	if workdir == "" {
		panic("workdir is required")
	}
	if opts.WaitWindow <= 0 {
		opts.WaitWindow = defaultWaitWindow
	}
	return &Tools{
		super:      super,
		workdir:    workdir,
		waitWindow: opts.WaitWindow,
		timeout:    opts.Timeout,
	}
}

// Descriptors returns the registrable tool set.
func (t *Tools) Descriptors() []*tool.Descriptor {
	return []*tool.Descriptor{
		{
			Name: "execute_command",
			Description: "Run a shell command in the workspace directory. Returns the command ID, " +
				"exit status and output on completion. Commands still running after the wait " +
				"window return their ID and partial output; check on them with get_command_result " +
				"or stop them with terminate_command.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"command": {Type: tool.TypeString, Description: "The shell command to execute"},
				},
				Required: []string{"command"},
			},
			Risk:      permission.RiskDestructive,
			Exclusive: true,
			Handler:   tool.HandlerFunc(t.executeCommand),
		},
		{
			Name: "get_command_result",
			Description: "Check on a command started by execute_command. Returns its exit status " +
				"and output if finished, or its partial output if still running.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"command_id": {Type: tool.TypeInteger, Description: "ID returned by execute_command"},
				},
				Required: []string{"command_id"},
			},
			Risk:    permission.RiskSafe,
			Handler: tool.HandlerFunc(t.getCommandResult),
		},
		{
			Name:        "terminate_command",
			Description: "Stop a running command started by execute_command.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"command_id": {Type: tool.TypeInteger, Description: "ID returned by execute_command"},
				},
				Required: []string{"command_id"},
			},
			Risk:    permission.RiskDestructive,
			Handler: tool.HandlerFunc(t.terminateCommand),
		},
	}
}
