// Package tool holds the registry and dispatcher every call flows
// through, plus the descriptor contract the concrete tools implement.
package tool

import (
	"context"

	"github.com/mitchellh/mapstructure"

	"github.com/navvylabs/navvy/internal/conversation"
	"github.com/navvylabs/navvy/internal/permission"
)

// Result is what a handler produces. IsError flags failures the model
// should see in-band (a missing file, a failed search); infrastructure
// failures are returned as Go errors instead and classified by the
// dispatcher.
type Result struct {
	Blocks  []conversation.Block
	IsError bool
}

// Text builds a single text block result.
func Text(text string) Result {
	return Result{Blocks: []conversation.Block{conversation.TextBlock(text)}}
}

// ErrorText builds an in-band error result.
func ErrorText(text string) Result {
	return Result{Blocks: []conversation.Block{conversation.TextBlock(text)}, IsError: true}
}

// ProgressSink receives incremental output from long-running handlers
// before the call formally returns. Implementations must be safe for
// concurrent use and must not block.
type ProgressSink func(callID, text string)

// Invocation carries per-call context into a handler.
type Invocation struct {
	CallID string
	sink   ProgressSink
}

// NewInvocation builds the per-call context handed to handlers.
func NewInvocation(callID string, sink ProgressSink) Invocation {
	return Invocation{CallID: callID, sink: sink}
}

// Progress forwards partial output to the sink, if any.
func (inv Invocation) Progress(text string) {
	if inv.sink != nil {
		inv.sink(inv.CallID, text)
	}
}

// Handler executes one tool call.
type Handler interface {
	Execute(ctx context.Context, inv Invocation, args map[string]any) (Result, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, inv Invocation, args map[string]any) (Result, error)

func (f HandlerFunc) Execute(ctx context.Context, inv Invocation, args map[string]any) (Result, error) {
	return f(ctx, inv, args)
}

// Descriptor binds a tool's declaration to its handler, risk class and
// concurrency footprint. Descriptors are registered once at startup and
// never change afterwards.
type Descriptor struct {
	Name        string
	Description string
	Parameters  *Schema
	Risk        permission.Risk
	Handler     Handler

	// PathArgs names the string arguments that hold workspace paths.
	// The dispatcher resolves them for sandbox checking and locking.
	PathArgs []string

	// Writes marks the call as a writer of its paths; writers to a path
	// are mutually exclusive with all other access to it.
	Writes bool

	// Exclusive calls can touch arbitrary paths (shell commands) and
	// take the whole workspace.
	Exclusive bool
}

// Declaration returns the model-facing signature.
func (d *Descriptor) Declaration() Declaration {
	return Declaration{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Parameters,
	}
}

// DecodeArgs fills a typed request struct from raw call arguments using
// the json field tags.
func DecodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(args)
}
