package task

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/navvylabs/navvy/internal/conversation"
	"github.com/navvylabs/navvy/internal/provider"
)

// accCall is a completed call plus its argument decode failure, if any.
// Malformed calls still enter the assistant turn so an error result can
// pair with them; they are never validated or executed.
type accCall struct {
	call      conversation.ToolCall
	malformed string
}

// accumulator folds a chunk stream into assistant prose and an ordered
// list of tool calls. Argument fragments may split anywhere, including
// mid-token, so they are buffered raw and decoded only when the call
// block closes.
type accumulator struct {
	text  strings.Builder
	open  *openCall
	calls []accCall
	usage *provider.Usage
	done  bool
}

type openCall struct {
	id   string
	name string
	args strings.Builder
}

func newAccumulator() *accumulator {
	return &accumulator{}
}

// feed consumes one chunk and returns the text delta to surface, if any.
// A text or begin chunk while a call block is open closes that block;
// providers that interleave sloppily still produce a usable turn. A
// delta or end without an open block has no recovery and fails the step.
func (a *accumulator) feed(chunk *provider.Chunk) (string, error) {
	if a.done {
		return "", fmt.Errorf("%w: chunk after done", ErrStreamProtocol)
	}
	switch chunk.Kind {
	case provider.ChunkText:
		a.closeOpen()
		a.text.WriteString(chunk.Text)
		return chunk.Text, nil

	case provider.ChunkToolCallBegin:
		a.closeOpen()
		id := chunk.CallID
		if id == "" {
			id = uuid.NewString()
		}
		a.open = &openCall{id: id, name: chunk.Name}
		return "", nil

	case provider.ChunkToolCallDelta:
		if a.open == nil {
			return "", fmt.Errorf("%w: argument fragment outside a call block", ErrStreamProtocol)
		}
		a.open.args.WriteString(chunk.ArgsFragment)
		return "", nil

	case provider.ChunkToolCallEnd:
		if a.open == nil {
			return "", fmt.Errorf("%w: call end without begin", ErrStreamProtocol)
		}
		a.closeOpen()
		return "", nil

	case provider.ChunkDone:
		a.closeOpen()
		a.usage = chunk.Usage
		a.done = true
		return "", nil

	default:
		return "", fmt.Errorf("%w: unknown chunk kind %q", ErrStreamProtocol, chunk.Kind)
	}
}

func (a *accumulator) closeOpen() {
	if a.open == nil {
		return
	}
	open := a.open
	a.open = nil

	call := conversation.ToolCall{ID: open.id, Name: open.name}
	var malformed string
	raw := strings.TrimSpace(open.args.String())
	if raw == "" {
		call.Args = map[string]any{}
	} else if err := json.Unmarshal([]byte(raw), &call.Args); err != nil {
		malformed = fmt.Sprintf("arguments are not a valid JSON object: %v", err)
	}
	a.calls = append(a.calls, accCall{call: call, malformed: malformed})
}

// finish returns everything accumulated. Safe whether or not a done
// chunk arrived; a truncated stream yields whatever completed.
func (a *accumulator) finish() (string, []accCall, *provider.Usage) {
	a.closeOpen()
	return a.text.String(), a.calls, a.usage
}
