// Package conversation holds the append-only turn log shared between the
// task engine, the model provider and the session store.
package conversation

import (
	"fmt"
	"time"
)

// Kind discriminates the three turn shapes.
type Kind string

const (
	KindUser       Kind = "user"
	KindAssistant  Kind = "assistant"
	KindToolResult Kind = "tool_result"
)

// ToolCall is a single parsed call emitted by the assistant.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// BlockType discriminates result content blocks.
type BlockType string

const (
	BlockText   BlockType = "text"
	BlockBinary BlockType = "binary"
)

// Block is one unit of tool result content. Text blocks carry Text;
// binary blocks carry Data plus a MIME type.
type Block struct {
	Type     BlockType `json:"type"`
	Text     string    `json:"text,omitempty"`
	Data     []byte    `json:"data,omitempty"`
	MIMEType string    `json:"mime_type,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// BinaryBlock builds a binary content block.
func BinaryBlock(data []byte, mimeType string) Block {
	return Block{Type: BlockBinary, Data: data, MIMEType: mimeType}
}

// ToolResult is the outcome of one dispatched call.
type ToolResult struct {
	CallID  string  `json:"call_id"`
	Blocks  []Block `json:"blocks"`
	IsError bool    `json:"is_error,omitempty"`
}

// TextResult builds a single-text-block result.
func TextResult(callID, text string) ToolResult {
	return ToolResult{CallID: callID, Blocks: []Block{TextBlock(text)}}
}

// ErrorResult builds a single-text-block error result.
func ErrorResult(callID, text string) ToolResult {
	return ToolResult{CallID: callID, Blocks: []Block{TextBlock(text)}, IsError: true}
}

// Text concatenates the text blocks of a result.
func (r ToolResult) Text() string {
	var out string
	for _, b := range r.Blocks {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// Turn is one entry in the log. Which fields are meaningful depends on Kind:
// user turns carry Text; assistant turns carry Text and ToolCalls; tool
// result turns carry Result.
type Turn struct {
	Kind      Kind        `json:"kind"`
	Text      string      `json:"text,omitempty"`
	ToolCalls []ToolCall  `json:"tool_calls,omitempty"`
	Result    *ToolResult `json:"result,omitempty"`
	At        time.Time   `json:"at"`
}

// Log is the ordered conversation history. It is append-only: turns are
// never mutated or removed once added. The log is not safe for concurrent
// use; the task engine owns it while a task runs and hands read access to
// the session store only at pause or task end.
type Log struct {
	turns []Turn
	calls map[string]*callState
	now   func() time.Time
}

type callState struct {
	resolved bool
}

// New returns an empty log.
func New() *Log {
	return &Log{
		calls: make(map[string]*callState),
		now:   time.Now,
	}
}

// Restore rebuilds a log from previously persisted turns, revalidating the
// call/result pairing as it replays them.
func Restore(turns []Turn) (*Log, error) {
	log := New()
	for i, turn := range turns {
		switch turn.Kind {
		case KindUser:
			log.appendTurn(turn)
		case KindAssistant:
			for _, call := range turn.ToolCalls {
				if _, exists := log.calls[call.ID]; exists {
					return nil, fmt.Errorf("turn %d: %w: %s", i, ErrDuplicateCallID, call.ID)
				}
				log.calls[call.ID] = &callState{}
			}
			log.appendTurn(turn)
		case KindToolResult:
			if turn.Result == nil {
				return nil, fmt.Errorf("turn %d: tool result turn without result", i)
			}
			if err := log.AppendToolResult(*turn.Result); err != nil {
				return nil, fmt.Errorf("turn %d: %w", i, err)
			}
		default:
			return nil, fmt.Errorf("turn %d: unknown turn kind %q", i, turn.Kind)
		}
	}
	return log, nil
}

// AppendUser appends an operator instruction.
func (l *Log) AppendUser(text string) {
	l.appendTurn(Turn{Kind: KindUser, Text: text})
}

// AppendAssistant appends a model turn with its accumulated text and any
// completed tool calls. Call IDs must be unique across the whole log.
func (l *Log) AppendAssistant(text string, calls []ToolCall) error {
	for _, call := range calls {
		if call.ID == "" {
			return ErrEmptyCallID
		}
		if _, exists := l.calls[call.ID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateCallID, call.ID)
		}
	}
	for _, call := range calls {
		l.calls[call.ID] = &callState{}
	}
	l.appendTurn(Turn{Kind: KindAssistant, Text: text, ToolCalls: calls})
	return nil
}

// AppendToolResult appends the result for a previously issued call. The
// referenced call must exist in a prior assistant turn and must not have
// been resolved already; anything else is a programming error surfaced to
// the caller rather than silently recorded.
func (l *Log) AppendToolResult(result ToolResult) error {
	state, ok := l.calls[result.CallID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCall, result.CallID)
	}
	if state.resolved {
		return fmt.Errorf("%w: %s", ErrCallAlreadyResolved, result.CallID)
	}
	state.resolved = true
	res := result
	l.appendTurn(Turn{Kind: KindToolResult, Result: &res})
	return nil
}

// Unresolved reports the calls from the most recent assistant turn that do
// not yet have a result, in issue order.
func (l *Log) Unresolved() []ToolCall {
	for i := len(l.turns) - 1; i >= 0; i-- {
		if l.turns[i].Kind != KindAssistant {
			continue
		}
		var pending []ToolCall
		for _, call := range l.turns[i].ToolCalls {
			if state := l.calls[call.ID]; state != nil && !state.resolved {
				pending = append(pending, call)
			}
		}
		return pending
	}
	return nil
}

// Resolved reports whether the given call has a recorded result.
func (l *Log) Resolved(callID string) bool {
	state, ok := l.calls[callID]
	return ok && state.resolved
}

// Turns returns a copy of the log suitable for building provider requests
// or persisting. Mutating the copy does not affect the log.
func (l *Log) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the number of turns.
func (l *Log) Len() int {
	return len(l.turns)
}

// LastAssistantText returns the text of the most recent assistant turn, or
// "" if there is none.
func (l *Log) LastAssistantText() string {
	for i := len(l.turns) - 1; i >= 0; i-- {
		if l.turns[i].Kind == KindAssistant {
			return l.turns[i].Text
		}
	}
	return ""
}

func (l *Log) appendTurn(turn Turn) {
	if turn.At.IsZero() {
		turn.At = l.now()
	}
	l.turns = append(l.turns, turn)
}
