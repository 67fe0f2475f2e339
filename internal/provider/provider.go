// Package provider defines the contract between the task engine and a
// hosted language model transport.
package provider

import (
	"github.com/navvylabs/navvy/internal/conversation"
	"github.com/navvylabs/navvy/internal/tool"
)

// Request encapsulates one generation turn.
type Request struct {
	// System is the system instruction for the task.
	System string

	// Turns is the conversation history, oldest first.
	Turns []conversation.Turn

	// Tools contains the declarations the model may call.
	Tools []tool.Declaration

	// Config contains optional generation parameters.
	Config *GenerateConfig
}

// GenerateConfig contains optional generation parameters. All fields are
// pointers to distinguish between "not set" and "zero value".
type GenerateConfig struct {
	Temperature   *float32
	TopP          *float32
	TopK          *int
	StopSequences []string
}

// ChunkKind discriminates stream chunks.
type ChunkKind string

const (
	// ChunkText carries an incremental piece of assistant prose.
	ChunkText ChunkKind = "text"

	// ChunkToolCallBegin opens a tool call block: CallID and Name are set.
	ChunkToolCallBegin ChunkKind = "tool_call_begin"

	// ChunkToolCallDelta carries a raw fragment of the call's JSON
	// arguments. Fragments may split anywhere, including mid-token; the
	// consumer must buffer until the block ends.
	ChunkToolCallDelta ChunkKind = "tool_call_delta"

	// ChunkToolCallEnd closes the currently open tool call block.
	ChunkToolCallEnd ChunkKind = "tool_call_end"

	// ChunkDone terminates the stream and carries usage metadata.
	ChunkDone ChunkKind = "done"
)

// Chunk is a single streamed event from the model.
type Chunk struct {
	Kind ChunkKind

	// For ChunkText.
	Text string

	// For tool call chunks.
	CallID       string
	Name         string // begin only
	ArgsFragment string // delta only

	// For ChunkDone.
	Usage        *Usage
	FinishReason FinishReason
}

// Usage reports token accounting for one generation.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// FinishReason indicates why the model stopped.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
	FinishMaxTokens FinishReason = "max_tokens"
	FinishSafety    FinishReason = "safety"
)
