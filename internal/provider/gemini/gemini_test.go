package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/navvylabs/navvy/internal/conversation"
	"github.com/navvylabs/navvy/internal/provider"
	"github.com/navvylabs/navvy/internal/tool"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProvider(client Client, opts Options) *Provider {
	return New(client, "gemini-test", testLogger(), opts)
}

func userRequest(text string) *provider.Request {
	log := conversation.New()
	log.AppendUser(text)
	return &provider.Request{Turns: log.Turns()}
}

// drain consumes a stream to EOF and returns everything it yielded.
func drain(t *testing.T, s provider.Stream) []provider.Chunk {
	t.Helper()
	defer s.Close()

	var chunks []provider.Chunk
	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, *chunk)
	}
}

func kinds(chunks []provider.Chunk) []provider.ChunkKind {
	out := make([]provider.ChunkKind, len(chunks))
	for i, c := range chunks {
		out[i] = c.Kind
	}
	return out
}

// --- streaming ---

func TestStream_Text(t *testing.T) {
	client := &fakeClient{scripts: [][]step{{
		{resp: textResp("Hello")},
		{resp: textResp(" there")},
		{resp: finishResp(genai.FinishReasonStop, &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 5,
			TotalTokenCount:      15,
		})},
	}}}
	p := newProvider(client, Options{})

	s, err := p.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	chunks := drain(t, s)

	require.Equal(t, []provider.ChunkKind{
		provider.ChunkText,
		provider.ChunkText,
		provider.ChunkDone,
	}, kinds(chunks))
	assert.Equal(t, "Hello", chunks[0].Text)
	assert.Equal(t, " there", chunks[1].Text)

	done := chunks[len(chunks)-1]
	assert.Equal(t, provider.FinishStop, done.FinishReason)
	require.NotNil(t, done.Usage)
	assert.Equal(t, 10, done.Usage.PromptTokens)
	assert.Equal(t, 5, done.Usage.CompletionTokens)
	assert.Equal(t, 15, done.Usage.TotalTokens)
}

func TestStream_FunctionCall_ExpandsToTriple(t *testing.T) {
	client := &fakeClient{scripts: [][]step{{
		{resp: textResp("Let me check.")},
		{resp: callResp("call-1", "read_file", map[string]any{"path": "main.go"})},
		{resp: finishResp(genai.FinishReasonStop, nil)},
	}}}
	p := newProvider(client, Options{})

	s, err := p.Stream(context.Background(), userRequest("read main.go"))
	require.NoError(t, err)
	chunks := drain(t, s)

	require.Equal(t, []provider.ChunkKind{
		provider.ChunkText,
		provider.ChunkToolCallBegin,
		provider.ChunkToolCallDelta,
		provider.ChunkToolCallEnd,
		provider.ChunkDone,
	}, kinds(chunks))

	begin, delta, end := chunks[1], chunks[2], chunks[3]
	assert.Equal(t, "call-1", begin.CallID)
	assert.Equal(t, "read_file", begin.Name)
	assert.Equal(t, "call-1", delta.CallID)
	assert.JSONEq(t, `{"path": "main.go"}`, delta.ArgsFragment)
	assert.Equal(t, "call-1", end.CallID)

	// A turn that issued calls finishes with tool_calls regardless of the
	// transport's own finish reason.
	assert.Equal(t, provider.FinishToolCalls, chunks[4].FinishReason)
}

func TestStream_FunctionCall_MissingID_GetsGenerated(t *testing.T) {
	client := &fakeClient{scripts: [][]step{{
		{resp: callResp("", "list_files", map[string]any{"path": "."})},
		{resp: finishResp(genai.FinishReasonStop, nil)},
	}}}
	p := newProvider(client, Options{})

	s, err := p.Stream(context.Background(), userRequest("list"))
	require.NoError(t, err)
	chunks := drain(t, s)

	begin := chunks[0]
	require.Equal(t, provider.ChunkToolCallBegin, begin.Kind)
	assert.NotEmpty(t, begin.CallID)
	assert.Equal(t, begin.CallID, chunks[1].CallID)
	assert.Equal(t, begin.CallID, chunks[2].CallID)
}

func TestStream_EmptyTurn_YieldsDoneOnly(t *testing.T) {
	client := &fakeClient{scripts: [][]step{{}}}
	p := newProvider(client, Options{})

	s, err := p.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	chunks := drain(t, s)

	require.Len(t, chunks, 1)
	assert.Equal(t, provider.ChunkDone, chunks[0].Kind)
	assert.Equal(t, provider.FinishStop, chunks[0].FinishReason)
}

func TestStream_SafetyBlock_SurfacesError(t *testing.T) {
	client := &fakeClient{scripts: [][]step{{
		{resp: textResp("partial")},
		{resp: finishResp(genai.FinishReasonSafety, nil)},
	}}}
	p := newProvider(client, Options{})

	s, err := p.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	defer s.Close()

	chunk, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "partial", chunk.Text)

	_, err = s.Next()
	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrorCodeContentBlocked, perr.Code)
}

func TestStream_MidStreamFailure_NotRetried(t *testing.T) {
	// A failure after the first response cannot be resumed: it surfaces
	// through Next and no second request is made.
	client := &fakeClient{scripts: [][]step{{
		{resp: textResp("partial")},
		{err: apiErr(500)},
	}}}
	p := newProvider(client, Options{Retries: 3, Backoff: time.Millisecond})

	s, err := p.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Next()
	require.NoError(t, err)

	_, err = s.Next()
	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrorCodeUnavailable, perr.Code)
	assert.Equal(t, 1, client.callCount())
}

func TestStream_CloseTwice(t *testing.T) {
	client := &fakeClient{scripts: [][]step{{
		{resp: textResp("hi")},
	}}}
	p := newProvider(client, Options{})

	s, err := p.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

// --- retry ---

func TestStream_RetriesTransientFailure(t *testing.T) {
	client := &fakeClient{scripts: [][]step{
		{{err: apiErr(503)}},
		{
			{resp: textResp("recovered")},
			{resp: finishResp(genai.FinishReasonStop, nil)},
		},
	}}
	p := newProvider(client, Options{Retries: 2, Backoff: time.Millisecond})

	s, err := p.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	chunks := drain(t, s)

	assert.Equal(t, 2, client.callCount())
	require.NotEmpty(t, chunks)
	assert.Equal(t, "recovered", chunks[0].Text)
}

func TestStream_RetriesExhausted(t *testing.T) {
	client := &fakeClient{scripts: [][]step{
		{{err: apiErr(503)}},
		{{err: apiErr(503)}},
		{{err: apiErr(503)}},
	}}
	p := newProvider(client, Options{Retries: 2, Backoff: time.Millisecond})

	_, err := p.Stream(context.Background(), userRequest("hi"))

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrorCodeUnavailable, perr.Code)
	assert.Equal(t, 3, client.callCount())
}

func TestStream_AuthFailure_NotRetried(t *testing.T) {
	client := &fakeClient{scripts: [][]step{
		{{err: apiErr(401)}},
	}}
	p := newProvider(client, Options{Retries: 3, Backoff: time.Millisecond})

	_, err := p.Stream(context.Background(), userRequest("hi"))

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrorCodeAuth, perr.Code)
	assert.Equal(t, 1, client.callCount())
}

func TestStream_RetryAfter_OverridesBackoff(t *testing.T) {
	// The configured backoff is far too long for a test; the
	// server-suggested delay must win or this test times out.
	rateLimited := genai.APIError{
		Code:    429,
		Message: "slow down",
		Details: []map[string]any{{
			"@type":      "type.googleapis.com/google.rpc.RetryInfo",
			"retryDelay": "1ms",
		}},
	}
	client := &fakeClient{scripts: [][]step{
		{{err: rateLimited}},
		{
			{resp: textResp("ok")},
			{resp: finishResp(genai.FinishReasonStop, nil)},
		},
	}}
	p := newProvider(client, Options{Retries: 1, Backoff: time.Hour})

	start := time.Now()
	s, err := p.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	drain(t, s)

	assert.Equal(t, 2, client.callCount())
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestStream_CancelledDuringBackoff(t *testing.T) {
	client := &fakeClient{scripts: [][]step{
		{{err: apiErr(503)}},
	}}
	p := newProvider(client, Options{Retries: 3, Backoff: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Stream(ctx, userRequest("hi"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStream_NetworkError_Retryable(t *testing.T) {
	client := &fakeClient{scripts: [][]step{
		{{err: errors.New("connection reset")}},
		{
			{resp: textResp("ok")},
			{resp: finishResp(genai.FinishReasonStop, nil)},
		},
	}}
	p := newProvider(client, Options{Retries: 1, Backoff: time.Millisecond})

	s, err := p.Stream(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	drain(t, s)

	assert.Equal(t, 2, client.callCount())
}

// --- request plumbing ---

func TestStream_PassesModelAndTools(t *testing.T) {
	client := &fakeClient{scripts: [][]step{{
		{resp: finishResp(genai.FinishReasonStop, nil)},
	}}}
	p := newProvider(client, Options{})

	req := userRequest("hi")
	req.System = "You are a coding agent."
	req.Tools = []tool.Declaration{{
		Name:        "read_file",
		Description: "Read a file from the workspace.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"path": {Type: tool.TypeString},
			},
			Required: []string{"path"},
		},
	}}
	s, err := p.Stream(context.Background(), req)
	require.NoError(t, err)
	drain(t, s)

	require.Equal(t, 1, client.callCount())
	call := client.calls[0]
	assert.Equal(t, "gemini-test", call.model)
	require.NotNil(t, call.config.SystemInstruction)
	require.Len(t, call.config.Tools, 1)
	require.Len(t, call.config.Tools[0].FunctionDeclarations, 1)
	assert.Equal(t, "read_file", call.config.Tools[0].FunctionDeclarations[0].Name)
}

func TestProvider_Model(t *testing.T) {
	p := newProvider(&fakeClient{}, Options{})
	assert.Equal(t, "gemini-test", p.Model())
}
