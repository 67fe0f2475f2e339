// Package gemini adapts Google's genai SDK to the provider contract:
// request conversion, chunked response streaming, error classification and
// bounded retry on transient failures.
package gemini

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/navvylabs/navvy/internal/provider"
)

const (
	defaultRetries = 3
	defaultBackoff = 2 * time.Second
)

// Provider implements provider.Provider over the Gemini API.
type Provider struct {
	client  Client
	model   string
	log     *slog.Logger
	retries int
	backoff time.Duration
}

// Options tune transport retry. Zero values select the defaults.
type Options struct {
	// Retries is the number of additional attempts after the first.
	Retries int

	// Backoff is the first retry delay, doubled per attempt. A
	// server-suggested delay overrides it.
	Backoff time.Duration
}

// New builds a provider bound to one model.
func New(client Client, model string, log *slog.Logger, opts Options) *Provider {
	if client == nil {
		panic("gemini: client is required")
	}
	if model == "" {
		panic("gemini: model is required")
	}
	if log == nil {
		panic("gemini: log is required")
	}

	retries := opts.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	return &Provider{
		client:  client,
		model:   model,
		log:     log,
		retries: retries,
		backoff: backoff,
	}
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.model
}

// Stream opens a streaming generation. Failures before the first response
// are retried with exponential backoff, honoring any server-suggested
// delay. A failure after the first response is surfaced through Next: a
// half-delivered turn cannot be resumed, so the step is the caller's to
// redo.
func (p *Provider) Stream(ctx context.Context, req *provider.Request) (provider.Stream, error) {
	contents, err := toContents(req.Turns)
	if err != nil {
		return nil, err
	}
	config := toConfig(req)

	for attempt := 0; ; attempt++ {
		next, stop := iter.Pull2(p.client.GenerateContentStream(ctx, p.model, contents, config))

		first, rerr, ok := next()
		if rerr == nil {
			s := &stream{next: next, stop: stop}
			if ok {
				s.buffered = first
			} else {
				s.exhausted = true
			}
			return s, nil
		}
		stop()

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		mapped := mapError(rerr)
		if !provider.IsRetryable(mapped) || attempt >= p.retries {
			return nil, mapped
		}

		delay := p.backoff << attempt
		if suggested := provider.GetRetryAfter(mapped); suggested != nil {
			delay = *suggested
		}
		p.log.Warn("retrying model request",
			"model", p.model,
			"attempt", attempt+1,
			"delay", delay,
			"error", mapped,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// stream converts SDK responses into provider chunks. Each function call
// part expands to a begin/delta/end triple so the consumer sees the same
// shape regardless of how the transport frames arguments.
type stream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()

	buffered  *genai.GenerateContentResponse
	queue     []provider.Chunk
	usage     *provider.Usage
	finish    provider.FinishReason
	sawCall   bool
	exhausted bool
	done      bool
	closed    bool
}

// Next returns the next chunk, or io.EOF once the done chunk is delivered.
func (s *stream) Next() (*provider.Chunk, error) {
	for {
		if len(s.queue) > 0 {
			chunk := s.queue[0]
			s.queue = s.queue[1:]
			return &chunk, nil
		}
		if s.done {
			return nil, io.EOF
		}

		resp, ok, err := s.pull()
		if err != nil {
			return nil, err
		}
		if !ok {
			s.done = true
			s.queue = append(s.queue, provider.Chunk{
				Kind:         provider.ChunkDone,
				Usage:        s.usage,
				FinishReason: s.finishReason(),
			})
			continue
		}
		if err := s.ingest(resp); err != nil {
			return nil, err
		}
	}
}

// Close releases the underlying iterator. Safe to call more than once.
func (s *stream) Close() error {
	if !s.closed {
		s.closed = true
		s.stop()
	}
	return nil
}

func (s *stream) pull() (*genai.GenerateContentResponse, bool, error) {
	if s.buffered != nil {
		resp := s.buffered
		s.buffered = nil
		return resp, true, nil
	}
	if s.exhausted {
		return nil, false, nil
	}

	resp, err, ok := s.next()
	if err != nil {
		return nil, false, mapError(err)
	}
	if !ok {
		s.exhausted = true
		return nil, false, nil
	}
	return resp, true, nil
}

// ingest queues the chunks for one SDK response.
func (s *stream) ingest(resp *genai.GenerateContentResponse) error {
	if resp.UsageMetadata != nil {
		s.usage = fromUsage(resp.UsageMetadata)
	}
	if len(resp.Candidates) == 0 {
		return nil
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return &provider.Error{
			Code:    provider.ErrorCodeContentBlocked,
			Message: "content blocked by safety filters",
		}
	}
	if candidate.FinishReason != "" {
		s.finish = fromFinish(candidate.FinishReason)
	}
	if candidate.Content == nil {
		return nil
	}

	for _, part := range candidate.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			s.queueCall(part.FunctionCall)
		case part.Text != "":
			s.queue = append(s.queue, provider.Chunk{
				Kind: provider.ChunkText,
				Text: part.Text,
			})
		}
	}
	return nil
}

func (s *stream) queueCall(call *genai.FunctionCall) {
	s.sawCall = true

	id := call.ID
	if id == "" {
		id = uuid.NewString()
	}
	args, err := json.Marshal(call.Args)
	if err != nil {
		args = []byte("{}")
	}

	s.queue = append(s.queue,
		provider.Chunk{Kind: provider.ChunkToolCallBegin, CallID: id, Name: call.Name},
		provider.Chunk{Kind: provider.ChunkToolCallDelta, CallID: id, ArgsFragment: string(args)},
		provider.Chunk{Kind: provider.ChunkToolCallEnd, CallID: id},
	)
}

func (s *stream) finishReason() provider.FinishReason {
	if s.sawCall {
		return provider.FinishToolCalls
	}
	if s.finish != "" {
		return s.finish
	}
	return provider.FinishStop
}
