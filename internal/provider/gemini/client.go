package gemini

import (
	"context"
	"iter"

	"google.golang.org/genai"
)

// Client is the slice of the genai SDK the provider depends on. The
// indirection keeps the streaming path testable without network access.
type Client interface {
	// GenerateContentStream opens a streaming generation and yields
	// partial responses until the turn completes or fails.
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// RealClient implements Client over the official SDK.
type RealClient struct {
	client *genai.Client
}

// NewRealClient wraps an SDK client.
func NewRealClient(client *genai.Client) *RealClient {
	return &RealClient{client: client}
}

// GenerateContentStream calls the SDK's streaming endpoint.
func (c *RealClient) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return c.client.Models.GenerateContentStream(ctx, model, contents, config)
}
