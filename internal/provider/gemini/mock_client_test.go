package gemini

import (
	"context"
	"iter"
	"sync"

	"google.golang.org/genai"
)

// step is one yielded item from a scripted stream: a response or an error.
type step struct {
	resp *genai.GenerateContentResponse
	err  error
}

// recordedCall captures the arguments of one GenerateContentStream call.
type recordedCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// fakeClient implements Client with one script per successive call. A call
// past the end of the scripts yields nothing, which the stream treats as an
// immediately exhausted turn.
type fakeClient struct {
	mu      sync.Mutex
	scripts [][]step
	calls   []recordedCall
}

func (f *fakeClient) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{model: model, contents: contents, config: config})
	var script []step
	if len(f.scripts) > 0 {
		script = f.scripts[0]
		f.scripts = f.scripts[1:]
	}
	f.mu.Unlock()

	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, s := range script {
			if !yield(s.resp, s.err) {
				return
			}
		}
	}
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// --- response builders ---

func textResp(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func callResp(id, name string, args map[string]any) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{{
					FunctionCall: &genai.FunctionCall{ID: id, Name: name, Args: args},
				}},
			},
		}},
	}
}

func finishResp(reason genai.FinishReason, usage *genai.GenerateContentResponseUsageMetadata) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{FinishReason: reason}},
		UsageMetadata: usage,
	}
}

func apiErr(code int) error {
	return genai.APIError{Code: code, Message: "scripted failure"}
}
