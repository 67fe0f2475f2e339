package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/navvylabs/navvy/internal/conversation"
	"github.com/navvylabs/navvy/internal/provider"
	"github.com/navvylabs/navvy/internal/tool"
)

// toContents maps the conversation log onto Gemini's content format. Tool
// results become function responses paired by call ID; the function name is
// recovered from the issuing assistant turn, since the log stores results
// by ID only.
func toContents(turns []conversation.Turn) ([]*genai.Content, error) {
	names := make(map[string]string)
	contents := make([]*genai.Content, 0, len(turns))

	for _, turn := range turns {
		switch turn.Kind {
		case conversation.KindUser:
			if turn.Text == "" {
				continue
			}
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{genai.NewPartFromText(turn.Text)},
			})

		case conversation.KindAssistant:
			parts := make([]*genai.Part, 0, len(turn.ToolCalls)+1)
			if turn.Text != "" {
				parts = append(parts, genai.NewPartFromText(turn.Text))
			}
			for _, call := range turn.ToolCalls {
				names[call.ID] = call.Name
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Args,
					},
				})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})

		case conversation.KindToolResult:
			if turn.Result == nil {
				continue
			}
			name, ok := names[turn.Result.CallID]
			if !ok {
				return nil, fmt.Errorf("tool result %s has no issuing call", turn.Result.CallID)
			}
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       turn.Result.CallID,
						Name:     name,
						Response: resultPayload(turn.Result),
					},
				}},
			})
		}
	}

	return contents, nil
}

// resultPayload renders a tool result the way the model reads it back.
// Binary blocks are summarized; the transcript carries their bytes, the
// model only needs to know they exist.
func resultPayload(res *conversation.ToolResult) map[string]any {
	var sb strings.Builder
	for _, block := range res.Blocks {
		switch block.Type {
		case conversation.BlockText:
			sb.WriteString(block.Text)
		case conversation.BlockBinary:
			fmt.Fprintf(&sb, "(binary attachment: %s, %d bytes)", block.MIMEType, len(block.Data))
		}
	}

	content := sb.String()
	if res.IsError {
		content = "Error: " + content
	}
	return map[string]any{"content": content}
}

// toConfig builds the generation config for one request.
func toConfig(req *provider.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	if len(req.Tools) > 0 {
		config.Tools = toTools(req.Tools)
	}

	if c := req.Config; c != nil {
		if c.Temperature != nil {
			config.Temperature = c.Temperature
		}
		if c.TopP != nil {
			config.TopP = c.TopP
		}
		if c.TopK != nil {
			topK := float32(*c.TopK)
			config.TopK = &topK
		}
		if len(c.StopSequences) > 0 {
			config.StopSequences = c.StopSequences
		}
	}

	return config
}

// defaultSafetySettings disables response blocking for all categories. The
// permission gate governs what the agent may do; the transport must not
// censor transcripts about, say, killing processes.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockThresholdOff,
		},
	}
}

// toTools converts registry declarations to Gemini function declarations.
func toTools(decls []tool.Declaration) []*genai.Tool {
	fns := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, decl := range decls {
		fn := &genai.FunctionDeclaration{
			Name:        decl.Name,
			Description: decl.Description,
		}
		if decl.Parameters != nil {
			fn.Parameters = toSchema(decl.Parameters)
		}
		fns = append(fns, fn)
	}
	return []*genai.Tool{{FunctionDeclarations: fns}}
}

// toSchema lowers a parameter schema recursively.
func toSchema(s *tool.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toType(s.Type),
		Description: s.Description,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	if len(s.Required) > 0 {
		out.Required = s.Required
	}
	if s.Items != nil {
		out.Items = toSchema(s.Items)
	}
	if len(s.Enum) > 0 {
		out.Enum = s.Enum
	}
	return out
}

func toType(t tool.Type) genai.Type {
	switch t {
	case tool.TypeString:
		return genai.TypeString
	case tool.TypeNumber:
		return genai.TypeNumber
	case tool.TypeInteger:
		return genai.TypeInteger
	case tool.TypeBoolean:
		return genai.TypeBoolean
	case tool.TypeArray:
		return genai.TypeArray
	case tool.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromUsage converts SDK usage counts.
func fromUsage(usage *genai.GenerateContentResponseUsageMetadata) *provider.Usage {
	return &provider.Usage{
		PromptTokens:     int(usage.PromptTokenCount),
		CompletionTokens: int(usage.CandidatesTokenCount),
		TotalTokens:      int(usage.TotalTokenCount),
	}
}

func fromFinish(reason genai.FinishReason) provider.FinishReason {
	switch reason {
	case genai.FinishReasonMaxTokens:
		return provider.FinishMaxTokens
	case genai.FinishReasonSafety:
		return provider.FinishSafety
	default:
		return provider.FinishStop
	}
}

// mapError classifies SDK failures into the provider error model. Context
// cancellation passes through untouched so the engine can tell an aborted
// task from a broken transport.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	apiErr, ok := asAPIError(err)
	if !ok {
		return &provider.Error{
			Code:       provider.ErrorCodeNetwork,
			Message:    "network error",
			Underlying: err,
			Retryable:  true,
		}
	}

	switch apiErr.Code {
	case 401, 403:
		return &provider.Error{
			Code:       provider.ErrorCodeAuth,
			Message:    "authentication failed",
			Underlying: err,
		}
	case 429:
		return &provider.Error{
			Code:       provider.ErrorCodeRateLimit,
			Message:    "rate limit exceeded",
			Underlying: err,
			Retryable:  true,
			RetryAfter: parseRetryAfter(apiErr),
		}
	case 400:
		return &provider.Error{
			Code:       provider.ErrorCodeInvalidRequest,
			Message:    fmt.Sprintf("invalid request: %s", apiErr.Message),
			Underlying: err,
		}
	case 500, 502, 503, 504:
		return &provider.Error{
			Code:       provider.ErrorCodeUnavailable,
			Message:    "service unavailable",
			Underlying: err,
			Retryable:  true,
		}
	default:
		return &provider.Error{
			Code:       provider.ErrorCodeNetwork,
			Message:    fmt.Sprintf("API error: %s", apiErr.Message),
			Underlying: err,
			Retryable:  true,
		}
	}
}

// asAPIError unwraps a genai.APIError whether the SDK surfaced it by value
// or by pointer.
func asAPIError(err error) (genai.APIError, bool) {
	var byValue genai.APIError
	if errors.As(err, &byValue) {
		return byValue, true
	}
	var byPointer *genai.APIError
	if errors.As(err, &byPointer) {
		return *byPointer, true
	}
	return genai.APIError{}, false
}

// parseRetryAfter extracts the server-suggested delay from the RetryInfo
// detail of a rate limit response, when present.
func parseRetryAfter(apiErr genai.APIError) *time.Duration {
	for _, detail := range apiErr.Details {
		kind, _ := detail["@type"].(string)
		if !strings.Contains(kind, "RetryInfo") {
			continue
		}
		raw, _ := detail["retryDelay"].(string)
		if raw == "" {
			continue
		}
		if delay, err := time.ParseDuration(raw); err == nil && delay > 0 {
			return &delay
		}
	}
	return nil
}
