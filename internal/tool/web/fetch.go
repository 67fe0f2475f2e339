package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/navvylabs/navvy/internal/tool"
)

type fetchRequest struct {
	URL        string `json:"url"`
	MaxLength  int    `json:"max_length"`
	StartIndex int    `json:"start_index"`
	Raw        bool   `json:"raw"`
}

// skippedTags are stripped before markdown conversion; they carry page
// chrome, not content.
var skippedTags = []string{"head", "script", "style", "nav", "footer", "header", "link"}

func (t *Tools) webFetch(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req fetchRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return tool.ErrorText(fmt.Sprintf("unsupported URL: %s", req.URL)), nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return tool.Result{}, err
	}
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return tool.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return tool.Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return tool.ErrorText((&StatusError{URL: req.URL, Status: resp.StatusCode}).Error()), nil
	}

	text, err := formatBody(req, resp.Header.Get("Content-Type"), string(body))
	if err != nil {
		return tool.ErrorText(err.Error()), nil
	}
	return tool.Text(text), nil
}

// formatBody converts the response body per its content type, then
// applies the start_index/max_length window over characters.
func formatBody(req fetchRequest, contentType, body string) (string, error) {
	mediaType := "text/html"
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = mt
		}
	}

	var out string
	switch {
	case req.Raw, mediaType == "text/plain":
		out = body
	case mediaType == "application/json":
		var value any
		if err := json.Unmarshal([]byte(body), &value); err != nil {
			return "", fmt.Errorf("response is not valid JSON: %w", err)
		}
		pretty, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return "", err
		}
		out = "```json\n" + string(pretty) + "\n```"
	default:
		converter := md.NewConverter("", true, nil)
		converter.Remove(skippedTags...)
		converted, err := converter.ConvertString(body)
		if err != nil {
			return "", fmt.Errorf("convert page to markdown: %w", err)
		}
		out = converted
	}

	return window(out, req.StartIndex, req.MaxLength)
}

// window slices [start, start+max) over runes so multibyte pages never
// split mid-character.
func window(text string, start, max int) (string, error) {
	if max <= 0 {
		max = defaultFetchLimit
	}
	runes := []rune(text)
	if start < 0 || start >= len(runes) {
		if start == 0 {
			return "", nil
		}
		return "", errors.New("start_index is beyond the end of the content")
	}
	end := start + max
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end]), nil
}
