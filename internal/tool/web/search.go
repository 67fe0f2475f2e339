package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/navvylabs/navvy/internal/tool"
)

type searchRequest struct {
	Query  string `json:"query"`
	Count  int    `json:"count"`
	Offset int    `json:"offset"`
}

type searchItem struct {
	Title       string
	URL         string
	Description string
}

func (t *Tools) webSearch(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req searchRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}

	var (
		items []searchItem
		err   error
	)
	switch t.search.Provider {
	case ProviderSearx:
		items, err = t.searxSearch(ctx, req)
	case ProviderBrave:
		items, err = t.braveSearch(ctx, req)
	default:
		return tool.Result{}, ErrNoSearchProvider
	}
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return tool.ErrorText(statusErr.Error()), nil
		}
		return tool.Result{}, err
	}

	if len(items) == 0 {
		return tool.Text("No results found."), nil
	}
	return tool.Text(renderItems(items)), nil
}

// searxSearch queries a Searx instance's JSON API. Searx pages have a
// fixed size, so count is not passed through; offset selects the page.
func (t *Tools) searxSearch(ctx context.Context, req searchRequest) ([]searchItem, error) {
	q := url.Values{
		"q":      {req.Query},
		"pageno": {strconv.Itoa(req.Offset + 1)},
		"format": {"json"},
	}
	endpoint := strings.TrimRight(t.search.SearxURL, "/") + "/search?" + q.Encode()

	body, err := t.getJSON(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode searx response: %w", err)
	}

	items := make([]searchItem, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		items = append(items, searchItem{Title: r.Title, URL: r.URL, Description: r.Content})
	}
	return items, nil
}

func (t *Tools) braveSearch(ctx context.Context, req searchRequest) ([]searchItem, error) {
	count := req.Count
	if count <= 0 {
		count = 10
	}
	if count > 20 {
		count = 20
	}
	q := url.Values{
		"q":      {req.Query},
		"count":  {strconv.Itoa(count)},
		"offset": {strconv.Itoa(req.Offset)},
	}
	endpoint := t.braveURL + "?" + q.Encode()

	body, err := t.getJSON(ctx, endpoint, map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": t.search.BraveKey,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode brave response: %w", err)
	}

	items := make([]searchItem, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		items = append(items, searchItem{Title: r.Title, URL: r.URL, Description: r.Description})
	}
	return items, nil
}

func (t *Tools) getJSON(ctx context.Context, endpoint string, headers map[string]string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// renderItems formats results for the model: descriptions are converted
// from the provider's HTML snippets to markdown.
func renderItems(items []searchItem) string {
	converter := md.NewConverter("", true, nil)

	parts := make([]string, 0, len(items))
	for _, item := range items {
		desc := item.Description
		if converted, err := converter.ConvertString(desc); err == nil {
			desc = converted
		}
		parts = append(parts, fmt.Sprintf("Title: %s\nDescription: %s\nURL: %s", item.Title, desc, item.URL))
	}
	return strings.Join(parts, "\n\n")
}
