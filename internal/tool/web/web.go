// Package web implements the internet-facing tools: provider-backed web
// search and page fetching with markdown extraction.
package web

import (
	"net/http"
	"time"

	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/tool"
)

// SearchProvider selects the web search backend.
type SearchProvider string

const (
	ProviderSearx SearchProvider = "searx"
	ProviderBrave SearchProvider = "brave"
)

// SearchConfig holds the provider selection and its credentials.
type SearchConfig struct {
	Provider SearchProvider
	SearxURL string // base URL of the Searx instance
	BraveKey string // Brave Search API subscription token
}

const (
	defaultFetchLimit  = 10_000
	defaultHTTPTimeout = 30 * time.Second
	maxBodyBytes       = 5 * 1024 * 1024

	braveEndpoint = "https://api.search.brave.com/res/v1/web/search"
)

// Tools bundles the web handlers around one HTTP client.
type Tools struct {
	client   *http.Client
	search   SearchConfig
	braveURL string
}

// Options tune the handlers. Zero values fall back to defaults.
type Options struct {
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// New creates the web tool set.
func New(search SearchConfig, opts Options) *Tools {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Tools{
		client:   client,
		search:   search,
		braveURL: braveEndpoint,
	}
}

// Descriptors returns the registrable tool set.
func (t *Tools) Descriptors() []*tool.Descriptor {
	return []*tool.Descriptor{
		{
			Name: "web_search",
			Description: "Search the web. Ideal for general queries, news, articles and online " +
				"content. Returns up to 20 results per request, with offset for pagination.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"query":  {Type: tool.TypeString, Description: "Search query (max 400 chars, 50 words)"},
					"count":  {Type: tool.TypeInteger, Description: "Number of results (1-20, default 10)"},
					"offset": {Type: tool.TypeInteger, Description: "Pagination offset (max 9, default 0)"},
				},
				Required: []string{"query"},
			},
			Risk:    permission.RiskNetwork,
			Handler: tool.HandlerFunc(t.webSearch),
		},
		{
			Name: "web_fetch",
			Description: "Fetch a URL and extract its contents as markdown. JSON responses are " +
				"pretty-printed; set raw to get the unconverted body. Truncated output can be " +
				"continued with start_index.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"url":         {Type: tool.TypeString, Description: "URL to fetch"},
					"max_length":  {Type: tool.TypeInteger, Description: "Maximum length of the output (default 10000)"},
					"start_index": {Type: tool.TypeInteger, Description: "Return output starting at this character index (default 0)"},
					"raw":         {Type: tool.TypeBoolean, Description: "Return the raw body without conversion"},
				},
				Required: []string{"url"},
			},
			Risk:    permission.RiskNetwork,
			Handler: tool.HandlerFunc(t.webFetch),
		},
	}
}
