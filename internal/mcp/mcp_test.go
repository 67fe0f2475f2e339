package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mcpschema "github.com/viant/mcp-protocol/schema"
	mcpclient "github.com/viant/mcp/client"

	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/tool"
)

func strptr(s string) *string { return &s }

// fakeClient serves canned pages and records the last call and read.
type fakeClient struct {
	pages   [][]mcpschema.Tool
	initErr error
	listErr error

	callResult *mcpschema.CallToolResult
	callErr    error
	lastCall   *mcpschema.CallToolRequestParams

	readResult *mcpschema.ReadResourceResult
	readErr    error
	lastRead   *mcpschema.ReadResourceRequestParams
}

func (f *fakeClient) Initialize(ctx context.Context, _ ...mcpclient.RequestOption) (*mcpschema.InitializeResult, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &mcpschema.InitializeResult{}, nil
}

func (f *fakeClient) ListTools(ctx context.Context, cursor *string, _ ...mcpclient.RequestOption) (*mcpschema.ListToolsResult, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	idx := 0
	if cursor != nil {
		idx, _ = strconv.Atoi(*cursor)
	}
	if idx >= len(f.pages) {
		return &mcpschema.ListToolsResult{}, nil
	}
	res := &mcpschema.ListToolsResult{Tools: f.pages[idx]}
	if idx+1 < len(f.pages) {
		next := strconv.Itoa(idx + 1)
		res.NextCursor = &next
	}
	return res, nil
}

func (f *fakeClient) CallTool(ctx context.Context, params *mcpschema.CallToolRequestParams, _ ...mcpclient.RequestOption) (*mcpschema.CallToolResult, error) {
	f.lastCall = params
	if f.callErr != nil {
		return nil, f.callErr
	}
	if f.callResult != nil {
		return f.callResult, nil
	}
	return &mcpschema.CallToolResult{}, nil
}

func (f *fakeClient) ReadResource(ctx context.Context, params *mcpschema.ReadResourceRequestParams, _ ...mcpclient.RequestOption) (*mcpschema.ReadResourceResult, error) {
	f.lastRead = params
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.readResult != nil {
		return f.readResult, nil
	}
	return &mcpschema.ReadResourceResult{}, nil
}

func newHost(fakes map[string]*fakeClient) *Host {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHost(log, Options{Dial: func(cfg ServerConfig) (Client, error) {
		c, ok := fakes[cfg.Name]
		if !ok {
			return nil, errors.New("no fake for server")
		}
		return c, nil
	}})
}

func findDescriptor(t *testing.T, h *Host, name string) *tool.Descriptor {
	t.Helper()
	for _, d := range h.Descriptors() {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("no descriptor named %s", name)
	return nil
}

func text(res tool.Result) string {
	var out string
	for _, b := range res.Blocks {
		out += b.Text
	}
	return out
}

func TestConnectMergesServerTools(t *testing.T) {
	fake := &fakeClient{pages: [][]mcpschema.Tool{
		{{
			Name:        "query",
			Description: strptr("Run a read-only query."),
			InputSchema: mcpschema.ToolInputSchema{
				Properties: map[string]map[string]interface{}{
					"sql": {"type": "string", "description": "statement to run"},
				},
				Required: []string{"sql"},
			},
		}},
		{{Name: "tables"}},
	}}
	h := newHost(map[string]*fakeClient{"db": fake})
	h.Connect(context.Background(), []ServerConfig{{Name: "db", Transport: TransportStdio, Command: "db-server"}})

	require.Equal(t, []string{"db"}, h.Servers())

	d := findDescriptor(t, h, "db__query")
	assert.Equal(t, "Run a read-only query.", d.Description)
	assert.Equal(t, permission.RiskNetwork, d.Risk)
	require.NotNil(t, d.Parameters)
	assert.Equal(t, tool.TypeObject, d.Parameters.Type)
	require.Contains(t, d.Parameters.Properties, "sql")
	assert.Equal(t, tool.TypeString, d.Parameters.Properties["sql"].Type)
	assert.Equal(t, "statement to run", d.Parameters.Properties["sql"].Description)
	assert.Equal(t, []string{"sql"}, d.Parameters.Required)

	// Second page reached through the cursor; description falls back
	// when the server provides none.
	d = findDescriptor(t, h, "db__tables")
	assert.Contains(t, d.Description, `"tables"`)
	assert.Contains(t, d.Description, `"db"`)
	assert.Equal(t, tool.TypeObject, d.Parameters.Type)
}

func TestConnectSkipsBrokenServers(t *testing.T) {
	good := &fakeClient{pages: [][]mcpschema.Tool{{{Name: "ping"}}}}
	bad := &fakeClient{initErr: errors.New("handshake failed")}
	h := newHost(map[string]*fakeClient{"up": good, "down": bad})

	h.Connect(context.Background(), []ServerConfig{
		{Name: "down", Transport: TransportStdio, Command: "down-server"},
		{Name: "up", Transport: TransportStdio, Command: "up-server"},
		{Name: "", Transport: TransportStdio, Command: "anonymous"},
		{Name: "undialable", Transport: TransportSSE, URL: "http://localhost:1"},
	})

	assert.Equal(t, []string{"up"}, h.Servers())

	var names []string
	for _, d := range h.Descriptors() {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"up__ping", "access_mcp_resource"}, names)
}

func TestConnectRejectsDuplicateName(t *testing.T) {
	fake := &fakeClient{pages: [][]mcpschema.Tool{{{Name: "ping"}}}}
	h := newHost(map[string]*fakeClient{"db": fake})

	cfg := ServerConfig{Name: "db", Transport: TransportStdio, Command: "db-server"}
	h.Connect(context.Background(), []ServerConfig{cfg, cfg})

	assert.Equal(t, []string{"db"}, h.Servers())
}

func TestProxyHandler(t *testing.T) {
	fake := &fakeClient{pages: [][]mcpschema.Tool{{{Name: "query"}}}}
	h := newHost(map[string]*fakeClient{"db": fake})
	h.Connect(context.Background(), []ServerConfig{{Name: "db", Transport: TransportStdio, Command: "db-server"}})
	d := findDescriptor(t, h, "db__query")
	inv := tool.NewInvocation("c1", nil)

	t.Run("single text part passes through", func(t *testing.T) {
		fake.callResult = &mcpschema.CallToolResult{
			Content: []mcpschema.CallToolResultContentElem{{Type: "text", Text: "2 rows"}},
		}
		res, err := d.Handler.Execute(context.Background(), inv, map[string]any{"sql": "select 1"})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, "2 rows", text(res))

		require.NotNil(t, fake.lastCall)
		assert.Equal(t, "query", fake.lastCall.Name)
		assert.Equal(t, "select 1", fake.lastCall.Arguments["sql"])
	})

	t.Run("richer content is returned as JSON", func(t *testing.T) {
		fake.callResult = &mcpschema.CallToolResult{
			Content: []mcpschema.CallToolResultContentElem{
				{Type: "text", Text: "one"},
				{Type: "text", Text: "two"},
			},
		}
		res, err := d.Handler.Execute(context.Background(), inv, map[string]any{})
		require.NoError(t, err)
		want, merr := json.Marshal(fake.callResult.Content)
		require.NoError(t, merr)
		assert.Equal(t, string(want), text(res))
	})

	t.Run("empty content renders empty", func(t *testing.T) {
		fake.callResult = &mcpschema.CallToolResult{}
		res, err := d.Handler.Execute(context.Background(), inv, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "", text(res))
	})

	t.Run("nil args become an empty object", func(t *testing.T) {
		fake.callResult = &mcpschema.CallToolResult{}
		_, err := d.Handler.Execute(context.Background(), inv, nil)
		require.NoError(t, err)
		require.NotNil(t, fake.lastCall.Arguments)
	})

	t.Run("transport failure surfaces as a Go error", func(t *testing.T) {
		fake.callErr = errors.New("pipe closed")
		defer func() { fake.callErr = nil }()
		_, err := d.Handler.Execute(context.Background(), inv, map[string]any{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query")
		assert.Contains(t, err.Error(), "db")
	})
}

func TestAccessResource(t *testing.T) {
	fake := &fakeClient{pages: [][]mcpschema.Tool{{{Name: "ping"}}}}
	h := newHost(map[string]*fakeClient{"db": fake})
	h.Connect(context.Background(), []ServerConfig{{Name: "db", Transport: TransportStdio, Command: "db-server"}})
	d := findDescriptor(t, h, "access_mcp_resource")
	inv := tool.NewInvocation("c1", nil)

	resourceResult := func(t *testing.T, raw string) *mcpschema.ReadResourceResult {
		t.Helper()
		var rr mcpschema.ReadResourceResult
		require.NoError(t, json.Unmarshal([]byte(raw), &rr))
		return &rr
	}

	t.Run("text contents are joined", func(t *testing.T) {
		fake.readResult = resourceResult(t, `{"contents":[{"uri":"doc://a","text":"first"},{"uri":"doc://a","text":"second"}]}`)
		res, err := d.Handler.Execute(context.Background(), inv, map[string]any{"server_name": "db", "uri": "doc://a"})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, "first\nsecond", text(res))

		require.NotNil(t, fake.lastRead)
		assert.Equal(t, "doc://a", fake.lastRead.Uri)
	})

	t.Run("binary contents are summarised", func(t *testing.T) {
		fake.readResult = resourceResult(t, `{"contents":[{"uri":"doc://bin","blob":"aGVsbG8="}]}`)
		res, err := d.Handler.Execute(context.Background(), inv, map[string]any{"server_name": "db", "uri": "doc://bin"})
		require.NoError(t, err)
		assert.Equal(t, "(binary resource: 5 bytes)", text(res))
	})

	t.Run("empty resource", func(t *testing.T) {
		fake.readResult = &mcpschema.ReadResourceResult{}
		res, err := d.Handler.Execute(context.Background(), inv, map[string]any{"server_name": "db", "uri": "doc://none"})
		require.NoError(t, err)
		assert.Equal(t, "(empty resource)", text(res))
	})

	t.Run("unknown server is reported in band", func(t *testing.T) {
		res, err := d.Handler.Execute(context.Background(), inv, map[string]any{"server_name": "nope", "uri": "doc://a"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "unknown mcp server")
		assert.Contains(t, text(res), "db")
	})

	t.Run("read failure surfaces as a Go error", func(t *testing.T) {
		fake.readErr = errors.New("pipe closed")
		defer func() { fake.readErr = nil }()
		_, err := d.Handler.Execute(context.Background(), inv, map[string]any{"server_name": "db", "uri": "doc://a"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "doc://a")
	})
}
