// Package mcp connects configured Model Context Protocol servers and
// surfaces their tools and resources through the tool registry. Server
// tools are merged under "<server>__<tool>" names; resources are read
// through the access_mcp_resource tool.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	mcpsdk "github.com/viant/mcp"
	mcpschema "github.com/viant/mcp-protocol/schema"
	mcpclient "github.com/viant/mcp/client"
)

// TransportType selects how a server is reached.
type TransportType string

const (
	TransportStdio TransportType = "stdio"
	TransportSSE   TransportType = "sse"
)

// ServerConfig describes one MCP server to connect.
type ServerConfig struct {
	Name      string
	Transport TransportType
	Command   string   // stdio: executable to spawn
	Args      []string // stdio: arguments
	URL       string   // sse: server endpoint
}

// Client is the protocol surface the host uses from a connected server.
// The viant/mcp client satisfies it.
type Client interface {
	Initialize(ctx context.Context, options ...mcpclient.RequestOption) (*mcpschema.InitializeResult, error)
	ListTools(ctx context.Context, cursor *string, options ...mcpclient.RequestOption) (*mcpschema.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcpschema.CallToolRequestParams, options ...mcpclient.RequestOption) (*mcpschema.CallToolResult, error)
	ReadResource(ctx context.Context, params *mcpschema.ReadResourceRequestParams, options ...mcpclient.RequestOption) (*mcpschema.ReadResourceResult, error)
}

// DialFunc builds a client for a server config. Overridable for tests.
type DialFunc func(cfg ServerConfig) (Client, error)

type server struct {
	name   string
	client Client
	tools  []mcpschema.Tool
}

// Host owns the connected servers for one session.
type Host struct {
	log     *slog.Logger
	dial    DialFunc
	servers map[string]*server
	order   []string
}

// Options tune the host.
type Options struct {
	// Dial overrides client construction, mainly for tests.
	Dial DialFunc
}

// NewHost creates a host with no servers connected. The logger is
// required.
func NewHost(log *slog.Logger, opts Options) *Host {
	if log == nil {
		panic("log is required")
	}
	dial := opts.Dial
	if dial == nil {
		dial = dialServer
	}
	return &Host{
		log:     log,
		dial:    dial,
		servers: make(map[string]*server),
	}
}

// dialServer builds the real transport client.
func dialServer(cfg ServerConfig) (Client, error) {
	opts := &mcpsdk.ClientOptions{Name: cfg.Name}
	switch cfg.Transport {
	case TransportStdio:
		opts.Transport = mcpsdk.ClientTransport{
			Type: "stdio",
			ClientTransportStdio: mcpsdk.ClientTransportStdio{
				Command:   cfg.Command,
				Arguments: cfg.Args,
			},
		}
	case TransportSSE:
		opts.Transport = mcpsdk.ClientTransport{
			Type:                "sse",
			ClientTransportHTTP: mcpsdk.ClientTransportHTTP{URL: cfg.URL},
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
	opts.Init()
	return mcpsdk.NewClient(nil, opts)
}

// Connect dials and initializes every configured server and lists its
// tools. A server that fails to come up is skipped with a warning so one
// broken server does not take the whole session down.
func (h *Host) Connect(ctx context.Context, configs []ServerConfig) {
	for _, cfg := range configs {
		if err := h.connectOne(ctx, cfg); err != nil {
			h.log.Warn("mcp server skipped", "server", cfg.Name, "error", err)
		}
	}
}

func (h *Host) connectOne(ctx context.Context, cfg ServerConfig) error {
	if cfg.Name == "" {
		return ErrUnnamedServer
	}
	if _, exists := h.servers[cfg.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateServer, cfg.Name)
	}

	client, err := h.dial(cfg)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if _, err := client.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	tools, err := listAllTools(ctx, client)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}

	h.servers[cfg.Name] = &server{name: cfg.Name, client: client, tools: tools}
	h.order = append(h.order, cfg.Name)
	h.log.Info("mcp server connected", "server", cfg.Name, "tools", len(tools))
	return nil
}

func listAllTools(ctx context.Context, client Client) ([]mcpschema.Tool, error) {
	var tools []mcpschema.Tool
	var cursor *string
	for {
		page, err := client.ListTools(ctx, cursor)
		if err != nil {
			return nil, err
		}
		tools = append(tools, page.Tools...)
		if page.NextCursor == nil || *page.NextCursor == "" {
			return tools, nil
		}
		cursor = page.NextCursor
	}
}

// Servers returns the connected server names in connect order.
func (h *Host) Servers() []string {
	return append([]string(nil), h.order...)
}

func (h *Host) lookup(name string) (*server, error) {
	srv, ok := h.servers[name]
	if !ok {
		known := make([]string, 0, len(h.servers))
		for n := range h.servers {
			known = append(known, n)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("%w: %q (connected: %v)", ErrUnknownServer, name, known)
	}
	return srv, nil
}
