package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/tool"
)

// Descriptors returns one descriptor per server tool, named
// "<server>__<tool>", plus the access_mcp_resource tool. Everything an
// MCP server does crosses the process boundary, so all of it carries
// network risk.
func (h *Host) Descriptors() []*tool.Descriptor {
	var out []*tool.Descriptor
	for _, name := range h.order {
		srv := h.servers[name]
		for _, td := range srv.tools {
			out = append(out, h.toolDescriptor(srv.name, td))
		}
	}
	out = append(out, h.resourceDescriptor())
	return out
}

func (h *Host) toolDescriptor(serverName string, td mcpschema.Tool) *tool.Descriptor {
	description := fmt.Sprintf("Tool %q provided by MCP server %q.", td.Name, serverName)
	if td.Description != nil && *td.Description != "" {
		description = *td.Description
	}
	return &tool.Descriptor{
		Name:        serverName + "__" + td.Name,
		Description: description,
		Parameters:  convertInputSchema(td.InputSchema),
		Risk:        permission.RiskNetwork,
		Handler:     h.proxyHandler(serverName, td.Name),
	}
}

// convertInputSchema maps an MCP input schema onto the local schema type
// through its JSON form. Constructs outside the local subset survive as
// unconstrained fields.
func convertInputSchema(in mcpschema.ToolInputSchema) *tool.Schema {
	out := &tool.Schema{Type: tool.TypeObject}
	data, err := json.Marshal(in)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &tool.Schema{Type: tool.TypeObject}
	}
	if out.Type == "" {
		out.Type = tool.TypeObject
	}
	return out
}

func (h *Host) proxyHandler(serverName, toolName string) tool.HandlerFunc {
	return func(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
		srv, err := h.lookup(serverName)
		if err != nil {
			return tool.Result{}, err
		}
		if args == nil {
			args = map[string]any{}
		}

		result, err := srv.client.CallTool(ctx, &mcpschema.CallToolRequestParams{
			Name:      toolName,
			Arguments: args,
		})
		if err != nil {
			return tool.Result{}, fmt.Errorf("call %s on mcp server %s: %w", toolName, serverName, err)
		}
		return renderCallResult(result), nil
	}
}

// renderCallResult flattens MCP content: a single text part passes
// through, anything richer is returned as the JSON content array.
func renderCallResult(result *mcpschema.CallToolResult) tool.Result {
	if len(result.Content) == 0 {
		return tool.Text("")
	}
	if len(result.Content) == 1 && result.Content[0].Type == "text" {
		return tool.Text(result.Content[0].Text)
	}
	data, err := json.Marshal(result.Content)
	if err != nil {
		return tool.ErrorText(fmt.Sprintf("unrenderable mcp content: %v", err))
	}
	return tool.Text(string(data))
}

type resourceRequest struct {
	ServerName string `json:"server_name"`
	URI        string `json:"uri"`
}

func (h *Host) resourceDescriptor() *tool.Descriptor {
	return &tool.Descriptor{
		Name: "access_mcp_resource",
		Description: "Access a resource provided by a connected MCP server. Resources represent " +
			"data sources that can be used as context, such as files, API responses, or system " +
			"information.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"server_name": {Type: tool.TypeString, Description: "The name of the MCP server providing the resource"},
				"uri":         {Type: tool.TypeString, Description: "The URI identifying the specific resource to access"},
			},
			Required: []string{"server_name", "uri"},
		},
		Risk:    permission.RiskNetwork,
		Handler: tool.HandlerFunc(h.accessResource),
	}
}

func (h *Host) accessResource(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req resourceRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}

	srv, err := h.lookup(req.ServerName)
	if err != nil {
		if errors.Is(err, ErrUnknownServer) {
			return tool.ErrorText(err.Error()), nil
		}
		return tool.Result{}, err
	}

	result, err := srv.client.ReadResource(ctx, &mcpschema.ReadResourceRequestParams{Uri: req.URI})
	if err != nil {
		return tool.Result{}, fmt.Errorf("read resource %s from mcp server %s: %w", req.URI, req.ServerName, err)
	}

	return renderResource(result), nil
}

// renderResource concatenates text contents; binary contents are
// summarised rather than dumped into the conversation.
func renderResource(result *mcpschema.ReadResourceResult) tool.Result {
	if len(result.Contents) == 0 {
		return tool.Text("(empty resource)")
	}

	var parts []string
	for _, c := range result.Contents {
		switch {
		case c.Text != "":
			parts = append(parts, c.Text)
		case c.Blob != "":
			if decoded, err := base64.StdEncoding.DecodeString(c.Blob); err == nil {
				parts = append(parts, fmt.Sprintf("(binary resource: %d bytes)", len(decoded)))
			} else {
				parts = append(parts, "(binary resource)")
			}
		}
	}
	if len(parts) == 0 {
		return tool.Text("(empty resource)")
	}
	return tool.Text(strings.Join(parts, "\n"))
}
