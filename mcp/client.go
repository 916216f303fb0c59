package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpsdk "github.com/mark3labs/mcp-go/mcp"

	"github.com/agentrt/agentrt/chat"
)

// Client wraps a connection to a remote MCP server (via mark3labs/mcp-go)
// and adapts its tools into chat.Tool values, so tools discovered from a
// remote process flow through the same executor path as local ones.
type Client struct {
	conn *mcpclient.Client
}

// NewStdioClient launches command as a subprocess speaking MCP over stdio,
// performs the initialize handshake, and returns a Client ready to list and
// call the remote server's tools.
func NewStdioClient(ctx context.Context, command string, args, env []string, clientInfo Implementation) (*Client, error) {
	conn, err := mcpclient.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp client: start %s: %w", command, err)
	}

	if err := initialize(ctx, conn, clientInfo); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Client{conn: conn}, nil
}

func initialize(ctx context.Context, conn *mcpclient.Client, clientInfo Implementation) error {
	req := mcpsdk.InitializeRequest{}
	req.Params.ProtocolVersion = ProtocolVersion
	req.Params.ClientInfo = mcpsdk.Implementation{Name: clientInfo.Name, Version: clientInfo.Version}
	req.Params.Capabilities = mcpsdk.ClientCapabilities{}

	if _, err := conn.Initialize(ctx, req); err != nil {
		return fmt.Errorf("mcp client: initialize: %w", err)
	}
	return nil
}

// Close terminates the underlying connection (and subprocess, for stdio
// clients).
func (c *Client) Close() error { return c.conn.Close() }

// Tools lists the remote server's tools and adapts each into a chat.Tool
// whose Handler round-trips the call over the MCP connection. The returned
// tools can be passed directly to agent.WithTools or Registry.Register.
func (c *Client) Tools(ctx context.Context) ([]chat.Tool, error) {
	result, err := c.conn.ListTools(ctx, mcpsdk.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp client: list tools: %w", err)
	}

	tools := make([]chat.Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		schemaBytes, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("mcp client: marshal schema for %q: %w", t.Name, err)
		}
		tools = append(tools, chat.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schemaBytes,
			Handler:     c.callHandler(t.Name),
		})
	}
	return tools, nil
}

// callHandler builds a chat.Tool Handler that invokes the named remote
// tool over the MCP connection. A tool-level error from the remote server
// (IsError) is returned as a Go error, same as a local handler failing, so
// the executor reports it to the model the same way either way.
func (c *Client) callHandler(name string) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var arguments map[string]any
		if len(args) > 0 {
			if err := json.Unmarshal(args, &arguments); err != nil {
				return nil, fmt.Errorf("mcp client: decode arguments for %q: %w", name, err)
			}
		}

		req := mcpsdk.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = arguments

		result, err := c.conn.CallTool(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("mcp client: call %q: %w", name, err)
		}

		text := textContent(result.Content)
		if result.IsError {
			return nil, fmt.Errorf("mcp client: tool %q returned an error: %s", name, text)
		}
		if result.StructuredContent != nil {
			return result.StructuredContent, nil
		}
		return text, nil
	}
}

// textContent concatenates every text block in an MCP tool result, which is
// the common case for tools that don't also set StructuredContent.
func textContent(blocks []mcpsdk.Content) string {
	var text string
	for _, block := range blocks {
		if tc, ok := block.(mcpsdk.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}
