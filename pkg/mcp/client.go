package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Client drives a live MCP server through a Transport and exposes the
// typed Session surface. It is the concrete session the capture proxy wraps.
type Client struct {
	transport Transport

	mu     sync.Mutex
	nextID int
}

// NewClient creates a client over the given transport.
func NewClient(transport Transport) *Client {
	return &Client{transport: transport, nextID: 1}
}

// allocID returns the next request ID.
func (c *Client) allocID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	return id
}

// call sends one request and decodes its result into out.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	req := &JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      c.allocID(),
		Method:  method,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("%s: marshal params: %w", method, err)
		}
		req.Params = data
	}

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: server error %d: %s", method, resp.Error.Code, resp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("%s: unmarshal result: %w", method, err)
	}
	return nil
}

// Initialize performs the MCP handshake and sends the initialized
// notification.
func (c *Client) Initialize(ctx context.Context, params InitializeParams) (*InitializeResult, error) {
	if params.ProtocolVersion == "" {
		params.ProtocolVersion = ProtocolVersion
	}
	if params.Capabilities == nil {
		params.Capabilities = map[string]any{}
	}

	var result InitializeResult
	if err := c.call(ctx, MethodInitialize, params, &result); err != nil {
		return nil, err
	}

	// Fire-and-forget: some servers never answer notifications.
	notif := &JSONRPCRequest{JSONRPC: "2.0", Method: "notifications/initialized"}
	_, _ = c.transport.Send(ctx, notif)

	return &result, nil
}

// ListTools sends tools/list.
func (c *Client) ListTools(ctx context.Context) (*ListToolsResult, error) {
	var result ListToolsResult
	if err := c.call(ctx, MethodListTools, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CallTool sends tools/call.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	var result ToolResult
	params := CallToolParams{Name: name, Arguments: args}
	if err := c.call(ctx, MethodCallTool, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResources sends resources/list.
func (c *Client) ListResources(ctx context.Context) (*ListResourcesResult, error) {
	var result ListResourcesResult
	if err := c.call(ctx, MethodListResources, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReadResource sends resources/read.
func (c *Client) ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error) {
	var result ReadResourceResult
	if err := c.call(ctx, MethodReadResource, ReadResourceParams{URI: uri}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPrompts sends prompts/list.
func (c *Client) ListPrompts(ctx context.Context) (*ListPromptsResult, error) {
	var result ListPromptsResult
	if err := c.call(ctx, MethodListPrompts, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPrompt sends prompts/get.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*GetPromptResult, error) {
	var result GetPromptResult
	if err := c.call(ctx, MethodGetPrompt, GetPromptParams{Name: name, Arguments: args}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Ensure Client implements Session.
var _ Session = (*Client)(nil)
