package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptTransport answers requests from a canned method-to-result table and
// records everything sent.
type scriptTransport struct {
	sent    []*JSONRPCRequest
	results map[string]any
	errs    map[string]*JSONRPCError
	closed  bool
}

func (t *scriptTransport) Send(_ context.Context, req *JSONRPCRequest) (*JSONRPCResponse, error) {
	t.sent = append(t.sent, req)
	if req.IsNotification() {
		return nil, nil
	}
	if rpcErr, ok := t.errs[req.Method]; ok {
		return NewErrorResponse(req.ID, rpcErr), nil
	}
	result, ok := t.results[req.Method]
	if !ok {
		return NewErrorResponse(req.ID, MethodNotFoundError(req.Method)), nil
	}
	resp, err := NewResponse(req.ID, result)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *scriptTransport) Close() error {
	t.closed = true
	return nil
}

var _ Transport = (*scriptTransport)(nil)

func TestClient_Initialize(t *testing.T) {
	transport := &scriptTransport{results: map[string]any{
		MethodInitialize: InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      ServerInfo{Name: "calc", Version: "1.0.0"},
		},
	}}
	c := NewClient(transport)

	result, err := c.Initialize(context.Background(), InitializeParams{
		ClientInfo: ClientInfo{Name: "test", Version: "0"},
	})
	require.NoError(t, err)
	assert.Equal(t, "calc", result.ServerInfo.Name)

	// Handshake plus the initialized notification.
	require.Len(t, transport.sent, 2)
	assert.Equal(t, MethodInitialize, transport.sent[0].Method)
	assert.Equal(t, "notifications/initialized", transport.sent[1].Method)
	assert.True(t, transport.sent[1].IsNotification())

	// Defaults are filled before sending.
	var params InitializeParams
	require.NoError(t, json.Unmarshal(transport.sent[0].Params, &params))
	assert.Equal(t, ProtocolVersion, params.ProtocolVersion)
}

func TestClient_CallTool(t *testing.T) {
	transport := &scriptTransport{results: map[string]any{
		MethodCallTool: ToolResult{Content: []ContentBlock{{Type: "text", Text: "5"}}},
	}}
	c := NewClient(transport)

	result, err := c.CallTool(context.Background(), "add", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, "5", result.Content[0].Text)

	var params CallToolParams
	require.NoError(t, json.Unmarshal(transport.sent[0].Params, &params))
	assert.Equal(t, "add", params.Name)
	assert.Equal(t, float64(2), params.Arguments["a"])
}

func TestClient_ServerError(t *testing.T) {
	transport := &scriptTransport{errs: map[string]*JSONRPCError{
		MethodCallTool: NewJSONRPCError(ErrCodeInternalError, "tool crashed"),
	}}
	c := NewClient(transport)

	_, err := c.CallTool(context.Background(), "add", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-32603")
}

func TestClient_RequestIDsIncrease(t *testing.T) {
	transport := &scriptTransport{results: map[string]any{
		MethodListTools:     ListToolsResult{},
		MethodListResources: ListResourcesResult{},
		MethodListPrompts:   ListPromptsResult{},
	}}
	c := NewClient(transport)

	ctx := context.Background()
	_, err := c.ListTools(ctx)
	require.NoError(t, err)
	_, err = c.ListResources(ctx)
	require.NoError(t, err)
	_, err = c.ListPrompts(ctx)
	require.NoError(t, err)

	require.Len(t, transport.sent, 3)
	assert.Equal(t, 1, transport.sent[0].ID)
	assert.Equal(t, 2, transport.sent[1].ID)
	assert.Equal(t, 3, transport.sent[2].ID)
}

func TestClient_Close(t *testing.T) {
	transport := &scriptTransport{}
	c := NewClient(transport)
	require.NoError(t, c.Close())
	assert.True(t, transport.closed)
}

func TestMergeEnv(t *testing.T) {
	merged := mergeEnv(
		[]string{"PATH=/usr/bin", "HOME=/root"},
		[]string{"HOME=/tmp", "API_KEY=secret"},
	)
	assert.Equal(t, []string{"PATH=/usr/bin", "HOME=/tmp", "API_KEY=secret"}, merged)
}
