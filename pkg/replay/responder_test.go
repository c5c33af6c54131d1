package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcptape/mcptape/pkg/mcp"
	"github.com/mcptape/mcptape/pkg/trace"
)

func servingResponder(t *testing.T, idx *Index) *Responder {
	t.Helper()
	r := NewResponder()
	require.NoError(t, r.Load(idx))
	require.NoError(t, r.Start())
	return r
}

func TestResponder_Lifecycle(t *testing.T) {
	r := NewResponder()
	assert.Equal(t, StateUnstarted, r.State())

	// Serving before loading is rejected at both steps.
	assert.ErrorIs(t, r.Start(), ErrNotLoaded)
	_, err := r.CallTool(context.Background(), "add", nil)
	assert.ErrorIs(t, err, ErrNotServing)

	require.NoError(t, r.Load(NewBuilder().Build()))
	assert.Equal(t, StateLoaded, r.State())
	assert.ErrorIs(t, r.Load(NewBuilder().Build()), ErrAlreadyLoaded)

	// Still not serving until started.
	_, err = r.CallTool(context.Background(), "add", nil)
	assert.ErrorIs(t, err, ErrNotServing)

	require.NoError(t, r.Start())
	assert.Equal(t, StateServing, r.State())
	require.NoError(t, r.Start()) // idempotent while serving

	require.NoError(t, r.Stop())
	assert.Equal(t, StateStopped, r.State())
	assert.ErrorIs(t, r.Start(), ErrStopped)
	assert.ErrorIs(t, r.Load(NewBuilder().Build()), ErrStopped)

	_, err = r.CallTool(context.Background(), "add", nil)
	assert.ErrorIs(t, err, ErrNotServing)
}

func TestResponder_ReplaysRecordedToolCall(t *testing.T) {
	b := NewBuilder()
	s := sealedSession(t, "s1", time.Now(),
		answeredCall(t, "add", map[string]any{"a": 2, "b": 3}, "5"))
	require.NoError(t, b.AddSession(s))
	r := servingResponder(t, b.Build())

	result, err := r.CallTool(context.Background(), "add", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, "5", result.Content[0].Text)

	// Equivalent arguments spelled differently hit the same record.
	result, err = r.CallTool(context.Background(), "add", map[string]any{"b": 3.0, "a": 2.0})
	require.NoError(t, err)
	assert.Equal(t, "5", result.Content[0].Text)
}

func TestResponder_MissIsLoud(t *testing.T) {
	b := NewBuilder()
	s := sealedSession(t, "s1", time.Now(),
		answeredCall(t, "add", map[string]any{"a": 2, "b": 3}, "5"))
	require.NoError(t, b.AddSession(s))
	r := servingResponder(t, b.Build())

	_, err := r.CallTool(context.Background(), "add", map[string]any{"a": 7, "b": 1})
	var miss *MissError
	require.ErrorAs(t, err, &miss)
	assert.Equal(t, mcp.MethodCallTool, miss.Key.Method)
	assert.Contains(t, err.Error(), "no recorded response")

	// One miss fails only its own call; recorded calls keep working.
	result, err := r.CallTool(context.Background(), "add", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, "5", result.Content[0].Text)
}

func TestResponder_ReplaysRecordedFailure(t *testing.T) {
	b := NewBuilder()
	failed := trace.CallRecord{
		Request: trace.CallRequest{
			Method: mcp.MethodCallTool,
			Kwargs: mcp.CallToolKwargs("divide", map[string]any{"a": 1, "b": 0}),
		},
		Response: &trace.CallResponse{Success: false, Error: "division by zero"},
	}
	require.NoError(t, b.AddSession(sealedSession(t, "s1", time.Now(), failed)))
	r := servingResponder(t, b.Build())

	_, err := r.CallTool(context.Background(), "divide", map[string]any{"a": 1, "b": 0})
	var recorded *RecordedError
	require.ErrorAs(t, err, &recorded)
	assert.Equal(t, "division by zero", err.Error())
}

func TestResponder_PrefersRecordedCatalog(t *testing.T) {
	listResult, err := trace.NewResult(trace.KindToolList, &mcp.ListToolsResult{
		Tools: []mcp.Tool{{Name: "add", Description: "Adds two numbers"}},
	})
	require.NoError(t, err)
	listed := trace.CallRecord{
		Request:  trace.CallRequest{Method: mcp.MethodListTools},
		Response: &trace.CallResponse{Success: true, Result: listResult},
	}

	b := NewBuilder()
	require.NoError(t, b.AddSession(sealedSession(t, "s1", time.Now(),
		listed, answeredCall(t, "multiply", map[string]any{"a": 2}, "4"))))
	r := servingResponder(t, b.Build())

	tools, err := r.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, "Adds two numbers", tools.Tools[0].Description)
}

func TestResponder_SynthesizesCatalogOnMiss(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddSession(sealedSession(t, "s1", time.Now(),
		answeredCall(t, "multiply", map[string]any{"a": 2}, "4"),
		answeredCall(t, "add", map[string]any{"a": 1}, "1"))))
	r := servingResponder(t, b.Build())

	tools, err := r.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools.Tools, 2)
	assert.Equal(t, "add", tools.Tools[0].Name)
	assert.Equal(t, "multiply", tools.Tools[1].Name)
}

func TestResponder_InitializeFallsBackToSessionMetadata(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddSession(sealedSession(t, "s1", time.Now(),
		answeredCall(t, "add", map[string]any{"a": 1}, "1"))))
	r := servingResponder(t, b.Build())

	result, err := r.Initialize(context.Background(), mcp.InitializeParams{})
	require.NoError(t, err)
	assert.Equal(t, mcp.ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "calculator", result.ServerInfo.Name)
}

func TestResponder_ReplaysRecordedInitialize(t *testing.T) {
	initResult, err := trace.NewResult(trace.KindInitialize, &mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		ServerInfo:      mcp.ServerInfo{Name: "real-server", Version: "2.0.0"},
	})
	require.NoError(t, err)
	handshake := trace.CallRecord{
		Request:  trace.CallRequest{Method: mcp.MethodInitialize},
		Response: &trace.CallResponse{Success: true, Result: initResult},
	}

	b := NewBuilder()
	require.NoError(t, b.AddSession(sealedSession(t, "s1", time.Now(), handshake)))
	r := servingResponder(t, b.Build())

	result, err := r.Initialize(context.Background(), mcp.InitializeParams{})
	require.NoError(t, err)
	assert.Equal(t, "real-server", result.ServerInfo.Name)
	assert.Equal(t, "2.0.0", result.ServerInfo.Version)
}

func TestResponder_ReadResourceAndGetPrompt(t *testing.T) {
	readResult, err := trace.NewResult(trace.KindResourceContent, &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContent{{URI: "file:///a.txt", Text: "hello"}},
	})
	require.NoError(t, err)
	promptResult, err := trace.NewResult(trace.KindPromptResult, &mcp.GetPromptResult{
		Messages: []mcp.PromptMessage{{Role: "user", Content: mcp.ContentBlock{Type: "text", Text: "hi"}}},
	})
	require.NoError(t, err)

	b := NewBuilder()
	require.NoError(t, b.AddSession(sealedSession(t, "s1", time.Now(),
		trace.CallRecord{
			Request:  trace.CallRequest{Method: mcp.MethodReadResource, Kwargs: mcp.ReadResourceKwargs("file:///a.txt")},
			Response: &trace.CallResponse{Success: true, Result: readResult},
		},
		trace.CallRecord{
			Request:  trace.CallRequest{Method: mcp.MethodGetPrompt, Kwargs: mcp.GetPromptKwargs("greeting", map[string]string{"who": "world"})},
			Response: &trace.CallResponse{Success: true, Result: promptResult},
		},
	)))
	r := servingResponder(t, b.Build())

	read, err := r.ReadResource(context.Background(), "file:///a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", read.Contents[0].Text)

	_, err = r.ReadResource(context.Background(), "file:///other.txt")
	var miss *MissError
	assert.ErrorAs(t, err, &miss)

	prompt, err := r.GetPrompt(context.Background(), "greeting", map[string]string{"who": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hi", prompt.Messages[0].Content.Text)

	_, err = r.GetPrompt(context.Background(), "greeting", map[string]string{"who": "mars"})
	assert.ErrorAs(t, err, &miss)
}

func TestResponder_DeterministicAcrossCalls(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddSession(sealedSession(t, "s1", time.Now(),
		answeredCall(t, "add", map[string]any{"a": 2, "b": 3}, "5"))))
	r := servingResponder(t, b.Build())

	for i := 0; i < 10; i++ {
		result, err := r.CallTool(context.Background(), "add", map[string]any{"a": 2, "b": 3})
		require.NoError(t, err)
		assert.Equal(t, "5", result.Content[0].Text)
	}
}

func TestErrors_MapToWireCodes(t *testing.T) {
	miss := &MissError{Key: Key{Method: "tools/call", Signature: "{}"}}
	assert.Equal(t, mcp.ErrCodeReplayMiss, miss.JSONRPCError().Code)

	recorded := &RecordedError{Method: "tools/call", Message: "boom"}
	assert.Equal(t, mcp.ErrCodeUpstreamError, recorded.JSONRPCError().Code)

	assert.Equal(t, mcp.ErrCodeNotServing, ErrNotServing.JSONRPCError().Code)
}
