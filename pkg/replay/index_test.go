package replay

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcptape/mcptape/pkg/mcp"
	"github.com/mcptape/mcptape/pkg/trace"
)

// answeredCall builds a successful tool-call record for index tests.
func answeredCall(t *testing.T, name string, args map[string]any, text string) trace.CallRecord {
	t.Helper()
	result, err := trace.NewResult(trace.KindToolResult, &mcp.ToolResult{
		Content: []mcp.ContentBlock{{Type: "text", Text: text}},
	})
	require.NoError(t, err)
	return trace.CallRecord{
		Request: trace.CallRequest{
			Method:    mcp.MethodCallTool,
			Kwargs:    mcp.CallToolKwargs(name, args),
			Timestamp: time.Now(),
		},
		Response: &trace.CallResponse{Success: true, Result: result, Timestamp: time.Now()},
	}
}

func sealedSession(t *testing.T, id string, startedAt time.Time, calls ...trace.CallRecord) *trace.Session {
	t.Helper()
	s := &trace.Session{
		ID:         id,
		ServerInfo: map[string]string{"name": "calculator"},
		Calls:      calls,
		StartedAt:  startedAt,
	}
	require.NoError(t, s.Seal(startedAt.Add(time.Minute)))
	return s
}

func TestBuilder_IndexesAnsweredCalls(t *testing.T) {
	b := NewBuilder()
	s := sealedSession(t, "s1", time.Now(),
		answeredCall(t, "add", map[string]any{"a": 2, "b": 3}, "5"),
		answeredCall(t, "add", map[string]any{"a": 10, "b": 20}, "30"),
	)
	require.NoError(t, b.AddSession(s))

	idx := b.Build()
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 1, idx.Sessions())
	assert.Equal(t, 0, idx.Collisions())
	assert.Equal(t, 2, idx.RecordedCalls())
	assert.Equal(t, "calculator", idx.ServerInfo()["name"])

	key, err := KeyFor(mcp.MethodCallTool, mcp.CallToolKwargs("add", map[string]any{"a": 2, "b": 3}))
	require.NoError(t, err)
	resp, ok := idx.Lookup(key)
	require.True(t, ok)
	assert.True(t, resp.Success)
}

func TestBuilder_SkipsUnansweredCalls(t *testing.T) {
	b := NewBuilder()
	cancelled := trace.CallRecord{
		Request:   trace.CallRequest{Method: mcp.MethodCallTool, Kwargs: mcp.CallToolKwargs("slow", nil)},
		Response:  nil,
		Cancelled: true,
	}
	s := sealedSession(t, "s1", time.Now(),
		cancelled,
		answeredCall(t, "add", map[string]any{"a": 1}, "1"),
	)
	require.NoError(t, b.AddSession(s))

	idx := b.Build()
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, idx.RecordedCalls())

	key, err := KeyFor(mcp.MethodCallTool, mcp.CallToolKwargs("slow", nil))
	require.NoError(t, err)
	_, ok := idx.Lookup(key)
	assert.False(t, ok, "unanswered call must not be replayable")
}

func TestBuilder_LaterRecordWins(t *testing.T) {
	b := NewBuilder()
	args := map[string]any{"a": 2, "b": 3}
	older := sealedSession(t, "old", time.Now().Add(-time.Hour),
		answeredCall(t, "add", args, "stale answer"))
	newer := sealedSession(t, "new", time.Now(),
		answeredCall(t, "add", args, "5"))
	require.NoError(t, b.AddSession(older))
	require.NoError(t, b.AddSession(newer))

	idx := b.Build()
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, idx.Collisions())
	assert.Equal(t, 2, idx.RecordedCalls())

	key, err := KeyFor(mcp.MethodCallTool, mcp.CallToolKwargs("add", args))
	require.NoError(t, err)
	resp, ok := idx.Lookup(key)
	require.True(t, ok)

	var result mcp.ToolResult
	require.NoError(t, resp.Result.Decode(trace.KindToolResult, &result))
	assert.Equal(t, "5", result.Content[0].Text)
}

func TestBuilder_EquivalentArgumentsCollide(t *testing.T) {
	b := NewBuilder()
	// Same arguments spelled differently: int vs float.
	s := sealedSession(t, "s1", time.Now(),
		answeredCall(t, "add", map[string]any{"a": 2, "b": 3}, "first"),
		answeredCall(t, "add", map[string]any{"b": 3.0, "a": 2.0}, "second"),
	)
	require.NoError(t, b.AddSession(s))

	idx := b.Build()
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, idx.Collisions())
}

func TestBuilder_ObservesNamesForSynthesis(t *testing.T) {
	readRecord := func(uri string) trace.CallRecord {
		result, err := trace.NewResult(trace.KindResourceContent, &mcp.ReadResourceResult{})
		require.NoError(t, err)
		return trace.CallRecord{
			Request:  trace.CallRequest{Method: mcp.MethodReadResource, Kwargs: mcp.ReadResourceKwargs(uri)},
			Response: &trace.CallResponse{Success: true, Result: result},
		}
	}
	promptRecord := func(name string) trace.CallRecord {
		result, err := trace.NewResult(trace.KindPromptResult, &mcp.GetPromptResult{})
		require.NoError(t, err)
		return trace.CallRecord{
			Request:  trace.CallRequest{Method: mcp.MethodGetPrompt, Kwargs: mcp.GetPromptKwargs(name, nil)},
			Response: &trace.CallResponse{Success: true, Result: result},
		}
	}

	b := NewBuilder()
	s := sealedSession(t, "s1", time.Now(),
		answeredCall(t, "multiply", map[string]any{"a": 1}, "1"),
		answeredCall(t, "add", map[string]any{"a": 1}, "1"),
		answeredCall(t, "add", map[string]any{"a": 2}, "2"),
		readRecord("file:///b.txt"),
		readRecord("file:///a.txt"),
		promptRecord("greeting"),
	)
	require.NoError(t, b.AddSession(s))

	idx := b.Build()
	assert.Equal(t, []string{"add", "multiply"}, idx.ToolNames())

	catalog := idx.SynthesizedCatalog()
	require.Len(t, catalog.Tools, 2)
	assert.Equal(t, "add", catalog.Tools[0].Name)
	assert.Equal(t, "multiply", catalog.Tools[1].Name)

	resources := idx.SynthesizedResources()
	require.Len(t, resources.Resources, 2)
	assert.Equal(t, "file:///a.txt", resources.Resources[0].URI)

	prompts := idx.SynthesizedPrompts()
	require.Len(t, prompts.Prompts, 1)
	assert.Equal(t, "greeting", prompts.Prompts[0].Name)
}

// AddTrace must index sessions in chronological order regardless of file
// order, so later-wins means newest-recording-wins.
func TestBuilder_AddTraceChronological(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.ndjson")
	w, err := trace.OpenWriter(path)
	require.NoError(t, err)
	defer w.Close()

	args := map[string]any{"a": 2, "b": 3}
	newer := sealedSession(t, "new", time.Now(), answeredCall(t, "add", args, "5"))
	older := sealedSession(t, "old", time.Now().Add(-time.Hour), answeredCall(t, "add", args, "stale"))

	// Newest first in the file; chronological ordering must still win.
	require.NoError(t, w.Append(newer))
	require.NoError(t, w.Append(older))

	b := NewBuilder()
	require.NoError(t, b.AddTrace(trace.NewReader(path)))

	idx := b.Build()
	assert.Equal(t, 2, idx.Sessions())

	key, err := KeyFor(mcp.MethodCallTool, mcp.CallToolKwargs("add", args))
	require.NoError(t, err)
	resp, ok := idx.Lookup(key)
	require.True(t, ok)

	var result mcp.ToolResult
	require.NoError(t, resp.Result.Decode(trace.KindToolResult, &result))
	assert.Equal(t, "5", result.Content[0].Text)
}
