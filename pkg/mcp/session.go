package mcp

import "context"

// Wire method names for the session operation surface.
const (
	MethodInitialize    = "initialize"
	MethodListTools     = "tools/list"
	MethodCallTool      = "tools/call"
	MethodListResources = "resources/list"
	MethodReadResource  = "resources/read"
	MethodListPrompts   = "prompts/list"
	MethodGetPrompt     = "prompts/get"
)

// Session is the fixed operation surface of a live MCP connection. The
// capture proxy wraps exactly this set one-for-one; the replay responder
// implements it from recorded traffic. Anything not on this interface passes
// outside the capture/replay machinery by design.
type Session interface {
	// Initialize performs the protocol handshake.
	Initialize(ctx context.Context, params InitializeParams) (*InitializeResult, error)

	// ListTools returns the tool catalog.
	ListTools(ctx context.Context) (*ListToolsResult, error)

	// CallTool invokes a named tool with arguments.
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error)

	// ListResources returns the resource catalog.
	ListResources(ctx context.Context) (*ListResourcesResult, error)

	// ReadResource reads a resource by URI.
	ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error)

	// ListPrompts returns the prompt catalog.
	ListPrompts(ctx context.Context) (*ListPromptsResult, error)

	// GetPrompt renders a named prompt with arguments.
	GetPrompt(ctx context.Context, name string, args map[string]string) (*GetPromptResult, error)
}

// Capture argument builders. Recording and replay must derive the same named
// argument map for an operation, or recorded calls would never match at
// replay time; both sides go through these.
//
// Initialize and the list operations carry no identity-bearing arguments:
// which client asked for a tool catalog never changes the answer, so their
// capture representation is empty.

// CallToolKwargs is the capture representation of a tools/call invocation.
func CallToolKwargs(name string, args map[string]any) map[string]any {
	kwargs := map[string]any{"name": name}
	if len(args) > 0 {
		kwargs["arguments"] = args
	}
	return kwargs
}

// ReadResourceKwargs is the capture representation of a resources/read invocation.
func ReadResourceKwargs(uri string) map[string]any {
	return map[string]any{"uri": uri}
}

// GetPromptKwargs is the capture representation of a prompts/get invocation.
func GetPromptKwargs(name string, args map[string]string) map[string]any {
	kwargs := map[string]any{"name": name}
	if len(args) > 0 {
		kwargs["arguments"] = args
	}
	return kwargs
}
