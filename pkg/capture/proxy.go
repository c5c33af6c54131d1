package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcptape/mcptape/pkg/logging"
	"github.com/mcptape/mcptape/pkg/mcp"
	"github.com/mcptape/mcptape/pkg/trace"
)

// Proxy wraps a live mcp.Session one-for-one. Every operation is forwarded
// unchanged — same result, same error — while a capture event flows through
// the tracker into the recorder. When no recording session is open, calls
// pass through uninstrumented.
type Proxy struct {
	inner mcp.Session
	rec   *Recorder
	log   *slog.Logger

	hookMu        sync.Mutex
	requestHooks  []RequestHook
	responseHooks []ResponseHook
}

// NewProxy wraps the given session. The recorder decides whether capture is
// active; pass any recorder and control it with Start/Finish.
func NewProxy(inner mcp.Session, rec *Recorder) *Proxy {
	return &Proxy{inner: inner, rec: rec, log: logging.Nop()}
}

// SetLogger sets the logger used for instrumentation warnings.
func (p *Proxy) SetLogger(log *slog.Logger) {
	if log != nil {
		p.log = log
	}
}

// OnRequest registers a pre-call observer hook. Hooks run in registration
// order; a failing hook is logged and never affects the call.
func (p *Proxy) OnRequest(hook RequestHook) {
	p.hookMu.Lock()
	defer p.hookMu.Unlock()
	p.requestHooks = append(p.requestHooks, hook)
}

// OnResponse registers a post-call observer hook.
func (p *Proxy) OnResponse(hook ResponseHook) {
	p.hookMu.Lock()
	defer p.hookMu.Unlock()
	p.responseHooks = append(p.responseHooks, hook)
}

// begin emits the capture event for an outgoing call and returns its
// correlation id.
func (p *Proxy) begin(method string, kwargs map[string]any) string {
	corrID := p.rec.Tracker().Begin(method, nil, kwargs)

	p.hookMu.Lock()
	hooks := p.requestHooks
	p.hookMu.Unlock()
	runRequestHooks(p.log, hooks, method, kwargs)

	return corrID
}

// finish emits the capture event for a completed call. The wrapped call's
// result and error have already been decided; nothing here may change them.
func (p *Proxy) finish(corrID, method, kind string, payload any, callErr error) {
	var rec trace.CallRecord
	var ok bool

	switch {
	case callErr == nil:
		resp := trace.CallResponse{Success: true, Timestamp: time.Now()}
		result, err := trace.NewResult(kind, payload)
		if err != nil {
			// Instrumentation failure: record the success flag without a
			// payload rather than touching the live call.
			p.log.Warn("failed to encode result for capture", "method", method, "error", err)
		} else {
			resp.Result = result
		}
		rec, ok = p.rec.Tracker().Complete(corrID, resp)

	case errors.Is(callErr, context.Canceled), errors.Is(callErr, context.DeadlineExceeded):
		// The caller gave up; there is no response to pair.
		rec, ok = p.rec.Tracker().Abandon(corrID)

	default:
		resp := trace.CallResponse{Success: false, Error: callErr.Error(), Timestamp: time.Now()}
		rec, ok = p.rec.Tracker().Complete(corrID, resp)
	}

	if !ok {
		return
	}

	if err := p.rec.Append(rec); err != nil {
		// The session may have been sealed while this call was in flight.
		// Capture is best-effort; never fail the live call over it.
		p.log.Warn("dropping call record", "method", method, "error", err)
		return
	}

	p.hookMu.Lock()
	hooks := p.responseHooks
	p.hookMu.Unlock()
	runResponseHooks(p.log, hooks, method, rec.Response)

	p.log.Info("captured call",
		"method", method, "success", rec.Response != nil && rec.Response.Success,
		"duration_ms", rec.DurationMs)
}

// recording reports whether capture is currently active.
func (p *Proxy) recording() bool {
	return p.rec != nil && p.rec.Active()
}

// Initialize forwards initialize, capturing its outcome.
func (p *Proxy) Initialize(ctx context.Context, params mcp.InitializeParams) (*mcp.InitializeResult, error) {
	if !p.recording() {
		return p.inner.Initialize(ctx, params)
	}
	corrID := p.begin(mcp.MethodInitialize, nil)
	result, err := p.inner.Initialize(ctx, params)
	if err == nil && result != nil {
		p.rec.SetServerInfo("name", result.ServerInfo.Name)
		p.rec.SetServerInfo("version", result.ServerInfo.Version)
	}
	p.finish(corrID, mcp.MethodInitialize, trace.KindInitialize, result, err)
	return result, err
}

// ListTools forwards tools/list, capturing its outcome.
func (p *Proxy) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	if !p.recording() {
		return p.inner.ListTools(ctx)
	}
	corrID := p.begin(mcp.MethodListTools, nil)
	result, err := p.inner.ListTools(ctx)
	p.finish(corrID, mcp.MethodListTools, trace.KindToolList, result, err)
	return result, err
}

// CallTool forwards tools/call, capturing its outcome.
func (p *Proxy) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.ToolResult, error) {
	if !p.recording() {
		return p.inner.CallTool(ctx, name, args)
	}
	corrID := p.begin(mcp.MethodCallTool, mcp.CallToolKwargs(name, args))
	result, err := p.inner.CallTool(ctx, name, args)
	p.finish(corrID, mcp.MethodCallTool, trace.KindToolResult, result, err)
	return result, err
}

// ListResources forwards resources/list, capturing its outcome.
func (p *Proxy) ListResources(ctx context.Context) (*mcp.ListResourcesResult, error) {
	if !p.recording() {
		return p.inner.ListResources(ctx)
	}
	corrID := p.begin(mcp.MethodListResources, nil)
	result, err := p.inner.ListResources(ctx)
	p.finish(corrID, mcp.MethodListResources, trace.KindResourceList, result, err)
	return result, err
}

// ReadResource forwards resources/read, capturing its outcome.
func (p *Proxy) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if !p.recording() {
		return p.inner.ReadResource(ctx, uri)
	}
	corrID := p.begin(mcp.MethodReadResource, mcp.ReadResourceKwargs(uri))
	result, err := p.inner.ReadResource(ctx, uri)
	p.finish(corrID, mcp.MethodReadResource, trace.KindResourceContent, result, err)
	return result, err
}

// ListPrompts forwards prompts/list, capturing its outcome.
func (p *Proxy) ListPrompts(ctx context.Context) (*mcp.ListPromptsResult, error) {
	if !p.recording() {
		return p.inner.ListPrompts(ctx)
	}
	corrID := p.begin(mcp.MethodListPrompts, nil)
	result, err := p.inner.ListPrompts(ctx)
	p.finish(corrID, mcp.MethodListPrompts, trace.KindPromptList, result, err)
	return result, err
}

// GetPrompt forwards prompts/get, capturing its outcome.
func (p *Proxy) GetPrompt(ctx context.Context, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	if !p.recording() {
		return p.inner.GetPrompt(ctx, name, args)
	}
	corrID := p.begin(mcp.MethodGetPrompt, mcp.GetPromptKwargs(name, args))
	result, err := p.inner.GetPrompt(ctx, name, args)
	p.finish(corrID, mcp.MethodGetPrompt, trace.KindPromptResult, result, err)
	return result, err
}

// Ensure Proxy implements mcp.Session.
var _ mcp.Session = (*Proxy)(nil)
