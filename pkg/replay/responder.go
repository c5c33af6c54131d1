package replay

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcptape/mcptape/pkg/logging"
	"github.com/mcptape/mcptape/pkg/mcp"
	"github.com/mcptape/mcptape/pkg/trace"
)

// State is the responder lifecycle state.
type State int

// Responder lifecycle states.
const (
	StateUnstarted State = iota
	StateLoaded
	StateServing
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateLoaded:
		return "loaded"
	case StateServing:
		return "serving"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Responder answers the session operation surface from a replay index,
// deterministically, with no backend. Lifecycle:
// Unstarted → Loaded → Serving → Stopped; calls are accepted only while
// Serving.
//
// The index is immutable, so concurrent calls need no locking beyond the
// state check.
type Responder struct {
	mu    sync.RWMutex
	state State
	index *Index
	log   *slog.Logger
}

// NewResponder creates an unstarted responder.
func NewResponder() *Responder {
	return &Responder{state: StateUnstarted, log: logging.Nop()}
}

// SetLogger sets the logger used for per-call replay reporting.
func (r *Responder) SetLogger(log *slog.Logger) {
	if log != nil {
		r.log = log
	}
}

// State returns the current lifecycle state.
func (r *Responder) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Load installs the index. Valid only once, from Unstarted.
func (r *Responder) Load(idx *Index) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateStopped:
		return ErrStopped
	case StateLoaded, StateServing:
		return ErrAlreadyLoaded
	}
	r.index = idx
	r.state = StateLoaded
	r.log.Info("replay index loaded",
		"keys", idx.Len(), "sessions", idx.Sessions(), "collisions", idx.Collisions())
	return nil
}

// Start moves the responder to Serving. Valid only from Loaded.
func (r *Responder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateStopped:
		return ErrStopped
	case StateUnstarted:
		return ErrNotLoaded
	case StateServing:
		return nil
	}
	r.state = StateServing
	return nil
}

// Stop moves the responder to Stopped. Subsequent calls are rejected.
func (r *Responder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateStopped
	return nil
}

// respond performs the core lookup: recorded success verbatim, recorded
// failure verbatim, loud miss otherwise.
func (r *Responder) respond(method string, kwargs map[string]any) (*trace.CallResponse, error) {
	r.mu.RLock()
	state, idx := r.state, r.index
	r.mu.RUnlock()

	if state != StateServing {
		return nil, ErrNotServing
	}

	key, err := KeyFor(method, kwargs)
	if err != nil {
		return nil, err
	}

	resp, ok := idx.Lookup(key)
	if !ok {
		r.log.Warn("replay miss", "key", key.String())
		return nil, &MissError{Key: key}
	}

	if !resp.Success {
		r.log.Debug("replaying recorded failure", "method", method)
		return nil, &RecordedError{Method: method, Message: resp.Error}
	}

	r.log.Debug("replaying recorded success", "method", method)
	return resp, nil
}

// decode extracts a typed payload from a recorded response.
func decode[T any](resp *trace.CallResponse, kind string) (*T, error) {
	var out T
	if resp.Result == nil {
		// Recorded success with no payload (its capture-time encoding
		// failed); the zero value is the most faithful answer available.
		return &out, nil
	}
	if err := resp.Result.Decode(kind, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Initialize replays the recorded handshake, or synthesizes one from the
// recorded server metadata when the handshake itself was not captured.
func (r *Responder) Initialize(_ context.Context, _ mcp.InitializeParams) (*mcp.InitializeResult, error) {
	resp, err := r.respond(mcp.MethodInitialize, nil)
	if err != nil {
		var miss *MissError
		if !errors.As(err, &miss) {
			return nil, err
		}
		// No recorded handshake; answer from session metadata so the
		// artifact still speaks the protocol.
		info := r.index.ServerInfo()
		return &mcp.InitializeResult{
			ProtocolVersion: mcp.ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo: mcp.ServerInfo{
				Name:    withDefault(info["name"], "mcptape-replay"),
				Version: withDefault(info["version"], "recorded"),
			},
		}, nil
	}
	return decode[mcp.InitializeResult](resp, trace.KindInitialize)
}

// ListTools replays the recorded catalog, falling back to one synthesized
// from observed tool calls.
func (r *Responder) ListTools(_ context.Context) (*mcp.ListToolsResult, error) {
	resp, err := r.respond(mcp.MethodListTools, nil)
	if err != nil {
		var miss *MissError
		if !errors.As(err, &miss) {
			return nil, err
		}
		return r.index.SynthesizedCatalog(), nil
	}
	return decode[mcp.ListToolsResult](resp, trace.KindToolList)
}

// CallTool replays a recorded tool invocation.
func (r *Responder) CallTool(_ context.Context, name string, args map[string]any) (*mcp.ToolResult, error) {
	resp, err := r.respond(mcp.MethodCallTool, mcp.CallToolKwargs(name, args))
	if err != nil {
		return nil, err
	}
	return decode[mcp.ToolResult](resp, trace.KindToolResult)
}

// ListResources replays the recorded resource catalog, falling back to one
// synthesized from observed reads.
func (r *Responder) ListResources(_ context.Context) (*mcp.ListResourcesResult, error) {
	resp, err := r.respond(mcp.MethodListResources, nil)
	if err != nil {
		var miss *MissError
		if !errors.As(err, &miss) {
			return nil, err
		}
		return r.index.SynthesizedResources(), nil
	}
	return decode[mcp.ListResourcesResult](resp, trace.KindResourceList)
}

// ReadResource replays a recorded resource read.
func (r *Responder) ReadResource(_ context.Context, uri string) (*mcp.ReadResourceResult, error) {
	resp, err := r.respond(mcp.MethodReadResource, mcp.ReadResourceKwargs(uri))
	if err != nil {
		return nil, err
	}
	return decode[mcp.ReadResourceResult](resp, trace.KindResourceContent)
}

// ListPrompts replays the recorded prompt catalog, falling back to one
// synthesized from observed gets.
func (r *Responder) ListPrompts(_ context.Context) (*mcp.ListPromptsResult, error) {
	resp, err := r.respond(mcp.MethodListPrompts, nil)
	if err != nil {
		var miss *MissError
		if !errors.As(err, &miss) {
			return nil, err
		}
		return r.index.SynthesizedPrompts(), nil
	}
	return decode[mcp.ListPromptsResult](resp, trace.KindPromptList)
}

// GetPrompt replays a recorded prompt render.
func (r *Responder) GetPrompt(_ context.Context, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	resp, err := r.respond(mcp.MethodGetPrompt, mcp.GetPromptKwargs(name, args))
	if err != nil {
		return nil, err
	}
	return decode[mcp.GetPromptResult](resp, trace.KindPromptResult)
}

// withDefault returns s, or def when s is empty.
func withDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Ensure Responder implements mcp.Session.
var _ mcp.Session = (*Responder)(nil)
