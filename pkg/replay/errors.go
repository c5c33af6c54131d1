package replay

import (
	"fmt"

	"github.com/mcptape/mcptape/pkg/mcp"
)

// Error is a simple error type for responder lifecycle errors.
type Error string

// Error implements the error interface.
func (e Error) Error() string { return string(e) }

// Sentinel errors for responder lifecycle misuse.
var (
	// ErrNotServing is returned for calls while the responder is not in its
	// serving state.
	ErrNotServing = Error("responder is not serving")

	// ErrAlreadyLoaded is returned when loading an index twice.
	ErrAlreadyLoaded = Error("responder already has an index loaded")

	// ErrNotLoaded is returned by Start before an index has been loaded.
	ErrNotLoaded = Error("no index loaded")

	// ErrStopped is returned when restarting a stopped responder.
	ErrStopped = Error("responder has been stopped")
)

// MissError reports a call with no recorded response. It carries the
// attempted key so the caller can see exactly what was looked up. One
// missing fixture fails only the call that needed it.
type MissError struct {
	Key Key
}

// Error implements the error interface.
func (e *MissError) Error() string {
	return fmt.Sprintf("no recorded response for call %s", e.Key)
}

// JSONRPCError maps the miss to its wire-level error object.
func (e *MissError) JSONRPCError() *mcp.JSONRPCError {
	return mcp.NewJSONRPCError(mcp.ErrCodeReplayMiss, map[string]string{
		"method":    e.Key.Method,
		"signature": e.Key.Signature,
	})
}

// RecordedError replays a failure captured from the real server. The
// success/failure distinction is preserved so assertions on error outcomes
// behave identically against the mock.
type RecordedError struct {
	Method  string
	Message string
}

// Error implements the error interface.
func (e *RecordedError) Error() string {
	return e.Message
}

// JSONRPCError maps the replayed failure to its wire-level error object.
func (e *RecordedError) JSONRPCError() *mcp.JSONRPCError {
	return mcp.NewJSONRPCError(mcp.ErrCodeUpstreamError, e.Message)
}

// JSONRPCError maps lifecycle errors to the not-serving wire error.
func (e Error) JSONRPCError() *mcp.JSONRPCError {
	return mcp.NewJSONRPCError(mcp.ErrCodeNotServing, string(e))
}

// Ensure error types satisfy the wire mapping interface.
var (
	_ mcp.RPCCoder = (*MissError)(nil)
	_ mcp.RPCCoder = (*RecordedError)(nil)
	_ mcp.RPCCoder = Error("")
)
