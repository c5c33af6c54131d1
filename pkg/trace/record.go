package trace

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResultVersion is the current version of the serialized result envelope.
const ResultVersion = 1

// Result kinds. Each operation kind serializes its payload under an explicit
// tag so replay fidelity is checkable instead of depending on whatever the
// live object happened to look like.
const (
	KindInitialize      = "initialize"
	KindToolList        = "tool_list"
	KindToolResult      = "tool_result"
	KindResourceList    = "resource_list"
	KindResourceContent = "resource_content"
	KindPromptList      = "prompt_list"
	KindPromptResult    = "prompt_result"
)

// Result is the tagged, versioned envelope for a successful call's payload.
type Result struct {
	// Version is the envelope format version.
	Version int `json:"v"`

	// Kind tags the payload with its operation kind.
	Kind string `json:"kind"`

	// Payload is the kind-specific result, verbatim.
	Payload json.RawMessage `json:"payload"`
}

// NewResult wraps a payload value in a tagged Result envelope.
func NewResult(kind string, payload any) (*Result, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return &Result{Version: ResultVersion, Kind: kind, Payload: data}, nil
}

// Decode unmarshals the payload into v after checking the kind tag.
func (r *Result) Decode(kind string, v any) error {
	if r.Kind != kind {
		return fmt.Errorf("result kind mismatch: have %q, want %q", r.Kind, kind)
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return nil
}

// CallRequest is a single outgoing call: the method and its arguments.
type CallRequest struct {
	// Method is the wire method name, e.g. "tools/call".
	Method string `json:"method"`

	// Args are positional argument values, in order.
	Args []any `json:"args,omitempty"`

	// Kwargs are named argument values.
	Kwargs map[string]any `json:"kwargs,omitempty"`

	// Timestamp is when the call was issued.
	Timestamp time.Time `json:"timestamp"`
}

// CallResponse is the outcome of a call: a successful result or an error.
type CallResponse struct {
	// Success reports whether the call completed without error.
	Success bool `json:"success"`

	// Result is the tagged payload. Nil when Success is false.
	Result *Result `json:"result,omitempty"`

	// Error is the upstream error message. Empty when Success is true.
	Error string `json:"error,omitempty"`

	// Timestamp is when the response arrived.
	Timestamp time.Time `json:"timestamp"`
}

// CallRecord pairs a request with its eventual response. It is the unit of
// replay.
type CallRecord struct {
	Request CallRequest `json:"request"`

	// Response is nil when no response ever arrived (cancelled or still
	// in flight when the session was sealed).
	Response *CallResponse `json:"response"`

	// DurationMs is the elapsed wall time between request and response.
	DurationMs float64 `json:"duration_ms"`

	// Cancelled marks records whose call was cancelled before a response.
	Cancelled bool `json:"cancelled,omitempty"`
}

// Session is one bounded recording over a single live connection. Calls
// appear in completion order, which is not necessarily issuance order.
type Session struct {
	ID         string            `json:"session_id"`
	ServerInfo map[string]string `json:"server_info"`
	Calls      []CallRecord      `json:"calls"`
	StartedAt  time.Time         `json:"started_at"`

	// EndedAt is nil while the session is open. It is set exactly once,
	// when the session is sealed.
	EndedAt  *time.Time     `json:"ended_at"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Sealed reports whether the session has been sealed and is eligible for
// persistence.
func (s *Session) Sealed() bool {
	return s.EndedAt != nil
}

// Seal marks the session ended. Sealing twice is an error: a sealed session
// is immutable.
func (s *Session) Seal(at time.Time) error {
	if s.Sealed() {
		return ErrAlreadySealed
	}
	s.EndedAt = &at
	return nil
}

// Duration returns the wall time the session spanned, or zero while open.
func (s *Session) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}
