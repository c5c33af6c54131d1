// Package capture records the calls made through a live session without
// altering their observable behavior.
//
// The Proxy wraps a concrete mcp.Session one-for-one: every operation is
// forwarded unchanged, and its request and outcome are emitted as a
// trace.CallRecord. Instrumentation is opt-in — with no open recording
// session, calls pass straight through.
//
// The Tracker pairs each outgoing call with its eventual response by a
// per-call correlation id, never by method name, so concurrent calls to the
// same method cannot be cross-paired. The Recorder owns one open session at
// a time and aggregates records in completion order.
//
// Capture is best-effort observability: a failing observer hook or a full
// trace disk must never change what the wrapped call returns.
package capture
