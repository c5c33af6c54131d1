// Package trace defines the durable record format for captured call sessions
// and the append-only store that persists them.
//
// A Session is one bounded recording of calls over a single live connection.
// Each call is a CallRecord: the request, the response (if one arrived), and
// the elapsed duration. Sealed sessions are persisted one-per-line as
// newline-delimited JSON, so a mid-write crash can corrupt at most the final
// line and every earlier session stays readable.
//
// The Writer flushes each appended session to disk before returning. The
// Reader tolerates a truncated or malformed final line, skipping it with a
// warning rather than failing the whole read.
package trace
