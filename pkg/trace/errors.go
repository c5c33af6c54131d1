package trace

// Error is a simple error type for trace persistence errors.
// It allows defining sentinel errors as constants.
type Error string

// Error implements the error interface.
func (e Error) Error() string { return string(e) }

// Sentinel errors for trace persistence.
var (
	// ErrNotSealed is returned when appending a session that is still open.
	// Only sealed sessions are eligible for persistence.
	ErrNotSealed = Error("session is not sealed")

	// ErrAlreadySealed is returned when sealing a session twice.
	ErrAlreadySealed = Error("session is already sealed")

	// ErrNoSessions is returned by ReadLatest when the trace file holds no
	// parseable sessions.
	ErrNoSessions = Error("trace file contains no sessions")

	// ErrWriterClosed is returned when appending through a closed writer.
	ErrWriterClosed = Error("trace writer is closed")
)
