package capture

// Error is a simple error type for session-state misuse.
// It allows defining sentinel errors as constants.
type Error string

// Error implements the error interface.
func (e Error) Error() string { return string(e) }

// Sentinel errors for recorder lifecycle misuse. These propagate to the
// capture-control caller; they never mask the wrapped call's own outcome.
var (
	// ErrNoActiveSession is returned by Append or Finish when no recording
	// session is open.
	ErrNoActiveSession = Error("no active recording session")

	// ErrSessionAlreadyOpen is returned by Start while a session is open,
	// preventing a half-recorded session from being silently discarded.
	ErrSessionAlreadyOpen = Error("a recording session is already open")
)
