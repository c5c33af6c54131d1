package capture

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcptape/mcptape/pkg/logging"
	"github.com/mcptape/mcptape/pkg/trace"
)

// DefaultGracePeriod is how long a call may stay unanswered before Finish
// records it as cancelled instead of leaking it.
const DefaultGracePeriod = 30 * time.Second

// Recorder owns one open recording session at a time and aggregates call
// records in completion order. Append is safe to call from multiple
// concurrently-completing calls.
type Recorder struct {
	mu      sync.Mutex
	session *trace.Session

	tracker *Tracker
	grace   time.Duration
	log     *slog.Logger
}

// NewRecorder creates a recorder with its own tracker and the default grace
// period.
func NewRecorder() *Recorder {
	return &Recorder{
		tracker: NewTracker(),
		grace:   DefaultGracePeriod,
		log:     logging.Nop(),
	}
}

// SetLogger sets the logger used for capture progress reporting.
func (r *Recorder) SetLogger(log *slog.Logger) {
	if log != nil {
		r.log = log
	}
}

// SetGracePeriod overrides how long unanswered calls wait before being
// recorded as cancelled during Finish.
func (r *Recorder) SetGracePeriod(grace time.Duration) {
	if grace > 0 {
		r.grace = grace
	}
}

// Tracker returns the correlation tracker backing this recorder.
func (r *Recorder) Tracker() *Tracker {
	return r.tracker
}

// Start opens a new recording session. Returns ErrSessionAlreadyOpen if one
// is already open.
func (r *Recorder) Start(serverInfo map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return ErrSessionAlreadyOpen
	}

	if serverInfo == nil {
		serverInfo = map[string]string{}
	}
	r.session = &trace.Session{
		ID:         uuid.NewString(),
		ServerInfo: serverInfo,
		StartedAt:  time.Now(),
		Metadata:   map[string]any{},
	}
	r.log.Info("recording session started", "session", r.session.ID)
	return nil
}

// Active reports whether a recording session is open.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// SessionID returns the open session's id, or empty when none is open.
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return ""
	}
	return r.session.ID
}

// SetServerInfo annotates the open session, e.g. with the name and version
// learned from the initialize response. A no-op when no session is open.
func (r *Recorder) SetServerInfo(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		r.session.ServerInfo[key] = value
	}
}

// Append adds one completed call record to the open session.
// Returns ErrNoActiveSession when no session is open.
func (r *Recorder) Append(rec trace.CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return ErrNoActiveSession
	}
	r.session.Calls = append(r.session.Calls, rec)
	return nil
}

// Finish sweeps calls still unanswered past the grace period, seals the
// session, and returns it. The returned session is immutable and eligible
// for persistence. Returns ErrNoActiveSession when no session is open.
func (r *Recorder) Finish() (*trace.Session, error) {
	stale := r.tracker.SweepStale(r.grace)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil, ErrNoActiveSession
	}

	for _, rec := range stale {
		r.log.Warn("call never answered; recording as cancelled",
			"method", rec.Request.Method)
		r.session.Calls = append(r.session.Calls, rec)
	}

	s := r.session
	r.session = nil
	if err := s.Seal(time.Now()); err != nil {
		return nil, err
	}

	r.log.Info("recording session sealed",
		"session", s.ID, "calls", len(s.Calls), "duration", s.Duration())
	return s, nil
}
