package capture

import (
	"sync"
	"time"

	"github.com/mcptape/mcptape/internal/id"
	"github.com/mcptape/mcptape/pkg/trace"
)

// pending is one in-flight call awaiting its response.
type pending struct {
	req     trace.CallRequest
	started time.Time
}

// Tracker pairs outgoing calls with their eventual responses. Each call gets
// a unique correlation id at capture time; the open entry is popped by that
// id — never by method name — so N concurrent calls to one method stay
// correctly paired.
//
// The mutex guards only the map. It is never held across the wrapped call,
// so tracking one slow call cannot serialize unrelated concurrent calls.
type Tracker struct {
	mu   sync.Mutex
	open map[string]pending
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{open: make(map[string]pending)}
}

// Begin registers an outgoing call and returns its correlation id.
func (t *Tracker) Begin(method string, args []any, kwargs map[string]any) string {
	corrID := id.ULID()
	p := pending{
		req: trace.CallRequest{
			Method:    method,
			Args:      args,
			Kwargs:    kwargs,
			Timestamp: time.Now(),
		},
		started: time.Now(),
	}

	t.mu.Lock()
	t.open[corrID] = p
	t.mu.Unlock()

	return corrID
}

// Complete pops the open entry for corrID and pairs it with the response.
// Returns false if no entry is open under that id (already completed,
// abandoned, or swept).
func (t *Tracker) Complete(corrID string, resp trace.CallResponse) (trace.CallRecord, bool) {
	t.mu.Lock()
	p, ok := t.open[corrID]
	if ok {
		delete(t.open, corrID)
	}
	t.mu.Unlock()

	if !ok {
		return trace.CallRecord{}, false
	}

	return trace.CallRecord{
		Request:    p.req,
		Response:   &resp,
		DurationMs: float64(time.Since(p.started)) / float64(time.Millisecond),
	}, true
}

// Abandon pops the open entry for corrID and returns a record with a null
// response, marked cancelled. Used when the caller cancels an in-flight call.
func (t *Tracker) Abandon(corrID string) (trace.CallRecord, bool) {
	t.mu.Lock()
	p, ok := t.open[corrID]
	if ok {
		delete(t.open, corrID)
	}
	t.mu.Unlock()

	if !ok {
		return trace.CallRecord{}, false
	}

	return trace.CallRecord{
		Request:    p.req,
		Response:   nil,
		DurationMs: float64(time.Since(p.started)) / float64(time.Millisecond),
		Cancelled:  true,
	}, true
}

// SweepStale removes entries open longer than grace and returns them as
// cancelled records with null responses. Entries must not leak indefinitely
// when a response never arrives.
func (t *Tracker) SweepStale(grace time.Duration) []trace.CallRecord {
	cutoff := time.Now().Add(-grace)

	t.mu.Lock()
	var stale []trace.CallRecord
	for corrID, p := range t.open {
		if p.started.After(cutoff) {
			continue
		}
		delete(t.open, corrID)
		stale = append(stale, trace.CallRecord{
			Request:    p.req,
			Response:   nil,
			DurationMs: float64(time.Since(p.started)) / float64(time.Millisecond),
			Cancelled:  true,
		})
	}
	t.mu.Unlock()

	return stale
}

// OpenCount returns the number of calls currently awaiting a response.
func (t *Tracker) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}
