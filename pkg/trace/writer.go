package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Writer appends sealed sessions to a trace file, one JSON line per session.
// Every append is flushed to disk before returning, so a crash mid-write can
// corrupt at most the line being written.
//
// A Writer is safe for concurrent use within one process. Multiple processes
// appending to the same file concurrently are not supported.
type Writer struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// OpenWriter opens (creating if necessary) the trace file for appending.
func OpenWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file %s: %w", path, err)
	}
	return &Writer{f: f, path: path}, nil
}

// Path returns the trace file path.
func (w *Writer) Path() string {
	return w.path
}

// Append serializes the session and writes it as a single line, flushing to
// disk before returning. The session must be sealed. I/O failures are
// reported to the caller; the store never swallows them.
func (w *Writer) Append(s *Session) error {
	if !s.Sealed() {
		return ErrNotSealed
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return ErrWriterClosed
	}
	if _, err := w.f.Write(data); err != nil {
		return fmt.Errorf("write session %s to %s: %w", s.ID, w.path, err)
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	return nil
}

// Close closes the underlying file. Further appends return ErrWriterClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
