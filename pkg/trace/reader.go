package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mcptape/mcptape/pkg/logging"
)

// maxLineSize bounds a single serialized session. Sessions holding large
// resource payloads can run long; 64 MiB is far beyond anything observed.
const maxLineSize = 64 * 1024 * 1024

// Reader reads sessions back from a trace file.
//
// A malformed or truncated line is skipped with a warning rather than
// failing the read, so a crash during the final append never makes the
// earlier sessions unreadable.
type Reader struct {
	path string
	log  *slog.Logger
}

// NewReader creates a reader for the given trace file.
func NewReader(path string) *Reader {
	return &Reader{path: path, log: logging.Nop()}
}

// SetLogger sets the logger used for skipped-line warnings.
func (r *Reader) SetLogger(log *slog.Logger) {
	if log != nil {
		r.log = log
	}
}

// Path returns the trace file path.
func (r *Reader) Path() string {
	return r.path
}

// ReadAll returns every parseable session in file order.
func (r *Reader) ReadAll() ([]*Session, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open trace file %s: %w", r.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var sessions []*Session
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			// Most often the final line of a file whose writer died
			// mid-append. Skipping keeps every intact session readable.
			r.log.Warn("skipping unparseable trace line",
				"file", r.path, "line", line, "error", err)
			continue
		}
		sessions = append(sessions, &s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace file %s: %w", r.path, err)
	}

	return sessions, nil
}

// ReadLatest returns the last successfully parsed session.
// Returns ErrNoSessions when the file holds none.
func (r *Reader) ReadLatest() (*Session, error) {
	sessions, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}
	return sessions[len(sessions)-1], nil
}

// Count returns the number of parseable sessions in the file.
func (r *Reader) Count() (int, error) {
	sessions, err := r.ReadAll()
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}
