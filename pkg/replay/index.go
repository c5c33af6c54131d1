package replay

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mcptape/mcptape/pkg/logging"
	"github.com/mcptape/mcptape/pkg/mcp"
	"github.com/mcptape/mcptape/pkg/trace"
)

// Index is the canonical lookup table built from recorded sessions. It is
// built once, immutable thereafter, and safe to share across concurrently
// serving calls without locking.
type Index struct {
	entries    map[Key]*trace.CallResponse
	serverInfo map[string]string

	// Names observed through individual calls, used to synthesize
	// list-style responses when no catalog call was recorded verbatim.
	toolNames     []string
	resourceURIs  []string
	promptNames   []string
	sessionCount  int
	collisions    int
	recordedCalls int
}

// Len returns the number of distinct replay keys.
func (i *Index) Len() int {
	return len(i.entries)
}

// Sessions returns how many sessions fed the index.
func (i *Index) Sessions() int {
	return i.sessionCount
}

// Collisions returns how many records overwrote an earlier record with the
// same key.
func (i *Index) Collisions() int {
	return i.collisions
}

// RecordedCalls returns how many answered records were indexed, collisions
// included.
func (i *Index) RecordedCalls() int {
	return i.recordedCalls
}

// ServerInfo returns the recorded server metadata (from the most recent
// session that carried any).
func (i *Index) ServerInfo() map[string]string {
	return i.serverInfo
}

// Lookup returns the recorded response for a key.
func (i *Index) Lookup(k Key) (*trace.CallResponse, bool) {
	resp, ok := i.entries[k]
	return resp, ok
}

// ToolNames returns the distinct tool names observed across all recorded
// tools/call invocations, sorted.
func (i *Index) ToolNames() []string {
	return i.toolNames
}

// SynthesizedCatalog derives a tools/list response from the observed tool
// names. Used when no catalog call was recorded verbatim; schemas are
// unknown, so only names are populated.
func (i *Index) SynthesizedCatalog() *mcp.ListToolsResult {
	tools := make([]mcp.Tool, 0, len(i.toolNames))
	for _, name := range i.toolNames {
		tools = append(tools, mcp.Tool{
			Name:        name,
			Description: "Recorded tool (catalog synthesized from observed calls)",
		})
	}
	return &mcp.ListToolsResult{Tools: tools}
}

// SynthesizedResources derives a resources/list response from observed
// resources/read URIs.
func (i *Index) SynthesizedResources() *mcp.ListResourcesResult {
	resources := make([]mcp.Resource, 0, len(i.resourceURIs))
	for _, uri := range i.resourceURIs {
		resources = append(resources, mcp.Resource{URI: uri})
	}
	return &mcp.ListResourcesResult{Resources: resources}
}

// SynthesizedPrompts derives a prompts/list response from observed
// prompts/get names.
func (i *Index) SynthesizedPrompts() *mcp.ListPromptsResult {
	prompts := make([]mcp.Prompt, 0, len(i.promptNames))
	for _, name := range i.promptNames {
		prompts = append(prompts, mcp.Prompt{Name: name})
	}
	return &mcp.ListPromptsResult{Prompts: prompts}
}

// Builder accumulates sessions and produces an Index. Sessions must be added
// in chronological order; on key collision the record added later wins — an
// explicit policy that lets a fresh recording overwrite a stale one.
type Builder struct {
	entries      map[Key]*trace.CallResponse
	serverInfo   map[string]string
	toolNames    map[string]bool
	resourceURIs map[string]bool
	promptNames  map[string]bool

	sessions   int
	collisions int
	records    int
	log        *slog.Logger
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		entries:      make(map[Key]*trace.CallResponse),
		toolNames:    make(map[string]bool),
		resourceURIs: make(map[string]bool),
		promptNames:  make(map[string]bool),
		log:          logging.Nop(),
	}
}

// SetLogger sets the logger used for collision and skip reporting.
func (b *Builder) SetLogger(log *slog.Logger) {
	if log != nil {
		b.log = log
	}
}

// AddSession indexes every answered call of one sealed session. Records
// without a response (cancelled, never answered) cannot be replayed and are
// skipped.
func (b *Builder) AddSession(s *trace.Session) error {
	b.sessions++
	if len(s.ServerInfo) > 0 {
		b.serverInfo = s.ServerInfo
	}

	for idx, rec := range s.Calls {
		if rec.Response == nil {
			b.log.Debug("skipping unanswered call",
				"session", s.ID, "record", idx, "method", rec.Request.Method)
			continue
		}

		key, err := KeyFor(rec.Request.Method, rec.Request.Kwargs)
		if err != nil {
			return fmt.Errorf("session %s record %d: %w", s.ID, idx, err)
		}

		if _, exists := b.entries[key]; exists {
			b.collisions++
			b.log.Debug("replay key collision; later record wins", "key", key.String())
		}
		resp := rec.Response
		b.entries[key] = resp
		b.records++

		b.observe(rec.Request)
	}
	return nil
}

// AddTrace reads a trace file and indexes its sessions in chronological
// (started-at) order.
func (b *Builder) AddTrace(r *trace.Reader) error {
	sessions, err := r.ReadAll()
	if err != nil {
		return err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.Before(sessions[j].StartedAt)
	})
	for _, s := range sessions {
		if err := b.AddSession(s); err != nil {
			return err
		}
	}
	return nil
}

// observe accumulates the names needed for synthesized catalogs.
func (b *Builder) observe(req trace.CallRequest) {
	switch req.Method {
	case mcp.MethodCallTool:
		if name, ok := req.Kwargs["name"].(string); ok {
			b.toolNames[name] = true
		}
	case mcp.MethodReadResource:
		if uri, ok := req.Kwargs["uri"].(string); ok {
			b.resourceURIs[uri] = true
		}
	case mcp.MethodGetPrompt:
		if name, ok := req.Kwargs["name"].(string); ok {
			b.promptNames[name] = true
		}
	}
}

// Build produces the immutable index.
func (b *Builder) Build() *Index {
	idx := &Index{
		entries:       b.entries,
		serverInfo:    b.serverInfo,
		toolNames:     sortedKeys(b.toolNames),
		resourceURIs:  sortedKeys(b.resourceURIs),
		promptNames:   sortedKeys(b.promptNames),
		sessionCount:  b.sessions,
		collisions:    b.collisions,
		recordedCalls: b.records,
	}
	if idx.serverInfo == nil {
		idx.serverInfo = map[string]string{}
	}
	return idx
}

// sortedKeys returns a set's keys in sorted order.
func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
