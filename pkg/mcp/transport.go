package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Transport sends JSON-RPC requests to an MCP server and returns responses.
type Transport interface {
	// Send sends a JSON-RPC request and returns the response.
	Send(ctx context.Context, req *JSONRPCRequest) (*JSONRPCResponse, error)

	// Close releases any resources held by the transport.
	Close() error
}

// StdioTransport talks to an MCP server over the stdin/stdout of a child
// process, one newline-delimited JSON-RPC message per line. The child's
// stderr is passed through so server diagnostics stay visible.
type StdioTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewStdioTransport creates a transport that will spawn the given command.
// Entries in env (KEY=VALUE) are merged over the current process environment.
// Call Start to spawn the process.
func NewStdioTransport(command string, args []string, env []string) *StdioTransport {
	cmd := exec.Command(command, args...)
	cmd.Env = mergeEnv(os.Environ(), env)
	cmd.Stderr = os.Stderr
	return &StdioTransport{cmd: cmd}
}

// Start spawns the child process and sets up stdin/stdout pipes.
func (t *StdioTransport) Start() error {
	var err error

	t.stdin, err = t.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := t.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	t.reader = bufio.NewReader(stdout)

	if err := t.cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", t.cmd.Path, err)
	}

	return nil
}

// Send writes one request line and reads one response line. A mutex keeps
// a single request in flight at a time on the pipe.
func (t *StdioTransport) Send(ctx context.Context, req *JSONRPCRequest) (*JSONRPCResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	data = append(data, '\n')
	if _, err := t.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write to server stdin: %w", err)
	}

	// Notifications get no response; waiting for one would swallow the
	// next call's reply.
	if req.IsNotification() {
		return nil, nil
	}

	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read from server stdout: %w", err)
	}

	var resp JSONRPCResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}

// Close shuts the child process down: closes stdin, kills the process, and
// reaps it to avoid zombies.
func (t *StdioTransport) Close() error {
	if t.stdin != nil {
		t.stdin.Close()
	}
	if t.cmd.Process != nil {
		t.cmd.Process.Kill()
	}
	_ = t.cmd.Wait()
	return nil
}

// mergeEnv merges base environment entries with overrides; an override for
// an existing key wins.
func mergeEnv(base, overrides []string) []string {
	env := make(map[string]string, len(base)+len(overrides))
	order := make([]string, 0, len(base)+len(overrides))

	for _, entries := range [][]string{base, overrides} {
		for _, entry := range entries {
			key, _, found := strings.Cut(entry, "=")
			if !found {
				continue
			}
			if _, exists := env[key]; !exists {
				order = append(order, key)
			}
			env[key] = entry
		}
	}

	merged := make([]string, 0, len(order))
	for _, key := range order {
		merged = append(merged, env[key])
	}
	return merged
}
