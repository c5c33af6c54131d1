package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mcptape/mcptape/pkg/logging"
)

// RPCCoder is implemented by errors that map to a specific JSON-RPC error
// object, so dispatch can surface them with their own code and data instead
// of a generic internal error.
type RPCCoder interface {
	JSONRPCError() *JSONRPCError
}

// StdioServer exposes any Session over stdin/stdout as newline-delimited
// JSON-RPC. It is how a replayed session becomes an independently runnable
// server that MCP clients can spawn.
type StdioServer struct {
	session Session
	reader  io.Reader
	writer  io.Writer
	log     *slog.Logger
	mu      sync.Mutex
}

// NewStdioServer creates a stdio server around the given session.
func NewStdioServer(session Session) *StdioServer {
	return &StdioServer{
		session: session,
		reader:  os.Stdin,
		writer:  os.Stdout,
		log:     logging.Nop(),
	}
}

// SetLogger sets the logger. Logs go to stderr to avoid interfering with the
// stdio protocol on stdout.
func (s *StdioServer) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// SetIO overrides the default stdin/stdout for testing.
func (s *StdioServer) SetIO(reader io.Reader, writer io.Writer) {
	s.reader = reader
	s.writer = writer
}

// Run reads requests line by line until EOF, dispatching each to the session.
func (s *StdioServer) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		req, rpcErr := ParseRequestBytes(line)
		if rpcErr != nil {
			s.log.Warn("rejecting request", "error", rpcErr.Message)
			if err := s.write(NewErrorResponse(nil, rpcErr)); err != nil {
				return err
			}
			continue
		}

		resp := s.dispatch(ctx, req)
		if resp == nil {
			// Notification; nothing to send.
			continue
		}
		if err := s.write(resp); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdio: %w", err)
	}
	return nil
}

// dispatch routes one request to the session. Returns nil for notifications.
func (s *StdioServer) dispatch(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	if req.IsNotification() {
		s.log.Debug("notification", "method", req.Method)
		return nil
	}

	s.log.Debug("request", "method", req.Method, "id", req.ID)

	var (
		result any
		err    error
	)
	switch req.Method {
	case MethodInitialize:
		params, rpcErr := UnmarshalParams[InitializeParams](req.Params)
		if rpcErr != nil {
			return NewErrorResponse(req.ID, rpcErr)
		}
		result, err = s.session.Initialize(ctx, *params)

	case MethodListTools:
		result, err = s.session.ListTools(ctx)

	case MethodCallTool:
		params, rpcErr := UnmarshalParams[CallToolParams](req.Params)
		if rpcErr != nil {
			return NewErrorResponse(req.ID, rpcErr)
		}
		result, err = s.session.CallTool(ctx, params.Name, params.Arguments)

	case MethodListResources:
		result, err = s.session.ListResources(ctx)

	case MethodReadResource:
		params, rpcErr := UnmarshalParams[ReadResourceParams](req.Params)
		if rpcErr != nil {
			return NewErrorResponse(req.ID, rpcErr)
		}
		result, err = s.session.ReadResource(ctx, params.URI)

	case MethodListPrompts:
		result, err = s.session.ListPrompts(ctx)

	case MethodGetPrompt:
		params, rpcErr := UnmarshalParams[GetPromptParams](req.Params)
		if rpcErr != nil {
			return NewErrorResponse(req.ID, rpcErr)
		}
		result, err = s.session.GetPrompt(ctx, params.Name, params.Arguments)

	case "ping":
		result = map[string]any{}

	default:
		return NewErrorResponse(req.ID, MethodNotFoundError(req.Method))
	}

	if err != nil {
		var coder RPCCoder
		if errors.As(err, &coder) {
			return NewErrorResponse(req.ID, coder.JSONRPCError())
		}
		return NewErrorResponse(req.ID, InternalError(err.Error()))
	}

	resp, mErr := NewResponse(req.ID, result)
	if mErr != nil {
		return NewErrorResponse(req.ID, InternalError(mErr.Error()))
	}
	return resp
}

// write sends one response line. Serialized so concurrent writes never
// interleave on the pipe.
func (s *StdioServer) write(resp *JSONRPCResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.writer.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
