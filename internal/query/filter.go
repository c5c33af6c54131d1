package query

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mcptape/mcptape/pkg/trace"
)

// CallEnv is the evaluation environment for per-call filter expressions,
// e.g. `Method == "tools/call" && !Success` or `DurationMs > 100`.
type CallEnv struct {
	Method     string  `expr:"Method"`
	Tool       string  `expr:"Tool"`
	Success    bool    `expr:"Success"`
	Cancelled  bool    `expr:"Cancelled"`
	Error      string  `expr:"Error"`
	DurationMs float64 `expr:"DurationMs"`
}

// SessionEnv is the evaluation environment for per-session filter
// expressions, e.g. `Server == "calculator" && Calls > 0`.
type SessionEnv struct {
	ID     string `expr:"ID"`
	Server string `expr:"Server"`
	Calls  int    `expr:"Calls"`
}

// CallFilter is a compiled per-call filter.
type CallFilter struct {
	program *vm.Program
}

// CompileCallFilter compiles a boolean filter expression over CallEnv.
func CompileCallFilter(src string) (*CallFilter, error) {
	program, err := expr.Compile(src, expr.Env(CallEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", src, err)
	}
	return &CallFilter{program: program}, nil
}

// Match evaluates the filter against one call record.
func (f *CallFilter) Match(rec trace.CallRecord) (bool, error) {
	env := CallEnv{
		Method:     rec.Request.Method,
		Cancelled:  rec.Cancelled,
		DurationMs: rec.DurationMs,
	}
	if name, ok := rec.Request.Kwargs["name"].(string); ok {
		env.Tool = name
	}
	if rec.Response != nil {
		env.Success = rec.Response.Success
		env.Error = rec.Response.Error
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate filter: %w", err)
	}
	return out.(bool), nil
}

// SessionFilter is a compiled per-session filter.
type SessionFilter struct {
	program *vm.Program
}

// CompileSessionFilter compiles a boolean filter expression over SessionEnv.
func CompileSessionFilter(src string) (*SessionFilter, error) {
	program, err := expr.Compile(src, expr.Env(SessionEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", src, err)
	}
	return &SessionFilter{program: program}, nil
}

// Match evaluates the filter against one session.
func (f *SessionFilter) Match(s *trace.Session) (bool, error) {
	env := SessionEnv{
		ID:     s.ID,
		Server: s.ServerInfo["name"],
		Calls:  len(s.Calls),
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate filter: %w", err)
	}
	return out.(bool), nil
}
