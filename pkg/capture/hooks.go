package capture

import (
	"log/slog"

	"github.com/mcptape/mcptape/pkg/trace"
)

// RequestHook observes an outgoing call before it is forwarded.
type RequestHook func(method string, kwargs map[string]any)

// ResponseHook observes a call's outcome after it completes. The response is
// nil for cancelled calls.
type ResponseHook func(method string, resp *trace.CallResponse)

// runRequestHooks invokes hooks in registration order. A hook's own failure
// is caught and logged; it must never alter or suppress the wrapped call.
func runRequestHooks(log *slog.Logger, hooks []RequestHook, method string, kwargs map[string]any) {
	for i, hook := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Warn("request hook panicked", "hook", i, "method", method, "panic", r)
				}
			}()
			hook(method, kwargs)
		}()
	}
}

// runResponseHooks invokes hooks in registration order, isolating failures
// the same way as runRequestHooks.
func runResponseHooks(log *slog.Logger, hooks []ResponseHook, method string, resp *trace.CallResponse) {
	for i, hook := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Warn("response hook panicked", "hook", i, "method", method, "panic", r)
				}
			}()
			hook(method, resp)
		}()
	}
}
