package mcp

// Standard JSON-RPC 2.0 error codes.
const (
	// ErrCodeParseError indicates invalid JSON was received.
	ErrCodeParseError = -32700

	// ErrCodeInvalidRequest indicates the JSON is not a valid JSON-RPC request.
	ErrCodeInvalidRequest = -32600

	// ErrCodeMethodNotFound indicates the method does not exist or is unavailable.
	ErrCodeMethodNotFound = -32601

	// ErrCodeInvalidParams indicates invalid method parameters.
	ErrCodeInvalidParams = -32602

	// ErrCodeInternalError indicates an internal JSON-RPC error.
	ErrCodeInternalError = -32603
)

// Custom mcptape error codes (-32001 to -32099).
const (
	// ErrCodeReplayMiss indicates no recorded response exists for the call.
	ErrCodeReplayMiss = -32001

	// ErrCodeUpstreamError indicates the recorded upstream call had failed;
	// the recorded failure is replayed verbatim.
	ErrCodeUpstreamError = -32002

	// ErrCodeNotServing indicates the responder is not in its serving state.
	ErrCodeNotServing = -32003
)

// Standard error messages.
var errorMessages = map[int]string{
	ErrCodeParseError:     "Parse error",
	ErrCodeInvalidRequest: "Invalid request",
	ErrCodeMethodNotFound: "Method not found",
	ErrCodeInvalidParams:  "Invalid params",
	ErrCodeInternalError:  "Internal error",
	ErrCodeReplayMiss:     "No recorded response for call",
	ErrCodeUpstreamError:  "Recorded upstream failure",
	ErrCodeNotServing:     "Responder is not serving",
}

// NewJSONRPCError creates a new JSON-RPC error with the given code.
func NewJSONRPCError(code int, data interface{}) *JSONRPCError {
	msg, ok := errorMessages[code]
	if !ok {
		msg = "Unknown error"
	}
	return &JSONRPCError{
		Code:    code,
		Message: msg,
		Data:    data,
	}
}

// ParseError creates a parse error with detail.
func ParseError(detail string) *JSONRPCError {
	return NewJSONRPCError(ErrCodeParseError, detail)
}

// InvalidRequestError creates an invalid request error with detail.
func InvalidRequestError(detail string) *JSONRPCError {
	return NewJSONRPCError(ErrCodeInvalidRequest, detail)
}

// MethodNotFoundError creates a method not found error for the given method.
func MethodNotFoundError(method string) *JSONRPCError {
	return NewJSONRPCError(ErrCodeMethodNotFound, method)
}

// InvalidParamsError creates an invalid params error with detail.
func InvalidParamsError(detail string) *JSONRPCError {
	return NewJSONRPCError(ErrCodeInvalidParams, detail)
}

// InternalError creates an internal error with detail.
func InternalError(detail string) *JSONRPCError {
	return NewJSONRPCError(ErrCodeInternalError, detail)
}
