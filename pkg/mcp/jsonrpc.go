package mcp

import (
	"encoding/json"
)

// ParseRequestBytes parses a JSON-RPC request from bytes.
func ParseRequestBytes(data []byte) (*JSONRPCRequest, *JSONRPCError) {
	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, ParseError(err.Error())
	}

	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}

	return &req, nil
}

// ValidateRequest validates a JSON-RPC request.
func ValidateRequest(req *JSONRPCRequest) *JSONRPCError {
	if req.JSONRPC != "2.0" {
		return InvalidRequestError("jsonrpc must be \"2.0\"")
	}

	if req.Method == "" {
		return InvalidRequestError("method is required")
	}

	return nil
}

// NewResponse creates a successful JSON-RPC response for the given request ID.
func NewResponse(id interface{}, result any) (*JSONRPCResponse, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: data}, nil
}

// NewErrorResponse creates an error JSON-RPC response for the given request ID.
func NewErrorResponse(id interface{}, rpcErr *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: rpcErr}
}

// UnmarshalParams unmarshals request params into a typed struct.
// Missing params yield the zero value, for operations whose params are optional.
func UnmarshalParams[T any](params json.RawMessage) (*T, *JSONRPCError) {
	var result T
	if len(params) == 0 {
		return &result, nil
	}

	if err := json.Unmarshal(params, &result); err != nil {
		return nil, InvalidParamsError(err.Error())
	}
	return &result, nil
}
