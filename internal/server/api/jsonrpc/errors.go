package jsonrpc

import "fmt"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	// CodeNotFound is returned for unknown receipts and names.
	CodeNotFound = -32004
)

// RpcError is the error member of a response.
type RpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func NewRpcError(code int, message string) *RpcError {
	return &RpcError{Code: code, Message: message}
}

func RpcErrorParse(msg string) *RpcError {
	return NewRpcError(CodeParseError, "Parse error: "+msg)
}

func RpcErrorInvalidRequest(msg string) *RpcError {
	return NewRpcError(CodeInvalidRequest, "Invalid request: "+msg)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(CodeMethodNotFound, fmt.Sprintf("Method not found: %s", method))
}

func RpcErrorInvalidParams(msg string) *RpcError {
	return NewRpcError(CodeInvalidParams, "Invalid params: "+msg)
}

func RpcErrorInternal(msg string) *RpcError {
	return NewRpcError(CodeInternalError, "Internal error: "+msg)
}

func RpcErrorNotFound(msg string) *RpcError {
	return NewRpcError(CodeNotFound, msg)
}
