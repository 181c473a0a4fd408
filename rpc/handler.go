package rpc

import (
	"context"
	"fmt"
)

// Error is a JSON RPC error object. Errors returned from a handler are
// converted to an *Error before being written to the wire; wrap one of the
// sentinels below with %w to choose the code.
type Error struct {
	// Code is the JSON RPC error code.
	Code int64 `json:"code"`
	// Message is a short description of the error.
	Message string `json:"message"`
	// Data is optional structured data containing additional information.
	Data any `json:"data,omitempty"`
}

// NewError returns an error that will encode on the wire correctly.
func NewError(code int64, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrUnknown should be used for all non coded errors.
	ErrUnknown = NewError(-32001, "JSON RPC unknown error")
	// ErrParse is used when invalid JSON was received by the server.
	ErrParse = NewError(-32700, "JSON RPC parse error")
	// ErrInvalidRequest is used when the JSON sent is not a valid Request object.
	ErrInvalidRequest = NewError(-32600, "JSON RPC invalid request")
	// ErrMethodNotFound should be returned by the handler when the method does
	// not exist / is not available.
	ErrMethodNotFound = NewError(-32601, "JSON RPC method not found")
	// ErrInvalidParams should be returned by the handler when method
	// parameter(s) were invalid.
	ErrInvalidParams = NewError(-32602, "JSON RPC invalid params")
	// ErrInternal indicates a failure inside the server.
	ErrInternal = NewError(-32603, "JSON RPC internal error")
	// ErrServerOverloaded is returned when a message was refused due to a
	// server being temporarily unable to accept any new messages.
	ErrServerOverloaded = NewError(-32000, "JSON RPC overloaded")
	// ErrServerNotInitialized is returned for requests received before
	// initialize.
	ErrServerNotInitialized = NewError(-32002, "server not initialized")
	// ErrRequestFailed is returned when a request was syntactically valid but
	// could not be served, for example because it names an unknown document.
	ErrRequestFailed = NewError(-32803, "request failed")
	// ErrRequestCancelled is returned when the client cancelled the request.
	ErrRequestCancelled = NewError(-32800, "request cancelled")
)

// Handler is invoked to handle incoming requests.
// The Replier sends a reply to the request and must be called exactly once.
type Handler func(ctx context.Context, reply Replier, req Request) error

// Replier is passed to handlers to allow them to reply to the request.
// If err is set then result will be ignored.
type Replier func(ctx context.Context, result any, err error) error

// MethodNotFound is a Handler that replies to all call requests with the
// standard method not found response.
// This should normally be the final handler in a chain.
func MethodNotFound(ctx context.Context, reply Replier, req Request) error {
	return reply(ctx, nil, fmt.Errorf("%w: %q", ErrMethodNotFound, req.Method()))
}
