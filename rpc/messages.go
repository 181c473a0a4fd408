package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message is one of *Call, *Notification or *Response.
type Message interface {
	isMessage()
}

// Request is a message asking for a method to be invoked, a *Call or a
// *Notification.
type Request interface {
	Message
	Method() string
	// Params is the raw JSON parameter value, possibly null or empty.
	Params() json.RawMessage
}

// Call is a request that expects a Response with the same ID.
type Call struct {
	id     ID
	method string
	params json.RawMessage
}

// Notification is a request that is never answered.
type Notification struct {
	method string
	params json.RawMessage
}

// Response answers the Call with the same ID, with either a result or an
// error.
type Response struct {
	id     ID
	result json.RawMessage
	err    error
}

// NewCall constructs a Call of method with params marshaled to JSON.
func NewCall(id ID, method string, params any) (*Call, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s params: %w", method, err)
	}
	return &Call{id: id, method: method, params: raw}, nil
}

// NewNotification constructs a Notification of method with params
// marshaled to JSON.
func NewNotification(method string, params any) (*Notification, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s params: %w", method, err)
	}
	return &Notification{method: method, params: raw}, nil
}

// NewResponse constructs the Response to the call with id. A non-nil err
// makes it an error response and result is dropped.
func NewResponse(id ID, result any, err error) (*Response, error) {
	if err != nil {
		return &Response{id: id, err: err}, nil
	}
	raw, merr := json.Marshal(result)
	if merr != nil {
		return nil, fmt.Errorf("marshaling result: %w", merr)
	}
	return &Response{id: id, result: raw}, nil
}

func (c *Call) ID() ID                  { return c.id }
func (c *Call) Method() string          { return c.method }
func (c *Call) Params() json.RawMessage { return c.params }
func (*Call) isMessage()                {}

func (n *Notification) Method() string          { return n.method }
func (n *Notification) Params() json.RawMessage { return n.params }
func (*Notification) isMessage()                {}

func (r *Response) ID() ID                  { return r.id }
func (r *Response) Result() json.RawMessage { return r.result }
func (r *Response) Err() error              { return r.err }
func (*Response) isMessage()                {}

func (c *Call) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Version: version, Method: c.method, Params: &c.params, ID: &c.id})
}

func (n *Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Version: version, Method: n.method, Params: &n.params})
}

func (r *Response) MarshalJSON() ([]byte, error) {
	env := envelope{Version: version, ID: &r.id, Error: toWireError(r.err)}
	if env.Error == nil {
		result := r.result
		if len(result) == 0 {
			result = json.RawMessage("null")
		}
		env.Result = &result
	}
	return json.Marshal(env)
}

// toWireError keeps the code of the first *Error in err's chain and the full
// message of err itself.
func toWireError(err error) *Error {
	if err == nil {
		return nil
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return &Error{Code: rpcErr.Code, Message: err.Error(), Data: rpcErr.Data}
	}
	return &Error{Code: ErrUnknown.Code, Message: err.Error()}
}

// DecodeMessage parses one JSON-RPC message.
func DecodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshaling jsonrpc message: %w", err)
	}
	if env.Version != "" && env.Version != version {
		return nil, fmt.Errorf("invalid RPC version %q", env.Version)
	}

	var params json.RawMessage
	if env.Params != nil {
		params = *env.Params
	}
	switch {
	case env.Method != "" && env.ID != nil:
		return &Call{id: *env.ID, method: env.Method, params: params}, nil
	case env.Method != "":
		return &Notification{method: env.Method, params: params}, nil
	case env.ID == nil:
		return nil, ErrInvalidRequest
	}

	resp := &Response{id: *env.ID}
	if env.Error != nil {
		resp.err = env.Error
	}
	if env.Result != nil {
		resp.result = *env.Result
	}
	return resp, nil
}
