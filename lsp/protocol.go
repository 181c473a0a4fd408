package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/corymhall/forthlsp/rpc"
	"github.com/corymhall/forthlsp/xcontext"
)

type ProgressToken any

var jsonNull = []byte("null")

// UnmarshalJSON decodes msg into v. Absent and null params leave v at its
// zero value.
func UnmarshalJSON(msg json.RawMessage, v any) error {
	if len(msg) == 0 || bytes.Equal(msg, jsonNull) {
		return nil
	}
	return json.Unmarshal(msg, v)
}

// sender is the slice of rpc.Conn the client dispatcher needs.
type sender interface {
	Notify(ctx context.Context, method string, params any) error
	Call(ctx context.Context, method string, params, result any) error
}

type clientDispatcher struct {
	sender sender
}

// ClientDispatcher returns a Client that sends over conn.
func ClientDispatcher(conn rpc.Conn) Client {
	return &clientDispatcher{sender: cancellingSender{conn}}
}

// cancellingSender tells the editor to drop a call the server stopped
// waiting for.
type cancellingSender struct {
	conn rpc.Conn
}

func (c cancellingSender) Notify(ctx context.Context, method string, params any) error {
	return c.conn.Notify(ctx, method, params)
}

func (c cancellingSender) Call(ctx context.Context, method string, params, result any) error {
	id, err := c.conn.Call(ctx, method, params, result)
	if ctx.Err() != nil {
		c.conn.Logger().Printf("%s abandoned, cancelling request %v", method, id)
		_ = c.conn.Notify(xcontext.Detach(ctx), "$/cancelRequest", &CancelParams{ID: &id})
	}
	return err
}

type CancelParams struct {
	ID any `json:"id"`
}

// ServerHandler answers the methods server implements and hands the rest
// to fallback. Requests whose context ended before they were read get
// ErrRequestCancelled.
func ServerHandler(server Server, fallback rpc.Handler) rpc.Handler {
	return func(ctx context.Context, reply rpc.Replier, req rpc.Request) error {
		if ctx.Err() != nil {
			return reply(xcontext.Detach(ctx), nil, rpc.ErrRequestCancelled)
		}
		if handled, err := serverDispatch(ctx, server, reply, req); handled || err != nil {
			return err
		}
		return fallback(ctx, reply, req)
	}
}

func sendParseError(ctx context.Context, reply rpc.Replier, err error) error {
	return reply(ctx, nil, fmt.Errorf("%w: %w", rpc.ErrParse, err))
}
