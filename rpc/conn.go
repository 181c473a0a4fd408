package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
)

// Conn is one end of a JSON-RPC connection. Both ends may send calls, the
// connection pairs each incoming Response with the Call waiting for it.
type Conn interface {
	// Call sends a request and blocks until its response arrives or ctx is
	// done. The response is unmarshaled into result unless result is nil.
	Call(ctx context.Context, method string, params, result any) (ID, error)

	// Notify sends a request that gets no response.
	Notify(ctx context.Context, method string, params any) error

	// Run reads messages until the stream fails or ctx is done, handing each
	// request to handler in the order it was received.
	Run(ctx context.Context, handler Handler) error

	// Done is closed once Run has returned.
	Done() <-chan struct{}

	// Logger is the trace logger the connection was created with.
	Logger() *log.Logger
}

type conn struct {
	stream Stream
	logger *log.Logger
	done   chan struct{}

	lastID atomic.Int64

	writeMu sync.Mutex

	mu      sync.Mutex
	waiting map[ID]chan *Response
}

// NewConn creates a connection over s. A nil logger discards the trace.
func NewConn(s Stream, logger *log.Logger) Conn {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &conn{
		stream:  s,
		logger:  logger,
		done:    make(chan struct{}),
		waiting: make(map[ID]chan *Response),
	}
}

func (c *conn) Logger() *log.Logger { return c.logger }

func (c *conn) Done() <-chan struct{} { return c.done }

func (c *conn) Notify(ctx context.Context, method string, params any) error {
	msg, err := NewNotification(method, params)
	if err != nil {
		return err
	}
	return c.send(ctx, msg)
}

func (c *conn) Call(ctx context.Context, method string, params, result any) (ID, error) {
	id := NewIntID(c.lastID.Add(1))
	msg, err := NewCall(id, method, params)
	if err != nil {
		return id, err
	}

	// registered before sending so a fast reply is not dropped
	ch := c.await(id)
	defer c.forget(id)
	if err := c.send(ctx, msg); err != nil {
		return id, err
	}

	select {
	case <-ctx.Done():
		return id, ctx.Err()
	case resp := <-ch:
		if resp.err != nil {
			return id, resp.err
		}
		if result != nil && len(resp.result) > 0 {
			if err := json.Unmarshal(resp.result, result); err != nil {
				return id, fmt.Errorf("unmarshaling %s result: %w", method, err)
			}
		}
		return id, nil
	}
}

// await registers a waiter for the response to id. The channel is
// buffered so delivery never blocks the read loop.
func (c *conn) await(id ID) <-chan *Response {
	ch := make(chan *Response, 1)
	c.mu.Lock()
	c.waiting[id] = ch
	c.mu.Unlock()
	return ch
}

func (c *conn) forget(id ID) {
	c.mu.Lock()
	delete(c.waiting, id)
	c.mu.Unlock()
}

func (c *conn) deliver(resp *Response) {
	c.mu.Lock()
	ch, ok := c.waiting[resp.id]
	delete(c.waiting, resp.id)
	c.mu.Unlock()
	if !ok {
		c.logger.Printf("dropping response to unknown request %v", resp.id)
		return
	}
	ch <- resp
}

func (c *conn) send(ctx context.Context, msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.stream.Write(ctx, msg)
	return err
}

// reply returns the Replier for req. Replies to notifications are
// discarded.
func (c *conn) reply(req Request) Replier {
	call, isCall := req.(*Call)
	return func(ctx context.Context, result any, err error) error {
		if !isCall {
			return nil
		}
		resp, merr := NewResponse(call.id, result, err)
		if merr != nil {
			resp, _ = NewResponse(call.id, nil, fmt.Errorf("%w: %w", ErrInternal, merr))
		}
		return c.send(ctx, resp)
	}
}

func (c *conn) Run(ctx context.Context, handler Handler) error {
	defer close(c.done)
	for {
		msg, _, err := c.stream.Read(ctx)
		switch {
		case errors.Is(err, ErrParse):
			// the framing was intact, only this body is lost
			c.logger.Printf("dropping message: %v", err)
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			c.logger.Printf("error reading from stream: %v", err)
			return err
		}

		switch msg := msg.(type) {
		case *Response:
			c.deliver(msg)
		case Request:
			if err := handler(ctx, c.reply(msg), msg); err != nil {
				c.logger.Printf("failed handling %s: %v", msg.Method(), err)
			}
		}
	}
}
