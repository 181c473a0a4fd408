package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/textproto"
	"strconv"
	"strings"
)

// maxContentLength bounds the body a peer may announce.
const maxContentLength = 64 << 20

// Stream moves whole messages over a transport. Each Read or Write
// transfers exactly one message or fails. A Stream is used by a single Conn,
// which serializes writes.
type Stream interface {
	// Read gets the next message from the stream.
	Read(context.Context) (Message, int64, error)
	// Write sends a message to the stream.
	Write(context.Context, Message) (int64, error)
}

// NewHeaderStream returns the Stream LSP uses over stdio: every message is
// preceded by MIME style headers, of which Content-Length is required.
func NewHeaderStream(in io.Reader, out io.Writer) Stream {
	s := &headerStream{out: out}
	if in != nil {
		s.counter = &countingReader{r: in}
		s.in = bufio.NewReader(s.counter)
		s.headers = textproto.NewReader(s.in)
	}
	return s
}

type headerStream struct {
	out     io.Writer
	counter *countingReader
	in      *bufio.Reader
	headers *textproto.Reader
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (s *headerStream) Read(ctx context.Context) (Message, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	// the count includes bytes buffered ahead of this message
	start := s.counter.n - int64(s.in.Buffered())
	read := func() int64 { return s.counter.n - int64(s.in.Buffered()) - start }

	header, err := s.headers.ReadMIMEHeader()
	if err != nil {
		return nil, read(), fmt.Errorf("reading header: %w", err)
	}
	value := header.Get("Content-Length")
	if value == "" {
		return nil, read(), fmt.Errorf("missing Content-Length header")
	}
	length, err := strconv.ParseInt(value, 10, 64)
	if err != nil || length <= 0 || length > maxContentLength {
		return nil, read(), fmt.Errorf("invalid Content-Length %q", value)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(s.in, data); err != nil {
		return nil, read(), fmt.Errorf("reading body: %w", err)
	}
	if err := checkContentType(header.Get("Content-Type")); err != nil {
		return nil, read(), fmt.Errorf("%w: %w", ErrParse, err)
	}
	msg, err := DecodeMessage(data)
	if err != nil {
		return nil, read(), fmt.Errorf("%w: %w", ErrParse, err)
	}
	return msg, read(), nil
}

// checkContentType accepts a missing Content-Type and any type encoded as
// UTF-8, the only charset LSP defines.
func checkContentType(value string) error {
	if value == "" {
		return nil
	}
	_, params, err := mime.ParseMediaType(value)
	if err != nil {
		return fmt.Errorf("invalid Content-Type %q: %w", value, err)
	}
	switch charset := strings.ToLower(params["charset"]); charset {
	case "", "utf-8", "utf8":
		return nil
	default:
		return fmt.Errorf("unsupported charset %q", charset)
	}
}

func (s *headerStream) Write(ctx context.Context, msg Message) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("marshaling message: %w", err)
	}
	n, err := fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n", len(data))
	if err != nil {
		return int64(n), err
	}
	m, err := s.out.Write(data)
	return int64(n + m), err
}
