package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/corymhall/forthlsp/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubServer answers hover and didOpen. Any other method panics on the nil
// embedded Server.
type stubServer struct {
	Server
	opened []DocumentURI
	hover  error
}

func (s *stubServer) Logger() *log.Logger { return log.New(io.Discard, "", 0) }

func (s *stubServer) Hover(_ context.Context, params *HoverParams) (*Hover, error) {
	if s.hover != nil {
		return nil, s.hover
	}
	return &Hover{Contents: MarkupContent{Kind: Markdown, Value: string(params.TextDocument.URI)}}, nil
}

func (s *stubServer) DidOpen(_ context.Context, params *DidOpenTextDocumentParams) error {
	s.opened = append(s.opened, params.TextDocument.URI)
	return nil
}

type recorded struct {
	called bool
	result any
	err    error
}

func (r *recorded) reply(_ context.Context, result any, err error) error {
	r.called = true
	r.result = result
	r.err = err
	return nil
}

func call(t *testing.T, method string, params any) rpc.Request {
	t.Helper()
	c, err := rpc.NewCall(rpc.NewIntID(1), method, params)
	require.NoError(t, err)
	return c
}

func TestServerHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("request", func(t *testing.T) {
		srv := &stubServer{}
		var r recorded
		err := ServerHandler(srv, rpc.MethodNotFound)(ctx, r.reply, call(t, "textDocument/hover", map[string]any{
			"textDocument": map[string]any{"uri": "file:///a.fs"},
			"position":     map[string]any{"line": 0, "character": 1},
		}))
		require.NoError(t, err)
		require.True(t, r.called)
		require.NoError(t, r.err)
		hover, ok := r.result.(*Hover)
		require.True(t, ok)
		assert.Equal(t, "file:///a.fs", hover.Contents.Value)
	})

	t.Run("notification", func(t *testing.T) {
		srv := &stubServer{}
		n, err := rpc.NewNotification("textDocument/didOpen", map[string]any{
			"textDocument": map[string]any{"uri": "file:///b.fs", "languageId": "forth", "version": 1, "text": ": x ;"},
		})
		require.NoError(t, err)
		var r recorded
		require.NoError(t, ServerHandler(srv, rpc.MethodNotFound)(ctx, r.reply, n))
		assert.Equal(t, []DocumentURI{"file:///b.fs"}, srv.opened)
		assert.Nil(t, r.result)
		assert.NoError(t, r.err)
	})

	t.Run("bad params", func(t *testing.T) {
		var r recorded
		err := ServerHandler(&stubServer{}, rpc.MethodNotFound)(ctx, r.reply, call(t, "textDocument/hover", map[string]any{
			"textDocument": 5,
		}))
		require.NoError(t, err)
		assert.ErrorIs(t, r.err, rpc.ErrParse)
	})

	t.Run("server error", func(t *testing.T) {
		var r recorded
		srv := &stubServer{hover: rpc.ErrRequestFailed}
		require.NoError(t, ServerHandler(srv, rpc.MethodNotFound)(ctx, r.reply, call(t, "textDocument/hover", json.RawMessage(`{}`))))
		assert.ErrorIs(t, r.err, rpc.ErrRequestFailed)
		assert.Nil(t, r.result)
	})

	t.Run("unknown method", func(t *testing.T) {
		var r recorded
		require.NoError(t, ServerHandler(&stubServer{}, rpc.MethodNotFound)(ctx, r.reply, call(t, "workspace/executeCommand", nil)))
		assert.ErrorIs(t, r.err, rpc.ErrMethodNotFound)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		var r recorded
		require.NoError(t, ServerHandler(&stubServer{}, rpc.MethodNotFound)(cctx, r.reply, call(t, "textDocument/hover", nil)))
		assert.True(t, errors.Is(r.err, rpc.ErrRequestCancelled))
	})

	t.Run("ignored", func(t *testing.T) {
		var r recorded
		require.NoError(t, ServerHandler(&stubServer{}, rpc.MethodNotFound)(ctx, r.reply, call(t, "$/setTrace", map[string]string{"value": "off"})))
		assert.True(t, r.called)
		assert.NoError(t, r.err)
	})
}

func TestURI(t *testing.T) {
	uri := URIFromPath("/tmp/my words/a.fs")
	assert.True(t, uri.IsFile())
	assert.Equal(t, "/tmp/my words/a.fs", uri.Path())
	assert.Equal(t, "/tmp/my words/a.fs", DocumentURI("file:///tmp/my%20words/a.fs").Path())
	assert.False(t, DocumentURI("untitled:Untitled-1").IsFile())
	assert.Equal(t, DocumentURI(""), URIFromPath(""))
}
