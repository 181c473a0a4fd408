// Package logger forwards log records to the language client as
// window/logMessage notifications.
package logger

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/xcontext"
)

// ProgramLevel is the level below which records are dropped. It is set from
// the command line.
var ProgramLevel = new(slog.LevelVar)

var (
	startLogSenderOnce sync.Once
	logQueue           = make(chan func(), 100) // big enough for a large transient burst
)

// Log sends msg to the client stored in ctx, if any.
func Log(ctx context.Context, msg string, mt lsp.MessageType) {
	client := lsp.GetClient(ctx)
	if client == nil {
		return
	}
	send(ctx, client, &lsp.LogMessageParams{
		Message: msg,
		Type:    mt,
	})
}

// send queues the notification so that logging never blocks on the
// connection. Messages are delivered in order.
func send(ctx context.Context, client lsp.Client, msg *lsp.LogMessageParams) {
	startLogSenderOnce.Do(func() {
		go func() {
			for fn := range logQueue {
				fn()
			}
		}()
	})

	ctx2 := xcontext.Detach(ctx)
	logQueue <- func() { _ = client.LogMessage(ctx2, msg) }
}

// Handler is a slog.Handler writing each record as one log message of the
// matching type. Attributes are rendered as key=value pairs after the
// message.
type Handler struct {
	client lsp.Client
	level  slog.Leveler
	prefix string
	attrs  string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler returns a handler sending records at or above level to client.
// A nil level means ProgramLevel.
func NewHandler(client lsp.Client, level slog.Leveler) *Handler {
	if level == nil {
		level = ProgramLevel
	}
	return &Handler{client: client, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.prefix, a)
		return true
	})
	send(ctx, h.client, &lsp.LogMessageParams{
		Type:    convertLevel(r.Level),
		Message: b.String(),
	})
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.prefix, a)
	}
	h2.attrs = b.String()
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix += name + "."
	return &h2
}

func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, prefix, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}

func convertLevel(level slog.Level) lsp.MessageType {
	switch {
	case level >= slog.LevelError:
		return lsp.Error
	case level >= slog.LevelWarn:
		return lsp.Warning
	case level >= slog.LevelInfo:
		return lsp.Info
	case level >= slog.LevelDebug:
		return lsp.Debug
	default:
		return lsp.Log
	}
}
