// Package debug carries a structured logger in the context so that work
// started for one request logs with that request's attributes.
package debug

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// A Level logs at one fixed slog level, as in debug.Debug.Log(ctx, ...).
type Level slog.Level

// LevelTrace sits below slog.LevelDebug. Per-token and per-event logging
// goes here.
const LevelTrace = slog.LevelDebug - 4

const (
	Error   = Level(slog.LevelError)
	Warning = Level(slog.LevelWarn)
	Info    = Level(slog.LevelInfo)
	Debug   = Level(slog.LevelDebug)
	Trace   = Level(LevelTrace)
)

var levelNames = map[string]slog.Level{
	"trace":   LevelTrace,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel parses the level names accepted on the command line.
func ParseLevel(s string) (slog.Level, error) {
	if l, ok := levelNames[s]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

type loggerKey struct{}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func getLogger(ctx context.Context) *slog.Logger {
	if logger, _ := ctx.Value(loggerKey{}).(*slog.Logger); logger != nil {
		return logger
	}
	return slog.Default()
}

func (l Level) Log(ctx context.Context, msg string, args ...any) {
	getLogger(ctx).Log(ctx, slog.Level(l), msg, args...)
}

func LogError(ctx context.Context, msg string, err error) {
	getLogger(ctx).Log(ctx, slog.LevelError, msg, slog.Any("error", err))
}

// With returns a context whose logger adds args to every record.
func With(ctx context.Context, args ...any) (context.Context, *slog.Logger) {
	logger := getLogger(ctx).With(args...)
	return WithLogger(ctx, logger), logger
}

// Start logs the beginning of an operation and returns a function logging
// its end. Records in between are grouped under name. Durations under a
// second are reported as zero.
func Start(ctx context.Context, name string, args ...any) (context.Context, func()) {
	logger := getLogger(ctx).WithGroup(name)
	ctx = WithLogger(ctx, logger)
	logger.Log(ctx, slog.LevelDebug, name+" started", args...)
	start := time.Now()

	return ctx, func() {
		elapsed := time.Since(start)
		if elapsed < time.Second {
			elapsed = 0
		}
		logger.Log(ctx, slog.LevelDebug, name+" done", append(args, slog.Duration("elapsed", elapsed))...)
	}
}
