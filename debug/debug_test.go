package debug

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))
	ctx := WithLogger(context.Background(), logger)

	ctx, _ = With(ctx, "uri", "file:///a.fs")
	ctx, done := Start(ctx, "Hover")
	Debug.Log(ctx, "looking up word", "word", "dup")
	done()

	out := buf.String()
	assert.Contains(t, out, "Hover started")
	assert.Contains(t, out, "Hover done")
	assert.Contains(t, out, "uri=file:///a.fs")
	assert.Contains(t, out, "Hover.word=dup")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	l, err = ParseLevel("trace")
	require.NoError(t, err)
	assert.Equal(t, LevelTrace, l)

	_, err = ParseLevel("loud")
	assert.ErrorContains(t, err, `unknown log level "loud"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := WithLogger(context.Background(), logger)

	Trace.Log(ctx, "token")
	Debug.Log(ctx, "detail")
	Warning.Log(ctx, "careful")
	LogError(ctx, "failed", assert.AnError)

	out := buf.String()
	assert.NotContains(t, out, "token")
	assert.NotContains(t, out, "detail")
	assert.Contains(t, out, "level=WARN msg=careful")
	assert.Contains(t, out, "level=ERROR msg=failed")
}
