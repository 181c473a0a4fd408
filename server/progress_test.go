package server

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/corymhall/forthlsp/lsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressClient struct {
	*fakeClient
	mu     sync.Mutex
	events []string
}

func (c *progressClient) record(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, fmt.Sprintf(format, args...))
}

func (c *progressClient) ProgressBegin(_ context.Context, params *lsp.WorkDoneProgressBeginParams) error {
	c.record("begin %s cancellable=%t", params.Value.Title, params.Value.Cancellable)
	return nil
}

func (c *progressClient) ProgressReport(_ context.Context, params *lsp.WorkDoneProgressReportParams) error {
	c.record("report %s %d%%", params.Value.Message, params.Value.Percentage)
	return nil
}

func (c *progressClient) ProgressEnd(_ context.Context, params *lsp.WorkDoneProgressEndParams) error {
	c.record("end %s", params.Value.Message)
	return nil
}

func TestTracker(t *testing.T) {
	ctx := context.Background()
	client := &progressClient{fakeClient: newFakeClient()}
	tracker := NewTracker(client)
	tracker.SetSupportsWorkDoneProgress(true)

	cancelled := 0
	wd := tracker.Start(ctx, "Forth", "Indexing workspace...", "scan", func() { cancelled++ })
	wd.Report(ctx, "1/4 files", 25)
	wd.Report(ctx, "2/4 files", 10)
	require.NoError(t, tracker.Cancel("scan"))
	require.NoError(t, tracker.Cancel("scan"))
	wd.Report(ctx, "3/4 files", 75)
	wd.End(ctx, "Indexed 3 files.")
	wd.End(ctx, "Indexed 3 files.")

	assert.Equal(t, 1, cancelled)
	assert.Equal(t, []string{
		"begin Forth cancellable=true",
		"report 1/4 files 25%",
		"report 2/4 files 25%",
		"end Indexed 3 files.",
	}, client.events)
	assert.ErrorContains(t, tracker.Cancel("scan"), "no work in progress")
}

func TestTrackerNotCancellable(t *testing.T) {
	client := &progressClient{fakeClient: newFakeClient()}
	tracker := NewTracker(client)
	tracker.SetSupportsWorkDoneProgress(true)

	tracker.Start(context.Background(), "Error loading workspace", "bad config", "err", nil)
	assert.ErrorContains(t, tracker.Cancel("err"), "not cancellable")
}

func TestTrackerFallsBackToMessages(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	tracker := NewTracker(client)

	wd := tracker.Start(ctx, "Forth", "Indexing workspace...", nil, nil)
	wd.Report(ctx, "ignored", 50)
	wd.End(ctx, "Indexed 2 files.")

	var nilWork *WorkDone
	nilWork.Report(ctx, "ignored", 1)
	nilWork.End(ctx, "ignored")

	assert.Equal(t, []string{"Forth: Indexing workspace...", "Indexed 2 files."}, client.messages)
}
