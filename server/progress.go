package server

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/corymhall/forthlsp/debug"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/xcontext"
	"golang.org/x/exp/rand"
)

// A Tracker reports long running work to the client with $/progress, or
// with window/showMessage when the client has no progress support.
type Tracker struct {
	client    lsp.Client
	supported bool

	mu   sync.Mutex
	work map[lsp.ProgressToken]*WorkDone
}

func NewTracker(client lsp.Client) *Tracker {
	return &Tracker{
		client: client,
		work:   make(map[lsp.ProgressToken]*WorkDone),
	}
}

// SetSupportsWorkDoneProgress records the client capability. It must be
// called before the first Start.
func (t *Tracker) SetSupportsWorkDoneProgress(b bool) {
	t.supported = b
}

// WorkDone is one unit of reported work. A nil *WorkDone is valid and
// reports nothing.
type WorkDone struct {
	tracker *Tracker
	title   string
	// token is nil when progress falls back to messages or could not be
	// created.
	token lsp.ProgressToken

	mu        sync.Mutex
	cancel    func()
	cancelled bool
	percent   uint32
	ended     bool
}

// Start begins reporting work. A non-nil cancel makes the work cancellable
// from the client, which calls cancel at most once.
func (t *Tracker) Start(ctx context.Context, title, message string, token lsp.ProgressToken, cancel func()) *WorkDone {
	// progress outlives the request that started it
	ctx = xcontext.Detach(ctx)
	wd := &WorkDone{tracker: t, title: title, cancel: cancel}

	if !t.supported {
		t.show(ctx, lsp.Log, fmt.Sprintf("%s: %s", title, message))
		return wd
	}

	if token == nil {
		token = strconv.FormatUint(rand.Uint64(), 10)
		if err := t.client.WorkDoneProgressCreate(ctx, &lsp.WorkDoneProgressCreateParams{Token: token}); err != nil {
			debug.LogError(ctx, "creating progress token", err)
			return wd
		}
	}
	wd.token = token

	t.mu.Lock()
	t.work[token] = wd
	t.mu.Unlock()

	debug.Debug.Log(ctx, "starting progress", "token", token, "title", title)
	if err := t.client.ProgressBegin(ctx, &lsp.WorkDoneProgressBeginParams{
		Token: token,
		Value: &lsp.WorkDoneProgressBeginValue{
			Kind:        lsp.Begin,
			Title:       title,
			Cancellable: cancel != nil,
			Message:     message,
		},
	}); err != nil {
		debug.LogError(ctx, "beginning progress", err)
	}
	return wd
}

func (t *Tracker) show(ctx context.Context, typ lsp.MessageType, message string) {
	if err := t.client.ShowMessage(ctx, &lsp.ShowMessageParams{Type: typ, Message: message}); err != nil {
		debug.LogError(ctx, "showing message", err)
	}
}

// Report updates the message and percentage of the work. Percentages never
// go down, a lower one keeps the previous value. Nothing is sent after the
// work was cancelled or ended.
func (wd *WorkDone) Report(ctx context.Context, message string, percentage uint32) {
	if wd == nil || wd.token == nil {
		return
	}
	wd.mu.Lock()
	if wd.cancelled || wd.ended {
		wd.mu.Unlock()
		return
	}
	wd.percent = min(max(wd.percent, percentage), 100)
	percentage = wd.percent
	wd.mu.Unlock()

	ctx = xcontext.Detach(ctx)
	if err := wd.tracker.client.ProgressReport(ctx, &lsp.WorkDoneProgressReportParams{
		Token: wd.token,
		Value: &lsp.WorkDoneProgressReportValue{
			Kind:       lsp.Report,
			Message:    message,
			Percentage: percentage,
		},
	}); err != nil {
		debug.LogError(ctx, "reporting progress", err)
	}
}

// End finishes the work with a final message. Only the first call has an
// effect.
func (wd *WorkDone) End(ctx context.Context, message string) {
	if wd == nil {
		return
	}
	wd.mu.Lock()
	if wd.ended {
		wd.mu.Unlock()
		return
	}
	wd.ended = true
	wd.mu.Unlock()

	ctx = xcontext.Detach(ctx)
	t := wd.tracker
	if wd.token == nil {
		t.show(ctx, lsp.Info, message)
		return
	}

	t.mu.Lock()
	delete(t.work, wd.token)
	t.mu.Unlock()

	debug.Debug.Log(ctx, "ending progress", "token", wd.token, "title", wd.title)
	if err := t.client.ProgressEnd(ctx, &lsp.WorkDoneProgressEndParams{
		Token: wd.token,
		Value: &lsp.WorkDoneProgressEndValue{Kind: lsp.End, Message: message},
	}); err != nil {
		debug.LogError(ctx, "ending progress", err)
	}
}

// Cancel cancels the work started with token, as requested by
// window/workDoneProgress/cancel.
func (t *Tracker) Cancel(token lsp.ProgressToken) error {
	t.mu.Lock()
	wd, ok := t.work[token]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("no work in progress for token %v", token)
	}

	wd.mu.Lock()
	defer wd.mu.Unlock()
	if wd.cancel == nil {
		return fmt.Errorf("work %q is not cancellable", wd.title)
	}
	if !wd.cancelled {
		wd.cancelled = true
		wd.cancel()
	}
	return nil
}
