package server

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/corymhall/forthlsp/debug"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/resolve"
	"github.com/corymhall/forthlsp/workspace"
)

type (
	diagMap = map[lsp.DocumentURI][]lsp.Diagnostic
)

// fileDiagnostics holds the current state of published diagnostics for a file.
type fileDiagnostics struct {
	mustPublish    bool // if set, publish diagnostics even if they haven't changed
	viewDiagnostic *viewDiagnostics
}

// viewDiagnostics holds a set of file diagnostics computed from a given View.
type viewDiagnostics struct {
	snapshot    uint64 // snapshot sequence ID
	version     int32  // file version
	diagnostics []lsp.Diagnostic
}

func (s *server) mustPublishDiagnostics(uri lsp.DocumentURI) {
	s.diagnosticsMu.Lock()
	defer s.diagnosticsMu.Unlock()

	if s.diagnostics[uri] == nil {
		s.diagnostics[uri] = new(fileDiagnostics)
	}
	s.diagnostics[uri].mustPublish = true
}

func (s *server) diagnoseSnapshot(ctx context.Context, snapshot *Snapshot) {
	ctx, done := debug.Start(ctx, "diagnoseSnapshot", "snapshot", snapshot.SequenceID())
	defer done()
	diagnostics, err := s.diagnose(ctx, snapshot)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			debug.LogError(ctx, "error diagnosing snapshot", err)
		}
		return
	}

	s.updateDiagnostics(ctx, snapshot, diagnostics)
}

// diagnoseChangedView diagnoses the latest snapshot after a modification.
// Edits are debounced so that diagnostics run once typing pauses.
func (s *server) diagnoseChangedView(ctx context.Context, modID uint64, lastChange []lsp.DocumentURI, cause ModificationSource) {
	debug.Debug.Log(ctx, "diagnoseChangedView", "modificationID", modID, "changed", len(lastChange), "cause", cause.String())

	run := func() {
		if ctx.Err() != nil {
			// a later modification superseded this one
			return
		}
		snapshot, release, err := s.snapshot()
		if err != nil {
			return
		}
		defer release()
		s.diagnoseSnapshot(ctx, snapshot)
	}

	if cause == FromDidChange {
		s.debounce(run)
		return
	}
	run()
}

func (s *server) publishFileDiagnostics(ctx context.Context, uri lsp.DocumentURI, f *fileDiagnostics) error {
	diags := f.viewDiagnostic.diagnostics
	if diags == nil {
		diags = []lsp.Diagnostic{}
	}
	if err := s.client.PublishDiagnostics(ctx, &lsp.PublishDiagnosticsParams{
		Diagnostics: diags,
		URI:         uri,
		Version:     f.viewDiagnostic.version,
	}); err != nil {
		s.logger.Printf("error publishing diagnostics: %v", err)
		return err
	}
	return nil
}

func (s *server) updateDiagnostics(ctx context.Context, snapshot *Snapshot, diagnostics diagMap) {
	s.diagnosticsMu.Lock()
	defer s.diagnosticsMu.Unlock()

	// before updating diagnostics, check if the context (i.e. snapshot background context)
	// is not cancelled. That would mean we started diagnosing the next snapshot
	if ctx.Err() != nil {
		s.logger.Printf("context error while updating diagnostics for snapshot %d: %v", snapshot.SequenceID(), ctx.Err())
		return
	}

	// updateAndPublish publishes diags for a file unless they match what the
	// client already has.
	updateAndPublish := func(uri lsp.DocumentURI, f *fileDiagnostics, diags []lsp.Diagnostic) error {
		if prev := f.viewDiagnostic; prev != nil {
			if prev.snapshot > snapshot.SequenceID() {
				// already published from a newer snapshot
				return nil
			}
			if !f.mustPublish && slices.Equal(prev.diagnostics, diags) {
				prev.snapshot = snapshot.SequenceID()
				return nil
			}
		}
		var version int32
		if fh, err := snapshot.ReadFile(ctx, uri); err == nil && fh.Overlay() {
			version = fh.Version()
		}
		f.viewDiagnostic = &viewDiagnostics{
			snapshot:    snapshot.SequenceID(),
			version:     version,
			diagnostics: diags,
		}
		f.mustPublish = false
		return s.publishFileDiagnostics(ctx, uri, f)
	}

	for _, uri := range slices.Sorted(maps.Keys(diagnostics)) {
		f, ok := s.diagnostics[uri]
		if !ok {
			f = &fileDiagnostics{}
			s.diagnostics[uri] = f
		}
		if err := updateAndPublish(uri, f, diagnostics[uri]); err != nil && ctx.Err() != nil {
			return
		}
	}

	// files that are no longer open get an empty set and are forgotten
	for _, uri := range slices.Sorted(maps.Keys(s.diagnostics)) {
		if _, ok := diagnostics[uri]; ok {
			continue
		}
		f := s.diagnostics[uri]
		if err := updateAndPublish(uri, f, nil); err != nil && ctx.Err() != nil {
			return
		}
		if f.viewDiagnostic != nil && f.viewDiagnostic.snapshot <= snapshot.SequenceID() {
			delete(s.diagnostics, uri)
		}
	}
}

// diagnose computes the diagnostics of every file open in the editor.
func (s *server) diagnose(ctx context.Context, snapshot *Snapshot) (diagMap, error) {
	// wait for a free diagnostics slot
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case s.diagnosticsSema <- struct{}{}:
	}

	// defer release the semaphore
	defer func() {
		<-s.diagnosticsSema
	}()

	if err := snapshot.backgroundCtx.Err(); err != nil {
		return nil, err
	}
	s.updateCriticalErrorStatus(ctx, snapshot.InitializationError())

	cfg := snapshot.Config()
	v, x := snapshot.Vocabulary(), snapshot.Index()
	diagnostics := make(diagMap)
	for _, uri := range snapshot.Overlays() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		diags, err := resolve.Diagnostics(v, x, uri, cfg.Diagnostics)
		if errors.Is(err, workspace.ErrUnknownDocument) {
			continue
		}
		if err != nil {
			return nil, err
		}
		diagnostics[uri] = diags
	}
	debug.Debug.Log(ctx, "diagnosed open files", "files", len(diagnostics))
	return diagnostics, nil
}
