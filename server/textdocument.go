package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/debug"
	"github.com/corymhall/forthlsp/file"
	"github.com/corymhall/forthlsp/index"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/rpc"
	"github.com/corymhall/forthlsp/workspace"
	"github.com/corymhall/forthlsp/xcontext"
)

// ModificationSource identifies what caused a change to the file set.
type ModificationSource int

const (
	FromDidOpen ModificationSource = iota
	FromDidChange
	// FromDidChangeWatchedFiles is a change seen by the file system watcher.
	FromDidChangeWatchedFiles
	FromDidSave
	FromDidClose
	// FromDidChangeConfiguration is an edit to the configuration file.
	FromDidChangeConfiguration
)

var sourceNames = [...]string{
	FromDidOpen:                "didOpen",
	FromDidChange:              "didChange",
	FromDidChangeWatchedFiles:  "didChangeWatchedFiles",
	FromDidSave:                "didSave",
	FromDidClose:               "didClose",
	FromDidChangeConfiguration: "didChangeConfiguration",
}

func (m ModificationSource) String() string {
	if m < 0 || int(m) >= len(sourceNames) {
		return fmt.Sprintf("ModificationSource(%d)", int(m))
	}
	return sourceNames[m]
}

func uriAttr(uri lsp.DocumentURI) slog.Attr {
	return slog.String("uri", string(uri))
}

func (s *server) DidOpen(ctx context.Context, params *lsp.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	ctx, done := debug.Start(ctx, "DidOpen", uriAttr(doc.URI))
	defer done()
	return s.didModifyFiles(ctx, []file.Modification{{
		URI:        doc.URI,
		Action:     file.Open,
		Version:    doc.Version,
		Text:       []byte(doc.Text),
		LanguageID: doc.LanguageID,
	}}, FromDidOpen)
}

// DidSave only changes the buffer when the editor includes the saved text.
func (s *server) DidSave(ctx context.Context, params *lsp.DidSaveTextDocumentParams) error {
	ctx, done := debug.Start(ctx, "DidSave", uriAttr(params.TextDocument.URI))
	defer done()
	m := file.Modification{URI: params.TextDocument.URI, Action: file.Save, Version: -1}
	if params.Text != nil {
		m.Text = []byte(*params.Text)
	}
	return s.didModifyFiles(ctx, []file.Modification{m}, FromDidSave)
}

func (s *server) DidChange(ctx context.Context, params *lsp.DidChangeTextDocumentParams) error {
	ctx, done := debug.Start(ctx, "DidChange", uriAttr(params.TextDocument.URI))
	defer done()
	uri := params.TextDocument.URI
	text, err := s.changedText(uri, params.ContentChanges)
	if err != nil {
		return err
	}
	return s.didModifyFiles(ctx, []file.Modification{{
		URI:     uri,
		Action:  file.Change,
		Version: params.TextDocument.Version,
		Text:    text,
	}}, FromDidChange)
}

// changedText applies changes to the open contents of uri.
func (s *server) changedText(uri lsp.DocumentURI, changes []lsp.TextDocumentContentChangeEvent) ([]byte, error) {
	if len(changes) == 0 {
		return nil, fmt.Errorf("%w: no content changes provided", rpc.ErrInvalidParams)
	}
	s.overlayMu.Lock()
	o, ok := s.overlays[uri]
	s.overlayMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s is not open", workspace.ErrUnknownDocument, uri)
	}
	text, err := index.ApplyChanges(o.Text(), changes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rpc.ErrInvalidParams, err)
	}
	return []byte(text), nil
}

func (s *server) DidClose(ctx context.Context, params *lsp.DidCloseTextDocumentParams) error {
	ctx, done := debug.Start(ctx, "DidClose", uriAttr(params.TextDocument.URI))
	defer done()
	return s.didModifyFiles(ctx, []file.Modification{{
		URI:     params.TextDocument.URI,
		Action:  file.Close,
		Version: -1,
	}}, FromDidClose)
}

func (s *server) didModifyFiles(ctx context.Context, modifications []file.Modification, cause ModificationSource) error {
	ctx, done := debug.Start(ctx, "textdocument.didModifyFiles", slog.String("cause", cause.String()))
	defer done()

	s.modifyMu.Lock()
	defer s.modifyMu.Unlock()

	changed := s.updateOverlays(ctx, modifications)
	if len(changed) == 0 {
		return nil
	}
	changes := []lsp.DocumentURI{}
	for uri := range changed {
		changes = append(changes, uri)
		if cause != FromDidChangeWatchedFiles {
			s.mustPublishDiagnostics(uri)
		}
	}

	snapshot, release, err := s.invalidateViewLocked(ctx, StateChange{Modifications: modifications, Files: changed})
	if err != nil {
		return err
	}
	release()
	ctx, _ = debug.With(ctx, "snapshotSequenceID", snapshot.SequenceID())

	modCtx, modID := s.updateViewsToDiagnose(ctx)
	// don't block on diagnostics
	go func() {
		s.diagnoseChangedView(modCtx, modID, changes, cause)
	}()

	return nil
}

// updateOverlays records modifications in the open file set and returns the
// handles of the files whose state changed. Changes on disk to files open in
// the editor are ignored, the editor's contents win.
func (s *server) updateOverlays(ctx context.Context, modifications []file.Modification) fileMap {
	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()

	changed := make(fileMap)
	for _, m := range modifications {
		o, open := s.overlays[m.URI]
		switch {
		case m.OnDisk:
			if open {
				continue
			}
			changed[m.URI] = file.MustRead(m.URI)
		case m.Action == file.Open:
			if !isForth(m) {
				debug.Debug.Log(ctx, "ignoring non-Forth document", "uri", m.URI, "language", m.LanguageID)
				continue
			}
			o = file.NewBuffer(m.URI, m.Version, m.Text)
			s.overlays[m.URI] = o
			changed[m.URI] = o
		case m.Action == file.Change:
			if !open {
				continue
			}
			o = file.NewBuffer(m.URI, m.Version, m.Text)
			s.overlays[m.URI] = o
			changed[m.URI] = o
		case m.Action == file.Save:
			if !open || m.Text == nil {
				continue
			}
			o = file.NewBuffer(m.URI, o.Version(), m.Text)
			s.overlays[m.URI] = o
			changed[m.URI] = o
		case m.Action == file.Close:
			if !open {
				continue
			}
			delete(s.overlays, m.URI)
			// a workspace file goes back to its contents on disk
			changed[m.URI] = file.MustRead(m.URI)
		}
	}
	return changed
}

func isForth(m file.Modification) bool {
	if file.KindForLang(m.LanguageID) == file.Forth {
		return true
	}
	if !m.URI.IsFile() {
		// untitled buffers carry no extension to go by
		return m.LanguageID == ""
	}
	return file.KindForPath(m.URI.Path(), config.FileName, config.Default().Workspace.Extensions) == file.Forth
}

func (s *server) updateViewsToDiagnose(ctx context.Context) (context.Context, uint64) {
	s.modificationMu.Lock()
	defer s.modificationMu.Unlock()
	if s.cancelPrevDiagnostics != nil {
		s.cancelPrevDiagnostics()
	}
	modCtx := xcontext.Detach(ctx)
	modCtx, s.cancelPrevDiagnostics = context.WithCancel(modCtx)
	s.lastModificationID++
	modID := s.lastModificationID
	modCtx, _ = debug.With(modCtx, "modificationID", modID)
	return modCtx, modID
}
