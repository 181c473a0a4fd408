package server

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/rpc"
	"github.com/google/go-cmp/cmp"
	"github.com/hexops/autogold/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

type fakeClient struct {
	mu          sync.Mutex
	diagnostics map[lsp.DocumentURI][]*lsp.PublishDiagnosticsParams
	messages    []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{diagnostics: make(map[lsp.DocumentURI][]*lsp.PublishDiagnosticsParams)}
}

func (c *fakeClient) PublishDiagnostics(_ context.Context, params *lsp.PublishDiagnosticsParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics[params.URI] = append(c.diagnostics[params.URI], params)
	return nil
}

func (c *fakeClient) WorkDoneProgressCreate(context.Context, *lsp.WorkDoneProgressCreateParams) error {
	return nil
}

func (c *fakeClient) ProgressBegin(context.Context, *lsp.WorkDoneProgressBeginParams) error {
	return nil
}

func (c *fakeClient) ProgressReport(context.Context, *lsp.WorkDoneProgressReportParams) error {
	return nil
}

func (c *fakeClient) ProgressEnd(context.Context, *lsp.WorkDoneProgressEndParams) error {
	return nil
}

func (c *fakeClient) ShowMessage(_ context.Context, params *lsp.ShowMessageParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, params.Message)
	return nil
}

func (c *fakeClient) LogMessage(context.Context, *lsp.LogMessageParams) error {
	return nil
}

// latest returns the last diagnostics published for uri.
func (c *fakeClient) latest(uri lsp.DocumentURI) (*lsp.PublishDiagnosticsParams, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	published := c.diagnostics[uri]
	if len(published) == 0 {
		return nil, false
	}
	return published[len(published)-1], true
}

// eventuallyPublished waits until the last diagnostics published for uri
// satisfy match.
func (c *fakeClient) eventuallyPublished(t *testing.T, uri lsp.DocumentURI, match func(*lsp.PublishDiagnosticsParams) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		p, ok := c.latest(uri)
		return ok && match(p)
	}, waitFor, tick)
}

func messages(p *lsp.PublishDiagnosticsParams) []string {
	var out []string
	for _, d := range p.Diagnostics {
		out = append(out, d.Message)
	}
	return out
}

// startServer runs a server over a workspace holding files and waits for
// the workspace to load.
func startServer(t *testing.T, files map[string]string) (lsp.Server, *fakeClient, string) {
	t.Helper()
	root := t.TempDir()
	for name, text := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	}

	client := newFakeClient()
	srv := New(log.New(os.Stderr, "[forthlsp-test]", 0), client, WithDiagnosticsDelay(0), WithoutWatcher())
	ctx := context.Background()
	_, err := srv.Initialize(ctx, &lsp.InitializeRequestParams{RootURI: lsp.URIFromPath(root)})
	require.NoError(t, err)
	require.NoError(t, srv.Initialized(ctx, &lsp.InitializedParams{}))
	t.Cleanup(func() {
		assert.NoError(t, srv.Shutdown(context.Background()))
	})
	return srv, client, root
}

func open(t *testing.T, srv lsp.Server, uri lsp.DocumentURI, text string) {
	t.Helper()
	require.NoError(t, srv.DidOpen(context.Background(), &lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: uri, LanguageID: "forth", Version: 1, Text: text},
	}))
}

func position(uri lsp.DocumentURI, line, character int32) lsp.TextDocumentPositionParams {
	return lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		Position:     lsp.Position{Line: line, Character: character},
	}
}

func TestInitialize(t *testing.T) {
	client := newFakeClient()
	srv := New(log.New(os.Stderr, "", 0), client, WithoutWatcher())
	ctx := context.Background()

	res, err := srv.Initialize(ctx, &lsp.InitializeRequestParams{})
	require.NoError(t, err)
	assert.Equal(t, "forthlsp", res.ServerInfo.Name)
	assert.True(t, res.Capabilities.HoverProvider)

	_, err = srv.Initialize(ctx, &lsp.InitializeRequestParams{})
	assert.ErrorIs(t, err, rpc.ErrInvalidRequest)

	_, err = srv.Hover(ctx, &lsp.HoverParams{TextDocumentPositionParams: position("file:///a.fs", 0, 0)})
	assert.ErrorIs(t, err, rpc.ErrServerNotInitialized)
	require.NoError(t, srv.Shutdown(ctx))
}

func TestDiagnosticsLifecycle(t *testing.T) {
	srv, client, root := startServer(t, nil)
	ctx := context.Background()
	uri := lsp.URIFromPath(filepath.Join(root, "main.fs"))

	open(t, srv, uri, ": square dup * ;\n5 square cube .")
	client.eventuallyPublished(t, uri, func(p *lsp.PublishDiagnosticsParams) bool {
		return cmp.Equal(messages(p), []string{"undefined word: `cube`"})
	})
	p, _ := client.latest(uri)
	assert.Equal(t, int32(1), p.Version)
	assert.Equal(t, lsp.Range{
		Start: lsp.Position{Line: 1, Character: 9},
		End:   lsp.Position{Line: 1, Character: 13},
	}, p.Diagnostics[0].Range)

	// define the missing word with an incremental edit
	require.NoError(t, srv.DidChange(ctx, &lsp.DidChangeTextDocumentParams{
		TextDocument: lsp.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: lsp.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{{
			Range: &lsp.Range{
				Start: lsp.Position{Line: 0, Character: 0},
				End:   lsp.Position{Line: 0, Character: 0},
			},
			Text: ": cube dup square * ;\n",
		}},
	}))
	client.eventuallyPublished(t, uri, func(p *lsp.PublishDiagnosticsParams) bool {
		return p.Version == 2 && len(p.Diagnostics) == 0
	})

	require.NoError(t, srv.DidClose(ctx, &lsp.DidCloseTextDocumentParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
	}))
	client.eventuallyPublished(t, uri, func(p *lsp.PublishDiagnosticsParams) bool {
		return p.Diagnostics != nil && len(p.Diagnostics) == 0 && p.Version == 0
	})
}

func TestDidChangeErrors(t *testing.T) {
	srv, _, root := startServer(t, nil)
	ctx := context.Background()
	uri := lsp.URIFromPath(filepath.Join(root, "main.fs"))

	change := func(changes ...lsp.TextDocumentContentChangeEvent) error {
		return srv.DidChange(ctx, &lsp.DidChangeTextDocumentParams{
			TextDocument: lsp.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: lsp.TextDocumentIdentifier{URI: uri},
				Version:                2,
			},
			ContentChanges: changes,
		})
	}

	err := change(lsp.TextDocumentContentChangeEvent{Text: "1 2 +"})
	assert.ErrorContains(t, err, "not open")

	open(t, srv, uri, "1 2 +")
	assert.ErrorIs(t, change(), rpc.ErrInvalidParams)
	assert.ErrorIs(t, change(lsp.TextDocumentContentChangeEvent{
		Range: &lsp.Range{
			Start: lsp.Position{Line: 0, Character: 4},
			End:   lsp.Position{Line: 0, Character: 1},
		},
	}), rpc.ErrInvalidParams)
}

func TestWorkspaceScan(t *testing.T) {
	srv, client, root := startServer(t, map[string]string{
		"lib/math.fs":         "\\ squares a number\n: square ( n -- n*n ) dup * ;",
		"lib/notes.txt":       ": ignored ;",
		".git/hooks/hook.fs":  ": hidden ;",
		"vendor/dep/words.fs": ": vendored ;",
	})
	ctx := context.Background()
	uri := lsp.URIFromPath(filepath.Join(root, "main.fs"))

	open(t, srv, uri, "3 square . ignored")
	client.eventuallyPublished(t, uri, func(p *lsp.PublishDiagnosticsParams) bool {
		return cmp.Equal(messages(p), []string{"undefined word: `ignored`"})
	})

	symbols, err := srv.WorkspaceSymbol(ctx, &lsp.WorkspaceSymbolParams{})
	require.NoError(t, err)
	var names []string
	for _, sym := range symbols {
		names = append(names, sym.Name)
	}
	assert.Equal(t, []string{"square"}, names)

	locations, err := srv.Definition(ctx, &lsp.DefinitionParams{TextDocumentPositionParams: position(uri, 0, 3)})
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, lsp.URIFromPath(filepath.Join(root, "lib", "math.fs")), locations[0].URI)

	hover, err := srv.Hover(ctx, &lsp.HoverParams{TextDocumentPositionParams: position(uri, 0, 3)})
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents.Value, "squares a number")
}

func TestRenameAcrossFiles(t *testing.T) {
	srv, _, root := startServer(t, map[string]string{
		"helpers.fs": ": helper 1 + ;",
	})
	ctx := context.Background()
	mainURI := lsp.URIFromPath(filepath.Join(root, "main.fs"))
	helpers := lsp.URIFromPath(filepath.Join(root, "helpers.fs"))
	open(t, srv, mainURI, "2 helper helper .")

	rng, err := srv.PrepareRename(ctx, &lsp.PrepareRenameParams{TextDocumentPositionParams: position(mainURI, 0, 4)})
	require.NoError(t, err)
	require.NotNil(t, rng)
	assert.Equal(t, lsp.Range{
		Start: lsp.Position{Line: 0, Character: 2},
		End:   lsp.Position{Line: 0, Character: 8},
	}, *rng)

	edit, err := srv.Rename(ctx, &lsp.RenameParams{
		TextDocumentPositionParams: position(mainURI, 0, 4),
		NewName:                    "inc",
	})
	require.NoError(t, err)
	want := map[lsp.DocumentURI][]lsp.TextEdit{
		helpers: {{
			Range:   lsp.Range{Start: lsp.Position{Line: 0, Character: 2}, End: lsp.Position{Line: 0, Character: 8}},
			NewText: "inc",
		}},
		mainURI: {
			{
				Range:   lsp.Range{Start: lsp.Position{Line: 0, Character: 2}, End: lsp.Position{Line: 0, Character: 8}},
				NewText: "inc",
			},
			{
				Range:   lsp.Range{Start: lsp.Position{Line: 0, Character: 9}, End: lsp.Position{Line: 0, Character: 15}},
				NewText: "inc",
			},
		},
	}
	if diff := cmp.Diff(want, edit.Changes); diff != "" {
		t.Errorf("rename edits mismatch (-want +got):\n%s", diff)
	}

	_, err = srv.Rename(ctx, &lsp.RenameParams{
		TextDocumentPositionParams: position(mainURI, 0, 4),
		NewName:                    "two words",
	})
	assert.ErrorIs(t, err, rpc.ErrInvalidParams)
}

func TestUnknownDocument(t *testing.T) {
	srv, _, root := startServer(t, nil)
	ctx := context.Background()
	uri := lsp.URIFromPath(filepath.Join(root, "missing.fs"))

	_, err := srv.Hover(ctx, &lsp.HoverParams{TextDocumentPositionParams: position(uri, 0, 0)})
	assert.ErrorIs(t, err, rpc.ErrRequestFailed)

	_, err = srv.DocumentSymbol(ctx, &lsp.DocumentSymbolParams{TextDocument: lsp.TextDocumentIdentifier{URI: uri}})
	assert.ErrorIs(t, err, rpc.ErrRequestFailed)

	_, err = srv.Formatting(ctx, &lsp.DocumentFormattingParams{TextDocument: lsp.TextDocumentIdentifier{URI: uri}})
	assert.ErrorIs(t, err, rpc.ErrRequestFailed)
}

func TestFormatting(t *testing.T) {
	srv, _, root := startServer(t, nil)
	ctx := context.Background()
	uri := lsp.URIFromPath(filepath.Join(root, "main.fs"))
	open(t, srv, uri, ": square\ndup * ;\n")

	edits, err := srv.Formatting(ctx, &lsp.DocumentFormattingParams{TextDocument: lsp.TextDocumentIdentifier{URI: uri}})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, lsp.Range{
		Start: lsp.Position{Line: 0, Character: 0},
		End:   lsp.Position{Line: 2, Character: 0},
	}, edits[0].Range)
	autogold.Expect(": square\n  dup * ;\n").Equal(t, edits[0].NewText)

	formatted := lsp.URIFromPath(filepath.Join(root, "formatted.fs"))
	open(t, srv, formatted, edits[0].NewText)
	edits, err = srv.Formatting(ctx, &lsp.DocumentFormattingParams{TextDocument: lsp.TextDocumentIdentifier{URI: formatted}})
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestIgnoresNonForthDocuments(t *testing.T) {
	srv, _, root := startServer(t, nil)
	ctx := context.Background()
	uri := lsp.URIFromPath(filepath.Join(root, "README.md"))

	require.NoError(t, srv.DidOpen(ctx, &lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: uri, LanguageID: "markdown", Version: 1, Text: "# notes"},
	}))
	_, err := srv.DocumentSymbol(ctx, &lsp.DocumentSymbolParams{TextDocument: lsp.TextDocumentIdentifier{URI: uri}})
	assert.ErrorIs(t, err, rpc.ErrRequestFailed)
}

func TestModificationDuringInitialLoad(t *testing.T) {
	s := New(log.New(os.Stderr, "[forthlsp-test]", 0), newFakeClient(), WithDiagnosticsDelay(0), WithoutWatcher()).(*server)
	ctx := context.Background()

	// a view whose initial load has not started yet
	view := &View{
		id:                         "test",
		baseCtx:                    ctx,
		initialWorkspaceLoad:       make(chan struct{}),
		initializationSema:         make(chan struct{}, 1),
		viewDefinition:             &viewDefinition{},
		cancelInitialWorkspaceLoad: func() {},
	}
	bgCtx, cancel := context.WithCancel(ctx)
	s.snapshotWG.Add(1)
	view.snapshot = &Snapshot{
		view:          view,
		backgroundCtx: bgCtx,
		cancel:        cancel,
		files:         make(fileMap),
		refcount:      1,
		done:          s.snapshotWG.Done,
	}
	initial := view.snapshot
	s.view = view

	type result struct {
		snapshot *Snapshot
		release  func()
		err      error
	}
	modified := make(chan result, 1)
	go func() {
		s.modifyMu.Lock()
		defer s.modifyMu.Unlock()
		snapshot, release, err := s.invalidateViewLocked(ctx, StateChange{})
		modified <- result{snapshot, release, err}
	}()

	require.Never(t, func() bool { return len(modified) > 0 }, 100*time.Millisecond, tick,
		"the modification must wait for the initial load")

	read := make(chan error, 1)
	go func() {
		_, release, err := view.Snapshot()
		if err == nil {
			release()
		}
		read <- err
	}()
	select {
	case err := <-read:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("View.Snapshot blocked behind a modification waiting for the initial load")
	}

	go initial.initialize(ctx, true)

	var got result
	select {
	case got = <-modified:
	case <-time.After(waitFor):
		t.Fatal("modification did not finish after the initial load")
	}
	require.NoError(t, got.err)
	defer got.release()
	assert.Equal(t, uint64(1), got.snapshot.SequenceID())
	assert.Same(t, got.snapshot, view.snapshot)

	got.snapshot.mu.Lock()
	initialized := got.snapshot.initialized
	got.snapshot.mu.Unlock()
	assert.True(t, initialized)

	t.Cleanup(view.shutdown)
}
