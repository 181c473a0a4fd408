package server

import (
	"context"
	"fmt"

	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/resolve"
	"github.com/corymhall/forthlsp/rpc"
)

func (s *server) Initialize(ctx context.Context, params *lsp.InitializeRequestParams) (*lsp.InitializeResult, error) {
	s.stateMu.Lock()
	if s.state >= serverInitializing {
		defer s.stateMu.Unlock()
		return nil, fmt.Errorf("%w: initialize called while server in %v state", rpc.ErrInvalidRequest, s.state)
	}
	s.progress.SetSupportsWorkDoneProgress(params.Capabilities.Window.WorkDoneProgress)
	s.state = serverInitializing
	s.rootURI = rootURI(params)
	s.stateMu.Unlock()

	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: lsp.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    lsp.TextDocumentSyncKindIncremental,
				Save:      &lsp.SaveOptions{IncludeText: true},
			},
			HoverProvider:           true,
			CompletionProvider:      &lsp.CompletionOptions{},
			DefinitionProvider:      true,
			ReferencesProvider:      true,
			RenameProvider:          &lsp.RenameOptions{PrepareProvider: true},
			DocumentSymbolProvider:  true,
			WorkspaceSymbolProvider: true,
			SignatureHelpProvider: &lsp.SignatureHelpOptions{
				TriggerCharacters: []string{" "},
			},
			DocumentFormattingProvider: true,
			CodeActionProvider: lsp.CodeActionProviderOptions{
				CodeActionKinds: []lsp.CodeActionKind{
					lsp.CodeActionKindQuickFix,
				},
			},
			SemanticTokensProvider: &lsp.SemanticTokensOptions{
				Legend: resolve.Legend,
				Full:   true,
			},
		},
		ServerInfo: lsp.ServerInfo{
			Name:    "forthlsp",
			Version: Version,
		},
	}, nil
}

// rootURI picks the workspace root from the initialize request. Only the
// first workspace folder is indexed.
func rootURI(params *lsp.InitializeRequestParams) lsp.DocumentURI {
	switch {
	case params.RootURI != "":
		return params.RootURI
	case len(params.WorkspaceFolders) > 0:
		return params.WorkspaceFolders[0].URI
	case params.RootPath != nil:
		return lsp.URIFromPath(*params.RootPath)
	}
	return ""
}

func (s *server) Initialized(ctx context.Context, params *lsp.InitializedParams) error {
	s.stateMu.Lock()
	if s.state >= serverInitialized {
		defer s.stateMu.Unlock()
		return fmt.Errorf("%w: initialized called while server in %v state", rpc.ErrInvalidRequest, s.state)
	}
	s.state = serverInitialized
	s.stateMu.Unlock()

	// when we've initialized create the view
	s.initializeView(ctx)
	return nil
}

func (s *server) WorkDoneProgressCancel(ctx context.Context, params *lsp.WorkDoneProgressCancelParams) error {
	return s.progress.Cancel(params.Token)
}
