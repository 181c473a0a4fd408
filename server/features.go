package server

import (
	"context"
	"log/slog"
	"slices"

	"github.com/corymhall/forthlsp/debug"
	"github.com/corymhall/forthlsp/format"
	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/resolve"
)

// query runs fn against the current snapshot once the workspace has loaded.
// Resolver errors get their JSON-RPC code on the way out.
func query[T any](ctx context.Context, s *server, name string, attrs []any, fn func(ctx context.Context, snapshot *Snapshot) (T, error)) (T, error) {
	ctx, done := debug.Start(ctx, name, attrs...)
	defer done()

	var zero T
	snapshot, release, err := s.acquireSnapshot(ctx)
	if err != nil {
		return zero, err
	}
	defer release()
	result, err := fn(ctx, snapshot)
	if err != nil {
		debug.Debug.Log(ctx, "request failed", "error", err)
		return zero, toRPCError(err)
	}
	return result, nil
}

func at(doc lsp.TextDocumentIdentifier) []any {
	return []any{uriAttr(doc.URI)}
}

func (s *server) Hover(ctx context.Context, params *lsp.HoverParams) (*lsp.Hover, error) {
	return query(ctx, s, "Hover", at(params.TextDocument), func(_ context.Context, snapshot *Snapshot) (*lsp.Hover, error) {
		return resolve.Hover(snapshot.Vocabulary(), snapshot.Index(), params.TextDocument.URI, params.Position)
	})
}

func (s *server) SignatureHelp(ctx context.Context, params *lsp.SignatureHelpParams) (*lsp.SignatureHelp, error) {
	return query(ctx, s, "SignatureHelp", at(params.TextDocument), func(_ context.Context, snapshot *Snapshot) (*lsp.SignatureHelp, error) {
		return resolve.SignatureHelp(snapshot.Vocabulary(), snapshot.Index(), params.TextDocument.URI, params.Position)
	})
}

func (s *server) Completion(ctx context.Context, params *lsp.CompletionParams) (*lsp.CompletionList, error) {
	return query(ctx, s, "Completion", at(params.TextDocument), func(ctx context.Context, snapshot *Snapshot) (*lsp.CompletionList, error) {
		list, err := resolve.Completion(snapshot.Vocabulary(), snapshot.Index(), params.TextDocument.URI, params.Position)
		if err == nil {
			debug.Debug.Log(ctx, "completion candidates", "count", len(list.Items))
		}
		return list, err
	})
}

func (s *server) Definition(ctx context.Context, params *lsp.DefinitionParams) ([]lsp.Location, error) {
	return query(ctx, s, "Definition", at(params.TextDocument), func(_ context.Context, snapshot *Snapshot) ([]lsp.Location, error) {
		return resolve.Definition(snapshot.Index(), params.TextDocument.URI, params.Position)
	})
}

func (s *server) References(ctx context.Context, params *lsp.ReferenceParams) ([]lsp.Location, error) {
	return query(ctx, s, "References", at(params.TextDocument), func(_ context.Context, snapshot *Snapshot) ([]lsp.Location, error) {
		return resolve.References(snapshot.Index(), params.TextDocument.URI, params.Position, params.Context.IncludeDeclaration)
	})
}

func (s *server) PrepareRename(ctx context.Context, params *lsp.PrepareRenameParams) (*lsp.Range, error) {
	return query(ctx, s, "PrepareRename", at(params.TextDocument), func(_ context.Context, snapshot *Snapshot) (*lsp.Range, error) {
		return resolve.PrepareRename(snapshot.Index(), params.TextDocument.URI, params.Position)
	})
}

func (s *server) Rename(ctx context.Context, params *lsp.RenameParams) (*lsp.WorkspaceEdit, error) {
	attrs := append(at(params.TextDocument), slog.String("newName", params.NewName))
	return query(ctx, s, "Rename", attrs, func(_ context.Context, snapshot *Snapshot) (*lsp.WorkspaceEdit, error) {
		return resolve.Rename(snapshot.Index(), params.TextDocument.URI, params.Position, params.NewName)
	})
}

func (s *server) DocumentSymbol(ctx context.Context, params *lsp.DocumentSymbolParams) ([]lsp.DocumentSymbol, error) {
	return query(ctx, s, "DocumentSymbol", at(params.TextDocument), func(_ context.Context, snapshot *Snapshot) ([]lsp.DocumentSymbol, error) {
		return resolve.DocumentSymbols(snapshot.Index(), params.TextDocument.URI)
	})
}

func (s *server) WorkspaceSymbol(ctx context.Context, params *lsp.WorkspaceSymbolParams) ([]lsp.SymbolInformation, error) {
	return query(ctx, s, "WorkspaceSymbol", []any{slog.String("query", params.Query)}, func(_ context.Context, snapshot *Snapshot) ([]lsp.SymbolInformation, error) {
		return resolve.WorkspaceSymbols(snapshot.Index(), params.Query), nil
	})
}

func (s *server) SemanticTokensFull(ctx context.Context, params *lsp.SemanticTokensParams) (*lsp.SemanticTokens, error) {
	return query(ctx, s, "SemanticTokensFull", at(params.TextDocument), func(_ context.Context, snapshot *Snapshot) (*lsp.SemanticTokens, error) {
		return resolve.SemanticTokens(snapshot.Vocabulary(), snapshot.Index(), params.TextDocument.URI)
	})
}

// CodeAction only offers quick fixes.
func (s *server) CodeAction(ctx context.Context, params *lsp.CodeActionParams) ([]lsp.CodeAction, error) {
	if only := params.Context.Only; len(only) > 0 && !slices.Contains(only, lsp.CodeActionKindQuickFix) {
		return []lsp.CodeAction{}, nil
	}
	return query(ctx, s, "CodeAction", at(params.TextDocument), func(_ context.Context, snapshot *Snapshot) ([]lsp.CodeAction, error) {
		return resolve.CodeActions(snapshot.Vocabulary(), snapshot.Index(), params.TextDocument.URI, params.Context.Diagnostics)
	})
}

// Formatting replaces the whole document when formatting changes it. The
// project configuration decides the indentation, the editor's options are
// not consulted.
func (s *server) Formatting(ctx context.Context, params *lsp.DocumentFormattingParams) ([]lsp.TextEdit, error) {
	return query(ctx, s, "Formatting", at(params.TextDocument), func(_ context.Context, snapshot *Snapshot) ([]lsp.TextEdit, error) {
		doc, err := snapshot.Index().Document(params.TextDocument.URI)
		if err != nil {
			return nil, err
		}
		formatted := format.Format(doc.Tokens, snapshot.Config().Format)
		if formatted == doc.Text {
			return []lsp.TextEdit{}, nil
		}
		return []lsp.TextEdit{{
			Range:   doc.Range(lexer.Span{Start: 0, End: len(doc.Text)}),
			NewText: formatted,
		}}, nil
	})
}
