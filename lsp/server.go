package lsp

import (
	"context"
	"log"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/corymhall/forthlsp/rpc"
	"github.com/pulumi/pulumi/sdk/v3/go/common/util/contract"
)

type DocumentURI string

type LanguageKind string

const fileScheme = "file://"

// Path returns the file system path of a file URI. It panics for other
// schemes; check IsFile first.
func (uri DocumentURI) Path() string {
	contract.Assertf(uri.IsFile(), "not a file URI: %q", uri)
	p := strings.TrimPrefix(string(uri), fileScheme)
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return filepath.FromSlash(p)
}

// IsFile reports whether the URI uses the file scheme.
func (uri DocumentURI) IsFile() bool {
	return strings.HasPrefix(string(uri), fileScheme)
}

func URIFromPath(path string) DocumentURI {
	if path == "" {
		return ""
	}
	return DocumentURI(fileScheme + filepath.ToSlash(path))
}

// Server is the part of the protocol a Forth language server answers.
type Server interface {
	Exit(context.Context) error
	Shutdown(context.Context) error
	Initialize(context.Context, *InitializeRequestParams) (*InitializeResult, error)
	Initialized(context.Context, *InitializedParams) error
	WorkDoneProgressCancel(context.Context, *WorkDoneProgressCancelParams) error

	DidOpen(context.Context, *DidOpenTextDocumentParams) error
	DidChange(context.Context, *DidChangeTextDocumentParams) error
	DidClose(context.Context, *DidCloseTextDocumentParams) error
	DidSave(context.Context, *DidSaveTextDocumentParams) error

	Hover(context.Context, *HoverParams) (*Hover, error)
	Completion(context.Context, *CompletionParams) (*CompletionList, error)
	SignatureHelp(context.Context, *SignatureHelpParams) (*SignatureHelp, error)
	Definition(context.Context, *DefinitionParams) ([]Location, error)
	References(context.Context, *ReferenceParams) ([]Location, error)
	PrepareRename(context.Context, *PrepareRenameParams) (*Range, error)
	Rename(context.Context, *RenameParams) (*WorkspaceEdit, error)
	DocumentSymbol(context.Context, *DocumentSymbolParams) ([]DocumentSymbol, error)
	WorkspaceSymbol(context.Context, *WorkspaceSymbolParams) ([]SymbolInformation, error)
	Formatting(context.Context, *DocumentFormattingParams) ([]TextEdit, error)
	CodeAction(context.Context, *CodeActionParams) ([]CodeAction, error)
	SemanticTokensFull(context.Context, *SemanticTokensParams) (*SemanticTokens, error)

	Logger() *log.Logger
}

// A route decodes the params of one method and calls the server with them.
// Notifications return a nil result.
type route func(ctx context.Context, server Server, params []byte) (any, error)

// errDecode marks a params payload that does not fit the method.
type errDecode struct{ err error }

func (e errDecode) Error() string { return e.err.Error() }

func request[P, R any](call func(Server, context.Context, *P) (R, error)) route {
	return func(ctx context.Context, server Server, raw []byte) (any, error) {
		var params P
		if err := UnmarshalJSON(raw, &params); err != nil {
			return nil, errDecode{err}
		}
		return call(server, ctx, &params)
	}
}

func notification[P any](call func(Server, context.Context, *P) error) route {
	return func(ctx context.Context, server Server, raw []byte) (any, error) {
		var params P
		if err := UnmarshalJSON(raw, &params); err != nil {
			return nil, errDecode{err}
		}
		return nil, call(server, ctx, &params)
	}
}

func bare(call func(Server, context.Context) error) route {
	return func(ctx context.Context, server Server, _ []byte) (any, error) {
		return nil, call(server, ctx)
	}
}

func ignore(context.Context, Server, []byte) (any, error) { return nil, nil }

var routes = map[string]route{
	"initialize":                     request(Server.Initialize),
	"initialized":                    notification(Server.Initialized),
	"shutdown":                       bare(Server.Shutdown),
	"exit":                           bare(Server.Exit),
	"window/workDoneProgress/cancel": notification(Server.WorkDoneProgressCancel),

	"textDocument/didOpen":   notification(Server.DidOpen),
	"textDocument/didChange": notification(Server.DidChange),
	"textDocument/didClose":  notification(Server.DidClose),
	"textDocument/didSave":   notification(Server.DidSave),

	"textDocument/hover":               request(Server.Hover),
	"textDocument/completion":          request(Server.Completion),
	"textDocument/signatureHelp":       request(Server.SignatureHelp),
	"textDocument/definition":          request(Server.Definition),
	"textDocument/references":          request(Server.References),
	"textDocument/prepareRename":       request(Server.PrepareRename),
	"textDocument/rename":              request(Server.Rename),
	"textDocument/documentSymbol":      request(Server.DocumentSymbol),
	"workspace/symbol":                 request(Server.WorkspaceSymbol),
	"textDocument/formatting":          request(Server.Formatting),
	"textDocument/codeAction":          request(Server.CodeAction),
	"textDocument/semanticTokens/full": request(Server.SemanticTokensFull),

	// requests are answered in order, so there is nothing left to cancel
	"$/cancelRequest": ignore,
	"$/setTrace":      ignore,
}

// serverDispatch answers r if the method has a route. It reports whether it
// did.
func serverDispatch(ctx context.Context, server Server, reply rpc.Replier, r rpc.Request) (bool, error) {
	method := r.Method()
	handle, ok := routes[method]
	if !ok {
		return false, nil
	}
	server.Logger().Printf("Received %s", method)

	result, err := handle(ctx, server, r.Params())
	if decodeErr, ok := err.(errDecode); ok {
		return true, sendParseError(ctx, reply, decodeErr.err)
	}
	if err != nil {
		server.Logger().Printf("Error %s: %s", method, err)
		return true, reply(ctx, nil, err)
	}
	return true, reply(ctx, result, nil)
}
