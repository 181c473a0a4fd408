// Package resolve answers editor queries against a workspace index and the
// builtin vocabulary. Every function is a pure read of its inputs.
package resolve

import (
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/index"
	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/workspace"
)

// ErrInvalidName is returned by Rename when the new name is not a single
// Forth word.
var ErrInvalidName = errors.New("invalid word name")

// DiagnosticSource is the source reported on every diagnostic.
const DiagnosticSource = "forth-lsp"

// wordAt returns the document for uri and the Word token at pos, if any.
func wordAt(x *workspace.Index, uri lsp.DocumentURI, pos lsp.Position) (*index.Document, lexer.Token, bool, error) {
	doc, err := x.Document(uri)
	if err != nil {
		return nil, lexer.Token{}, false, err
	}
	tok, ok := doc.WordAtPosition(pos)
	return doc, tok, ok, nil
}

// location returns where def's name sits.
func location(x *workspace.Index, def index.WordDefinition) (lsp.Location, bool) {
	doc, err := x.Document(def.URI)
	if err != nil {
		return lsp.Location{}, false
	}
	return doc.Location(def.NameSpan), true
}

func fileName(uri lsp.DocumentURI) string {
	if uri.IsFile() {
		return filepath.Base(uri.Path())
	}
	return path.Base(string(uri))
}

// matchCase lower cases label when names are case insensitive and the user
// is typing in lower case.
func matchCase(policy config.CasePolicy, typed, label string) string {
	if policy != config.CaseInsensitive || typed == "" {
		return label
	}
	if strings.ToLower(typed) == typed && strings.ToUpper(typed) != typed {
		return strings.ToLower(label)
	}
	return label
}

func isVariable(defining string) bool {
	switch defining {
	case "VARIABLE", "2VARIABLE", "FVARIABLE", "VALUE", "2VALUE", "FVALUE", "CREATE", "BUFFER:":
		return true
	}
	return false
}

func isConstant(defining string) bool {
	switch defining {
	case "CONSTANT", "2CONSTANT", "FCONSTANT":
		return true
	}
	return false
}

func symbolKind(def index.WordDefinition) lsp.SymbolKind {
	switch {
	case def.Defining == "CREATE", def.Defining == "BUFFER:":
		return lsp.SymbolKindArray
	case isVariable(def.Defining):
		return lsp.SymbolKindVariable
	case isConstant(def.Defining):
		return lsp.SymbolKindConstant
	}
	return lsp.SymbolKindFunction
}

func completionKind(def index.WordDefinition) lsp.CompletionItemKind {
	switch {
	case isVariable(def.Defining):
		return lsp.CompletionItemKindVariable
	case isConstant(def.Defining):
		return lsp.CompletionItemKindConstant
	}
	return lsp.CompletionItemKindFunction
}

func markdown(value string) *lsp.MarkupContent {
	return &lsp.MarkupContent{Kind: lsp.Markdown, Value: value}
}
