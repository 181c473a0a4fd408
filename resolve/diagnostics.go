package resolve

import (
	"fmt"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/index"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/vocab"
	"github.com/corymhall/forthlsp/workspace"
)

const (
	CodeUndefinedWord          = "undefined-word"
	CodeUnterminatedDefinition = "unterminated-definition"
)

// Diagnostics reports the problems found in uri: uses of words that are
// neither builtin nor defined anywhere in the workspace and, when enabled,
// colon definitions missing their semicolon.
func Diagnostics(v *vocab.Vocabulary, x *workspace.Index, uri lsp.DocumentURI, opts config.DiagnosticsConfig) ([]lsp.Diagnostic, error) {
	doc, err := x.Document(uri)
	if err != nil {
		return nil, err
	}
	out := []lsp.Diagnostic{}

	if opts.UndefinedWords {
		for _, occ := range doc.Occurrences {
			if occ.Kind != index.Use {
				continue
			}
			if _, ok := v.Lookup(occ.Name); ok || x.IsDefined(occ.Name) {
				continue
			}
			out = append(out, lsp.Diagnostic{
				Range:    doc.Range(occ.Span),
				Severity: lsp.SeverityWarning,
				Code:     CodeUndefinedWord,
				Source:   DiagnosticSource,
				Message:  fmt.Sprintf("undefined word: `%s`", occ.Name),
			})
		}
	}

	if opts.UnterminatedDefinitions {
		for _, def := range doc.Definitions {
			if def.Terminated {
				continue
			}
			out = append(out, lsp.Diagnostic{
				Range:    doc.Range(def.NameSpan),
				Severity: lsp.SeverityInformation,
				Code:     CodeUnterminatedDefinition,
				Source:   DiagnosticSource,
				Message:  fmt.Sprintf("unterminated definition: `%s`", def.Name),
			})
		}
	}
	return out, nil
}
