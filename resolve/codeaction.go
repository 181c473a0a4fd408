package resolve

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/vocab"
	"github.com/corymhall/forthlsp/workspace"
)

const maxSuggestions = 3

// CodeActions offers quick fixes for the diagnostics in the request: close
// matches for undefined words and a semicolon for unterminated definitions.
func CodeActions(v *vocab.Vocabulary, x *workspace.Index, uri lsp.DocumentURI, diagnostics []lsp.Diagnostic) ([]lsp.CodeAction, error) {
	doc, err := x.Document(uri)
	if err != nil {
		return nil, err
	}
	actions := []lsp.CodeAction{}
	for _, diag := range diagnostics {
		if diag.Source != DiagnosticSource {
			continue
		}
		switch diag.Code {
		case CodeUndefinedWord:
			tok, ok := doc.WordAt(doc.Lines.Offset(diag.Range.Start))
			if !ok {
				continue
			}
			for i, name := range suggestions(v, x, tok.Text) {
				actions = append(actions, lsp.CodeAction{
					Title:       fmt.Sprintf("Did you mean `%s`?", name),
					Kind:        lsp.CodeActionKindQuickFix,
					Diagnostics: []lsp.Diagnostic{diag},
					IsPreferred: i == 0,
					Edit: &lsp.WorkspaceEdit{Changes: map[lsp.DocumentURI][]lsp.TextEdit{
						uri: {{Range: doc.Range(tok.Span), NewText: name}},
					}},
				})
			}
		case CodeUnterminatedDefinition:
			start := doc.Lines.Offset(diag.Range.Start)
			for _, def := range doc.Definitions {
				if def.Terminated || def.NameSpan.Start != start {
					continue
				}
				at := doc.Lines.Position(def.BodySpan.End)
				actions = append(actions, lsp.CodeAction{
					Title:       "Insert missing `;`",
					Kind:        lsp.CodeActionKindQuickFix,
					Diagnostics: []lsp.Diagnostic{diag},
					IsPreferred: true,
					Edit: &lsp.WorkspaceEdit{Changes: map[lsp.DocumentURI][]lsp.TextEdit{
						uri: {{Range: lsp.Range{Start: at, End: at}, NewText: " ;"}},
					}},
				})
			}
		}
	}
	return actions, nil
}

// suggestions returns up to three known names close to word, nearest first.
// Names of up to five bytes allow an edit distance of two, longer ones three.
func suggestions(v *vocab.Vocabulary, x *workspace.Index, word string) []string {
	policy := x.Policy()
	key := policy.Key(word)
	limit := 3
	if len(word) <= 5 {
		limit = 2
	}

	type candidate struct {
		name string
		dist int
	}
	seen := map[string]bool{}
	var found []candidate
	consider := func(name string) {
		k := policy.Key(name)
		if seen[k] {
			return
		}
		seen[k] = true
		if d := levenshtein.ComputeDistance(key, k); d > 0 && d <= limit {
			found = append(found, candidate{name: matchCase(policy, word, name), dist: d})
		}
	}
	for _, def := range x.AllDefinitions() {
		consider(def.Name)
	}
	for _, w := range v.Words() {
		consider(w.Name)
	}

	slices.SortFunc(found, func(a, b candidate) int {
		return cmp.Or(cmp.Compare(a.dist, b.dist), strings.Compare(a.name, b.name))
	})
	out := make([]string, 0, maxSuggestions)
	for _, c := range found[:min(len(found), maxSuggestions)] {
		out = append(out, c.name)
	}
	return out
}
