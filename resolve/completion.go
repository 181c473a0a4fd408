package resolve

import (
	"fmt"
	"slices"
	"strings"

	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/vocab"
	"github.com/corymhall/forthlsp/workspace"
)

// Completion lists the words starting with the part of the word typed before
// pos. User definitions shadow builtins of the same name. Nothing is offered
// inside comments and strings.
func Completion(v *vocab.Vocabulary, x *workspace.Index, uri lsp.DocumentURI, pos lsp.Position) (*lsp.CompletionList, error) {
	doc, err := x.Document(uri)
	if err != nil {
		return nil, err
	}
	list := &lsp.CompletionList{Items: []lsp.CompletionItem{}}

	offset := doc.Lines.Offset(pos)
	prefix := ""
	if tok, ok := doc.TokenAt(offset - 1); ok && offset > 0 {
		switch tok.Kind {
		case lexer.Word, lexer.Number:
			prefix = doc.Text[tok.Span.Start:offset]
		case lexer.LineComment:
			return list, nil
		case lexer.StackComment, lexer.StringLiteral:
			if offset < tok.Span.End || tok.Unterminated {
				return list, nil
			}
		}
	}

	policy := x.Policy()
	seen := map[string]bool{}
	for _, def := range x.AllDefinitions() {
		key := policy.Key(def.Name)
		if seen[key] || !policy.HasPrefix(def.Name, prefix) {
			continue
		}
		seen[key] = true
		item := lsp.CompletionItem{
			Label:  matchCase(policy, prefix, def.Name),
			Kind:   completionKind(def),
			Detail: def.StackEffect,
		}
		if item.Detail == "" {
			item.Detail = fmt.Sprintf("user-defined in %s", fileName(def.URI))
		}
		if def.Description != "" {
			item.Documentation = markdown(def.Description)
		}
		list.Items = append(list.Items, item)
	}
	for _, w := range v.Words() {
		if seen[policy.Key(w.Name)] || !policy.HasPrefix(w.Name, prefix) {
			continue
		}
		item := lsp.CompletionItem{
			Label:  matchCase(policy, prefix, w.Name),
			Kind:   lsp.CompletionItemKindFunction,
			Detail: w.StackEffect,
		}
		if w.Description != "" {
			item.Documentation = markdown(w.Description)
		}
		list.Items = append(list.Items, item)
	}

	slices.SortFunc(list.Items, func(a, b lsp.CompletionItem) int {
		return strings.Compare(a.Label, b.Label)
	})
	return list, nil
}
