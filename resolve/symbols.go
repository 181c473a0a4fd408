package resolve

import (
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/workspace"
)

// DocumentSymbols outlines the definitions of uri in source order.
func DocumentSymbols(x *workspace.Index, uri lsp.DocumentURI) ([]lsp.DocumentSymbol, error) {
	doc, err := x.Document(uri)
	if err != nil {
		return nil, err
	}
	out := make([]lsp.DocumentSymbol, 0, len(doc.Definitions))
	for _, def := range doc.Definitions {
		out = append(out, lsp.DocumentSymbol{
			Name:           def.Name,
			Detail:         def.StackEffect,
			Kind:           symbolKind(def),
			Range:          doc.Range(def.Span),
			SelectionRange: doc.Range(def.NameSpan),
		})
	}
	return out, nil
}

// WorkspaceSymbols returns the definitions whose name contains query. An
// empty query matches everything.
func WorkspaceSymbols(x *workspace.Index, query string) []lsp.SymbolInformation {
	policy := x.Policy()
	out := []lsp.SymbolInformation{}
	for _, def := range x.AllDefinitions() {
		if !policy.Contains(def.Name, query) {
			continue
		}
		loc, ok := location(x, def)
		if !ok {
			continue
		}
		out = append(out, lsp.SymbolInformation{
			Name:          def.Name,
			Kind:          symbolKind(def),
			Location:      loc,
			ContainerName: fileName(def.URI),
		})
	}
	return out
}
