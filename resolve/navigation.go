package resolve

import (
	"github.com/corymhall/forthlsp/index"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/workspace"
	"github.com/pulumi/pulumi/sdk/v3/go/common/util/contract"
)

// Definition returns every definition of the word at pos, ordered by
// document and then offset. A word defined more than once yields all of
// its definitions.
func Definition(x *workspace.Index, uri lsp.DocumentURI, pos lsp.Position) ([]lsp.Location, error) {
	_, tok, ok, err := wordAt(x, uri, pos)
	if err != nil || !ok {
		return nil, err
	}
	var out []lsp.Location
	for _, def := range x.LookupDefinitions(tok.Text) {
		if loc, ok := location(x, def); ok {
			out = append(out, loc)
		}
	}
	return out, nil
}

// References returns every occurrence of the word at pos, ordered by
// document and then offset. Definition sites are left out unless
// includeDeclaration is set.
func References(x *workspace.Index, uri lsp.DocumentURI, pos lsp.Position, includeDeclaration bool) ([]lsp.Location, error) {
	_, tok, ok, err := wordAt(x, uri, pos)
	if err != nil || !ok {
		return nil, err
	}
	var out []lsp.Location
	for _, occ := range x.LookupOccurrences(tok.Text) {
		switch occ.Kind {
		case index.Use:
		case index.Definition:
			if !includeDeclaration {
				continue
			}
		default:
			contract.Failf("unexpected occurrence kind %v", occ.Kind)
		}
		doc, err := x.Document(occ.URI)
		if err != nil {
			continue
		}
		out = append(out, doc.Location(occ.Span))
	}
	return out, nil
}
