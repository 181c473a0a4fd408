package resolve

import (
	"fmt"

	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/workspace"
)

// PrepareRename returns the range of the word at pos, or nil when there is
// nothing to rename.
func PrepareRename(x *workspace.Index, uri lsp.DocumentURI, pos lsp.Position) (*lsp.Range, error) {
	doc, tok, ok, err := wordAt(x, uri, pos)
	if err != nil || !ok {
		return nil, err
	}
	rng := doc.Range(tok.Span)
	return &rng, nil
}

// Rename replaces every occurrence of the word at pos with newName across
// the workspace. Renaming onto a name that is already defined is allowed.
func Rename(x *workspace.Index, uri lsp.DocumentURI, pos lsp.Position, newName string) (*lsp.WorkspaceEdit, error) {
	if err := ValidateName(newName); err != nil {
		return nil, err
	}
	_, tok, ok, err := wordAt(x, uri, pos)
	if err != nil || !ok {
		return nil, err
	}

	edit := &lsp.WorkspaceEdit{Changes: map[lsp.DocumentURI][]lsp.TextEdit{}}
	for _, occ := range x.LookupOccurrences(tok.Text) {
		doc, err := x.Document(occ.URI)
		if err != nil {
			continue
		}
		edit.Changes[occ.URI] = append(edit.Changes[occ.URI], lsp.TextEdit{
			Range:   doc.Range(occ.Span),
			NewText: newName,
		})
	}
	return edit, nil
}

// ValidateName checks that name lexes as exactly one word.
func ValidateName(name string) error {
	tokens := lexer.Tokenize(name)
	if len(tokens) != 1 || tokens[0].Kind != lexer.Word {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
