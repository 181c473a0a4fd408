package resolve

import (
	"fmt"
	"strings"

	"github.com/corymhall/forthlsp/index"
	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/vocab"
	"github.com/corymhall/forthlsp/workspace"
)

// maxHoverLines caps the definition source shown in a hover.
const maxHoverLines = 20

// Hover describes the word at pos. User definitions take precedence over
// builtins of the same name. It returns nil when pos is not on a known word.
func Hover(v *vocab.Vocabulary, x *workspace.Index, uri lsp.DocumentURI, pos lsp.Position) (*lsp.Hover, error) {
	doc, tok, ok, err := wordAt(x, uri, pos)
	if err != nil || !ok {
		return nil, err
	}
	rng := doc.Range(tok.Span)

	if defs := x.LookupDefinitions(tok.Text); len(defs) > 0 {
		return &lsp.Hover{
			Contents: *markdown(userDocumentation(x, tok.Text, defs)),
			Range:    &rng,
		}, nil
	}
	if w, ok := v.Lookup(tok.Text); ok {
		return &lsp.Hover{
			Contents: *markdown(w.Documentation()),
			Range:    &rng,
		}, nil
	}
	return nil, nil
}

func userDocumentation(x *workspace.Index, name string, defs []index.WordDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### `%s`\n", name)
	for i, def := range defs {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		doc, err := x.Document(def.URI)
		if err != nil {
			continue
		}
		b.WriteString("\n```forth\n")
		b.WriteString(definitionSource(doc, def))
		b.WriteString("\n```\n")
		if def.Description != "" {
			b.WriteString("\n")
			b.WriteString(def.Description)
			b.WriteString("\n")
		}
		start := doc.Lines.Position(def.NameSpan.Start)
		fmt.Fprintf(&b, "\n**Defined in:** `%s:%d:%d`\n", fileName(def.URI), start.Line+1, start.Character+1)
	}
	return b.String()
}

// definitionSource returns the lines of def from the start of its first line,
// with trailing whitespace removed.
func definitionSource(doc *index.Document, def index.WordDefinition) string {
	start := doc.Lines.LineStart(doc.Lines.Line(def.Span.Start))
	lines := strings.Split(doc.Slice(lexer.Span{Start: start, End: def.Span.End}), "\n")
	truncated := len(lines) > maxHoverLines
	if truncated {
		lines = lines[:maxHoverLines]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	if truncated {
		lines = append(lines, "...")
	}
	return strings.Join(lines, "\n")
}
