package index

import (
	"sort"

	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
)

// Document is an indexed source file. It is never modified after New
// returns, an edit produces a new Document.
type Document struct {
	URI         lsp.DocumentURI
	Version     int32
	Text        string
	Tokens      []lexer.Token
	Definitions []WordDefinition
	Occurrences []WordOccurrence
	Lines       *LineMap
}

func New(uri lsp.DocumentURI, version int32, text string) *Document {
	tokens := lexer.Tokenize(text)
	defs, occs := Index(uri, tokens)
	return &Document{
		URI:         uri,
		Version:     version,
		Text:        text,
		Tokens:      tokens,
		Definitions: defs,
		Occurrences: occs,
		Lines:       NewLineMap(text),
	}
}

// TokenIndex returns the index of the token containing offset, or
// len(d.Tokens) when offset is at or past the end.
func (d *Document) TokenIndex(offset int) int {
	return sort.Search(len(d.Tokens), func(i int) bool {
		return d.Tokens[i].Span.End > offset
	})
}

// TokenAt returns the token containing offset.
func (d *Document) TokenAt(offset int) (lexer.Token, bool) {
	i := d.TokenIndex(offset)
	if i < len(d.Tokens) && d.Tokens[i].Span.Contains(offset) {
		return d.Tokens[i], true
	}
	return lexer.Token{}, false
}

// WordAt returns the Word token at offset. A cursor sitting right after a
// word resolves to that word.
func (d *Document) WordAt(offset int) (lexer.Token, bool) {
	i := d.TokenIndex(offset)
	if i < len(d.Tokens) && d.Tokens[i].Kind == lexer.Word && d.Tokens[i].Span.Contains(offset) {
		return d.Tokens[i], true
	}
	if i > 0 && d.Tokens[i-1].Kind == lexer.Word && d.Tokens[i-1].Span.End == offset {
		return d.Tokens[i-1], true
	}
	return lexer.Token{}, false
}

// WordAtPosition is WordAt for an LSP position.
func (d *Document) WordAtPosition(pos lsp.Position) (lexer.Token, bool) {
	return d.WordAt(d.Lines.Offset(pos))
}

// Range converts a span of the document to a range.
func (d *Document) Range(span lexer.Span) lsp.Range {
	return d.Lines.Range(span)
}

// Location converts a span of the document to a location.
func (d *Document) Location(span lexer.Span) lsp.Location {
	return lsp.Location{URI: d.URI, Range: d.Range(span)}
}

// Slice returns the source text covered by span.
func (d *Document) Slice(span lexer.Span) string {
	return d.Text[span.Start:span.End]
}
