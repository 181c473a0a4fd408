// Package index extracts word definitions and occurrences from a tokenized
// Forth document.
package index

import (
	"slices"
	"strings"

	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
)

// OccurrenceKind tells a use of a word apart from the place that names it.
type OccurrenceKind int

const (
	Use OccurrenceKind = iota
	Definition
)

func (k OccurrenceKind) String() string {
	if k == Definition {
		return "Definition"
	}
	return "Use"
}

// WordDefinition is one user definition of a word.
type WordDefinition struct {
	Name string
	URI  lsp.DocumentURI
	// NameSpan covers the name token.
	NameSpan lexer.Span
	// BodySpan runs from the name to the closing semicolon, or to the last
	// token of the definition when it is unterminated.
	BodySpan lexer.Span
	// Span runs from the colon or defining word to the end of the body.
	Span        lexer.Span
	StackEffect string
	Description string
	Terminated  bool
	// Defining is the upper cased defining word, such as VARIABLE, or empty
	// for colon definitions.
	Defining string
}

// WordOccurrence is a single Word token in a document.
type WordOccurrence struct {
	Name string
	URI  lsp.DocumentURI
	Span lexer.Span
	Kind OccurrenceKind
}

var definingWords = map[string]bool{
	"VARIABLE":  true,
	"2VARIABLE": true,
	"FVARIABLE": true,
	"CONSTANT":  true,
	"2CONSTANT": true,
	"FCONSTANT": true,
	"VALUE":     true,
	"2VALUE":    true,
	"FVALUE":    true,
	"CREATE":    true,
	"DEFER":     true,
	"BUFFER:":   true,
	"SYNONYM":   true,
}

// IsDefiningWord reports whether name is a word that defines the word
// following it, like VARIABLE or CREATE.
func IsDefiningWord(name string) bool {
	return definingWords[strings.ToUpper(name)]
}

type expect int

const (
	expectNothing expect = iota
	expectColonName
	expectDefinedName
	expectStackEffect
)

type indexer struct {
	uri    lsp.DocumentURI
	tokens []lexer.Token

	defs []WordDefinition
	occs []WordOccurrence

	expect expect
	// inColon is set between a colon and its semicolon, named or not
	inColon bool
	// open is the colon definition waiting for its semicolon, or -1
	open int
	// target is the definition that receives the next stack comment and a
	// trailing line comment, or -1
	target int
	// sameLine is cleared by a newline. Only a line comment on the line of
	// the name describes the definition.
	sameLine  bool
	described bool
	// start of the colon or defining word that introduced the next name
	introStart int
	introWord  string
	introIndex int
	lastEnd    int
}

// Index extracts the definitions and occurrences of a tokenized document.
// It never fails: a definition missing its semicolon is closed at the last
// token before the next colon or the end of input.
func Index(uri lsp.DocumentURI, tokens []lexer.Token) ([]WordDefinition, []WordOccurrence) {
	x := &indexer{uri: uri, tokens: tokens, open: -1, target: -1}
	for i, tok := range tokens {
		x.token(i, tok)
	}
	x.closeUnterminated()
	return x.defs, x.occs
}

func (x *indexer) token(i int, tok lexer.Token) {
	if tok.Kind == lexer.Whitespace {
		if strings.Contains(tok.Text, "\n") {
			x.sameLine = false
		}
		return
	}
	defer func() { x.lastEnd = tok.Span.End }()

	switch tok.Kind {
	case lexer.Colon:
		x.closeUnterminated()
		x.inColon = true
		x.expect = expectColonName
		x.target = -1
		x.introStart, x.introWord, x.introIndex = tok.Span.Start, "", i
	case lexer.Semicolon:
		if x.open >= 0 {
			d := &x.defs[x.open]
			d.BodySpan.End = tok.Span.End
			d.Span.End = tok.Span.End
			d.Terminated = true
			x.open = -1
		}
		x.inColon = false
		x.expect = expectNothing
	case lexer.Word:
		x.word(i, tok)
	case lexer.StackComment:
		if x.expect == expectStackEffect && x.target >= 0 {
			x.defs[x.target].StackEffect = tok.Text
		}
		x.expect = expectNothing
	case lexer.LineComment:
		if x.target >= 0 && x.sameLine && !x.described {
			x.defs[x.target].Description = commentText(tok.Text)
			x.described = true
		}
	case lexer.Number, lexer.StringLiteral:
		x.expect = expectNothing
		x.target = -1
	}
}

func (x *indexer) word(i int, tok lexer.Token) {
	switch x.expect {
	case expectColonName:
		x.define(tok, WordDefinition{
			Name:     tok.Text,
			URI:      x.uri,
			NameSpan: tok.Span,
			BodySpan: lexer.Span{Start: tok.Span.Start, End: tok.Span.End},
			Span:     lexer.Span{Start: x.introStart, End: tok.Span.End},
		})
		x.open = len(x.defs) - 1
		return
	case expectDefinedName:
		x.define(tok, WordDefinition{
			Name:       tok.Text,
			URI:        x.uri,
			NameSpan:   tok.Span,
			BodySpan:   tok.Span,
			Span:       lexer.Span{Start: x.introStart, End: tok.Span.End},
			Terminated: true,
			Defining:   x.introWord,
		})
		return
	}

	x.occs = append(x.occs, WordOccurrence{Name: tok.Text, URI: x.uri, Span: tok.Span, Kind: Use})
	x.expect = expectNothing
	x.target = -1
	if !x.inColon && IsDefiningWord(tok.Text) {
		x.expect = expectDefinedName
		x.introStart, x.introWord, x.introIndex = tok.Span.Start, strings.ToUpper(tok.Text), i
	}
}

func (x *indexer) define(tok lexer.Token, def WordDefinition) {
	def.Description = precedingComments(x.tokens, x.introIndex)
	x.defs = append(x.defs, def)
	x.occs = append(x.occs, WordOccurrence{Name: tok.Text, URI: x.uri, Span: tok.Span, Kind: Definition})
	x.target = len(x.defs) - 1
	x.sameLine = true
	x.described = false
	x.expect = expectStackEffect
}

func (x *indexer) closeUnterminated() {
	if x.open < 0 {
		return
	}
	d := &x.defs[x.open]
	if x.lastEnd > d.BodySpan.End {
		d.BodySpan.End = x.lastEnd
		d.Span.End = x.lastEnd
	}
	d.Terminated = false
	x.open = -1
}

// precedingComments returns the text of the block of line comments directly
// above the token at i, one comment per line with no blank lines between.
func precedingComments(tokens []lexer.Token, i int) string {
	var lines []string
	for j := i - 1; j >= 1; j -= 2 {
		ws, c := tokens[j], tokens[j-1]
		if ws.Kind != lexer.Whitespace || strings.Count(ws.Text, "\n") != 1 || c.Kind != lexer.LineComment {
			break
		}
		// a comment trailing code belongs to that code
		if j-2 >= 0 && !(tokens[j-2].Kind == lexer.Whitespace && strings.Contains(tokens[j-2].Text, "\n")) {
			break
		}
		lines = append(lines, commentText(c.Text))
	}
	slices.Reverse(lines)
	return strings.TrimSpace(strings.Join(lines, " "))
}

func commentText(text string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, `\`))
}
