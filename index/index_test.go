package index

import (
	"testing"

	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURI = lsp.DocumentURI("file:///test.fs")

func span(start, end int) lexer.Span {
	return lexer.Span{Start: start, End: end}
}

func TestIndex(t *testing.T) {
	src := ": add1 ( n -- n )\n  1 +   \\ adds one\n;"
	defs, occs := Index(testURI, lexer.Tokenize(src))
	require.Equal(t, []WordDefinition{{
		Name:        "add1",
		URI:         testURI,
		NameSpan:    span(2, 6),
		BodySpan:    span(2, 38),
		Span:        span(0, 38),
		StackEffect: "( n -- n )",
		Terminated:  true,
	}}, defs)
	require.Equal(t, []WordOccurrence{
		{Name: "add1", URI: testURI, Span: span(2, 6), Kind: Definition},
		{Name: "+", URI: testURI, Span: span(22, 23), Kind: Use},
	}, occs)
}

func TestIndexUnterminated(t *testing.T) {
	src := ": foo 1 2\n: bar foo ;"
	defs, occs := Index(testURI, lexer.Tokenize(src))
	require.Len(t, defs, 2)

	assert.Equal(t, "foo", defs[0].Name)
	assert.False(t, defs[0].Terminated)
	assert.Equal(t, span(2, 9), defs[0].BodySpan)
	assert.Equal(t, span(0, 9), defs[0].Span)

	assert.Equal(t, "bar", defs[1].Name)
	assert.True(t, defs[1].Terminated)
	assert.Equal(t, span(12, 21), defs[1].BodySpan)
	assert.Equal(t, span(10, 21), defs[1].Span)

	require.Equal(t, []WordOccurrence{
		{Name: "foo", URI: testURI, Span: span(2, 5), Kind: Definition},
		{Name: "bar", URI: testURI, Span: span(12, 15), Kind: Definition},
		{Name: "foo", URI: testURI, Span: span(16, 19), Kind: Use},
	}, occs)

	t.Run("at end of input", func(t *testing.T) {
		defs, _ := Index(testURI, lexer.Tokenize(": sq dup *  \n"))
		require.Len(t, defs, 1)
		assert.False(t, defs[0].Terminated)
		assert.Equal(t, span(2, 10), defs[0].BodySpan)
	})

	t.Run("name only", func(t *testing.T) {
		defs, _ := Index(testURI, lexer.Tokenize(": lonely"))
		require.Len(t, defs, 1)
		assert.Equal(t, span(2, 8), defs[0].BodySpan)
	})
}

func TestIndexDefiningWords(t *testing.T) {
	src := "VARIABLE counter \\ hits\n10 CONSTANT ten\n: x counter @ ;"
	defs, occs := Index(testURI, lexer.Tokenize(src))
	require.Equal(t, []WordDefinition{
		{
			Name:        "counter",
			URI:         testURI,
			NameSpan:    span(9, 16),
			BodySpan:    span(9, 16),
			Span:        span(0, 16),
			Description: "hits",
			Terminated:  true,
			Defining:    "VARIABLE",
		},
		{
			Name:       "ten",
			URI:        testURI,
			NameSpan:   span(36, 39),
			BodySpan:   span(36, 39),
			Span:       span(27, 39),
			Terminated: true,
			Defining:   "CONSTANT",
		},
		{
			Name:       "x",
			URI:        testURI,
			NameSpan:   span(42, 43),
			BodySpan:   span(42, 55),
			Span:       span(40, 55),
			Terminated: true,
		},
	}, defs)

	var kinds []string
	for _, o := range occs {
		kinds = append(kinds, o.Name+":"+o.Kind.String())
	}
	require.Equal(t, []string{
		"VARIABLE:Use", "counter:Definition",
		"CONSTANT:Use", "ten:Definition",
		"x:Definition", "counter:Use", "@:Use",
	}, kinds)

	t.Run("inside a colon definition", func(t *testing.T) {
		defs, _ := Index(testURI, lexer.Tokenize(": arr CREATE CELLS ALLOT ;"))
		require.Len(t, defs, 1)
		require.Equal(t, "arr", defs[0].Name)
	})

	t.Run("lower case", func(t *testing.T) {
		defs, _ := Index(testURI, lexer.Tokenize("create buf 10 allot"))
		require.Len(t, defs, 1)
		require.Equal(t, "CREATE", defs[0].Defining)
	})
}

func TestIndexStackEffect(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "same line", src: ": foo ( n -- n ) dup ;", want: "( n -- n )"},
		{name: "next line", src: ": foo\n  ( n -- n )\n  dup ;", want: "( n -- n )"},
		{name: "after blank line", src: ": foo\n\n( a b -- c ) + ;", want: "( a b -- c )"},
		{name: "after word", src: ": foo dup ( n -- n n ) ;", want: ""},
		{name: "after number", src: ": foo 1 ( -- n ) ;", want: ""},
		{name: "defining word", src: "VARIABLE v\n( -- addr )", want: "( -- addr )"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, _ := Index(testURI, lexer.Tokenize(tt.src))
			require.Len(t, defs, 1)
			require.Equal(t, tt.want, defs[0].StackEffect)
		})
	}

	t.Run("description stays on the name line", func(t *testing.T) {
		defs, _ := Index(testURI, lexer.Tokenize(": foo\n  ( n -- n ) \\ not the description\n  dup ;"))
		require.Len(t, defs, 1)
		assert.Equal(t, "( n -- n )", defs[0].StackEffect)
		assert.Equal(t, "", defs[0].Description)
	})
}

func TestIndexDescriptions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "block above", src: "\\ first\n\\ second\n: sq dup * ;", want: "first second"},
		{name: "blank line between", src: "\\ far\n\n: sq dup * ;", want: ""},
		{name: "trailing wins", src: "\\ above\n: sq ( n -- n ) \\ squares\n  dup * ;", want: "squares"},
		{name: "comment after code", src: "1 . \\ print\n: sq dup * ;", want: ""},
		{name: "comment in body", src: ": sq dup \\ not this\n  * ;", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, _ := Index(testURI, lexer.Tokenize(tt.src))
			require.Len(t, defs, 1)
			require.Equal(t, tt.want, defs[0].Description)
		})
	}
}

func TestIndexNameless(t *testing.T) {
	defs, occs := Index(testURI, lexer.Tokenize(": 1 2 ; : ok ;"))
	require.Len(t, defs, 1)
	require.Equal(t, "ok", defs[0].Name)
	require.True(t, defs[0].Terminated)
	require.Len(t, occs, 1)
}

func TestIndexInvariants(t *testing.T) {
	sources := []string{
		": a ; : b a a ; : c",
		"VARIABLE v : f v @ 1+ v ! ; f f",
		": broken ( a -- \n : next ; CREATE",
		"\\ only a comment",
		": x .\" hi\" ; : y s\" unterminated",
	}
	for _, src := range sources {
		tokens := lexer.Tokenize(src)
		defs, occs := Index(testURI, tokens)

		words := 0
		for _, tok := range tokens {
			if tok.Kind == lexer.Word {
				words++
			}
		}
		assert.Len(t, occs, words, src)

		for _, d := range defs {
			assert.True(t, d.NameSpan.Within(d.BodySpan), "%s: %s", src, d.Name)
			assert.True(t, d.BodySpan.Within(d.Span), "%s: %s", src, d.Name)
			assert.True(t, d.Span.Within(span(0, len(src))), "%s: %s", src, d.Name)
		}
	}
}

func TestWordAt(t *testing.T) {
	doc := New(testURI, 1, ": sq dup * ;")
	tests := []struct {
		offset int
		want   string
	}{
		{offset: 0},
		{offset: 1},
		{offset: 2, want: "sq"},
		{offset: 4, want: "sq"},
		{offset: 5, want: "dup"},
		{offset: 8, want: "dup"},
		{offset: 9, want: "*"},
		{offset: 11},
		{offset: 12},
	}
	for _, tt := range tests {
		tok, ok := doc.WordAt(tt.offset)
		if tt.want == "" {
			assert.False(t, ok, "offset %d", tt.offset)
			continue
		}
		if assert.True(t, ok, "offset %d", tt.offset) {
			assert.Equal(t, tt.want, tok.Text, "offset %d", tt.offset)
		}
	}

	tok, ok := doc.TokenAt(11)
	require.True(t, ok)
	require.Equal(t, lexer.Semicolon, tok.Kind)
	_, ok = doc.TokenAt(12)
	require.False(t, ok)
}
