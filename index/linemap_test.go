package index

import (
	"testing"

	"github.com/corymhall/forthlsp/lsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(line, char int32) lsp.Position {
	return lsp.Position{Line: line, Character: char}
}

func TestLineMap(t *testing.T) {
	// é is 2 bytes and 1 UTF-16 unit, 😀 is 4 bytes and 2 units
	m := NewLineMap("aé😀b\nx")
	require.Equal(t, 2, m.LineCount())

	assert.Equal(t, pos(0, 0), m.Position(0))
	assert.Equal(t, pos(0, 1), m.Position(1))
	assert.Equal(t, pos(0, 1), m.Position(2), "inside a rune")
	assert.Equal(t, pos(0, 2), m.Position(3))
	assert.Equal(t, pos(0, 4), m.Position(7))
	assert.Equal(t, pos(0, 5), m.Position(8))
	assert.Equal(t, pos(1, 0), m.Position(9))
	assert.Equal(t, pos(1, 1), m.Position(10))
	assert.Equal(t, pos(1, 1), m.Position(99))

	assert.Equal(t, 7, m.Offset(pos(0, 4)))
	assert.Equal(t, 3, m.Offset(pos(0, 3)), "inside a surrogate pair")
	assert.Equal(t, 8, m.Offset(pos(0, 100)))
	assert.Equal(t, 9, m.Offset(pos(1, 0)))
	assert.Equal(t, 10, m.Offset(pos(5, 0)))
	assert.Equal(t, 0, m.Offset(pos(-1, 3)))

	for _, offset := range []int{0, 1, 3, 7, 8, 9, 10} {
		assert.Equal(t, offset, m.Offset(m.Position(offset)), "round trip %d", offset)
	}

	t.Run("carriage returns", func(t *testing.T) {
		m := NewLineMap("ab\r\ncd")
		assert.Equal(t, 2, m.Offset(pos(0, 10)))
		assert.Equal(t, pos(1, 0), m.Position(4))
		assert.Equal(t, 4, m.LineStart(1))
	})
}

func TestApplyChanges(t *testing.T) {
	rng := func(sl, sc, el, ec int32) *lsp.Range {
		return &lsp.Range{Start: pos(sl, sc), End: pos(el, ec)}
	}

	text, err := ApplyChanges("hello\nworld", []lsp.TextDocumentContentChangeEvent{
		{Range: rng(1, 0, 1, 5), Text: "there"},
		{Range: rng(0, 5, 0, 5), Text: ","},
		{Range: rng(1, 5, 1, 5), Text: " 😀!"},
		{Range: rng(1, 8, 1, 9), Text: "?"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello,\nthere 😀?", text)

	text, err = ApplyChanges(text, []lsp.TextDocumentContentChangeEvent{
		{Text: ": sq dup * ;"},
		{Range: rng(0, 2, 0, 4), Text: "square"},
	})
	require.NoError(t, err)
	require.Equal(t, ": square dup * ;", text)

	doc := New(testURI, 2, text)
	tok, ok := doc.WordAtPosition(pos(0, 5))
	require.True(t, ok)
	require.Equal(t, "square", tok.Text)

	_, err = ApplyChanges(text, []lsp.TextDocumentContentChangeEvent{
		{Range: rng(0, 4, 0, 2), Text: "x"},
	})
	require.ErrorContains(t, err, "end before start")
}
