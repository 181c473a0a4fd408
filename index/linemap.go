package index

import (
	"sort"
	"unicode/utf8"

	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
)

// LineMap converts between byte offsets and LSP positions for one text.
// Columns are counted in UTF-16 code units.
type LineMap struct {
	text   string
	starts []int
}

func NewLineMap(text string) *LineMap {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineMap{text: text, starts: starts}
}

// LineCount is the number of lines, counting a trailing empty line.
func (m *LineMap) LineCount() int {
	return len(m.starts)
}

// LineStart returns the offset of the first byte of line. Lines past the
// end clamp to the end of the text.
func (m *LineMap) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(m.starts) {
		return len(m.text)
	}
	return m.starts[line]
}

// lineEnd is the offset of the line break ending line, not counting a
// carriage return before it.
func (m *LineMap) lineEnd(line int) int {
	end := len(m.text)
	if line+1 < len(m.starts) {
		end = m.starts[line+1] - 1
	}
	if end > m.starts[line] && m.text[end-1] == '\r' {
		end--
	}
	return end
}

// Line returns the zero based line holding offset.
func (m *LineMap) Line(offset int) int {
	offset = m.clamp(offset)
	return sort.Search(len(m.starts), func(i int) bool {
		return m.starts[i] > offset
	}) - 1
}

func (m *LineMap) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(m.text) {
		return len(m.text)
	}
	// never split a rune
	for offset < len(m.text) && offset > 0 && !utf8.RuneStart(m.text[offset]) {
		offset--
	}
	return offset
}

// Position converts a byte offset to a position.
func (m *LineMap) Position(offset int) lsp.Position {
	offset = m.clamp(offset)
	line := m.Line(offset)
	col := 0
	for _, r := range m.text[m.starts[line]:offset] {
		col += utf16Len(r)
	}
	return lsp.Position{Line: int32(line), Character: int32(col)}
}

// Offset converts a position to a byte offset. Lines past the end clamp to
// the end of the text and characters past the end of a line clamp to the
// end of that line.
func (m *LineMap) Offset(pos lsp.Position) int {
	line := int(pos.Line)
	if line < 0 {
		return 0
	}
	if line >= len(m.starts) {
		return len(m.text)
	}
	start, end := m.starts[line], m.lineEnd(line)
	want := int(pos.Character)
	col := 0
	for i, r := range m.text[start:end] {
		n := utf16Len(r)
		if col+n > want {
			return start + i
		}
		col += n
	}
	return end
}

// Range converts a span to a range.
func (m *LineMap) Range(span lexer.Span) lsp.Range {
	return lsp.Range{
		Start: m.Position(span.Start),
		End:   m.Position(span.End),
	}
}

func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
