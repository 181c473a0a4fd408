package index

import (
	"fmt"

	"github.com/corymhall/forthlsp/lsp"
)

// ApplyChanges applies content changes to text in order. A change without a
// range replaces the whole text, a ranged change is spliced in at the
// offsets of the text as it stands after the previous changes.
func ApplyChanges(text string, changes []lsp.TextDocumentContentChangeEvent) (string, error) {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		m := NewLineMap(text)
		start, end := m.Offset(change.Range.Start), m.Offset(change.Range.End)
		if start > end {
			return "", fmt.Errorf("invalid range %d:%d-%d:%d: end before start",
				change.Range.Start.Line, change.Range.Start.Character,
				change.Range.End.Line, change.Range.End.Character)
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text, nil
}
