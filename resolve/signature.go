package resolve

import (
	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/vocab"
	"github.com/corymhall/forthlsp/workspace"
)

// SignatureHelp shows the stack effect of the nearest word on the current
// line that starts before pos and has a known stack effect.
func SignatureHelp(v *vocab.Vocabulary, x *workspace.Index, uri lsp.DocumentURI, pos lsp.Position) (*lsp.SignatureHelp, error) {
	doc, err := x.Document(uri)
	if err != nil {
		return nil, err
	}
	offset := doc.Lines.Offset(pos)
	lineStart := doc.Lines.LineStart(int(pos.Line))

	for i := min(doc.TokenIndex(offset), len(doc.Tokens)-1); i >= 0; i-- {
		tok := doc.Tokens[i]
		if tok.Span.End <= lineStart {
			break
		}
		if tok.Kind != lexer.Word || tok.Span.Start >= offset {
			continue
		}
		name, stack, desc := signatureOf(v, x, tok.Text)
		if stack == "" {
			continue
		}
		sig := lsp.SignatureInformation{Label: name + " " + stack}
		if desc != "" {
			sig.Documentation = markdown(desc)
		}
		return &lsp.SignatureHelp{Signatures: []lsp.SignatureInformation{sig}}, nil
	}
	return nil, nil
}

// signatureOf looks name up in the workspace and then the builtins. A word
// with user definitions never falls back to the builtin of the same name.
func signatureOf(v *vocab.Vocabulary, x *workspace.Index, name string) (string, string, string) {
	if defs := x.LookupDefinitions(name); len(defs) > 0 {
		for _, def := range defs {
			if def.StackEffect != "" {
				return def.Name, def.StackEffect, def.Description
			}
		}
		return name, "", ""
	}
	if w, ok := v.Lookup(name); ok {
		return w.Name, w.StackEffect, w.Description
	}
	return name, "", ""
}
