package resolve

import (
	"strings"

	"github.com/corymhall/forthlsp/index"
	"github.com/corymhall/forthlsp/lexer"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/vocab"
	"github.com/corymhall/forthlsp/workspace"
	"github.com/pulumi/pulumi/sdk/v3/go/common/util/contract"
)

// Token types and modifiers, in legend order.
const (
	tokenKeyword uint32 = iota
	tokenFunction
	tokenComment
	tokenNumber
	tokenVariable
	tokenString
)

const (
	modDefinition uint32 = 1 << iota
	modDefaultLibrary
)

// Legend is advertised in the server capabilities and indexes the encoded
// token types and modifiers.
var Legend = lsp.SemanticTokensLegend{
	TokenTypes:     []string{"keyword", "function", "comment", "number", "variable", "string"},
	TokenModifiers: []string{"definition", "defaultLibrary"},
}

var controlWords = map[string]bool{
	"IF": true, "ELSE": true, "THEN": true,
	"DO": true, "?DO": true, "LOOP": true, "+LOOP": true, "LEAVE": true, "UNLOOP": true,
	"BEGIN": true, "UNTIL": true, "AGAIN": true, "WHILE": true, "REPEAT": true,
	"CASE": true, "OF": true, "ENDOF": true, "ENDCASE": true,
	"EXIT": true, "RECURSE": true, "DOES>": true,
}

// IsControlWord reports whether name is a control flow word.
func IsControlWord(name string) bool {
	return controlWords[strings.ToUpper(name)]
}

// SemanticTokens classifies every non-whitespace token of uri.
func SemanticTokens(v *vocab.Vocabulary, x *workspace.Index, uri lsp.DocumentURI) (*lsp.SemanticTokens, error) {
	doc, err := x.Document(uri)
	if err != nil {
		return nil, err
	}

	kinds := make(map[int]index.OccurrenceKind, len(doc.Occurrences))
	for _, occ := range doc.Occurrences {
		kinds[occ.Span.Start] = occ.Kind
	}
	defining := make(map[int]string, len(doc.Definitions))
	for _, def := range doc.Definitions {
		defining[def.NameSpan.Start] = def.Defining
	}

	enc := &tokenEncoder{lines: doc.Lines}
	for _, tok := range doc.Tokens {
		switch tok.Kind {
		case lexer.Whitespace:
		case lexer.Colon, lexer.Semicolon:
			enc.add(tok.Span, tokenKeyword, 0)
		case lexer.LineComment, lexer.StackComment:
			enc.add(tok.Span, tokenComment, 0)
		case lexer.Number:
			enc.add(tok.Span, tokenNumber, 0)
		case lexer.StringLiteral:
			enc.add(tok.Span, tokenString, 0)
		case lexer.Word:
			typ, mods := classifyWord(v, x, tok, kinds[tok.Span.Start], defining[tok.Span.Start])
			enc.add(tok.Span, typ, mods)
		default:
			contract.Failf("unexpected token kind %v", tok.Kind)
		}
	}
	return &lsp.SemanticTokens{Data: enc.data}, nil
}

func classifyWord(v *vocab.Vocabulary, x *workspace.Index, tok lexer.Token, kind index.OccurrenceKind, defining string) (uint32, uint32) {
	if kind == index.Definition {
		if defining == "" {
			return tokenFunction, modDefinition
		}
		return tokenVariable, modDefinition
	}
	if index.IsDefiningWord(tok.Text) || IsControlWord(tok.Text) {
		return tokenKeyword, 0
	}
	if defs := x.LookupDefinitions(tok.Text); len(defs) > 0 {
		if isVariable(defs[0].Defining) || isConstant(defs[0].Defining) {
			return tokenVariable, 0
		}
		return tokenFunction, 0
	}
	if _, ok := v.Lookup(tok.Text); ok {
		return tokenFunction, modDefaultLibrary
	}
	return tokenFunction, 0
}

// tokenEncoder writes tokens in the relative encoding, splitting tokens
// that span several lines.
type tokenEncoder struct {
	lines     *index.LineMap
	data      []uint32
	prevLine  uint32
	prevStart uint32
}

func (e *tokenEncoder) add(span lexer.Span, typ, mods uint32) {
	start, end := e.lines.Position(span.Start), e.lines.Position(span.End)
	for line := start.Line; line <= end.Line; line++ {
		from, to := int32(0), end.Character
		if line == start.Line {
			from = start.Character
		}
		if line != end.Line {
			// up to the line break
			to = e.lines.Position(e.lines.LineStart(int(line)+1) - 1).Character
		}
		if to > from {
			e.emit(uint32(line), uint32(from), uint32(to-from), typ, mods)
		}
	}
}

func (e *tokenEncoder) emit(line, start, length, typ, mods uint32) {
	deltaStart := start
	if line == e.prevLine {
		deltaStart = start - e.prevStart
	}
	e.data = append(e.data, line-e.prevLine, deltaStart, length, typ, mods)
	e.prevLine, e.prevStart = line, start
}
