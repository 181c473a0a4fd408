// Package format re-indents Forth source. Only the whitespace that starts a
// line is rewritten, everything else is kept byte for byte apart from
// trailing whitespace, which is dropped.
package format

import (
	"strings"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/lexer"
)

var (
	openers = map[string]bool{
		"IF": true, "DO": true, "?DO": true, "BEGIN": true, "CASE": true, "OF": true,
	}
	closers = map[string]bool{
		"THEN": true, "LOOP": true, "+LOOP": true, "UNTIL": true, "AGAIN": true,
		"REPEAT": true, "ENDCASE": true, "ENDOF": true,
	}
	// middles sit one level out like a closer without changing the depth
	middles = map[string]bool{
		"ELSE": true, "WHILE": true,
	}
)

// Source formats text.
func Source(text string, cfg config.FormatConfig) string {
	return Format(lexer.Tokenize(text), cfg)
}

// Format renders tokens with every line indented by its nesting depth. The
// body of a colon definition is one level deep, and with
// IndentControlStructures the bodies of IF, DO, BEGIN and CASE constructs
// nest further. Formatting is idempotent.
func Format(tokens []lexer.Token, cfg config.FormatConfig) string {
	f := &formatter{cfg: cfg}
	var b strings.Builder
	for i, tok := range tokens {
		last := i == len(tokens)-1
		switch {
		case tok.Kind == lexer.Whitespace && last:
			if n := strings.Count(tok.Text, "\n"); n > 0 {
				b.WriteString(newline(tok.Text))
			}
		case tok.Kind == lexer.Whitespace && (i == 0 || strings.Contains(tok.Text, "\n")):
			nl := newline(tok.Text)
			for range strings.Count(tok.Text, "\n") {
				b.WriteString(nl)
			}
			b.WriteString(f.indent(tokens[i+1]))
		case tok.Kind == lexer.LineComment:
			b.WriteString(strings.TrimRight(tok.Text, lineSpace))
		default:
			b.WriteString(tok.Text)
			f.advance(tok)
		}
	}
	return b.String()
}

// lineSpace is the whitespace the lexer separates tokens with, minus the
// newline that ends a line comment.
const lineSpace = " \t\r\f\v"

func newline(ws string) string {
	if strings.Contains(ws, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

type formatter struct {
	cfg   config.FormatConfig
	depth int
	inDef bool
}

// indent returns the indentation of a line starting with first.
func (f *formatter) indent(first lexer.Token) string {
	depth := f.depth
	switch {
	case first.Kind == lexer.Colon:
		depth = 0
	case first.Kind == lexer.Semicolon:
		depth--
	case f.controls() && first.Kind == lexer.Word:
		name := strings.ToUpper(first.Text)
		if closers[name] || middles[name] {
			depth--
		}
	}
	if depth <= 0 {
		return ""
	}
	if !f.cfg.UseSpaces {
		return strings.Repeat("\t", depth)
	}
	return strings.Repeat(" ", depth*int(f.cfg.IndentWidth))
}

func (f *formatter) controls() bool {
	return f.cfg.IndentControlStructures && f.inDef
}

func (f *formatter) advance(tok lexer.Token) {
	switch tok.Kind {
	case lexer.Colon:
		f.depth, f.inDef = 1, true
	case lexer.Semicolon:
		f.depth, f.inDef = 0, false
	case lexer.Word:
		if !f.controls() {
			return
		}
		name := strings.ToUpper(tok.Text)
		switch {
		case openers[name]:
			f.depth++
		case closers[name] && f.depth > 1:
			f.depth--
		}
	}
}
