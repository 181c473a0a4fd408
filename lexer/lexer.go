package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// stringWords are the parsing words that read a string literal up to the next
// double quote. They are matched against a whole whitespace delimited run,
// ignoring case.
var stringWords = map[string]bool{
	`."`:     true,
	`S"`:     true,
	`C"`:     true,
	`ABORT"`: true,
	`S\"`:    true,
	`,"`:     true,
}

// Tokenize splits src into tokens. The concatenated Text of the returned
// tokens is always equal to src.
func Tokenize(src string) []Token {
	l := &lexer{src: src}
	for l.pos < len(l.src) {
		l.next()
	}
	return l.tokens
}

type lexer struct {
	src    string
	pos    int
	tokens []Token
}

func (l *lexer) emit(kind Kind, end int) {
	l.tokens = append(l.tokens, Token{
		Kind: kind,
		Span: Span{Start: l.pos, End: end},
		Text: l.src[l.pos:end],
	})
	l.pos = end
}

func (l *lexer) next() {
	if isSpace(l.src[l.pos]) {
		end := l.pos
		for end < len(l.src) && isSpace(l.src[end]) {
			end++
		}
		l.emit(Whitespace, end)
		return
	}

	runEnd := l.pos
	for runEnd < len(l.src) && !isSpace(l.src[runEnd]) {
		runEnd++
	}
	run := l.src[l.pos:runEnd]

	switch {
	case run[0] == '\\':
		l.emit(LineComment, l.lineEnd())
	case run == "(":
		l.delimited(StackComment, runEnd, ')', false)
	case run == ".(":
		l.delimited(StringLiteral, runEnd, ')', false)
	case run[0] == '"':
		l.delimited(StringLiteral, l.pos+1, '"', false)
	case stringWords[strings.ToUpper(run)]:
		l.delimited(StringLiteral, runEnd, '"', strings.EqualFold(run, `S\"`))
	case run[0] == ':' && !strings.EqualFold(run, ":noname"):
		l.emit(Colon, l.pos+1)
	case run[0] == ';':
		l.emit(Semicolon, l.pos+1)
	case len(run) > 1 && run[len(run)-1] == ';':
		// foo; is foo followed by a semicolon, picked up by the next call
		l.word(runEnd - 1)
	default:
		l.word(runEnd)
	}
}

// lineEnd is the end of the current line, excluding the line break.
func (l *lexer) lineEnd() int {
	end := len(l.src)
	if i := strings.IndexByte(l.src[l.pos:], '\n'); i >= 0 {
		end = l.pos + i
	}
	if end-1 > l.pos && l.src[end-1] == '\r' {
		end--
	}
	return end
}

// delimited emits a token running from the current position to just past
// the first delim at or after from, or to the end of input when there is
// none.
func (l *lexer) delimited(kind Kind, from int, delim byte, escapes bool) {
	for i := from; i < len(l.src); i++ {
		switch l.src[i] {
		case '\\':
			if escapes {
				i++
			}
		case delim:
			l.emit(kind, i+1)
			return
		}
	}
	l.emit(kind, len(l.src))
	l.tokens[len(l.tokens)-1].Unterminated = true
}

func (l *lexer) word(end int) {
	text := l.src[l.pos:end]
	if v, ok := ParseNumber(text); ok {
		l.emit(Number, end)
		l.tokens[len(l.tokens)-1].Value = v
		return
	}
	l.emit(Word, end)
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// ParseNumber parses text as a Forth numeric literal. Recognized forms are
// decimal integers, the radix prefixes # (decimal), $ (hex), % (binary), & (decimal)
// and 0x (hex), an optional leading minus sign before or after the prefix, a
// trailing . marking a double cell number, character literals like 'a' and
// decimal floats with an exponent marker like 1e or 1.5E-3.
func ParseNumber(text string) (Value, bool) {
	if len(text) >= 3 && text[0] == '\'' && text[len(text)-1] == '\'' {
		r, size := utf8.DecodeRuneInString(text[1:])
		if size == len(text)-2 && r != utf8.RuneError {
			return Value{Int: int64(r)}, true
		}
		return Value{}, false
	}

	body := text
	neg := false
	if strings.HasPrefix(body, "-") {
		neg = true
		body = body[1:]
	}

	base := 10
	prefixed := true
	switch {
	case strings.HasPrefix(body, "#"), strings.HasPrefix(body, "&"):
		body = body[1:]
	case strings.HasPrefix(body, "$"):
		base, body = 16, body[1:]
	case strings.HasPrefix(body, "%"):
		base, body = 2, body[1:]
	case strings.HasPrefix(body, "0x"), strings.HasPrefix(body, "0X"):
		base, body = 16, body[2:]
	default:
		prefixed = false
	}
	if prefixed && !neg && strings.HasPrefix(body, "-") {
		neg = true
		body = body[1:]
	}

	if !prefixed && strings.ContainsAny(body, "eE") {
		f, ok := parseFloat(body)
		if !ok {
			return Value{}, false
		}
		if neg {
			f = -f
		}
		return Value{Float: f, IsFloat: true}, true
	}

	body = strings.TrimSuffix(body, ".")
	if body == "" || body[0] == '+' || body[0] == '-' {
		return Value{}, false
	}
	u, err := strconv.ParseUint(body, base, 64)
	if err != nil {
		return Value{}, false
	}
	v := int64(u)
	if neg {
		v = -v
	}
	return Value{Int: v}, true
}

// parseFloat accepts digits, an optional fraction and an exponent marker
// with an optional signed exponent. A bare marker means an exponent of 0.
func parseFloat(body string) (float64, bool) {
	mark := strings.IndexAny(body, "eE")
	mantissa, exp := body[:mark], body[mark+1:]
	if mantissa == "" || strings.Count(mantissa, ".") > 1 || mantissa == "." {
		return 0, false
	}
	for _, c := range mantissa {
		if (c < '0' || c > '9') && c != '.' {
			return 0, false
		}
	}
	digits := strings.TrimLeft(exp, "+-")
	if len(exp)-len(digits) > 1 {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	if digits == "" {
		exp = "0"
	}
	f, err := strconv.ParseFloat(mantissa+"e"+exp, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
