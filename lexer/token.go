// Package lexer turns Forth source text into a sequence of position tagged
// tokens. Tokenizing never fails: malformed input such as an unterminated
// comment or string produces a token that runs to the end of the input.
package lexer

import "fmt"

// Kind is the closed set of token kinds.
type Kind int

const (
	Whitespace Kind = iota
	Colon
	Semicolon
	Word
	Number
	StringLiteral
	StackComment
	LineComment
)

func (k Kind) String() string {
	switch k {
	case Whitespace:
		return "Whitespace"
	case Colon:
		return "Colon"
	case Semicolon:
		return "Semicolon"
	case Word:
		return "Word"
	case Number:
		return "Number"
	case StringLiteral:
		return "StringLiteral"
	case StackComment:
		return "StackComment"
	case LineComment:
		return "LineComment"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Span is a half-open range of byte offsets into the source text.
type Span struct {
	Start int
	End   int
}

// Len is the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset < s.End
}

// Within reports whether s lies entirely inside other.
func (s Span) Within(other Span) bool {
	return other.Start <= s.Start && s.End <= other.End
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Value is the parsed value of a numeric literal.
type Value struct {
	Int     int64
	Float   float64
	IsFloat bool
}

// Token is a single lexical element of the source.
type Token struct {
	Kind Kind
	Span Span
	// Text is the exact source text covered by Span.
	Text string
	// Value is only set for Number tokens.
	Value Value
	// Unterminated is set on comments and strings that ran to the end of
	// the input without finding their closing delimiter.
	Unterminated bool
}

func (t Token) String() string {
	if t.Kind == Whitespace {
		return fmt.Sprintf("%s%s", t.Kind, t.Span)
	}
	return fmt.Sprintf("%s(%q)%s", t.Kind, t.Text, t.Span)
}
