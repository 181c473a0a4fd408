package format

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/lexer"
	"github.com/hexops/autogold/v2"
	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {
	cfg := config.Default().Format
	tabs := cfg
	tabs.UseSpaces = false
	control := cfg
	control.IndentControlStructures = true

	tests := []struct {
		name string
		cfg  config.FormatConfig
		src  string
		want autogold.Value
	}{
		{
			name: "definition body",
			cfg:  cfg,
			src:  ": add1 ( n -- n )\n1 +   \\ adds one   \n   ;",
			want: autogold.Expect(": add1 ( n -- n )\n  1 +   \\ adds one\n;"),
		},
		{
			name: "trailing whitespace",
			cfg:  cfg,
			src:  "1 2 +   \n\n\n  3   ",
			want: autogold.Expect("1 2 +\n\n\n3"),
		},
		{
			name: "final newline kept",
			cfg:  cfg,
			src:  ": x ;  \n\n",
			want: autogold.Expect(": x ;\n"),
		},
		{
			name: "leading whitespace",
			cfg:  cfg,
			src:  "   : x ;",
			want: autogold.Expect(": x ;"),
		},
		{
			name: "tabs",
			cfg:  tabs,
			src:  ": x\n    dup\n;",
			want: autogold.Expect(": x\n\tdup\n;"),
		},
		{
			name: "crlf",
			cfg:  cfg,
			src:  ": x  \r\ndup\r\n;\r\n",
			want: autogold.Expect(": x\r\n  dup\r\n;\r\n"),
		},
		{
			name: "unterminated definition",
			cfg:  cfg,
			src:  ": a\n1\n: b\n2\n;\n3",
			want: autogold.Expect(": a\n  1\n: b\n  2\n;\n3"),
		},
		{
			name: "control structures off",
			cfg:  cfg,
			src:  ": abs\ndup 0< if\nnegate\nthen\n;",
			want: autogold.Expect(": abs\n  dup 0< if\n  negate\n  then\n;"),
		},
		{
			name: "if else then",
			cfg:  control,
			src:  ": t\nif\na\nelse\nb\nthen\n;",
			want: autogold.Expect(": t\n  if\n    a\n  else\n    b\n  then\n;"),
		},
		{
			name: "begin while repeat",
			cfg:  control,
			src:  ": count\nbegin\ndup\nwhile\n1-\nrepeat\n;",
			want: autogold.Expect(": count\n  begin\n    dup\n  while\n    1-\n  repeat\n;"),
		},
		{
			name: "nested loops",
			cfg:  control,
			src:  ": grid\n10 0 do\n10 0 do\ni j *\nloop\nloop\n;\nif\n1\nthen",
			want: autogold.Expect(": grid\n  10 0 do\n    10 0 do\n      i j *\n    loop\n  loop\n;\nif\n1\nthen"),
		},
		{
			name: "multi-line comment untouched",
			cfg:  cfg,
			src:  ": x ( a\n   b -- c )\ndup ;",
			want: autogold.Expect(": x ( a\n   b -- c )\n  dup ;"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want.Equal(t, Source(tt.src, tt.cfg))
		})
	}
}

func TestFormatKeepsCode(t *testing.T) {
	src := "\\ header   \n: sq ( n -- n*n )   dup *  ;\n  VARIABLE  v\n.\" spaced   string\"   \n 1e 'a' $ff"
	got := Source(src, config.Default().Format)

	significant := func(s string) []string {
		var out []string
		for _, tok := range lexer.Tokenize(s) {
			if tok.Kind != lexer.Whitespace {
				out = append(out, strings.TrimRight(tok.Text, " "))
			}
		}
		return out
	}
	require.Equal(t, significant(src), significant(got))
	require.NotContains(t, got, " \n")
}

func TestFormatEmpty(t *testing.T) {
	require.Equal(t, "", Source("", config.Default().Format))
	require.Equal(t, "", Source("   ", config.Default().Format))
	require.Equal(t, "\n", Source(" \n ", config.Default().Format))
}

var fragments = []string{
	":", ";", " ", "  ", "\n", "\r\n", "\r", "\t", "\f", "\v",
	"( n -- n )", "(", ")", "\\", "\\ c", `."`, `"`, "dup", "foo", "1",
	"IF", "ELSE", "THEN", "DO", "LOOP", "BEGIN", "UNTIL", "CASE", "OF", "ENDOF", "ENDCASE",
}

func randomSource(r *rand.Rand) string {
	var b strings.Builder
	for range r.IntN(40) {
		b.WriteString(fragments[r.IntN(len(fragments))])
		if r.IntN(3) == 0 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func TestFormatIdempotent(t *testing.T) {
	spaces := config.Default().Format
	tabs := spaces
	tabs.UseSpaces = false
	control := spaces
	control.IndentControlStructures = true

	r := rand.New(rand.NewPCG(3, 4))
	for range 3000 {
		src := randomSource(r)
		for _, cfg := range []config.FormatConfig{spaces, tabs, control} {
			once := Source(src, cfg)
			require.Equal(t, once, Source(once, cfg), "formatting %q", src)
		}
	}

	t.Run("carriage return before comment end", func(t *testing.T) {
		once := Source("\\ c : \r  \n: x ;", spaces)
		require.Equal(t, "\\ c :\n: x ;", once)
		require.Equal(t, once, Source(once, spaces))
	})
}
