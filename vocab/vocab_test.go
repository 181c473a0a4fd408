package vocab

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corymhall/forthlsp/config"
	"github.com/hexops/autogold/v2"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := New(config.CaseInsensitive, Defaults()...)
	require.Greater(t, v.Len(), 150)

	dup, ok := v.Lookup("dup")
	require.True(t, ok)
	require.Equal(t, Default, dup.Source)
	autogold.Expect("# `DUP`   `( x -- x x )`\n\nDuplicate x.").Equal(t, dup.Documentation())

	_, ok = New(config.CaseSensitive, Defaults()...).Lookup("dup")
	require.False(t, ok)
}

func TestParseWords(t *testing.T) {
	src := `
SQUARE
/square
( n -- n*n )
Multiply n by itself.
Second line.

LONELY
`
	words, err := ParseWords(strings.NewReader(src), FileImport)
	require.NoError(t, err)
	autogold.Expect([]Word{
		{
			Name:        "SQUARE",
			DocID:       "/square",
			StackEffect: "( n -- n*n )",
			Description: "Multiply n by itself. Second line.",
			Source:      FileImport,
		},
		{
			Name:   "LONELY",
			Source: FileImport,
		},
	}).Equal(t, words)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.txt"), []byte("DUP\n/dup\n( a -- a a )\nFrom a file.\n\nTUCK\n/tuck\n( a b -- b a b )\nTuck.\n"), 0o600))

	cfg := config.Default()
	cfg.Dir = dir
	cfg.Builtin.WordFiles = []string{"extra.txt", "missing.txt"}
	cfg.Builtin.Words = []config.CustomWord{
		{Word: "tuck", Stack: "( x y -- y x y )", Description: "Inline."},
	}

	v, err := Load(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing.txt")
	require.NotNil(t, v)

	dup, ok := v.Lookup("DUP")
	require.True(t, ok)
	require.Equal(t, FileImport, dup.Source)
	require.Equal(t, "( a -- a a )", dup.StackEffect)

	tuck, ok := v.Lookup("TUCK")
	require.True(t, ok)
	require.Equal(t, InlineConfig, tuck.Source)
	require.Equal(t, "Inline.", tuck.Description)

	swap, ok := v.Lookup("swap")
	require.True(t, ok)
	require.Equal(t, Default, swap.Source)
}

func TestNewKeepsHigherSource(t *testing.T) {
	v := New(config.CaseInsensitive,
		Word{Name: "FOO", Description: "inline", Source: InlineConfig},
		Word{Name: "foo", Description: "file", Source: FileImport},
		Word{Name: ""},
	)
	require.Equal(t, 1, v.Len())
	foo, ok := v.Lookup("Foo")
	require.True(t, ok)
	require.Equal(t, "inline", foo.Description)
	require.Len(t, v.Words(), 1)
}
