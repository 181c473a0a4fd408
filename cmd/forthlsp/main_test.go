package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/corymhall/forthlsp/config"
	"github.com/fatih/color"
	"github.com/hexops/autogold/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	}
	return dir
}

func TestCheck(t *testing.T) {
	color.NoColor = true
	dir := writeFiles(t, map[string]string{
		"lib.fs":         ": square dup * ;",
		"main.fs":        "3 square cube .\n: open 1",
		"notes.md":       "undefined words here",
		".hidden/old.fs": "nothing-here",
	})
	cfg := config.Default()
	cfg.Diagnostics.UnterminatedDefinitions = true

	var out bytes.Buffer
	problems, err := check(&out, cfg, []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, problems)
	mainPath := filepath.Join(dir, "main.fs")
	assert.Equal(t, mainPath+":1:10: warning: undefined word: `cube`\n"+
		mainPath+":2:3: info: unterminated definition: `open`\n", out.String())
}

func TestCheckClean(t *testing.T) {
	dir := writeFiles(t, map[string]string{"ok.fs": ": one 1 ;\none ."})
	var out bytes.Buffer
	problems, err := check(&out, config.Default(), []string{filepath.Join(dir, "ok.fs")})
	require.NoError(t, err)
	assert.Zero(t, problems)
	assert.Empty(t, out.String())
}

func TestFormatFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.fs": ": square\ndup * ;\n"})
	path := filepath.Join(dir, "main.fs")
	cfg := config.Default().Format

	var out bytes.Buffer
	require.NoError(t, formatFile(&out, path, cfg))
	autogold.Expect(": square\n  dup * ;\n").Equal(t, out.String())

	fmtWrite, fmtList = true, true
	t.Cleanup(func() { fmtWrite, fmtList = false, false })
	out.Reset()
	require.NoError(t, formatFile(&out, path, cfg))
	assert.Equal(t, path+"\n", out.String())
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ": square\n  dup * ;\n", string(written))

	// formatted files are listed no more
	out.Reset()
	require.NoError(t, formatFile(&out, path, cfg))
	assert.Empty(t, out.String())
}
