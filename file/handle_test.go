package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/corymhall/forthlsp/lsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.fs")
	require.NoError(t, os.WriteFile(path, []byte(": a ;"), 0o644))

	fh, err := Read(context.Background(), lsp.URIFromPath(path))
	require.NoError(t, err)
	content, err := fh.Content()
	require.NoError(t, err)
	assert.Equal(t, ": a ;", string(content))
	assert.Equal(t, HashOf([]byte(": a ;")), fh.Hash())
	assert.False(t, fh.Overlay())

	missing := MustRead(lsp.URIFromPath(filepath.Join(dir, "missing.fs")))
	_, err = missing.Content()
	assert.ErrorIs(t, err, os.ErrNotExist)

	untitled := MustRead("untitled:Untitled-1")
	_, err = untitled.Content()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for range cap(ioLimit) {
		ioLimit <- struct{}{}
	}
	defer func() {
		for range cap(ioLimit) {
			<-ioLimit
		}
	}()
	_, err := Read(ctx, lsp.URIFromPath("/tmp/a.fs"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuffer(t *testing.T) {
	b := NewBuffer("file:///a.fs", 3, []byte("1 2 +"))
	assert.True(t, b.Overlay())
	assert.Equal(t, int32(3), b.Version())
	assert.Equal(t, "1 2 +", b.Text())
	assert.NotEqual(t, b.Hash(), NewBuffer("file:///a.fs", 3, []byte("1 2 -")).Hash())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "Save", Save.String())
	assert.Equal(t, "Action(42)", Action(42).String())
}
