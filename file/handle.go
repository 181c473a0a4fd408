package file

import (
	"context"
	"os"

	"github.com/corymhall/forthlsp/lsp"
)

// A Buffer holds the text of a document open in the editor.
type Buffer struct {
	uri     lsp.DocumentURI
	version int32
	text    []byte
	hash    Hash
}

func NewBuffer(uri lsp.DocumentURI, version int32, text []byte) *Buffer {
	return &Buffer{uri: uri, version: version, text: text, hash: HashOf(text)}
}

func (b *Buffer) URI() lsp.DocumentURI     { return b.uri }
func (b *Buffer) Version() int32           { return b.version }
func (b *Buffer) Content() ([]byte, error) { return b.text, nil }
func (b *Buffer) Hash() Hash               { return b.hash }
func (b *Buffer) Overlay() bool            { return true }

// Text returns the buffer contents as a string.
func (b *Buffer) Text() string { return string(b.text) }

// A diskFile is a file read from the file system, or the failure to read
// it.
type diskFile struct {
	uri     lsp.DocumentURI
	content []byte
	hash    Hash
	err     error
}

func (d *diskFile) URI() lsp.DocumentURI     { return d.uri }
func (d *diskFile) Version() int32           { return 0 }
func (d *diskFile) Content() ([]byte, error) { return d.content, d.err }
func (d *diskFile) Hash() Hash               { return d.hash }
func (d *diskFile) Overlay() bool            { return false }

// ioLimit bounds the file reads in flight across the process.
var ioLimit = make(chan struct{}, 128)

// Read reads uri from disk. A file that cannot be read, or a URI that names
// no file, yields a handle whose Content fails. The error is only set when
// ctx is done before a read slot frees up.
func Read(ctx context.Context, uri lsp.DocumentURI) (Handle, error) {
	if !uri.IsFile() {
		return &diskFile{uri: uri, err: os.ErrNotExist}, nil
	}
	select {
	case ioLimit <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-ioLimit }()

	// a write racing this read is followed by its own watcher event
	content, err := os.ReadFile(uri.Path())
	if err != nil {
		return &diskFile{uri: uri, err: err}, nil
	}
	return &diskFile{uri: uri, content: content, hash: HashOf(content)}, nil
}

// MustRead is Read without cancellation.
func MustRead(uri lsp.DocumentURI) Handle {
	fh, err := Read(context.Background(), uri)
	if err != nil {
		// unreachable, the background context is never done
		return &diskFile{uri: uri, err: err}
	}
	return fh
}
