// Package file describes the source files the server knows about: their
// contents at one point in time and the changes made to them.
package file

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/corymhall/forthlsp/lsp"
)

// A Handle is the contents of a file at one point in time, either an editor
// buffer or a read from disk.
type Handle interface {
	URI() lsp.DocumentURI
	// Version is the editor version of a buffer, or 0 for disk files.
	Version() int32
	// Content returns the file contents, or the error that prevented reading
	// them.
	Content() ([]byte, error)
	Hash() Hash
	// Overlay reports whether the contents came from the editor and
	// override the file on disk.
	Overlay() bool
}

// Hash identifies file contents.
type Hash [sha256.Size]byte

func HashOf(data []byte) Hash {
	return sha256.Sum256(data)
}

// String returns a short hex prefix for logs.
func (h Hash) String() string {
	return hex.EncodeToString(h[:6])
}

// A Modification is one change to the set of known files, reported by the
// editor or by the file system watcher.
type Modification struct {
	URI    lsp.DocumentURI
	Action Action

	// OnDisk marks changes seen by the watcher. They carry no text; the file
	// is read again unless it is open in the editor.
	OnDisk bool

	// Version is -1 and Text nil when the notification carries none, as on
	// didClose.
	Version int32
	Text    []byte

	// LanguageID is only set by didOpen.
	LanguageID lsp.LanguageKind
}

// An Action is a type of file state change.
type Action int

const (
	UnknownAction Action = iota
	Open
	Change
	Close
	Save
	Create
	Delete
)

var actionNames = [...]string{
	UnknownAction: "Unknown",
	Open:          "Open",
	Change:        "Change",
	Close:         "Close",
	Save:          "Save",
	Create:        "Create",
	Delete:        "Delete",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}
