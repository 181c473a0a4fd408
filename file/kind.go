package file

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/corymhall/forthlsp/lsp"
)

// Kind describes the kind of the file in question.
type Kind int

const (
	// UnknownKind is a file type we don't know about.
	UnknownKind = Kind(iota)

	// Forth is a Forth source file.
	Forth

	// Config is the project configuration file.
	Config
)

func (k Kind) String() string {
	switch k {
	case Forth:
		return "forth"
	case Config:
		return "config"
	default:
		return fmt.Sprintf("internal error: unknown file kind %d", k)
	}
}

// KindForLang returns the file [Kind] associated with the given LSP
// LanguageKind string from the LanguageID field of [lsp.TextDocumentItem],
// or UnknownKind if the language is not Forth.
func KindForLang(langID lsp.LanguageKind) Kind {
	switch strings.ToLower(string(langID)) {
	case "forth", "fs", "fth", "4th":
		return Forth
	default:
		return UnknownKind
	}
}

// KindForPath classifies path by its name. extensions lists the file
// extensions, dot included, that hold Forth source.
func KindForPath(path, configName string, extensions []string) Kind {
	if filepath.Base(path) == configName {
		return Config
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" && slices.ContainsFunc(extensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	}) {
		return Forth
	}
	return UnknownKind
}
