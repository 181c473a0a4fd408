// Package config holds the project configuration read from .forth-lsp.toml at
// the workspace root.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileName is the name of the configuration file looked up at the workspace
// root.
const FileName = ".forth-lsp.toml"

type Config struct {
	// CaseSensitive switches name matching from case folded to literal.
	CaseSensitive bool              `koanf:"case_sensitive"`
	Format        FormatConfig      `koanf:"format"`
	Builtin       BuiltinConfig     `koanf:"builtin"`
	Diagnostics   DiagnosticsConfig `koanf:"diagnostics"`
	Workspace     WorkspaceConfig   `koanf:"workspace"`

	// Dir is the directory the configuration was loaded from. Relative word
	// file paths are resolved against it.
	Dir string `koanf:"-"`
}

type FormatConfig struct {
	IndentWidth uint `koanf:"indent_width"`
	UseSpaces   bool `koanf:"use_spaces"`
	// IndentControlStructures indents the bodies of IF, DO, BEGIN and CASE
	// constructs in addition to colon definitions.
	IndentControlStructures bool `koanf:"indent_control_structures"`
}

type BuiltinConfig struct {
	WordFiles []string     `koanf:"word_files"`
	Words     []CustomWord `koanf:"words"`
}

type CustomWord struct {
	Word        string `koanf:"word"`
	Stack       string `koanf:"stack"`
	Description string `koanf:"description"`
}

type DiagnosticsConfig struct {
	UndefinedWords          bool `koanf:"undefined_words"`
	UnterminatedDefinitions bool `koanf:"unterminated_definitions"`
}

type WorkspaceConfig struct {
	// Extensions lists the file extensions indexed when scanning the
	// workspace root.
	Extensions []string `koanf:"extensions"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Format: FormatConfig{
			IndentWidth: 2,
			UseSpaces:   true,
		},
		Diagnostics: DiagnosticsConfig{
			UndefinedWords: true,
		},
		Workspace: WorkspaceConfig{
			Extensions: []string{".forth", ".fs", ".fth", ".4th", ".f"},
		},
	}
}

// Load reads the configuration file at path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.Dir = filepath.Dir(path)

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return cfg, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return Default(), fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromWorkspace loads FileName from root. A missing file is not an error
// and yields the defaults.
func LoadFromWorkspace(root string) (Config, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		cfg.Dir = root
		return cfg, nil
	}
	return Load(path)
}

// Policy is the case policy selected by the configuration.
func (c Config) Policy() CasePolicy {
	if c.CaseSensitive {
		return CaseSensitive
	}
	return CaseInsensitive
}

// ResolvePath resolves a path from the configuration against Dir.
func (c Config) ResolvePath(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
