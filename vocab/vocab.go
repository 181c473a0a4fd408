// Package vocab holds the builtin vocabulary: the words the language provides
// before any user definitions. It is built once from the bundled Forth-2012
// word list, optional word list files and inline configuration entries, and
// is read only afterwards.
package vocab

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/corymhall/forthlsp/config"
	"github.com/hashicorp/go-multierror"
	"github.com/pulumi/pulumi/sdk/v3/go/common/util/contract"
)

//go:embed words.txt
var defaultWords string

// Source records where a builtin word came from. Later sources take
// precedence over earlier ones.
type Source int

const (
	Default Source = iota
	FileImport
	InlineConfig
)

func (s Source) String() string {
	switch s {
	case Default:
		return "default"
	case FileImport:
		return "file"
	case InlineConfig:
		return "config"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Word is a single builtin word.
type Word struct {
	Name        string
	DocID       string
	StackEffect string
	Description string
	Source      Source
}

// Documentation renders the word as markdown for hovers and completion
// items.
func (w *Word) Documentation() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# `%s`", w.Name)
	if w.StackEffect != "" {
		fmt.Fprintf(&b, "   `%s`", w.StackEffect)
	}
	if w.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(w.Description)
	}
	return b.String()
}

// Vocabulary is an immutable table of builtin words keyed by a case policy.
type Vocabulary struct {
	policy config.CasePolicy
	words  map[string]*Word
	sorted []*Word
}

// New builds a vocabulary from words. When two words share a key the one
// from the higher Source wins, and within one Source the later one wins.
func New(policy config.CasePolicy, words ...Word) *Vocabulary {
	v := &Vocabulary{
		policy: policy,
		words:  make(map[string]*Word, len(words)),
	}
	for _, w := range words {
		if w.Name == "" {
			continue
		}
		key := policy.Key(w.Name)
		if prev, ok := v.words[key]; ok && prev.Source > w.Source {
			continue
		}
		v.words[key] = &w
	}
	v.sorted = make([]*Word, 0, len(v.words))
	for _, w := range v.words {
		v.sorted = append(v.sorted, w)
	}
	slices.SortFunc(v.sorted, func(a, b *Word) int {
		return strings.Compare(a.Name, b.Name)
	})
	return v
}

// Defaults returns the bundled word list.
func Defaults() []Word {
	words, err := ParseWords(strings.NewReader(defaultWords), Default)
	contract.AssertNoErrorf(err, "parsing bundled word list")
	return words
}

// Load builds the vocabulary described by cfg. Word files that cannot be read
// are skipped and reported together in the returned error, the vocabulary is
// usable either way.
func Load(cfg config.Config) (*Vocabulary, error) {
	words := Defaults()

	var result *multierror.Error
	for _, p := range cfg.Builtin.WordFiles {
		imported, err := loadFile(cfg.ResolvePath(p))
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		words = append(words, imported...)
	}

	for _, w := range cfg.Builtin.Words {
		words = append(words, Word{
			Name:        strings.TrimSpace(w.Word),
			StackEffect: strings.TrimSpace(w.Stack),
			Description: strings.TrimSpace(w.Description),
			Source:      InlineConfig,
		})
	}
	return New(cfg.Policy(), words...), result.ErrorOrNil()
}

func loadFile(path string) ([]Word, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading word file: %w", err)
	}
	defer f.Close()
	words, err := ParseWords(f, FileImport)
	if err != nil {
		return nil, fmt.Errorf("parsing word file %s: %w", path, err)
	}
	return words, nil
}

// ParseWords reads a word list. Records are separated by blank lines and hold,
// one per line, the name, a documentation id, the stack effect and a
// description. Missing trailing fields are left empty and description lines
// past the fourth are joined with spaces.
func ParseWords(r io.Reader, source Source) ([]Word, error) {
	var words []Word
	var record []string
	flush := func() {
		if len(record) == 0 {
			return
		}
		w := Word{Name: record[0], Source: source}
		if len(record) > 1 {
			w.DocID = record[1]
		}
		if len(record) > 2 {
			w.StackEffect = record[2]
		}
		if len(record) > 3 {
			w.Description = strings.Join(record[3:], " ")
		}
		words = append(words, w)
		record = record[:0]
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		record = append(record, line)
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// Policy is the case policy the vocabulary is keyed by.
func (v *Vocabulary) Policy() config.CasePolicy {
	return v.policy
}

// Lookup finds the builtin word called name.
func (v *Vocabulary) Lookup(name string) (*Word, bool) {
	w, ok := v.words[v.policy.Key(name)]
	return w, ok
}

// Words returns every word sorted by name.
func (v *Vocabulary) Words() []*Word {
	return v.sorted
}

func (v *Vocabulary) Len() int {
	return len(v.words)
}
