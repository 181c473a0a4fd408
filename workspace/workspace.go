// Package workspace aggregates the definitions and occurrences of every
// known document into per-name tables.
package workspace

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/index"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/google/btree"
)

// ErrUnknownDocument is returned for queries naming a document that is not
// held by the index.
var ErrUnknownDocument = errors.New("unknown document")

const degree = 8

func lessDefinition(a, b index.WordDefinition) bool {
	if a.URI != b.URI {
		return a.URI < b.URI
	}
	return a.NameSpan.Start < b.NameSpan.Start
}

func lessOccurrence(a, b index.WordOccurrence) bool {
	if a.URI != b.URI {
		return a.URI < b.URI
	}
	return a.Span.Start < b.Span.Start
}

// Index holds documents by URI together with the definitions and occurrences
// of every word name across them, ordered by URI and then offset. The tables
// are always exactly the union of the held documents' contributions.
//
// An Index is not safe for concurrent mutation. Clone it to get a copy that
// can be changed while the original is still being read.
type Index struct {
	policy config.CasePolicy
	docs   map[lsp.DocumentURI]*index.Document
	defs   map[string]*btree.BTreeG[index.WordDefinition]
	occs   map[string]*btree.BTreeG[index.WordOccurrence]
}

func New(policy config.CasePolicy) *Index {
	return &Index{
		policy: policy,
		docs:   make(map[lsp.DocumentURI]*index.Document),
		defs:   make(map[string]*btree.BTreeG[index.WordDefinition]),
		occs:   make(map[string]*btree.BTreeG[index.WordOccurrence]),
	}
}

func (x *Index) Policy() config.CasePolicy {
	return x.policy
}

// Upsert indexes text as the new contents of uri, replacing whatever the
// document contributed before.
func (x *Index) Upsert(uri lsp.DocumentURI, version int32, text string) *index.Document {
	doc := index.New(uri, version, text)
	x.Put(doc)
	return doc
}

// Put stores an already indexed document.
func (x *Index) Put(doc *index.Document) {
	x.Remove(doc.URI)
	x.docs[doc.URI] = doc
	for _, d := range doc.Definitions {
		key := x.policy.Key(d.Name)
		t, ok := x.defs[key]
		if !ok {
			t = btree.NewG(degree, lessDefinition)
			x.defs[key] = t
		}
		t.ReplaceOrInsert(d)
	}
	for _, o := range doc.Occurrences {
		key := x.policy.Key(o.Name)
		t, ok := x.occs[key]
		if !ok {
			t = btree.NewG(degree, lessOccurrence)
			x.occs[key] = t
		}
		t.ReplaceOrInsert(o)
	}
}

// Remove drops uri and everything it contributed. It reports whether the
// document was held.
func (x *Index) Remove(uri lsp.DocumentURI) bool {
	doc, ok := x.docs[uri]
	if !ok {
		return false
	}
	delete(x.docs, uri)
	for _, d := range doc.Definitions {
		key := x.policy.Key(d.Name)
		if t, ok := x.defs[key]; ok {
			t.Delete(d)
			if t.Len() == 0 {
				delete(x.defs, key)
			}
		}
	}
	for _, o := range doc.Occurrences {
		key := x.policy.Key(o.Name)
		if t, ok := x.occs[key]; ok {
			t.Delete(o)
			if t.Len() == 0 {
				delete(x.occs, key)
			}
		}
	}
	return true
}

// Document returns the document held for uri.
func (x *Index) Document(uri lsp.DocumentURI) (*index.Document, error) {
	doc, ok := x.docs[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}
	return doc, nil
}

// Documents returns every held document ordered by URI.
func (x *Index) Documents() []*index.Document {
	docs := slices.Collect(maps.Values(x.docs))
	slices.SortFunc(docs, func(a, b *index.Document) int {
		return strings.Compare(string(a.URI), string(b.URI))
	})
	return docs
}

func (x *Index) Len() int {
	return len(x.docs)
}

// LookupDefinitions returns every definition of name, ordered by URI and
// then offset.
func (x *Index) LookupDefinitions(name string) []index.WordDefinition {
	t, ok := x.defs[x.policy.Key(name)]
	if !ok {
		return nil
	}
	out := make([]index.WordDefinition, 0, t.Len())
	t.Ascend(func(d index.WordDefinition) bool {
		out = append(out, d)
		return true
	})
	return out
}

// LookupOccurrences returns every occurrence of name, uses and definitions
// alike, ordered by URI and then offset.
func (x *Index) LookupOccurrences(name string) []index.WordOccurrence {
	t, ok := x.occs[x.policy.Key(name)]
	if !ok {
		return nil
	}
	out := make([]index.WordOccurrence, 0, t.Len())
	t.Ascend(func(o index.WordOccurrence) bool {
		out = append(out, o)
		return true
	})
	return out
}

// IsDefined reports whether any document defines name.
func (x *Index) IsDefined(name string) bool {
	_, ok := x.defs[x.policy.Key(name)]
	return ok
}

// AllDefinitions returns every definition ordered by URI and then offset.
func (x *Index) AllDefinitions() []index.WordDefinition {
	var out []index.WordDefinition
	for _, doc := range x.Documents() {
		out = append(out, doc.Definitions...)
	}
	return out
}

// AllOccurrences returns every occurrence ordered by URI and then offset.
func (x *Index) AllOccurrences() []index.WordOccurrence {
	var out []index.WordOccurrence
	for _, doc := range x.Documents() {
		out = append(out, doc.Occurrences...)
	}
	return out
}

// Clone returns a copy of the index. The per-name tables are shared
// copy-on-write, so cloning is cheap and later changes to either copy are
// not seen by the other.
func (x *Index) Clone() *Index {
	c := &Index{
		policy: x.policy,
		docs:   maps.Clone(x.docs),
		defs:   make(map[string]*btree.BTreeG[index.WordDefinition], len(x.defs)),
		occs:   make(map[string]*btree.BTreeG[index.WordOccurrence], len(x.occs)),
	}
	for k, t := range x.defs {
		c.defs[k] = t.Clone()
	}
	for k, t := range x.occs {
		c.occs[k] = t.Clone()
	}
	return c
}

// WithPolicy rebuilds the index under a different case policy.
func (x *Index) WithPolicy(policy config.CasePolicy) *Index {
	c := New(policy)
	for _, doc := range x.docs {
		c.Put(doc)
	}
	return c
}
