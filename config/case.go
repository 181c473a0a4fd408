package config

import (
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// CasePolicy decides how word names are compared. Every table keyed by word
// name goes through Key so that lookups agree across features.
type CasePolicy int

const (
	// CaseInsensitive folds names, so DUP, dup and Dup are the same word.
	CaseInsensitive CasePolicy = iota
	// CaseSensitive compares names by their literal text.
	CaseSensitive
)

func (p CasePolicy) String() string {
	if p == CaseSensitive {
		return "case-sensitive"
	}
	return "case-insensitive"
}

// Key returns the lookup key for name under the policy.
func (p CasePolicy) Key(name string) string {
	if p == CaseSensitive {
		return name
	}
	return fold(name)
}

// folders pools Casers. A Caser holds state and must not be shared between
// goroutines.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

func fold(name string) string {
	ascii := true
	upper := false
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b >= utf8.RuneSelf {
			ascii = false
			break
		}
		if 'A' <= b && b <= 'Z' {
			upper = true
		}
	}
	if ascii {
		if !upper {
			return name
		}
		return strings.ToLower(name)
	}
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(name)
}

// Equal reports whether a and b name the same word.
func (p CasePolicy) Equal(a, b string) bool {
	return p.Key(a) == p.Key(b)
}

// HasPrefix reports whether name starts with prefix under the policy.
func (p CasePolicy) HasPrefix(name, prefix string) bool {
	return strings.HasPrefix(p.Key(name), p.Key(prefix))
}

// Contains reports whether name contains sub under the policy.
func (p CasePolicy) Contains(name, sub string) bool {
	return strings.Contains(p.Key(name), p.Key(sub))
}
