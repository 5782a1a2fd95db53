package treebuild

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dgallion1/atlasgen/internal/doctree"
)

// AncestorSlugChars is how many characters of an ancestor's id are carried
// into a child's slug suffix.
const AncestorSlugChars = 4

// SlugGenerator issues slug keys for one build. It owns the slug lookup and
// the set of keys issued so far.
type SlugGenerator struct {
	lookup doctree.SlugLookup
	issued map[string]struct{}
}

func NewSlugGenerator() *SlugGenerator {
	return &SlugGenerator{
		lookup: make(doctree.SlugLookup),
		issued: make(map[string]struct{}),
	}
}

// Reserve marks a root slug (a bare id) as issued.
func (g *SlugGenerator) Reserve(key string) error {
	if _, ok := g.issued[key]; ok {
		return errors.Mark(errors.Newf("duplicate root slug %s", key), ErrSlugCollision)
	}
	g.issued[key] = struct{}{}
	return nil
}

// Generate returns the slug key "ownID|suffix" for a child of parentSlug.
//
// Without a delimiter in parentSlug the suffix is its last AncestorSlugChars
// characters. Otherwise it is the text after the last delimiter followed by
// the AncestorSlugChars characters preceding that delimiter.
func (g *SlugGenerator) Generate(parentSlug, ownID string) (string, error) {
	suffix := suffixFor(parentSlug)
	key := ownID + "|" + suffix

	if _, ok := g.issued[key]; ok {
		return "", slugCollision(ownID, suffix)
	}
	g.issued[key] = struct{}{}

	if _, ok := g.lookup[ownID]; !ok {
		g.lookup[ownID] = suffix
	}
	return key, nil
}

// Lookup returns the id to suffix table built so far.
func (g *SlugGenerator) Lookup() doctree.SlugLookup {
	return g.lookup
}

// suffixFor derives a child's suffix from its parent's slug key. When fewer
// than AncestorSlugChars characters precede the last delimiter, all of them
// are taken rather than none.
func suffixFor(parentSlug string) string {
	pos := strings.LastIndex(parentSlug, "|")
	if pos < 0 {
		return tail(parentSlug, AncestorSlugChars)
	}
	return parentSlug[pos+1:] + tail(parentSlug[:pos], AncestorSlugChars)
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
