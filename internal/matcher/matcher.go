// Package matcher compiles forbidden-word lists into whole-word,
// case-insensitive text matchers and caches the compiled form per chat.
package matcher

import (
	"regexp"
	"strings"
)

// Matcher scans text for a fixed list of forbidden words. A word matches
// only as a whole token (letters, digits and underscore are token
// characters), case-insensitively. Safe for concurrent use once compiled.
type Matcher struct {
	words    []string
	patterns []*regexp.Regexp
}

// Token characters are letters, digits and underscore; everything else
// is a boundary. regexp's \b is ASCII-only, which would never match
// words in non-Latin scripts, so boundaries are spelled out explicitly.
const boundaryBefore = `(?i)(?:\A|[^\p{L}\p{N}_])`
const boundaryAfter = `(?:[^\p{L}\p{N}_]|\z)`

// Compile builds a Matcher for the given words. Words are matched
// literally: regexp metacharacters inside a word carry no meaning.
// An empty word list yields nil, the caller-side fast path.
func Compile(words []string) *Matcher {
	if len(words) == 0 {
		return nil
	}

	m := &Matcher{
		words:    words,
		patterns: make([]*regexp.Regexp, len(words)),
	}
	for i, word := range words {
		m.patterns[i] = regexp.MustCompile(boundaryBefore + regexp.QuoteMeta(word) + boundaryAfter)
	}
	return m
}

// FindAll returns the forbidden words present in text, in word-list
// order, each at most once. Empty text or a nil matcher matches nothing.
func (m *Matcher) FindAll(text string) []string {
	if m == nil || text == "" {
		return nil
	}

	var found []string
	for i, p := range m.patterns {
		if p.MatchString(text) {
			found = append(found, m.words[i])
		}
	}
	return found
}

// Signature returns a cache key identifying an exact word list.
// Word lists are ordered, so two lists with the same words in a
// different order get distinct signatures.
func Signature(words []string) string {
	return strings.Join(words, "\x00")
}
