// Package lexical implements the bag-of-words primitives used to relate
// prompts to chapter text: tokenization, overlap scoring and frequency ranking.
package lexical

import (
	"regexp"
	"strings"
)

// MinTokenLength is the shortest letter run that counts as a token.
const MinTokenLength = 3

var tokenPattern = regexp.MustCompile(`[a-z]{3,}`)

// Tokenize lowercases text and returns every maximal run of ASCII letters of
// at least MinTokenLength, in order of appearance. Digits, punctuation,
// whitespace and non-ASCII letters are separators.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Set is an unordered collection of distinct tokens.
type Set map[string]struct{}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) Set {
	tokens := Tokenize(text)
	set := make(Set, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// Contains reports whether tok is in the set.
func (s Set) Contains(tok string) bool {
	_, ok := s[tok]
	return ok
}
