package store

import "strings"

// MinTokenLength is the shortest token kept by Tokenize. Tokens of this
// length or shorter are dropped (stop-word-free noise filtering).
const MinTokenLength = 2

// Tokenize normalizes text into a term sequence: lowercases, strips every
// character except ASCII word characters, whitespace, and the Arabic block
// (U+0600-U+06FF, so Arabic/Darija content survives), splits on whitespace,
// and drops tokens of length <= 2.
//
// Always returns a non-nil slice and never fails, whatever the input.
func Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if isWordRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if runeLen(f) > MinTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// isWordRune reports whether r survives normalization: ASCII word characters
// or the Arabic Unicode block.
func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	case r >= 0x0600 && r <= 0x06FF:
		return true
	}
	return false
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// UniqueTerms returns the distinct tokens in order of first appearance.
func UniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}
	return unique
}
