// Package fuzzy normalizes track metadata text so keyword matching ignores
// case, diacritics, and whitespace noise.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize lowercases text, decomposes accented characters and strips
// their combining marks, and collapses runs of whitespace.
func (n *Normalizer) Normalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	text = strings.TrimSpace(text)

	return text
}

// Contains reports whether the normalized haystack contains the normalized
// needle as a substring. An empty needle never matches.
func (n *Normalizer) Contains(haystack, needle string) bool {
	needle = n.Normalize(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(n.Normalize(haystack), needle)
}
