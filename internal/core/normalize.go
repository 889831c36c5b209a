package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/multibot-dev/multibot/pkg/constants"
)

// accentStripper decomposes characters and drops combining marks, so that
// "menú" and "menu" tokenize identically.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// interrogationReplacer clears the punctuation that glues onto command
// words in chat ("banealo!", "¿mute?").
var interrogationReplacer = strings.NewReplacer("?", " ", "¿", " ", "!", " ", "¡", " ", ",", " ", ".", " ")

// RemoveAccents strips diacritics from s, returning s unchanged when the
// transform fails on malformed input.
func RemoveAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeWords lowercases, strips accents and punctuation, and tokenizes
// text into its distinct words in first-seen order. Words longer than
// MaxWordLength are dropped; they are never keywords.
func NormalizeWords(text string) []string {
	text = RemoveAccents(strings.ToLower(text))
	text = interrogationReplacer.Replace(text)

	var words []string
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		if len([]rune(word)) > constants.MaxWordLength {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return words
}

// removeCommonWords filters the stoplist out of words, preserving order.
func removeCommonWords(words []string) []string {
	var kept []string
	for _, word := range words {
		if _, common := constants.CommonWords[word]; !common {
			kept = append(kept, word)
		}
	}
	return kept
}
