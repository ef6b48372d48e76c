package parse

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// fuzzyHardCutoff bounds every match regardless of the caller's threshold.
const fuzzyHardCutoff = 0.3

const minTokenLen = 3

// FuzzyFind returns the first vocabulary entry that approximately occurs in
// line. Scores are normalized edit distances in [0,1], lower is closer; an
// entry matches when its best score is below both threshold and 0.3.
// Multi-word entries are compared against windows of as many tokens.
func FuzzyFind(line string, vocabulary []string, threshold float64) (string, bool) {
	tokens := tokenize(line)
	if len(tokens) == 0 {
		return "", false
	}
	limit := min(threshold, fuzzyHardCutoff)

	for _, entry := range vocabulary {
		words := strings.Fields(lowerTR(entry))
		if len(words) == 0 || len(words) > len(tokens) {
			continue
		}
		target := strings.Join(words, " ")
		for i := 0; i+len(words) <= len(tokens); i++ {
			if score(strings.Join(tokens[i:i+len(words)], " "), target) < limit {
				return entry, true
			}
		}
	}
	return "", false
}

// tokenize lower-cases line with Turkish rules and splits it on non-letters,
// dropping tokens shorter than three runes.
func tokenize(line string) []string {
	fields := strings.FieldsFunc(lowerTR(line), func(r rune) bool { return !unicode.IsLetter(r) })
	tokens := fields[:0]
	for _, f := range fields {
		if runeLen(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func score(a, b string) float64 {
	return 1 - levenshtein.Similarity(a, b, nil)
}
