package parse

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers keep state and are not safe for concurrent use, so one is built per call.

func upperTR(s string) string {
	return cases.Upper(language.Turkish).String(s)
}

func lowerTR(s string) string {
	return cases.Lower(language.Turkish).String(s)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// isUpper reports whether s has letters and none of them is lower case.
func isUpper(s string) bool {
	return hasLetter(s) && upperTR(s) == s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SplitLines splits OCR text into trimmed, non-empty lines.
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
