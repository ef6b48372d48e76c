package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// "1 253,43" -> "1.253,43"; the leading group must not follow a '%' or another number.
	glueSplitThousands = regexp.MustCompile(`(^|[^\d%.,])(\d{1,3})\s+[.,]?\s*(\d{3})\s*[,.]\s*(\d{2})\b`)
	glueDecimal        = regexp.MustCompile(`(\d+)\s*,\s*(\d{2})`)
	glueThousands      = regexp.MustCompile(`(\d+)\s*\.\s*(\d{3})`)
	multiSpace         = regexp.MustCompile(`\s{2,}`)
	nonNumeric         = regexp.MustCompile(`[^0-9.,]`)
)

// GlueDigitGroups rejoins numbers that OCR split with stray spaces around
// separators, e.g. "1. 253, 43" becomes "1.253,43".
func GlueDigitGroups(s string) string {
	s = glueSplitThousands.ReplaceAllString(s, "${1}${2}.${3},${4}")
	s = glueDecimal.ReplaceAllString(s, "${1},${2}")
	s = glueThousands.ReplaceAllString(s, "${1}.${2}")
	return multiSpace.ReplaceAllString(s, " ")
}

// ParseAmount converts a Turkish-formatted amount ("1.234,56", "275,00",
// "50") to a value rounded to two fraction digits. It returns nil when
// nothing numeric remains.
//
// A comma after the last dot is the decimal separator and dots are grouping;
// otherwise the (last) dot is decimal and commas are grouping.
func ParseAmount(raw string) *float64 {
	s := nonNumeric.ReplaceAllString(GlueDigitGroups(raw), "")
	s = strings.Trim(s, ".,")
	if s == "" {
		return nil
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	if lastComma > lastDot {
		s = strings.ReplaceAll(s, ".", "")
		s = keepLastSeparator(s, ',')
	} else {
		s = strings.ReplaceAll(s, ",", "")
		s = keepLastSeparator(s, '.')
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	v = Round2(v)
	return &v
}

// keepLastSeparator drops every sep except the last, which becomes '.'.
func keepLastSeparator(s string, sep byte) string {
	last := strings.LastIndexByte(s, sep)
	if last < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch {
		case i == last:
			b.WriteByte('.')
		case s[i] == sep:
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Round2 rounds half away from zero to two fraction digits.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount renders v the way ParseAmount reads it back.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
