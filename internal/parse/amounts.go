package parse

import (
	"strings"
)

// IsVATLine reports whether line carries a VAT label, exactly or fuzzily.
// A VAT-inclusive grand total ("KDV DAHİL TOPLAM") is not a VAT line.
func IsVATLine(p *Patterns, line string, threshold float64) bool {
	if !hasVATLabel(p, line, threshold) {
		return false
	}
	return !p.InclusiveMarker.MatchString(line) || !hasTotalLabel(p, line, threshold)
}

func hasVATLabel(p *Patterns, line string, threshold float64) bool {
	if p.VATLabel.MatchString(line) {
		return true
	}
	_, ok := FuzzyFind(line, p.VATKeywords, threshold)
	return ok
}

func hasTotalLabel(p *Patterns, line string, threshold float64) bool {
	if p.TotalLabel.MatchString(line) {
		return true
	}
	_, ok := FuzzyFind(line, p.TotalKeywords, threshold)
	return ok
}

// IsTotalLine reports whether line carries a grand-total label. A VAT line is
// only a total line when it says the amount includes VAT ("KDV DAHİL TOPLAM").
func IsTotalLine(p *Patterns, line string, threshold float64) bool {
	if !hasTotalLabel(p, line, threshold) {
		return false
	}
	return !hasVATLabel(p, line, threshold) || p.InclusiveMarker.MatchString(line)
}

// ExtractVAT returns the last amount printed after the VAT label; a number
// directly preceded by '%' is the rate and is skipped.
func ExtractVAT(p *Patterns, line string) *float64 {
	tail := line
	if loc := p.VATLabel.FindStringIndex(line); loc != nil {
		tail = line[loc[1]:]
	}
	amounts := amountTokens(p, GlueDigitGroups(tail))
	for i := len(amounts) - 1; i >= 0; i-- {
		if v := ParseAmount(amounts[i]); v != nil {
			return v
		}
	}
	return nil
}

// ExtractTotal returns the largest positive amount on a labelled total line.
// When the line was only a fuzzy hit, the whole receipt is searched instead:
// the grand total is usually the largest figure printed.
func ExtractTotal(p *Patterns, line string, lines []string) *float64 {
	if p.TotalLabel.MatchString(line) {
		return maxAmount(amountTokens(p, GlueDigitGroups(line)))
	}

	var tokens []string
	for _, l := range lines {
		if p.VKN.MatchString(upperTR(l)) {
			continue
		}
		for _, re := range p.Dates {
			l = re.ReplaceAllString(l, " ")
		}
		for _, tok := range amountTokens(p, GlueDigitGroups(l)) {
			if p.LongDigitRun.MatchString(tok) {
				continue
			}
			tokens = append(tokens, tok)
		}
	}
	return maxAmount(tokens)
}

// amountTokens lists amount-shaped substrings of s, skipping '%'-prefixed
// rates. A rate swallowed into a space-grouped token ("%10 250,00") is cut off.
func amountTokens(p *Patterns, s string) []string {
	var out []string
	for _, loc := range p.AmountToken.FindAllStringIndex(s, -1) {
		tok := s[loc[0]:loc[1]]
		if strings.HasSuffix(strings.TrimRight(s[:loc[0]], " "), "%") {
			i := strings.IndexAny(tok, " \t")
			if i < 0 {
				continue
			}
			tok = strings.TrimSpace(tok[i:])
		}
		out = append(out, tok)
	}
	return out
}

func maxAmount(tokens []string) *float64 {
	var best *float64
	for _, tok := range tokens {
		v := ParseAmount(tok)
		if v == nil || *v <= 0 {
			continue
		}
		if best == nil || *v > *best {
			best = v
		}
	}
	return best
}
