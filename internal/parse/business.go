package parse

import (
	"strings"
)

const (
	scoreUppercase  = 3
	scoreIndicator  = 2
	scoreNearAnchor = 1
	scoreNameLike   = 1

	lookBehind      = 3 // lines examined before each legal-suffix anchor
	anchorWindow    = 5 // a name sits at most this many lines above VKN/address
	maxBlockLines   = 4
	fallbackLines   = 10
	minNameLineLen  = 5
	minFallbackLen  = 10
	minCleanLineLen = 3
)

// ResolveBusinessName finds the merchant name block near the legal-entity
// suffixes (A.Ş., LTD. ŞTİ., ...) and returns it cleaned of boilerplate,
// address fragments and the trailing legal form. It falls back to the
// longest upper-case line near the top of the receipt.
func ResolveBusinessName(p *Patterns, lines []string) *string {
	upper := make([]string, len(lines))
	for i, l := range lines {
		upper[i] = upperTR(l)
	}

	var vkn, address, indicators []int
	for i, u := range upper {
		if p.VKN.MatchString(u) {
			vkn = append(vkn, i)
		}
		if p.IsAddress(u) {
			address = append(address, i)
		}
		if p.LegalSuffixes.MatchString(u) {
			indicators = append(indicators, i)
		}
	}

	best, bestScore := -1, -1
	for _, idx := range indicators {
		for i := idx; i >= 0 && i >= idx-lookBehind; i-- {
			s := scoreNameLine(p, lines[i], upper[i], i, vkn, address)
			if s > bestScore {
				best, bestScore = i, s
			}
		}
	}

	if best >= 0 {
		if name := mergeBlock(p, lines, upper, best); name != "" {
			return &name
		}
	}
	return fallbackName(p, lines, upper)
}

func scoreNameLine(p *Patterns, line, upper string, i int, anchors ...[]int) int {
	s := 0
	long := runeLen(line) > minNameLineLen
	if long && isUpper(line) {
		s += scoreUppercase
	}
	if p.LegalSuffixes.MatchString(upper) {
		s += scoreIndicator
	}
	for _, set := range anchors {
		if nearAbove(i, set) {
			s += scoreNearAnchor
			break
		}
	}
	if long && !p.NumericOnly.MatchString(line) && !p.DateOnly.MatchString(line) {
		s += scoreNameLike
	}
	return s
}

func nearAbove(i int, anchors []int) bool {
	for _, a := range anchors {
		if i < a && a-i < anchorWindow {
			return true
		}
	}
	return false
}

func mergeBlock(p *Patterns, lines, upper []string, start int) string {
	var parts []string
	for i := start; i < len(lines) && i < start+maxBlockLines; i++ {
		line, u := lines[i], upper[i]
		nameLike := p.LegalSuffixes.MatchString(u) && runeLen(line) > minNameLineLen && isUpper(line)
		if !nameLike && stopsBlock(p, line, u) {
			break
		}
		cleaned := strings.TrimSpace(p.NameLineClean.ReplaceAllString(u, " "))
		if runeLen(cleaned) > minCleanLineLen {
			parts = append(parts, cleaned)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return cleanName(p, strings.Join(parts, " "))
}

func stopsBlock(p *Patterns, line, upper string) bool {
	return p.IsAddress(upper) ||
		p.VKN.MatchString(upper) ||
		runeLen(line) < minNameLineLen ||
		p.NumericOrTime.MatchString(line) ||
		p.DateOnly.MatchString(line) ||
		p.NoiseLabel.MatchString(upper)
}

func cleanName(p *Patterns, merged string) string {
	name := stripBoilerplate(p, collapseSpaces(merged))

	cut := p.addressIndex(name)
	if loc := p.VKN.FindStringIndex(name); loc != nil && (cut < 0 || loc[0] < cut) {
		cut = loc[0]
	}
	if cut >= 0 {
		name = name[:cut]
	}

	name = strings.TrimSpace(name)
	for {
		loc := p.TrailingLegalForm.FindStringIndex(name)
		if loc == nil || loc[0] == 0 {
			break
		}
		name = strings.TrimSpace(name[:loc[0]])
	}
	name = strings.TrimRight(name, " ,&")

	if runeLen(name) < minCleanLineLen || !hasLetter(name) {
		return ""
	}
	return name
}

func stripBoilerplate(p *Patterns, s string) string {
	for _, re := range p.BoilerplatePrefix {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

func fallbackName(p *Patterns, lines, upper []string) *string {
	best := ""
	for i := 0; i < len(lines) && i < fallbackLines; i++ {
		line := lines[i]
		if runeLen(line) <= minFallbackLen || !isUpper(line) || p.NumericOnly.MatchString(line) {
			continue
		}
		if p.IsAddress(upper[i]) || p.VKN.MatchString(upper[i]) {
			continue
		}
		if runeLen(line) > runeLen(best) {
			best = line
		}
	}
	if best == "" {
		return nil
	}
	name := stripBoilerplate(p, collapseSpaces(best))
	if name == "" {
		return nil
	}
	return &name
}
