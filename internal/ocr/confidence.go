package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b\d{1,2}[./-]\d{1,2}[./-]\d{2,4}\b`)
	reCurr   = regexp.MustCompile(`\b(tl|try|kdv|topkdv)\b|₺`)
	reAmount = regexp.MustCompile(`\b\d+[.,]\d{2}\b`)
)

// HeuristicConfidence scores text by the receipt artifacts it contains
// (dates, currency markers, amounts). The result is in [0, 1].
func HeuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2)
	if reDate.MatchString(txtL) {
		score += 0.2
	}
	if reCurr.MatchString(txtL) {
		score += 0.15
	}
	if reAmount.MatchString(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
