package pipeline

import (
	"math"

	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

const (
	zeroTolerance = 0.005
	vatSlack      = 0.01
)

// IsAnomalous reports whether a locally extracted record is too broken to
// trust: total or VAT missing or zero, or VAT larger than the total.
func IsAnomalous(r entity.Receipt) bool {
	if isZero(r.TotalAmount) || isZero(r.VatAmount) {
		return true
	}
	return *r.VatAmount > *r.TotalAmount+vatSlack
}

func isZero(v *float64) bool {
	return v == nil || math.Abs(*v) < zeroTolerance
}
