package pipeline

import (
	"math"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
	"github.com/joseph-ayodele/receipts-extractor/internal/parse"
)

// StandardVATRates are the Turkish KDV rates an implied rate snaps to.
var StandardVATRates = []float64{1, 10, 20}

// Enrich derives the missing one of VAT amount and VAT rate when the other
// and the total are known, and rounds amounts to two decimals. The input is
// not modified.
func Enrich(in entity.Receipt) entity.Receipt {
	r := in.Clone()
	rate := r.VatRate()

	switch {
	case r.VatAmount == nil && rate != nil && r.TotalAmount != nil:
		total := *r.TotalAmount
		vat := parse.Round2(total - total/(1+*rate/100))
		r.VatAmount = &vat
	case rate == nil && r.VatAmount != nil && r.TotalAmount != nil && !isZero(r.TotalAmount):
		snapped := SnapRate(*r.VatAmount * 100 / *r.TotalAmount)
		if r.TransactionType == nil {
			r.TransactionType = &entity.TransactionType{Category: constants.Other}
		}
		r.TransactionType.VatRate = &snapped
	}

	if r.TotalAmount != nil {
		v := parse.Round2(*r.TotalAmount)
		r.TotalAmount = &v
	}
	if r.VatAmount != nil {
		v := parse.Round2(*r.VatAmount)
		r.VatAmount = &v
	}
	return r
}

// SnapRate returns the standard rate closest to implied. Ties go to the
// lower rate.
func SnapRate(implied float64) float64 {
	best := StandardVATRates[0]
	for _, s := range StandardVATRates[1:] {
		if math.Abs(implied-s) < math.Abs(implied-best) {
			best = s
		}
	}
	return best
}
