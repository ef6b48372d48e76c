package parse

import (
	"strconv"
	"strings"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

// ExtractReceiptNumber returns the identifier captured by the first
// matching receipt-number pattern.
func ExtractReceiptNumber(p *Patterns, line string) *string {
	for _, re := range p.ReceiptNumbers {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[len(m)-1])
		if v == "" {
			v = strings.TrimSpace(m[0])
		}
		if v != "" {
			return &v
		}
	}
	return nil
}

// ExtractLineItem parses a product line: "name qty x unit total [TL]" or the
// looser "name qty total [TL]". A short integer middle column is a quantity,
// anything else belongs to the name.
func ExtractLineItem(p *Patterns, line string) *entity.LineItem {
	if !hasDigit(line) || !hasLetter(line) {
		return nil
	}

	if m := p.LineItem.FindStringSubmatch(line); m != nil {
		total := ParseAmount(m[4])
		if total == nil {
			return nil
		}
		item := &entity.LineItem{
			Name:      strings.TrimSpace(m[1]),
			UnitPrice: ParseAmount(m[3]),
			LineTotal: *total,
		}
		if q, err := strconv.Atoi(m[2]); err == nil {
			item.Quantity = &q
		}
		return item
	}

	m := p.LineItemAlt.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	total := ParseAmount(m[3])
	if total == nil {
		return nil
	}
	item := &entity.LineItem{Name: strings.TrimSpace(m[1]), LineTotal: *total}
	if q, err := strconv.Atoi(m[2]); err == nil && len(m[2]) < 4 {
		item.Quantity = &q
	} else {
		item.Name = item.Name + " " + m[2]
	}
	if !hasLetter(item.Name) {
		return nil
	}
	return item
}

// ExtractTransactionType finds a category keyword and the VAT rate printed
// next to it: three digits keep the last two ("710" is 10%), up to two
// digits are used as-is.
func ExtractTransactionType(p *Patterns, line string) *entity.TransactionType {
	m := p.Category.FindStringSubmatch(constants.Fold(line))
	if m == nil {
		return nil
	}
	cat, _ := constants.Canonicalize(m[1])
	tt := &entity.TransactionType{Category: cat}

	digits := m[2]
	if len(digits) == 3 {
		digits = digits[1:]
	}
	if digits != "" {
		if rate, err := strconv.ParseFloat(digits, 64); err == nil && rate >= 0 && rate <= 100 {
			tt.VatRate = &rate
		}
	}
	return tt
}

// ExtractPaymentType maps card or cash keywords onto the payment enum.
func ExtractPaymentType(p *Patterns, line string) *constants.PaymentType {
	folded := constants.Fold(line)
	for _, pp := range p.Payments {
		if pp.Re.MatchString(folded) {
			t := pp.Type
			return &t
		}
	}
	return nil
}
