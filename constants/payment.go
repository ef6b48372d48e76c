package constants

import "strings"

// PaymentType is the closed set of payment methods.
type PaymentType string

const (
	PaymentCard    PaymentType = "CARD"
	PaymentCash    PaymentType = "CASH"
	PaymentUnknown PaymentType = "UNKNOWN"
)

var cardKeywords = []string{"kredi", "kart", "card", "visa", "master", "pos", "banka", "debit"}

var cashKeywords = []string{"nakit", "cash", "pesin"}

// ParsePaymentType maps a free-text payment description ("Kredi Kartı",
// "NAKİT", "Mobil Ödeme") onto the enum. Cash keywords are checked after
// card keywords.
func ParsePaymentType(input string) PaymentType {
	normalized := Fold(input)
	if normalized == "" {
		return PaymentUnknown
	}
	for _, kw := range cardKeywords {
		if strings.Contains(normalized, kw) {
			return PaymentCard
		}
	}
	for _, kw := range cashKeywords {
		if strings.Contains(normalized, kw) {
			return PaymentCash
		}
	}
	return PaymentUnknown
}
