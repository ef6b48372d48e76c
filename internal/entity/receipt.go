package entity

import (
	"github.com/joseph-ayodele/receipts-extractor/constants"
)

// Receipt is the structured record extracted from a single receipt image.
// Every field is independently optional; a nil field means "not found".
type Receipt struct {
	BusinessName    *string                `json:"businessName"`
	TransactionDate *string                `json:"transactionDate"` // DD.MM.YYYY
	ReceiptNumber   *string                `json:"receiptNumber"`
	Products        []LineItem             `json:"products"`
	VatAmount       *float64               `json:"vatAmount"`
	TotalAmount     *float64               `json:"totalAmount"`
	TransactionType *TransactionType       `json:"transactionType"`
	PaymentType     *constants.PaymentType `json:"paymentType"`
}

// LineItem is one product line of a receipt.
type LineItem struct {
	Name      string   `json:"name"`
	Quantity  *int     `json:"quantity,omitempty"`
	UnitPrice *float64 `json:"unitPrice,omitempty"`
	LineTotal float64  `json:"lineTotal"`
}

// TransactionType pairs a category with the VAT rate printed next to it.
type TransactionType struct {
	Category constants.Category `json:"category"`
	VatRate  *float64           `json:"vatRate"`
}

// VatRate returns the rate of the transaction type, if any.
func (r Receipt) VatRate() *float64 {
	if r.TransactionType == nil {
		return nil
	}
	return r.TransactionType.VatRate
}

// Clone returns a deep copy, so callers can mutate the result freely.
func (r Receipt) Clone() Receipt {
	out := Receipt{
		BusinessName:    cloneString(r.BusinessName),
		TransactionDate: cloneString(r.TransactionDate),
		ReceiptNumber:   cloneString(r.ReceiptNumber),
		VatAmount:       cloneFloat(r.VatAmount),
		TotalAmount:     cloneFloat(r.TotalAmount),
		Products:        make([]LineItem, 0, len(r.Products)),
	}
	for _, p := range r.Products {
		item := LineItem{Name: p.Name, UnitPrice: cloneFloat(p.UnitPrice), LineTotal: p.LineTotal}
		if p.Quantity != nil {
			q := *p.Quantity
			item.Quantity = &q
		}
		out.Products = append(out.Products, item)
	}
	if r.TransactionType != nil {
		out.TransactionType = &TransactionType{
			Category: r.TransactionType.Category,
			VatRate:  cloneFloat(r.TransactionType.VatRate),
		}
	}
	if r.PaymentType != nil {
		pt := *r.PaymentType
		out.PaymentType = &pt
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
