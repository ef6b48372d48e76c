package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
	"github.com/joseph-ayodele/receipts-extractor/internal/parse"
)

// ParseResponse turns a raw model response into Fields. Anything that is not
// a JSON object after fence stripping is reported as ErrMalformedResponse.
func ParseResponse(raw string, logger *slog.Logger) (Fields, error) {
	if logger == nil {
		logger = slog.Default()
	}
	body := []byte(StripCodeFences(raw))
	if len(body) == 0 {
		return Fields{}, fmt.Errorf("%w: empty response", common.ErrMalformedResponse)
	}

	clean, _, err := NormalizeAndSanitizeJSON(body, logger)
	if err != nil {
		return Fields{}, fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}

	schema := BuildReceiptJSONSchema()
	if err := ValidateJSONAgainstSchema(schema, clean); err != nil {
		// kdvOran is the only constrained value; drop it and try once more.
		var m map[string]any
		if uErr := json.Unmarshal(clean, &m); uErr != nil {
			return Fields{}, fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
		}
		delete(m, "kdvOran")
		clean, _ = json.Marshal(m)
		if vErr := ValidateJSONAgainstSchema(schema, clean); vErr != nil {
			return Fields{}, fmt.Errorf("%w: %w", common.ErrMalformedResponse, vErr)
		}
		logger.Warn("llm.extract.lenient_sanitize_applied", "dropped", []string{"kdvOran"}, "error", err)
	}

	var f Fields
	if err := json.Unmarshal(clean, &f); err != nil {
		return Fields{}, fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}
	return f, nil
}

// ToReceipt builds a complete replacement record from the model fields.
// Nothing from a previous local extraction is carried over.
func (f Fields) ToReceipt() entity.Receipt {
	r := entity.Receipt{
		BusinessName:    f.FirmaAd.Ptr(),
		TransactionDate: normalizeDate(f.IslemTarihi.Ptr()),
		ReceiptNumber:   f.FisNo.Ptr(),
		Products:        []entity.LineItem{},
	}
	if f.Kdv.Set {
		r.VatAmount = parse.ParseAmount(f.Kdv.Value)
	}
	if f.Tutar.Set {
		r.TotalAmount = parse.ParseAmount(f.Tutar.Value)
	}
	if f.IslemTuru.Set {
		cat, _ := constants.Canonicalize(f.IslemTuru.Value)
		tt := &entity.TransactionType{Category: cat}
		if f.KdvOran.Set {
			if rate := parse.ParseAmount(f.KdvOran.Value); rate != nil && *rate >= 0 && *rate <= 100 {
				tt.VatRate = rate
			}
		}
		r.TransactionType = tt
	}
	if f.OdemeTuru.Set {
		pt := constants.ParsePaymentType(f.OdemeTuru.Value)
		r.PaymentType = &pt
	}
	return r
}

var dateLayouts = []string{"02.01.2006", "2006-01-02", "02/01/2006", "02-01-2006", "2.1.2006", "2006.01.02"}

// normalizeDate rewrites recognised layouts as DD.MM.YYYY and keeps anything
// else verbatim.
func normalizeDate(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			out := t.Format("02.01.2006")
			return &out
		}
	}
	return &v
}
