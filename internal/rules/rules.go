// Package rules applies user acceptance rules to extracted receipts.
//
// Rules are written as "KEY=VALUE" pairs separated by ';', for example
// "MIN_AMOUNT_LIMIT=0;MAX_AMOUNT_LIMIT=1000;TRANSACTION_TYPE_EXCLUDE_LIST=İLAÇ,YİYECEK".
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
	"github.com/joseph-ayodele/receipts-extractor/internal/parse"
)

const (
	KeyMinAmount   = "MIN_AMOUNT_LIMIT"
	KeyMaxAmount   = "MAX_AMOUNT_LIMIT"
	KeyExcludeList = "TRANSACTION_TYPE_EXCLUDE_LIST"
)

type Rules struct {
	MinAmount *float64
	MaxAmount *float64
	Excluded  []constants.Category
}

// Parse reads a rules string. An empty string yields no rules.
func Parse(s string) (Rules, error) {
	var r Rules
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return Rules{}, invalid("missing '=' in %q", pair)
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case KeyMinAmount, KeyMaxAmount:
			f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
			if err != nil {
				return Rules{}, invalid("%s: %q is not a number", key, value)
			}
			if key == KeyMinAmount {
				r.MinAmount = &f
			} else {
				r.MaxAmount = &f
			}
		case KeyExcludeList:
			for _, item := range strings.Split(value, ",") {
				if item = strings.TrimSpace(item); item == "" {
					continue
				}
				cat, ok := constants.Canonicalize(item)
				if !ok {
					return Rules{}, invalid("%s: unknown transaction type %q", key, item)
				}
				r.Excluded = append(r.Excluded, cat)
			}
		default:
			return Rules{}, invalid("unknown rule %q", key)
		}
	}
	if r.MinAmount != nil && r.MaxAmount != nil && *r.MinAmount > *r.MaxAmount {
		return Rules{}, invalid("%s is greater than %s", KeyMinAmount, KeyMaxAmount)
	}
	return r, nil
}

func invalid(format string, args ...any) error {
	return common.NewAppError("RULES_ERROR", fmt.Sprintf(format, args...), common.ErrInvalidInput)
}

// Empty reports whether no rule is set.
func (r Rules) Empty() bool {
	return r.MinAmount == nil && r.MaxAmount == nil && len(r.Excluded) == 0
}

// Validate checks a receipt against the rules. Missing totals or categories
// never violate a rule.
func (r Rules) Validate(rec entity.Receipt) (bool, string) {
	if total := rec.TotalAmount; total != nil {
		if r.MinAmount != nil && *total < *r.MinAmount {
			return false, fmt.Sprintf("Toplam tutar %s alt limitin (%s) altında", parse.FormatAmount(*total), parse.FormatAmount(*r.MinAmount))
		}
		if r.MaxAmount != nil && *total > *r.MaxAmount {
			return false, fmt.Sprintf("Toplam tutar %s üst limiti (%s) aşıyor", parse.FormatAmount(*total), parse.FormatAmount(*r.MaxAmount))
		}
	}
	if rec.TransactionType != nil {
		for _, c := range r.Excluded {
			if c == rec.TransactionType.Category {
				return false, fmt.Sprintf("İşlem tipi %q hariç tutulanlar listesinde", string(c))
			}
		}
	}
	return true, ""
}
