package parse

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

// DefaultFuzzyThreshold is the normalized edit distance below which a VAT or
// total keyword counts as present.
const DefaultFuzzyThreshold = 0.2

// Parser turns OCR lines into a receipt record in a single forward pass.
// A Parser holds no per-call state and is safe for concurrent use.
type Parser struct {
	patterns  *Patterns
	now       func() time.Time
	threshold float64
	logger    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithPatterns replaces the default pattern table.
func WithPatterns(p *Patterns) Option {
	return func(ps *Parser) {
		if p != nil {
			ps.patterns = p
		}
	}
}

// WithClock sets the clock used for the transaction-date window.
func WithClock(now func() time.Time) Option {
	return func(ps *Parser) {
		if now != nil {
			ps.now = now
		}
	}
}

// WithFuzzyThreshold sets the keyword similarity threshold.
func WithFuzzyThreshold(t float64) Option {
	return func(ps *Parser) {
		if t > 0 {
			ps.threshold = t
		}
	}
}

// WithLogger sets the logger used for swallowed extractor failures.
func WithLogger(l *slog.Logger) Option {
	return func(ps *Parser) {
		if l != nil {
			ps.logger = l
		}
	}
}

// New builds a Parser with the shared default patterns.
func New(opts ...Option) *Parser {
	ps := &Parser{
		patterns:  DefaultPatterns(),
		now:       time.Now,
		threshold: DefaultFuzzyThreshold,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(ps)
	}
	return ps
}

// Patterns returns the pattern table in use.
func (ps *Parser) Patterns() *Patterns { return ps.patterns }

// ParseText splits text into lines and parses them.
func (ps *Parser) ParseText(text string) entity.Receipt {
	return ps.Parse(SplitLines(text))
}

// Parse extracts every field it can from lines. Each field keeps the first
// value found in line order; product lines accumulate.
func (ps *Parser) Parse(raw []string) entity.Receipt {
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	p := ps.patterns
	rec := entity.Receipt{Products: []entity.LineItem{}}
	nameTried, dateTried := false, false

	for _, line := range lines {
		upper := upperTR(line)

		if rec.BusinessName == nil && !nameTried && p.LegalSuffixes.MatchString(upper) {
			nameTried = true
			ps.guard("business_name", line, func() { rec.BusinessName = ResolveBusinessName(p, lines) })
		}
		if rec.TransactionDate == nil && !dateTried && HasDateShape(p, line) {
			dateTried = true
			ps.guard("transaction_date", line, func() { rec.TransactionDate = ExtractDate(p, lines, ps.now()) })
		}
		if rec.ReceiptNumber == nil {
			ps.guard("receipt_number", line, func() { rec.ReceiptNumber = ExtractReceiptNumber(p, line) })
		}

		vatLine := IsVATLine(p, line, ps.threshold)
		totalLine := IsTotalLine(p, line, ps.threshold)
		if rec.VatAmount == nil && vatLine {
			ps.guard("vat_amount", line, func() { rec.VatAmount = ExtractVAT(p, line) })
		}
		if rec.TotalAmount == nil && totalLine {
			ps.guard("total_amount", line, func() { rec.TotalAmount = ExtractTotal(p, line, lines) })
		}
		if rec.TransactionType == nil {
			ps.guard("transaction_type", line, func() { rec.TransactionType = ExtractTransactionType(p, line) })
		}
		if rec.PaymentType == nil {
			ps.guard("payment_type", line, func() { rec.PaymentType = ExtractPaymentType(p, line) })
		}

		if !vatLine && !totalLine && !p.VKN.MatchString(upper) && !p.NoiseLabel.MatchString(upper) {
			ps.guard("products", line, func() {
				if item := ExtractLineItem(p, line); item != nil {
					rec.Products = append(rec.Products, *item)
				}
			})
		}
	}

	if !nameTried {
		ps.guard("business_name", "", func() { rec.BusinessName = ResolveBusinessName(p, lines) })
	}
	return rec
}

// guard runs one extractor; a panic leaves the field empty instead of
// failing the whole record.
func (ps *Parser) guard(field, line string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			ps.logger.Warn("parse.field.failed", "field", field, "line", line, "panic", r)
		}
	}()
	fn()
}
