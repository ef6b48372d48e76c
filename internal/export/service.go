package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

// SheetName is the single worksheet of an export workbook.
const SheetName = "Fişler"

// Headers are the export columns, in order.
var Headers = []string{
	"Şirket Adı",
	"İşlem Tarihi",
	"Fiş No",
	"KDV Tutarı",
	"Toplam Tutar",
	"KDV Oranı (%)",
	"İşlem Tipi",
	"Ödeme Tipi",
}

var paymentLabels = map[constants.PaymentType]string{
	constants.PaymentCard:    "Kredi Kartı",
	constants.PaymentCash:    "Nakit",
	constants.PaymentUnknown: "Bilinmiyor",
}

// Service renders receipts into XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns a workbook with one row per receipt. Missing fields
// are left blank; amounts and rates are numeric cells.
func (s *Service) ExportXLSX(ctx context.Context, recs []entity.Receipt) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(Headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, r := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := i + 2
		write := func(col int, v any) error {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			return f.SetCellValue(SheetName, cell, v)
		}
		var category string
		if r.TransactionType != nil {
			category = string(r.TransactionType.Category)
		}
		var payment string
		if r.PaymentType != nil {
			payment = paymentLabels[*r.PaymentType]
		}
		values := []any{
			str(r.BusinessName),
			str(r.TransactionDate),
			str(r.ReceiptNumber),
			num(r.VatAmount),
			num(r.TotalAmount),
			num(r.VatRate()),
			category,
			payment,
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			if err := write(col+1, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 32) // business
	_ = f.SetColWidth(SheetName, "B", "C", 14)
	_ = f.SetColWidth(SheetName, "D", "F", 14) // amounts
	_ = f.SetColWidth(SheetName, "G", "H", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func str(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func num(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
