package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

func ptr[T any](v T) *T { return &v }

func TestExportXLSX(t *testing.T) {
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)))
	recs := []entity.Receipt{
		{
			BusinessName:    ptr("MİGROS TİCARET A.Ş."),
			TransactionDate: ptr("12.05.2024"),
			ReceiptNumber:   ptr("0087"),
			VatAmount:       ptr(25.0),
			TotalAmount:     ptr(275.0),
			TransactionType: &entity.TransactionType{Category: constants.Food, VatRate: ptr(10.0)},
			PaymentType:     ptr(constants.PaymentCard),
		},
		{TotalAmount: ptr(40.5)},
	}

	data, err := svc.ExportXLSX(context.Background(), recs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, []string{"MİGROS TİCARET A.Ş.", "12.05.2024", "0087", "25", "275", "10", "YİYECEK", "Kredi Kartı"}, rows[1])

	total, err := f.GetCellValue(SheetName, "E3")
	require.NoError(t, err)
	assert.Equal(t, "40.5", total)
	name, err := f.GetCellValue(SheetName, "A3")
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestExportXLSX_Empty(t *testing.T) {
	data, err := NewService(nil).ExportXLSX(context.Background(), nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
