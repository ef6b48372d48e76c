package parse

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-extractor/constants"
)

func newTestParser() *Parser {
	return New(
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestParseScenarioA(t *testing.T) {
	rec := newTestParser().Parse([]string{
		"ABC GIDA TİC. LTD. ŞTİ.",
		"Istanbul Kadıköy Mah. No:5",
		"VKN: 1234567890",
		"01.06.2024",
		"TOPLAM 275,00",
		"KDV %10 25,00",
	})

	require.NotNil(t, rec.BusinessName)
	assert.Equal(t, "ABC GIDA", *rec.BusinessName)
	require.NotNil(t, rec.TransactionDate)
	assert.Equal(t, "01.06.2024", *rec.TransactionDate)
	require.NotNil(t, rec.TotalAmount)
	assert.InDelta(t, 275.00, *rec.TotalAmount, 1e-9)
	require.NotNil(t, rec.VatAmount)
	assert.InDelta(t, 25.00, *rec.VatAmount, 1e-9)
	assert.Nil(t, rec.ReceiptNumber)
	assert.Nil(t, rec.PaymentType)
	assert.NotNil(t, rec.Products)
	assert.Empty(t, rec.Products)
}

func TestParseFullReceipt(t *testing.T) {
	text := `
MİGROS TİCARET A.Ş.
Atatürk Cad. No:10 İstanbul
VKN: 6220529513
TARİH: 12.05.2024 SAAT: 14:02
FİŞ NO: 0087
EKMEK 2 x 7,50 15,00
SÜT 1 32,50
YİYECEK *%110
TOPKDV *4,23
TOPLAM *47,50
TOPLAM *99,00
KREDİ KARTI *47,50
`
	rec := newTestParser().ParseText(text)

	require.NotNil(t, rec.BusinessName)
	assert.Equal(t, "MİGROS", *rec.BusinessName)
	require.NotNil(t, rec.TransactionDate)
	assert.Equal(t, "12.05.2024", *rec.TransactionDate)
	require.NotNil(t, rec.ReceiptNumber)
	assert.Equal(t, "0087", *rec.ReceiptNumber)
	require.NotNil(t, rec.VatAmount)
	assert.InDelta(t, 4.23, *rec.VatAmount, 1e-9)
	require.NotNil(t, rec.TotalAmount)
	assert.InDelta(t, 47.50, *rec.TotalAmount, 1e-9, "first total line wins")
	require.NotNil(t, rec.TransactionType)
	assert.Equal(t, constants.Food, rec.TransactionType.Category)
	require.NotNil(t, rec.TransactionType.VatRate)
	assert.InDelta(t, 10.0, *rec.TransactionType.VatRate, 1e-9)
	require.NotNil(t, rec.PaymentType)
	assert.Equal(t, constants.PaymentCard, *rec.PaymentType)

	require.Len(t, rec.Products, 2)
	assert.Equal(t, "EKMEK", rec.Products[0].Name)
	assert.InDelta(t, 15.0, rec.Products[0].LineTotal, 1e-9)
	assert.Equal(t, "SÜT", rec.Products[1].Name)
	assert.InDelta(t, 32.5, rec.Products[1].LineTotal, 1e-9)
}

func TestParseInclusiveTotalIsNotVAT(t *testing.T) {
	rec := newTestParser().Parse([]string{
		"ABC GIDA LTD. ŞTİ.",
		"KDV DAHİL TOPLAM 275,00",
		"KDV %10 25,00",
	})

	require.NotNil(t, rec.TotalAmount)
	assert.InDelta(t, 275, *rec.TotalAmount, 1e-9)
	require.NotNil(t, rec.VatAmount)
	assert.InDelta(t, 25, *rec.VatAmount, 1e-9)
}

func TestParseEmptyInput(t *testing.T) {
	rec := newTestParser().Parse([]string{"", "   "})

	assert.Nil(t, rec.BusinessName)
	assert.Nil(t, rec.TransactionDate)
	assert.Nil(t, rec.TotalAmount)
	assert.Nil(t, rec.VatAmount)
	assert.Empty(t, rec.Products)
}

func TestParserIsSafeForConcurrentUse(t *testing.T) {
	ps := newTestParser()
	lines := []string{"ABC GIDA TİC. LTD. ŞTİ.", "01.06.2024", "TOPLAM 275,00", "KDV %10 25,00"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := ps.Parse(lines)
			assert.NotNil(t, rec.TotalAmount)
		}()
	}
	wg.Wait()
}
