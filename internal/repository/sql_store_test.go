package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

func str(s string) *string { return &s }
func num(v float64) *float64 { return &v }

func sampleReceipt() entity.Receipt {
	card := constants.PaymentCard
	qty := 2
	return entity.Receipt{
		BusinessName:    str("MİGROS"),
		TransactionDate: str("12.05.2024"),
		ReceiptNumber:   str("0087"),
		Products: []entity.LineItem{
			{Name: "EKMEK", Quantity: &qty, UnitPrice: num(7.5), LineTotal: 15},
		},
		VatAmount:       num(4.23),
		TotalAmount:     num(47.5),
		TransactionType: &entity.TransactionType{Category: constants.Food, VatRate: num(10)},
		PaymentType:     &card,
	}
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "receipts.db"), nil)
	require.NoError(t, err)
	s, err := NewSQLStore(context.Background(), db, DialectSQLite, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStore_SaveGet(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "r1", sampleReceipt(), true, ""))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.True(t, got.Valid)
	assert.Equal(t, sampleReceipt(), got.Receipt)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestSQLStore_NullsAndUpsert(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "r2", entity.Receipt{TotalAmount: num(5)}, false, "Toplam tutar 5 alt limitin (10) altında"))
	got, err := s.Get(ctx, "r2")
	require.NoError(t, err)
	assert.Nil(t, got.Receipt.BusinessName)
	assert.Nil(t, got.Receipt.TransactionType)
	assert.Nil(t, got.Receipt.PaymentType)
	assert.Empty(t, got.Receipt.Products)
	assert.False(t, got.Valid)
	assert.NotEmpty(t, got.InvalidReason)

	require.NoError(t, s.Save(ctx, "r2", sampleReceipt(), true, ""))
	got, err = s.Get(ctx, "r2")
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, "MİGROS", *got.Receipt.BusinessName)
}

func TestSQLStore_List(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		require.NoError(t, s.Save(ctx, id, sampleReceipt(), true, ""))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestSQLStore_NotFound(t *testing.T) {
	s := newSQLiteStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
