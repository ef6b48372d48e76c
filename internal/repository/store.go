package repository

import (
	"context"

	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

// ReceiptStore persists accepted receipts.
type ReceiptStore interface {
	Save(ctx context.Context, id string, r entity.Receipt, valid bool, reason string) error
	Get(ctx context.Context, id string) (*entity.StoredReceipt, error)
	// List returns the most recent receipts first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*entity.StoredReceipt, error)
	Close() error
}
