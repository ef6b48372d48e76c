package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const receiptsTable = "receipts"

// schema is valid for both PostgreSQL and SQLite.
const schema = `CREATE TABLE IF NOT EXISTS receipts (
	id               TEXT PRIMARY KEY,
	business_name    TEXT,
	transaction_date TEXT,
	receipt_number   TEXT,
	vat_amount       DOUBLE PRECISION,
	total_amount     DOUBLE PRECISION,
	category         TEXT,
	vat_rate         DOUBLE PRECISION,
	payment_type     TEXT,
	products         TEXT NOT NULL,
	valid            BOOLEAN NOT NULL,
	invalid_reason   TEXT NOT NULL,
	created_at       BIGINT NOT NULL
)`

var receiptColumns = []string{
	"id", "business_name", "transaction_date", "receipt_number", "vat_amount", "total_amount",
	"category", "vat_rate", "payment_type", "products", "valid", "invalid_reason", "created_at",
}

// SQLStore is a ReceiptStore over database/sql with squirrel-built queries.
type SQLStore struct {
	db      *sql.DB
	sb      sq.StatementBuilderType
	dialect Dialect
	now     func() time.Time
	logger  *slog.Logger
	onClose []func()
}

// NewSQLStore runs the migration and returns a ready store.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var ph sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		ph = sq.Dollar
	}
	s := &SQLStore{
		db:      db,
		sb:      sq.StatementBuilder.PlaceholderFormat(ph),
		dialect: dialect,
		now:     time.Now,
		logger:  logger,
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "migrate receipts table", errors.Join(common.ErrDatabase, err))
	}
	return s, nil
}

func (s *SQLStore) Save(ctx context.Context, id string, r entity.Receipt, valid bool, reason string) error {
	products, err := json.Marshal(nonNilProducts(r.Products))
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	var category *string
	var rate *float64
	if r.TransactionType != nil {
		c := string(r.TransactionType.Category)
		category, rate = &c, r.TransactionType.VatRate
	}
	var payment *string
	if r.PaymentType != nil {
		p := string(*r.PaymentType)
		payment = &p
	}

	q := s.sb.Insert(receiptsTable).
		Columns(receiptColumns...).
		Values(id, r.BusinessName, r.TransactionDate, r.ReceiptNumber, r.VatAmount, r.TotalAmount,
			category, rate, payment, string(products), valid, reason, s.now().UnixNano()).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			business_name = excluded.business_name,
			transaction_date = excluded.transaction_date,
			receipt_number = excluded.receipt_number,
			vat_amount = excluded.vat_amount,
			total_amount = excluded.total_amount,
			category = excluded.category,
			vat_rate = excluded.vat_rate,
			payment_type = excluded.payment_type,
			products = excluded.products,
			valid = excluded.valid,
			invalid_reason = excluded.invalid_reason`)

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Error("store.receipt.save_failed", "id", id, "error", err)
		return common.WrapError(errors.Join(common.ErrDatabase, err), "save receipt")
	}
	s.logger.Debug("store.receipt.saved", "id", id, "valid", valid)
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*entity.StoredReceipt, error) {
	query, args, err := s.sb.Select(receiptColumns...).From(receiptsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	out, err := scanReceipt(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewNotFoundError("receipt " + id + " not found")
	}
	if err != nil {
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "get receipt")
	}
	return out, nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]*entity.StoredReceipt, error) {
	b := s.sb.Select(receiptColumns...).From(receiptsTable).OrderBy("created_at DESC", "id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "list receipts")
	}
	defer rows.Close()

	var out []*entity.StoredReceipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "scan receipt")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// OnClose registers fn to run after the database is closed.
func (s *SQLStore) OnClose(fn func()) {
	s.onClose = append(s.onClose, fn)
}

func (s *SQLStore) Close() error {
	err := s.db.Close()
	for _, fn := range s.onClose {
		fn()
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*entity.StoredReceipt, error) {
	var (
		out                entity.StoredReceipt
		name, date, number sql.NullString
		category, payment  sql.NullString
		vat, total, rate   sql.NullFloat64
		products, reason   string
		createdAt          int64
	)
	if err := row.Scan(&out.ID, &name, &date, &number, &vat, &total,
		&category, &rate, &payment, &products, &out.Valid, &reason, &createdAt); err != nil {
		return nil, err
	}

	r := &out.Receipt
	r.BusinessName = nullString(name)
	r.TransactionDate = nullString(date)
	r.ReceiptNumber = nullString(number)
	r.VatAmount = nullFloat(vat)
	r.TotalAmount = nullFloat(total)
	if category.Valid {
		r.TransactionType = &entity.TransactionType{
			Category: constants.Category(category.String),
			VatRate:  nullFloat(rate),
		}
	}
	if payment.Valid {
		p := constants.PaymentType(payment.String)
		r.PaymentType = &p
	}
	if err := json.Unmarshal([]byte(products), &r.Products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	out.InvalidReason = reason
	out.CreatedAt = time.Unix(0, createdAt).UTC()
	return &out, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nonNilProducts(p []entity.LineItem) []entity.LineItem {
	if p == nil {
		return []entity.LineItem{}
	}
	return p
}
