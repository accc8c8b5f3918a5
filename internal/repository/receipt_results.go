package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

const receiptResultsTable = "receipt_results"

// ReceiptResultRepository stores gateway results once per (user, receipt).
type ReceiptResultRepository interface {
	Get(ctx context.Context, userID int64, receiptID string) (*entity.ReceiptResult, error)
	Put(ctx context.Context, r *entity.ReceiptResult) (bool, error)
	Delete(ctx context.Context, userID int64, receiptID string) error
}

type receiptResultRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewReceiptResultRepository creates a new receipt result repository.
func NewReceiptResultRepository(db *DB, logger *slog.Logger) ReceiptResultRepository {
	return &receiptResultRepository{db: db, logger: logger}
}

// Get returns nil, nil when no result is stored.
func (r *receiptResultRepository) Get(ctx context.Context, userID int64, receiptID string) (*entity.ReceiptResult, error) {
	q := r.db.builder().
		Select("id", "user_id", "receipt_id", "result", "vendor", "total", "created_at").
		From(r.db.builder().Table(receiptResultsTable)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("receipt_id", receiptID),
		))

	var found *entity.ReceiptResult
	err := queryQ(ctx, r.db.drv, q, func(rows *entsql.Rows) error {
		var (
			res   entity.ReceiptResult
			raw   []byte
			total sql.NullString
		)
		if err := rows.Scan(&res.ID, &res.UserID, &res.ReceiptID, &raw, &res.Vendor, &total, &res.CreatedAt); err != nil {
			return err
		}
		res.Result = raw
		res.Total = total.String
		found = &res
		return nil
	})
	if err != nil {
		r.logger.Error("failed to load receipt result", "user_id", userID, "receipt_id", receiptID, "error", err)
		return nil, fmt.Errorf("get receipt result: %w", err)
	}
	return found, nil
}

// Put inserts res unless (user_id, receipt_id) already exists. The unique
// constraint decides, so concurrent callers see exactly one true.
func (r *receiptResultRepository) Put(ctx context.Context, res *entity.ReceiptResult) (bool, error) {
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	var total any
	if res.Total != "" {
		total = res.Total
	}

	q := r.db.builder().
		Insert(receiptResultsTable).
		Columns("user_id", "receipt_id", "result", "vendor", "total", "created_at").
		Values(res.UserID, res.ReceiptID, string(res.Result), res.Vendor, total, res.CreatedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("user_id", "receipt_id"),
			entsql.DoNothing(),
		).
		Returning("id")

	created := false
	err := queryQ(ctx, r.db.drv, q, func(rows *entsql.Rows) error {
		created = true
		return rows.Scan(&res.ID)
	})
	if err != nil {
		r.logger.Error("failed to store receipt result", "user_id", res.UserID, "receipt_id", res.ReceiptID, "error", err)
		return false, fmt.Errorf("put receipt result: %w", err)
	}
	r.logger.Debug("receipt result stored", "user_id", res.UserID, "receipt_id", res.ReceiptID, "created", created)
	return created, nil
}

func (r *receiptResultRepository) Delete(ctx context.Context, userID int64, receiptID string) error {
	q := r.db.builder().
		Delete(receiptResultsTable).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("receipt_id", receiptID),
		))
	if _, err := execQ(ctx, r.db.drv, q); err != nil {
		r.logger.Error("failed to delete receipt result", "user_id", userID, "receipt_id", receiptID, "error", err)
		return fmt.Errorf("delete receipt result: %w", err)
	}
	return nil
}
