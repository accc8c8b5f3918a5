package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

const pantryItemsTable = "pantry_items"

var pantryItemColumns = []string{
	"id", "user_id", "item_name", "quantity", "unit", "category",
	"purchase_date", "expiry_date", "created_at", "updated_at",
}

// PantryItemRepository defines the interface for pantry item data operations
type PantryItemRepository interface {
	Insert(ctx context.Context, userID int64, drafts []entity.PantryItemDraft) ([]entity.PantryItem, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.PantryItem, error)
	GetByIDs(ctx context.Context, userID int64, ids []int64) ([]entity.PantryItem, error)
	Update(ctx context.Context, item *entity.PantryItem) (*entity.PantryItem, error)
	Delete(ctx context.Context, userID int64, ids []int64) error
}

type pantryItemRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

// NewPantryItemRepository creates a new pantry item repository
func NewPantryItemRepository(db *DB, logger *slog.Logger) PantryItemRepository {
	return &pantryItemRepository{db: db, logger: logger, now: time.Now}
}

// Insert stores all drafts in one transaction; either every row lands or none do.
func (r *pantryItemRepository) Insert(ctx context.Context, userID int64, drafts []entity.PantryItemDraft) ([]entity.PantryItem, error) {
	now := r.now().UTC()
	out := make([]entity.PantryItem, 0, len(drafts))

	err := r.db.inTx(ctx, func(tx dialect.ExecQuerier) error {
		for _, d := range drafts {
			item := entity.PantryItem{
				UserID:       userID,
				ItemName:     d.ItemName,
				Quantity:     d.Quantity,
				Unit:         d.Unit,
				Category:     d.Category,
				PurchaseDate: d.PurchaseDate.UTC(),
				ExpiryDate:   d.ExpiryDate.UTC(),
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			q := r.db.builder().
				Insert(pantryItemsTable).
				Columns(pantryItemColumns[1:]...).
				Values(item.UserID, item.ItemName, item.Quantity, string(item.Unit), string(item.Category),
					item.PurchaseDate, item.ExpiryDate, item.CreatedAt, item.UpdatedAt).
				Returning("id")
			if err := queryQ(ctx, tx, q, func(rows *entsql.Rows) error {
				return rows.Scan(&item.ID)
			}); err != nil {
				return fmt.Errorf("insert %q: %w", d.ItemName, err)
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to insert pantry items", "user_id", userID, "count", len(drafts), "error", err)
		return nil, err
	}
	r.logger.Debug("pantry items inserted", "user_id", userID, "count", len(out))
	return out, nil
}

func (r *pantryItemRepository) ListByUser(ctx context.Context, userID int64) ([]entity.PantryItem, error) {
	q := r.selectItems(entsql.EQ("user_id", userID))
	q.OrderExpr(entsql.Expr("expiry_date ASC, id ASC"))
	items, err := r.scan(ctx, q)
	if err != nil {
		r.logger.Error("failed to list pantry items", "user_id", userID, "error", err)
		return nil, fmt.Errorf("list pantry items: %w", err)
	}
	return items, nil
}

// GetByIDs returns the subset of ids owned by userID.
func (r *pantryItemRepository) GetByIDs(ctx context.Context, userID int64, ids []int64) ([]entity.PantryItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := r.selectItems(entsql.And(
		entsql.EQ("user_id", userID),
		entsql.In("id", int64Args(ids)...),
	))
	q.OrderExpr(entsql.Expr("id ASC"))
	items, err := r.scan(ctx, q)
	if err != nil {
		r.logger.Error("failed to get pantry items", "user_id", userID, "ids", ids, "error", err)
		return nil, fmt.Errorf("get pantry items: %w", err)
	}
	return items, nil
}

func (r *pantryItemRepository) Update(ctx context.Context, item *entity.PantryItem) (*entity.PantryItem, error) {
	updated := *item
	updated.UpdatedAt = r.now().UTC()
	updated.PurchaseDate = item.PurchaseDate.UTC()
	updated.ExpiryDate = item.ExpiryDate.UTC()

	q := r.db.builder().
		Update(pantryItemsTable).
		Set("item_name", updated.ItemName).
		Set("quantity", updated.Quantity).
		Set("unit", string(updated.Unit)).
		Set("category", string(updated.Category)).
		Set("purchase_date", updated.PurchaseDate).
		Set("expiry_date", updated.ExpiryDate).
		Set("updated_at", updated.UpdatedAt).
		Where(entsql.And(
			entsql.EQ("id", updated.ID),
			entsql.EQ("user_id", updated.UserID),
		))
	n, err := execQ(ctx, r.db.drv, q)
	if err != nil {
		r.logger.Error("failed to update pantry item", "id", item.ID, "error", err)
		return nil, fmt.Errorf("update pantry item %d: %w", item.ID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update pantry item %d: no rows affected", item.ID)
	}
	return &updated, nil
}

func (r *pantryItemRepository) Delete(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	q := r.db.builder().
		Delete(pantryItemsTable).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.In("id", int64Args(ids)...),
		))
	n, err := execQ(ctx, r.db.drv, q)
	if err != nil {
		r.logger.Error("failed to delete pantry items", "user_id", userID, "ids", ids, "error", err)
		return fmt.Errorf("delete pantry items: %w", err)
	}
	r.logger.Debug("pantry items deleted", "user_id", userID, "count", n)
	return nil
}

func (r *pantryItemRepository) selectItems(where *entsql.Predicate) *entsql.Selector {
	return r.db.builder().
		Select(pantryItemColumns...).
		From(r.db.builder().Table(pantryItemsTable)).
		Where(where)
}

func (r *pantryItemRepository) scan(ctx context.Context, q *entsql.Selector) ([]entity.PantryItem, error) {
	var items []entity.PantryItem
	err := queryQ(ctx, r.db.drv, q, func(rows *entsql.Rows) error {
		var (
			it       entity.PantryItem
			unit     string
			category string
		)
		if err := rows.Scan(&it.ID, &it.UserID, &it.ItemName, &it.Quantity, &unit, &category,
			&it.PurchaseDate, &it.ExpiryDate, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return err
		}
		it.Unit = constants.Unit(unit)
		it.Category = constants.Category(category)
		it.PurchaseDate = it.PurchaseDate.UTC()
		it.ExpiryDate = it.ExpiryDate.UTC()
		items = append(items, it)
		return nil
	})
	return items, err
}
