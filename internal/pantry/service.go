package pantry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/expiry"
)

const (
	soonWindowDays = 7
	expiringLimit  = 3
)

var (
	ErrItemNotFound         = common.NewAppError("PANTRY_ITEM_NOT_FOUND", "pantry item not found", common.ErrNotFound)
	errExpiryBeforePurchase = common.NewAppError("INVALID_EXPIRY", "expiry date is before purchase date", common.ErrValidation)
)

// Store persists pantry items. Every method is scoped to one user.
type Store interface {
	// Insert stores drafts atomically and returns them with ids.
	Insert(ctx context.Context, userID int64, drafts []entity.PantryItemDraft) ([]entity.PantryItem, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.PantryItem, error)
	GetByIDs(ctx context.Context, userID int64, ids []int64) ([]entity.PantryItem, error)
	Update(ctx context.Context, item *entity.PantryItem) (*entity.PantryItem, error)
	Delete(ctx context.Context, userID int64, ids []int64) error
}

// ExpiryResolver fills in expiry dates for manually added items.
type ExpiryResolver interface {
	Resolve(ctx context.Context, q expiry.Query) expiry.Resolution
}

type Service struct {
	store    Store
	resolver ExpiryResolver
	validate *validatorv10.Validate
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(store Store, resolver ExpiryResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		resolver: resolver,
		validate: common.NewValidator(),
		now:      time.Now,
		logger:   logger,
	}
}

// AddItems stores drafts in one batch.
func (s *Service) AddItems(ctx context.Context, userID int64, drafts []entity.PantryItemDraft) error {
	_, err := s.Add(ctx, userID, drafts)
	return err
}

// Add validates drafts and stores them in one batch. A missing purchase date
// defaults to now and a missing expiry date is resolved from the category.
// One invalid draft rejects the whole batch.
func (s *Service) Add(ctx context.Context, userID int64, drafts []entity.PantryItemDraft) ([]entity.PantryItem, error) {
	if userID <= 0 {
		return nil, common.NewAppError("INVALID_USER", "user id is required", common.ErrInvalidInput)
	}
	if len(drafts) == 0 {
		return []entity.PantryItem{}, nil
	}

	prepared := make([]entity.PantryItemDraft, len(drafts))
	for i, d := range drafts {
		d = s.fillDefaults(ctx, d)
		if err := s.check(d); err != nil {
			s.logger.Warn("pantry.add.invalid", "user_id", userID, "index", i, "error", err)
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		prepared[i] = d
	}

	items, err := s.store.Insert(ctx, userID, prepared)
	if err != nil {
		s.logger.Error("pantry.add.store_error", "user_id", userID, "items", len(prepared), "error", err)
		return nil, fmt.Errorf("insert pantry items: %w", err)
	}
	s.logger.Info("pantry.add.ok", "user_id", userID, "items", len(items))
	return items, nil
}

func (s *Service) fillDefaults(ctx context.Context, d entity.PantryItemDraft) entity.PantryItemDraft {
	if d.Unit == "" {
		d.Unit = constants.DefaultUnit
	} else if u, ok := constants.ParseUnit(string(d.Unit)); ok {
		d.Unit = u
	}
	if c, ok := constants.Canonicalize(string(d.Category)); ok || d.Category == "" {
		d.Category = c
	}
	if d.PurchaseDate.IsZero() {
		d.PurchaseDate = s.now().UTC()
		d.PurchaseDateInferred = true
	}
	if d.ExpiryDate.IsZero() && s.resolver != nil {
		res := s.resolver.Resolve(ctx, expiry.Query{Category: d.Category, PurchaseDate: d.PurchaseDate})
		d.ExpiryDate = res.Date
		d.ExpirySource = res.Source
	}
	return d
}

// check validates d. The expiry may fall on the purchase day, whatever the purchase time.
func (s *Service) check(d entity.PantryItemDraft) error {
	if err := common.ValidateStruct(s.validate, d); err != nil {
		return err
	}
	if d.ExpiryDate.Before(expiry.DateOnly(d.PurchaseDate)) {
		return errExpiryBeforePurchase
	}
	return nil
}

// List returns the user's items, soonest expiry first.
func (s *Service) List(ctx context.Context, userID int64) ([]entity.PantryItem, error) {
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pantry items: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ExpiryDate.Before(items[j].ExpiryDate)
	})
	return items, nil
}

// Update applies the non-nil fields of u to an item owned by userID.
func (s *Service) Update(ctx context.Context, userID int64, u entity.PantryItemUpdate) (*entity.PantryItem, error) {
	if err := common.ValidateStruct(s.validate, u); err != nil {
		return nil, err
	}
	found, err := s.store.GetByIDs(ctx, userID, []int64{u.ID})
	if err != nil {
		return nil, fmt.Errorf("load pantry item %d: %w", u.ID, err)
	}
	if len(found) == 0 {
		s.logger.Warn("pantry.update.not_found", "user_id", userID, "item_id", u.ID)
		return nil, ErrItemNotFound
	}

	item := found[0]
	if u.ItemName != nil {
		item.ItemName = *u.ItemName
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.Unit != nil {
		item.Unit = *u.Unit
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.PurchaseDate != nil {
		item.PurchaseDate = u.PurchaseDate.UTC()
	}
	if u.ExpiryDate != nil {
		item.ExpiryDate = u.ExpiryDate.UTC()
	}
	if item.ExpiryDate.Before(expiry.DateOnly(item.PurchaseDate)) {
		return nil, errExpiryBeforePurchase
	}
	item.UpdatedAt = s.now().UTC()

	updated, err := s.store.Update(ctx, &item)
	if err != nil {
		return nil, fmt.Errorf("update pantry item %d: %w", u.ID, err)
	}
	return updated, nil
}

// Delete removes items, all of which must belong to userID.
func (s *Service) Delete(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return common.NewAppError("INVALID_INPUT", "item_ids is required", common.ErrInvalidInput)
	}
	found, err := s.store.GetByIDs(ctx, userID, ids)
	if err != nil {
		return fmt.Errorf("load pantry items: %w", err)
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		s.logger.Warn("pantry.delete.not_owned", "user_id", userID, "missing_item_ids", missing)
		return common.NewAppError("PANTRY_ITEM_NOT_FOUND",
			fmt.Sprintf("items do not exist or do not belong to the user: %v", missing), common.ErrNotFound)
	}
	if err := s.store.Delete(ctx, userID, ids); err != nil {
		return fmt.Errorf("delete pantry items: %w", err)
	}
	s.logger.Info("pantry.delete.ok", "user_id", userID, "items", len(ids))
	return nil
}

// Stats counts items by expiry relative to today (UTC).
func (s *Service) Stats(ctx context.Context, userID int64) (*entity.PantryStats, error) {
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pantry items: %w", err)
	}
	today := expiry.DateOnly(s.now())
	soon := today.AddDate(0, 0, soonWindowDays)

	st := &entity.PantryStats{Total: len(items)}
	for _, it := range items {
		d := expiry.DateOnly(it.ExpiryDate)
		switch {
		case d.Before(today):
			st.Expired++
		case d.Equal(today):
			st.ExpiringToday++
		case !d.After(soon):
			st.ExpiringSoon++
		}
	}
	return st, nil
}

// Expiring returns up to three items expiring within the next week, soonest first.
func (s *Service) Expiring(ctx context.Context, userID int64) ([]entity.PantryItem, error) {
	items, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	threshold := s.now().UTC().AddDate(0, 0, soonWindowDays)
	out := make([]entity.PantryItem, 0, expiringLimit)
	for _, it := range items {
		if it.ExpiryDate.After(threshold) {
			break
		}
		out = append(out, it)
		if len(out) == expiringLimit {
			break
		}
	}
	return out, nil
}

func missingIDs(want []int64, found []entity.PantryItem) []int64 {
	have := make(map[int64]struct{}, len(found))
	for _, it := range found {
		have[it.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
