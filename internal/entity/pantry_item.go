package entity

import (
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// MaxItemNameLen is the rune limit of a pantry item name; keep in sync with the max tag below.
const MaxItemNameLen = 255

// PantryItemDraft is a pantry item that has not been persisted yet.
type PantryItemDraft struct {
	ItemName     string             `json:"item_name" validate:"required,max=255"`
	Quantity     float64            `json:"quantity" validate:"gt=0"`
	Unit         constants.Unit     `json:"unit" validate:"unit"`
	Category     constants.Category `json:"category" validate:"category"`
	PurchaseDate time.Time          `json:"purchase_date" validate:"required"`
	ExpiryDate   time.Time          `json:"expiry_date" validate:"required"`

	// Set when the value was defaulted instead of read from the source.
	QuantityInferred     bool   `json:"quantity_inferred,omitempty"`
	PurchaseDateInferred bool   `json:"purchase_date_inferred,omitempty"`
	ExpirySource         string `json:"expiry_source,omitempty"`
}

// PantryItem represents a stored pantry item for data transfer between layers.
type PantryItem struct {
	ID           int64              `json:"id"`
	UserID       int64              `json:"user_id"`
	ItemName     string             `json:"item_name"`
	Quantity     float64            `json:"quantity"`
	Unit         constants.Unit     `json:"unit"`
	Category     constants.Category `json:"category"`
	PurchaseDate time.Time          `json:"purchase_date"`
	ExpiryDate   time.Time          `json:"expiry_date"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// PantryItemUpdate carries the mutable fields of a pantry item; nil fields are left unchanged.
type PantryItemUpdate struct {
	ID           int64               `json:"id" validate:"required,gt=0"`
	ItemName     *string             `json:"item_name,omitempty" validate:"omitempty,min=1,max=255"`
	Quantity     *float64            `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Unit         *constants.Unit     `json:"unit,omitempty" validate:"omitempty,unit"`
	Category     *constants.Category `json:"category,omitempty" validate:"omitempty,category"`
	PurchaseDate *time.Time          `json:"purchase_date,omitempty"`
	ExpiryDate   *time.Time          `json:"expiry_date,omitempty"`
}

// PantryStats summarises a user's pantry relative to a reference day.
type PantryStats struct {
	Total         int `json:"total"`
	ExpiringSoon  int `json:"expiring_soon"`
	ExpiringToday int `json:"expiring_today"`
	Expired       int `json:"expired"`
}
