package expiry

import (
	"fmt"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// ShelfLifeTable maps a category to its default shelf life in days.
// It is immutable once built and safe for concurrent use.
type ShelfLifeTable struct {
	days map[constants.Category]int
}

// NewShelfLifeTable copies days. An entry for constants.Other is required
// because it is the default for unmapped categories.
func NewShelfLifeTable(days map[constants.Category]int) (*ShelfLifeTable, error) {
	if _, ok := days[constants.Other]; !ok {
		return nil, fmt.Errorf("shelf life table: missing %q default entry", constants.Other)
	}
	cp := make(map[constants.Category]int, len(days))
	for c, d := range days {
		if d < 0 {
			return nil, fmt.Errorf("shelf life table: negative shelf life for %q", c)
		}
		cp[c] = d
	}
	return &ShelfLifeTable{days: cp}, nil
}

// DefaultShelfLifeTable returns the built-in per-category shelf lives.
func DefaultShelfLifeTable() *ShelfLifeTable {
	t, _ := NewShelfLifeTable(map[constants.Category]int{
		constants.Fruits:     7,
		constants.Vegetables: 5,
		constants.Dairy:      10,
		constants.Meat:       3,
		constants.Seafood:    2,
		constants.Grains:     180,
		constants.Staples:    365,
		constants.Frozen:     90,
		constants.Beverages:  60,
		constants.Snacks:     120,
		constants.Other:      30,
	})
	return t
}

// Days returns the shelf life of category, falling back to the Other entry.
func (t *ShelfLifeTable) Days(category constants.Category) int {
	if d, ok := t.days[category]; ok {
		return d
	}
	return t.days[constants.Other]
}

// Expiry returns purchaseDate (as a UTC calendar day) plus the category's shelf life.
func (t *ShelfLifeTable) Expiry(category constants.Category, purchaseDate time.Time) time.Time {
	return DateOnly(purchaseDate).AddDate(0, 0, t.Days(category))
}

// DateOnly truncates t to midnight UTC of its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
