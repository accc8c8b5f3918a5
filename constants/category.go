package constants

import (
	"strings"
)

type Category string

const (
	Fruits     Category = "Fruits"
	Vegetables Category = "Vegetables"
	Dairy      Category = "Dairy"
	Meat       Category = "Meat"
	Seafood    Category = "Seafood"
	Grains     Category = "Grains"
	Staples    Category = "Staples"
	Frozen     Category = "Frozen"
	Beverages  Category = "Beverages"
	Snacks     Category = "Snacks"
	Other      Category = "Other"
)

var allCategories = []Category{
	Fruits,
	Vegetables,
	Dairy,
	Meat,
	Seafood,
	Grains,
	Staples,
	Frozen,
	Beverages,
	Snacks,
	Other,
}

// AllCategories returns a copy of the canonical category list.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"fruit":     Fruits,
		"vegetable": Vegetables,
		"veg":       Vegetables,
		"produce":   Vegetables,
		"milk":      Dairy,
		"poultry":   Meat,
		"fish":      Seafood,
		"grain":     Grains,
		"staple":    Staples,
		"beverage":  Beverages,
		"drinks":    Beverages,
		"snack":     Snacks,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}
