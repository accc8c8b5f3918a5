package receipts

import (
	"strings"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// defaultBrandHints are local brands the model tends to misclassify without context.
var defaultBrandHints = []string{
	"Marigold is a dairy brand (milk, yoghurt, juices)",
	"Gold Roast is a coffee and cereal drink brand",
	"Yeo's makes canned drinks, sauces and canned food",
	"F&N makes soft drinks, canned milk and ice cream",
	"Kara is a coconut milk and cream brand",
	"Ayam Brand makes canned seafood and coconut milk",
	"Khong Guan is a biscuit brand",
	"Han's is a bakery and cafe brand (breads, cakes)",
	"Prima Taste makes cooking pastes and instant noodles",
	"Tong Garden makes nuts and snacks",
	"Bee Cheng Hiang sells bak kwa (dried meat)",
	"Koka and Myojo are instant noodle brands",
	"Chilli Brand is a cooking oil and sauce brand",
	"CP sells frozen and ready-to-eat meals",
	"SongHe and Golden Peony are rice brands",
	"Pasar is FairPrice's fresh produce label",
	"Mama Lemon is a dishwashing liquid (non-food)",
	"Softlan is a fabric softener (non-food)",
	"Top is a laundry detergent (non-food)",
	"Dumex Dugro and Mamil Gold are infant formula brands",
}

// Taxonomy is the read-only classification vocabulary shared by every receipt.
type Taxonomy struct {
	subcategories []string
	mapping       map[string]constants.Category
	folded        map[string]string
	brandHints    []string
}

// NewTaxonomy builds the default taxonomy.
func NewTaxonomy() *Taxonomy {
	return NewTaxonomyWith(constants.Subcategories(), constants.SubcategoryCategories(), defaultBrandHints)
}

// NewTaxonomyWith builds a taxonomy from explicit tables. The inputs are copied.
func NewTaxonomyWith(subcategories []string, mapping map[string]constants.Category, brandHints []string) *Taxonomy {
	t := &Taxonomy{
		subcategories: append([]string(nil), subcategories...),
		mapping:       make(map[string]constants.Category, len(mapping)),
		folded:        make(map[string]string, len(mapping)),
		brandHints:    append([]string(nil), brandHints...),
	}
	for k, v := range mapping {
		t.mapping[k] = v
		t.folded[strings.ToLower(k)] = k
	}
	return t
}

func (t *Taxonomy) Subcategories() []string { return append([]string(nil), t.subcategories...) }

func (t *Taxonomy) BrandHints() []string { return append([]string(nil), t.brandHints...) }

// MapSubcategory returns the pantry category of a sub-category label. Empty or
// unknown labels map to Other. Matching tolerates case differences.
func (t *Taxonomy) MapSubcategory(sub string) constants.Category {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return constants.Other
	}
	if c, ok := t.mapping[sub]; ok {
		return c
	}
	if key, ok := t.folded[strings.ToLower(sub)]; ok {
		return t.mapping[key]
	}
	return constants.Other
}
