package constants

var subcategories = []string{
	"Baby & Toddler Food",
	"Baking Needs",
	"Beef & Lamb",
	"Beer",
	"Beverages",
	"Biscuits",
	"Breads",
	"Breakfast",
	"Butter, Margarine & Spreads",
	"Canned Food",
	"Champagne & Sparkling Wine",
	"Cheese",
	"Chicken",
	"Chilled Beverages",
	"Chilled Food",
	"Chocolates",
	"Coffee",
	"Condiments",
	"Cooking Paste & Sauces",
	"Cream",
	"Delicatessen",
	"Dried Fruits & Nuts",
	"Drink Mixers",
	"Eggs",
	"Fish & Seafood",
	"Fresh Milk",
	"Frozen Desserts",
	"Frozen Food",
	"Frozen Meat",
	"Frozen Seafood",
	"Fruits",
	"Ice Cream",
	"Infant Formula",
	"Jams, Spreads & Honey",
	"Juices",
	"Meatballs",
	"Milk Powder",
	"Non Alcoholic",
	"Noodles",
	"Oil",
	"Pasta",
	"Pork",
	"Ready-To-Eat",
	"Rice",
	"Seasonings",
	"Snacks",
	"Soups",
	"Spirits",
	"Sugar & Sweeteners",
	"Sweets",
	"Tea",
	"Uht Milk",
	"Vegetables",
	"Water",
	"Wine",
	"Yoghurt",
}

var subcategoryCategories = map[string]Category{
	"Baby & Toddler Food":         Staples,
	"Baking Needs":                Staples,
	"Beef & Lamb":                 Meat,
	"Beer":                        Beverages,
	"Beverages":                   Beverages,
	"Biscuits":                    Snacks,
	"Breads":                      Grains,
	"Breakfast":                   Grains,
	"Butter, Margarine & Spreads": Dairy,
	"Canned Food":                 Staples,
	"Champagne & Sparkling Wine":  Beverages,
	"Cheese":                      Dairy,
	"Chicken":                     Meat,
	"Chilled Beverages":           Beverages,
	"Chilled Food":                Other,
	"Chocolates":                  Snacks,
	"Coffee":                      Beverages,
	"Condiments":                  Staples,
	"Cooking Paste & Sauces":      Staples,
	"Cream":                       Dairy,
	"Delicatessen":                Meat,
	"Dried Fruits & Nuts":         Snacks,
	"Drink Mixers":                Beverages,
	"Eggs":                        Dairy,
	"Fish & Seafood":              Seafood,
	"Fresh Milk":                  Dairy,
	"Frozen Desserts":             Frozen,
	"Frozen Food":                 Frozen,
	"Frozen Meat":                 Frozen,
	"Frozen Seafood":              Frozen,
	"Fruits":                      Fruits,
	"Ice Cream":                   Frozen,
	"Infant Formula":              Staples,
	"Jams, Spreads & Honey":       Staples,
	"Juices":                      Beverages,
	"Meatballs":                   Meat,
	"Milk Powder":                 Staples,
	"Non Alcoholic":               Beverages,
	"Noodles":                     Grains,
	"Oil":                         Staples,
	"Pasta":                       Grains,
	"Pork":                        Meat,
	"Ready-To-Eat":                Other,
	"Rice":                        Grains,
	"Seasonings":                  Staples,
	"Snacks":                      Snacks,
	"Soups":                       Staples,
	"Spirits":                     Beverages,
	"Sugar & Sweeteners":          Staples,
	"Sweets":                      Snacks,
	"Tea":                         Beverages,
	"Uht Milk":                    Dairy,
	"Vegetables":                  Vegetables,
	"Water":                       Beverages,
	"Wine":                        Beverages,
	"Yoghurt":                     Dairy,
}

// Subcategories returns a copy of the fixed taxonomy the receipt classifier may choose from.
func Subcategories() []string {
	out := make([]string, len(subcategories))
	copy(out, subcategories)
	return out
}

// SubcategoryCategories returns a copy of the sub-category to pantry category mapping.
func SubcategoryCategories() map[string]Category {
	out := make(map[string]Category, len(subcategoryCategories))
	for k, v := range subcategoryCategories {
		out[k] = v
	}
	return out
}
