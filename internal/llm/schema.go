package llm

// BuildReceiptItemSchema returns the JSON schema (draft 2020-12 subset) of one
// classified receipt line. SUBCATEGORY is constrained to allowed when given.
func BuildReceiptItemSchema(allowedSubcategories []string) map[string]any {
	subcat := map[string]any{"type": []any{"string", "null"}}
	if len(allowedSubcategories) > 0 {
		enum := make([]any, 0, len(allowedSubcategories)+1)
		for _, s := range allowedSubcategories {
			enum = append(enum, s)
		}
		subcat["enum"] = append(enum, nil)
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ITEM":        map[string]any{"type": "string", "minLength": 1},
			"CATEGORY":    map[string]any{"type": []any{"string", "null"}, "enum": []any{"food", "non-food", nil}},
			"SUBCATEGORY": subcat,
			"QUANTITY":    map[string]any{"type": []any{"string", "number", "null"}},
		},
		"required": []any{"ITEM"},
	}
}

// BuildRecipeSchema returns the JSON schema of the recipe object the chat prompt asks for.
func BuildRecipeSchema() map[string]any {
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":                 map[string]any{"type": "string", "minLength": 1},
			"summary":               map[string]any{"type": []any{"string", "null"}},
			"prep_time":             map[string]any{"type": []any{"string", "number", "null"}},
			"ingredients":           stringList,
			"instructions":          stringList,
			"available_ingredients": map[string]any{"type": []any{"integer", "array"}},
			"total_ingredients":     map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []any{"title"},
	}
}
