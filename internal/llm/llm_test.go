package llm

import (
	"testing"
)

func TestSanitizeItemFields(t *testing.T) {
	m := map[string]any{
		"name":        " Fresh Milk ",
		"Category":    "FOOD",
		"SUBCATEGORY": "null",
		"qty":         2.0,
	}
	changed := SanitizeItemFields(m)
	if len(changed) == 0 {
		t.Fatal("expected changes")
	}
	if m["ITEM"] != "Fresh Milk" {
		t.Errorf("ITEM = %#v", m["ITEM"])
	}
	if m["CATEGORY"] != "food" {
		t.Errorf("CATEGORY = %#v", m["CATEGORY"])
	}
	if m["SUBCATEGORY"] != nil {
		t.Errorf("SUBCATEGORY = %#v, want nil", m["SUBCATEGORY"])
	}
	if m["QUANTITY"] != 2.0 {
		t.Errorf("QUANTITY = %#v", m["QUANTITY"])
	}
	if _, ok := m["name"]; ok {
		t.Error("synonym key not removed")
	}
}

func TestReceiptItemSchema(t *testing.T) {
	schema := MustCompileSchema("item.json", BuildReceiptItemSchema([]string{"Fresh Milk", "Eggs"}))

	valid := []map[string]any{
		{"ITEM": "Milk", "CATEGORY": "food", "SUBCATEGORY": "Fresh Milk", "QUANTITY": "1"},
		{"ITEM": "Soap", "CATEGORY": "non-food", "SUBCATEGORY": nil, "QUANTITY": 2.0},
		{"ITEM": "Eggs"},
	}
	for _, v := range valid {
		if err := ValidateValue(schema, v); err != nil {
			t.Errorf("ValidateValue(%v): %v", v, err)
		}
	}

	invalid := []map[string]any{
		{"CATEGORY": "food"},
		{"ITEM": "Milk", "SUBCATEGORY": "Motor Oil"},
		{"ITEM": "Milk", "CATEGORY": "drink"},
	}
	for _, v := range invalid {
		if err := ValidateValue(schema, v); err == nil {
			t.Errorf("ValidateValue(%v): expected error", v)
		}
	}
}

func TestValidateJSONAgainstSchema_Recipe(t *testing.T) {
	ok := []byte(`{"title":"Fried Rice","prep_time":"20 mins","ingredients":["rice"],"instructions":["fry"],"available_ingredients":["rice"],"total_ingredients":1}`)
	if err := ValidateJSONAgainstSchema(BuildRecipeSchema(), ok); err != nil {
		t.Fatalf("valid recipe rejected: %v", err)
	}
	bad := []byte(`{"summary":"no title"}`)
	if err := ValidateJSONAgainstSchema(BuildRecipeSchema(), bad); err == nil {
		t.Fatal("expected missing title to fail")
	}
}
