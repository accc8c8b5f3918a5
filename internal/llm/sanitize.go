package llm

import (
	"strings"
)

// itemKeySynonyms maps lower-cased keys models commonly emit onto the prompt's field names.
var itemKeySynonyms = map[string]string{
	"item":         "ITEM",
	"name":         "ITEM",
	"item_name":    "ITEM",
	"category":     "CATEGORY",
	"type":         "CATEGORY",
	"subcategory":  "SUBCATEGORY",
	"sub_category": "SUBCATEGORY",
	"quantity":     "QUANTITY",
	"qty":          "QUANTITY",
}

// SanitizeItemFields normalises one classified item in place and reports what it changed:
//   - renames known key synonyms (name -> ITEM, qty -> QUANTITY, ...)
//   - trims string values
//   - turns "", "null", "none" and "n/a" into nil for CATEGORY and SUBCATEGORY
//   - lower-cases CATEGORY
func SanitizeItemFields(m map[string]any) []string {
	var changed []string

	for k, v := range m {
		canon, ok := itemKeySynonyms[strings.ToLower(k)]
		if !ok || canon == k {
			continue
		}
		if _, exists := m[canon]; !exists {
			m[canon] = v
		}
		delete(m, k)
		changed = append(changed, k+"->"+canon)
	}

	for k, v := range m {
		if s, ok := v.(string); ok {
			if t := strings.TrimSpace(s); t != s {
				m[k] = t
				changed = append(changed, k)
			}
		}
	}

	for _, k := range []string{"CATEGORY", "SUBCATEGORY"} {
		s, ok := m[k].(string)
		if !ok {
			continue
		}
		switch strings.ToLower(s) {
		case "", "null", "none", "n/a":
			m[k] = nil
			changed = append(changed, k)
		}
	}

	if s, ok := m["CATEGORY"].(string); ok {
		m["CATEGORY"] = strings.ToLower(s)
	}
	return changed
}
