package receipts

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanItemName folds an OCR line into a single NFC-normalised line.
func CleanItemName(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(norm.NFC.String(s))
}

// BuildClassificationPrompt renders the single-turn prompt for a list of item names.
func BuildClassificationPrompt(items []string, tax *Taxonomy) string {
	quoted := make([]string, 0, len(tax.subcategories))
	for _, s := range tax.subcategories {
		quoted = append(quoted, `"`+s+`"`)
	}

	var b strings.Builder
	b.WriteString("You are a helpful assistant trained to classify receipt items from Singapore supermarkets.\n")
	b.WriteString("Use this context to determine whether an item is a food or non-food item and assign a sub-category.\n")
	if len(tax.brandHints) > 0 {
		b.WriteString("Local brand hints:\n")
		for _, h := range tax.brandHints {
			b.WriteString("- ")
			b.WriteString(h)
			b.WriteString("\n")
		}
	}
	b.WriteString("For each item, return JSON with fields ITEM, CATEGORY, SUBCATEGORY, QUANTITY.\n")
	fmt.Fprintf(&b, "If food, SUBCATEGORY must be one of: %s. For non-food, SUBCATEGORY is null.\n", strings.Join(quoted, ", "))
	b.WriteString("Items:\n")
	for i, name := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, CleanItemName(name))
	}
	return b.String()
}
