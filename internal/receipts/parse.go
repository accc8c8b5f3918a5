package receipts

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// purchaseDateLayouts are tried in order; day-first wins for ambiguous dates.
var purchaseDateLayouts = []string{"2/1/2006", "1/2/2006", "2006-1-2"}

// ParseQuantity reads a quantity from a model value. Numbers and numeric strings
// are taken as-is, otherwise the first number inside the string is used. When
// nothing numeric or positive is found it returns 1 and false.
func ParseQuantity(v any) (float64, bool) {
	q, ok := parseNumber(v)
	if !ok || q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return 1.0, false
	}
	return q, true
}

func parseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f, true
		}
	case string:
		s := strings.TrimSpace(x)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		if m := reNumber.FindString(s); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// ParsePurchaseDate reads the receipt header date in UTC. When v is not a string
// in a known layout it returns now and false.
func ParsePurchaseDate(v any, now time.Time) (time.Time, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range purchaseDateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, true
			}
		}
	}
	return now.UTC(), false
}
