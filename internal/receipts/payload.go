package receipts

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

var reAmount = regexp.MustCompile(`-?\d+(?:[.,]\d+)*`)

// ReceiptPayload is the OCR gateway output for one receipt.
type ReceiptPayload struct {
	ReceiptID string           `json:"ReceiptId,omitempty"`
	Vendor    any              `json:"Vendor,omitempty"`
	Date      any              `json:"Date,omitempty"`
	Total     any              `json:"Total,omitempty"`
	Items     []map[string]any `json:"Items"`
}

// ParsePayload decodes a gateway result body.
func ParsePayload(raw []byte) (ReceiptPayload, error) {
	var p ReceiptPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ReceiptPayload{}, fmt.Errorf("decode receipt payload: %w", err)
	}
	return p, nil
}

// ItemNames returns the ITEM field of every line, in receipt order.
func (p ReceiptPayload) ItemNames() []string {
	names := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		names = append(names, CleanItemName(stringOf(it["ITEM"])))
	}
	return names
}

// ProductCodes maps cleaned item names to the PRODUCT_CODE printed on the line, when present.
func (p ReceiptPayload) ProductCodes() map[string]string {
	codes := make(map[string]string)
	for _, it := range p.Items {
		code := strings.TrimSpace(stringOf(it["PRODUCT_CODE"]))
		if code == "" {
			continue
		}
		codes[strings.ToLower(CleanItemName(stringOf(it["ITEM"])))] = code
	}
	return codes
}

// VendorName returns the vendor, or "" when the gateway reported none.
func (p ReceiptPayload) VendorName() string {
	v := strings.TrimSpace(stringOf(p.Vendor))
	if strings.EqualFold(v, "N/A") {
		return ""
	}
	return v
}

// Supermarket identifies a partnered supermarket from the vendor name.
func (p ReceiptPayload) Supermarket() constants.SupermarketType {
	v := strings.ToLower(p.VendorName())
	switch {
	case v == "":
		return ""
	case strings.Contains(v, "fairprice"), strings.Contains(v, "ntuc"):
		return constants.FairPrice
	case strings.Contains(v, "giant"):
		return constants.Giant
	}
	return ""
}

// TotalAmount parses the receipt total ("$12.30", "12,30", 12.3). It reports
// false when the gateway could not read one.
func (p ReceiptPayload) TotalAmount() (decimal.Decimal, bool) {
	switch x := p.Total.(type) {
	case float64:
		return decimal.NewFromFloat(x), true
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case string:
		m := reAmount.FindString(x)
		if m == "" {
			return decimal.Zero, false
		}
		if strings.Count(m, ",") == 1 && !strings.Contains(m, ".") {
			m = strings.Replace(m, ",", ".", 1)
		} else {
			m = strings.ReplaceAll(m, ",", "")
		}
		d, err := decimal.NewFromString(m)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
