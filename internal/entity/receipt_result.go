package entity

import (
	"encoding/json"
	"time"
)

// ReceiptResult is the raw gateway output stored once per (user, receipt).
type ReceiptResult struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	ReceiptID string          `json:"receipt_id"`
	Result    json.RawMessage `json:"result"`
	Vendor    string          `json:"vendor,omitempty"`
	Total     string          `json:"total,omitempty"` // decimal string
	CreatedAt time.Time       `json:"created_at"`
}
