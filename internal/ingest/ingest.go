// Package ingest feeds receipt payload files from disk into the classifier.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/receipts"
)

// FileResult is the per-file ingest outcome.
type FileResult struct {
	Path         string
	HashHex      string
	Items        int
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Classifier is satisfied by *receipts.Classifier.
type Classifier interface {
	Classify(ctx context.Context, userID int64, payload receipts.ReceiptPayload) ([]entity.PantryItemDraft, error)
}
