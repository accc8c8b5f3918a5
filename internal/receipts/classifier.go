package receipts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/expiry"
	"github.com/joseph-ayodele/pantry-tracker/internal/llm"
	"github.com/joseph-ayodele/pantry-tracker/internal/textextract"
)

// PantrySink receives the drafts of one receipt in a single call.
type PantrySink interface {
	AddItems(ctx context.Context, userID int64, items []entity.PantryItemDraft) error
}

// ExpiryResolver resolves an expiry date; it never fails.
type ExpiryResolver interface {
	Resolve(ctx context.Context, q expiry.Query) expiry.Resolution
}

// ClassificationError aborts a whole receipt: no pantry item was written.
type ClassificationError struct {
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	if e.Err == nil {
		return "classification failed: " + e.Reason
	}
	return fmt.Sprintf("classification failed: %s: %v", e.Reason, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Classifier turns OCR receipt lines into pantry drafts through the LLM.
type Classifier struct {
	completer  llm.Completer
	sink       PantrySink
	resolver   ExpiryResolver
	taxonomy   *Taxonomy
	itemSchema *jsonschema.Schema
	now        func() time.Time
	logger     *slog.Logger
}

type ClassifierOption func(*Classifier)

func WithTaxonomy(t *Taxonomy) ClassifierOption {
	return func(c *Classifier) {
		if t != nil {
			c.taxonomy = t
		}
	}
}

// WithClock overrides the time source used when a receipt has no readable date.
func WithClock(now func() time.Time) ClassifierOption {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

func NewClassifier(completer llm.Completer, sink PantrySink, resolver ExpiryResolver, logger *slog.Logger, opts ...ClassifierOption) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{
		completer: completer,
		sink:      sink,
		resolver:  resolver,
		taxonomy:  NewTaxonomy(),
		now:       time.Now,
		logger:    logger,
	}
	for _, o := range opts {
		o(c)
	}
	c.itemSchema = llm.MustCompileSchema("receipt_item.json", llm.BuildReceiptItemSchema(c.taxonomy.subcategories))
	return c
}

// Classify classifies every line of payload and hands the drafts to the pantry
// sink in one batch. A failed LLM call or an unparseable reply aborts the
// receipt with a *ClassificationError; per-item parsing never does.
func (c *Classifier) Classify(ctx context.Context, userID int64, payload ReceiptPayload) ([]entity.PantryItemDraft, error) {
	start := time.Now()
	names := payload.ItemNames()
	if len(names) == 0 {
		c.logger.Warn("receipt.classify.no_items", "user_id", userID, "receipt_id", payload.ReceiptID)
		return nil, nil
	}

	prompt := BuildClassificationPrompt(names, c.taxonomy)
	reply, err := c.completer.Complete(ctx, llm.UserPrompt(prompt))
	if err != nil {
		c.logger.Error("receipt.classify.llm_error", "user_id", userID, "error", err)
		return nil, &ClassificationError{Reason: "llm completion", Err: err}
	}

	items, err := textextract.ExtractArray(reply)
	if err != nil {
		c.logger.Error("receipt.classify.extract_error",
			"user_id", userID,
			"error", err,
			"reply_len", len(reply),
		)
		return nil, &ClassificationError{Reason: "parse reply", Err: err}
	}

	purchase, dateOK := ParsePurchaseDate(payload.Date, c.now())
	if !dateOK {
		c.logger.Info("receipt.classify.purchase_date_inferred", "user_id", userID, "raw", payload.Date)
	}
	supermarket := payload.Supermarket()
	codes := payload.ProductCodes()

	drafts := make([]entity.PantryItemDraft, 0, len(items))
	for i, item := range items {
		if changed := llm.SanitizeItemFields(item); len(changed) > 0 {
			c.logger.Debug("receipt.classify.item_sanitized", "index", i, "changed", changed)
		}
		if err := llm.ValidateValue(c.itemSchema, item); err != nil {
			c.logger.Warn("receipt.classify.item_schema", "index", i, "error", err)
		}

		name := CleanItemName(stringOf(item["ITEM"]))
		if name == "" {
			c.logger.Warn("receipt.classify.item_skipped", "index", i, "reason", "empty ITEM")
			continue
		}
		if r := []rune(name); len(r) > entity.MaxItemNameLen {
			name = strings.TrimSpace(string(r[:entity.MaxItemNameLen]))
			c.logger.Warn("receipt.classify.item_truncated", "index", i, "runes", len(r))
		}

		qty, qtyOK := ParseQuantity(item["QUANTITY"])
		sub, _ := item["SUBCATEGORY"].(string)
		category := c.taxonomy.MapSubcategory(sub)

		q := expiry.Query{Category: category, PurchaseDate: purchase, Supermarket: supermarket}
		if code, ok := codes[strings.ToLower(name)]; ok {
			q.Args = map[string]string{expiry.BarcodeArg: code}
		}
		res := c.resolver.Resolve(ctx, q)

		drafts = append(drafts, entity.PantryItemDraft{
			ItemName:             name,
			Quantity:             qty,
			Unit:                 constants.DefaultUnit,
			Category:             category,
			PurchaseDate:         purchase,
			ExpiryDate:           res.Date,
			QuantityInferred:     !qtyOK,
			PurchaseDateInferred: !dateOK,
			ExpirySource:         res.Source,
		})
	}

	if err := c.sink.AddItems(ctx, userID, drafts); err != nil {
		c.logger.Error("receipt.classify.sink_error", "user_id", userID, "items", len(drafts), "error", err)
		return nil, fmt.Errorf("add pantry items: %w", err)
	}

	c.logger.Info("receipt.classify.done",
		"user_id", userID,
		"lines", len(names),
		"items", len(drafts),
		"supermarket", supermarket,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return drafts, nil
}
