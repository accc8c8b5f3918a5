package expiry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// SourceStatic marks a date that came from the shelf-life table.
const SourceStatic = "static"

// Query is the input to Resolve.
type Query struct {
	Category     constants.Category
	PurchaseDate time.Time
	Supermarket  constants.SupermarketType // empty when unknown
	Args         map[string]string
}

// Resolution is the resolved expiry date and where it came from.
type Resolution struct {
	Date   time.Time
	Source string // SourceStatic or the supermarket type
}

// Resolver tries the supermarket provider for a query and falls back to the
// static shelf-life table. It always produces a date.
type Resolver struct {
	registry *Registry
	table    *ShelfLifeTable
	logger   *slog.Logger
}

func NewResolver(registry *Registry, table *ShelfLifeTable, logger *slog.Logger) *Resolver {
	if table == nil {
		table = DefaultShelfLifeTable()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: registry, table: table, logger: logger}
}

// Resolve never fails. Provider errors, missing providers and provider dates
// earlier than the purchase day all degrade to the static table.
func (r *Resolver) Resolve(ctx context.Context, q Query) Resolution {
	if d, ok := r.fromProvider(ctx, q); ok {
		return Resolution{Date: d, Source: string(q.Supermarket)}
	}

	d := r.table.Expiry(q.Category, q.PurchaseDate)
	r.logger.Debug("expiry.static",
		"category", q.Category,
		"purchase_date", DateOnly(q.PurchaseDate).Format(time.DateOnly),
		"expiry_date", d.Format(time.DateOnly),
	)
	return Resolution{Date: d, Source: SourceStatic}
}

func (r *Resolver) fromProvider(ctx context.Context, q Query) (time.Time, bool) {
	if q.Supermarket == "" {
		return time.Time{}, false
	}
	p, ok := r.registry.Lookup(q.Supermarket)
	if !ok {
		r.logger.Debug("expiry.provider.not_registered", "supermarket", q.Supermarket)
		return time.Time{}, false
	}

	d, err := p.FetchExpiry(ctx, q.Category, q.PurchaseDate, q.Args)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrProviderMiss) {
			level = slog.LevelInfo
		}
		r.logger.Log(ctx, level, "expiry.provider.fallback", "supermarket", q.Supermarket, "error", err)
		return time.Time{}, false
	}
	d = DateOnly(d)
	if d.Before(DateOnly(q.PurchaseDate)) {
		r.logger.Warn("expiry.provider.before_purchase",
			"supermarket", q.Supermarket,
			"expiry_date", d.Format(time.DateOnly),
			"purchase_date", DateOnly(q.PurchaseDate).Format(time.DateOnly),
		)
		return time.Time{}, false
	}

	r.logger.Info("expiry.provider.ok", "supermarket", q.Supermarket, "expiry_date", d.Format(time.DateOnly))
	return d, true
}
