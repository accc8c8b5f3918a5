package expiry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingProvider struct {
	calls int
	err   error
}

func (p *failingProvider) FetchExpiry(context.Context, constants.Category, time.Time, map[string]string) (time.Time, error) {
	p.calls++
	return time.Time{}, p.err
}

type fixedProvider struct {
	date time.Time
}

func (p fixedProvider) FetchExpiry(context.Context, constants.Category, time.Time, map[string]string) (time.Time, error) {
	return p.date, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve_StaticTable(t *testing.T) {
	r := NewResolver(DefaultRegistry(), nil, quietLogger())
	purchase := day(2025, time.June, 1)

	tests := []struct {
		category constants.Category
		want     time.Time
	}{
		{constants.Dairy, day(2025, time.June, 11)},
		{constants.Seafood, day(2025, time.June, 3)},
		{constants.Staples, day(2026, time.June, 1)},
		{constants.Other, day(2025, time.July, 1)},
		{"", day(2025, time.July, 1)},
		{"Unknown", day(2025, time.July, 1)},
	}
	for _, tt := range tests {
		got := r.Resolve(context.Background(), Query{Category: tt.category, PurchaseDate: purchase})
		if !got.Date.Equal(tt.want) {
			t.Errorf("Resolve(%q) = %s, want %s", tt.category, got.Date, tt.want)
		}
		if got.Source != SourceStatic {
			t.Errorf("Resolve(%q) source = %q, want %q", tt.category, got.Source, SourceStatic)
		}
	}
}

func TestResolve_AlwaysOnOrAfterPurchase(t *testing.T) {
	r := NewResolver(DefaultRegistry(), nil, quietLogger())
	purchase := time.Date(2024, time.February, 28, 23, 59, 0, 0, time.UTC)
	categories := append(constants.AllCategories(), "", "not-a-category")
	for _, c := range categories {
		for _, sm := range []constants.SupermarketType{"", constants.FairPrice, constants.Giant, "Unknown"} {
			got := r.Resolve(context.Background(), Query{Category: c, PurchaseDate: purchase, Supermarket: sm})
			if got.Date.IsZero() {
				t.Fatalf("Resolve(%q, %q) returned zero date", c, sm)
			}
			if got.Date.Before(DateOnly(purchase)) {
				t.Errorf("Resolve(%q, %q) = %s before purchase", c, sm, got.Date)
			}
		}
	}
}

func TestResolve_ProviderFailureFallsBack(t *testing.T) {
	for _, perr := range []error{errors.New("connection reset"), ErrProviderMiss} {
		p := &failingProvider{err: perr}
		reg := NewRegistry(map[constants.SupermarketType]Provider{constants.FairPrice: p})
		r := NewResolver(reg, nil, quietLogger())
		purchase := day(2025, time.March, 10)

		got := r.Resolve(context.Background(), Query{
			Category:     "unmapped",
			PurchaseDate: purchase,
			Supermarket:  constants.FairPrice,
		})
		want := DefaultShelfLifeTable().Expiry(constants.Other, purchase)
		if !got.Date.Equal(want) {
			t.Errorf("Resolve with %v = %s, want %s", perr, got.Date, want)
		}
		if p.calls != 1 {
			t.Errorf("provider calls = %d, want 1", p.calls)
		}
	}
}

func TestResolve_ProviderDateBeforePurchaseIgnored(t *testing.T) {
	reg := NewRegistry(map[constants.SupermarketType]Provider{
		constants.Giant: fixedProvider{date: day(2020, time.January, 1)},
	})
	r := NewResolver(reg, nil, quietLogger())
	got := r.Resolve(context.Background(), Query{
		Category:     constants.Meat,
		PurchaseDate: day(2025, time.May, 1),
		Supermarket:  constants.Giant,
	})
	if got.Source != SourceStatic || !got.Date.Equal(day(2025, time.May, 4)) {
		t.Errorf("got %+v, want static 2025-05-04", got)
	}
}

func TestSupermarketProviders(t *testing.T) {
	purchase := day(2025, time.January, 30)
	tests := []struct {
		name    string
		p       Provider
		barcode string
		want    time.Time
		miss    bool
	}{
		{"fairprice dairy", NewFairPriceProvider(), "FPD-123", day(2025, time.February, 7), false},
		{"fairprice seafood", NewFairPriceProvider(), "FPS9", day(2025, time.February, 2), false},
		{"fairprice unknown", NewFairPriceProvider(), "GNTM1", time.Time{}, true},
		{"fairprice missing", NewFairPriceProvider(), "", time.Time{}, true},
		{"giant meat", NewGiantProvider(), "GNTM77", day(2025, time.February, 3), false},
		{"giant veg", NewGiantProvider(), "GNTV", day(2025, time.February, 4), false},
		{"giant unknown", NewGiantProvider(), "FPD1", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.FetchExpiry(context.Background(), constants.Other, purchase, map[string]string{BarcodeArg: tt.barcode})
			if tt.miss {
				if !errors.Is(err, ErrProviderMiss) {
					t.Fatalf("err = %v, want ErrProviderMiss", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchExpiry: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolve_UsesRegisteredProvider(t *testing.T) {
	r := NewResolver(DefaultRegistry(), nil, quietLogger())
	got := r.Resolve(context.Background(), Query{
		Category:     constants.Dairy,
		PurchaseDate: day(2025, time.June, 1),
		Supermarket:  constants.FairPrice,
		Args:         map[string]string{BarcodeArg: "FPD0001"},
	})
	if got.Source != string(constants.FairPrice) || !got.Date.Equal(day(2025, time.June, 9)) {
		t.Errorf("got %+v, want FairPrice 2025-06-09", got)
	}
}

func TestNewShelfLifeTable_RequiresDefault(t *testing.T) {
	if _, err := NewShelfLifeTable(map[constants.Category]int{constants.Dairy: 3}); err == nil {
		t.Fatal("expected error without Other entry")
	}
}
