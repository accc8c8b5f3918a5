package expiry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// BarcodeArg is the provider argument holding the product barcode.
const BarcodeArg = "barcode"

// barcodeProvider resolves expiry from a barcode prefix. Prefixes are checked in order.
type barcodeProvider struct {
	name     constants.SupermarketType
	prefixes []barcodeRule
}

type barcodeRule struct {
	prefix string
	days   int
}

// NewFairPriceProvider recognises FairPrice dairy (FPD) and seafood (FPS) barcodes.
func NewFairPriceProvider() Provider {
	return &barcodeProvider{
		name: constants.FairPrice,
		prefixes: []barcodeRule{
			{prefix: "FPD", days: 8},
			{prefix: "FPS", days: 3},
		},
	}
}

// NewGiantProvider recognises Giant meat (GNTM) and vegetable (GNTV) barcodes.
func NewGiantProvider() Provider {
	return &barcodeProvider{
		name: constants.Giant,
		prefixes: []barcodeRule{
			{prefix: "GNTM", days: 4},
			{prefix: "GNTV", days: 5},
		},
	}
}

func (p *barcodeProvider) FetchExpiry(_ context.Context, _ constants.Category, purchaseDate time.Time, args map[string]string) (time.Time, error) {
	barcode := strings.TrimSpace(args[BarcodeArg])
	if barcode == "" {
		return time.Time{}, fmt.Errorf("%s: barcode is required: %w", p.name, ErrProviderMiss)
	}
	for _, r := range p.prefixes {
		if strings.HasPrefix(barcode, r.prefix) {
			return DateOnly(purchaseDate).AddDate(0, 0, r.days), nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: no expiry for barcode %q: %w", p.name, barcode, ErrProviderMiss)
}
