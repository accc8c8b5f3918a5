package expiry

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// ErrProviderMiss is returned by a Provider that has no expiry data for the query.
var ErrProviderMiss = errors.New("expiry: provider has no data")

// Provider fetches an expiry date from a partnered supermarket.
type Provider interface {
	FetchExpiry(ctx context.Context, category constants.Category, purchaseDate time.Time, args map[string]string) (time.Time, error)
}

// Registry maps supermarket types to providers. It is read-only after construction.
type Registry struct {
	providers map[constants.SupermarketType]Provider
}

// NewRegistry copies providers into an immutable registry.
func NewRegistry(providers map[constants.SupermarketType]Provider) *Registry {
	cp := make(map[constants.SupermarketType]Provider, len(providers))
	for k, p := range providers {
		if p != nil {
			cp[k] = p
		}
	}
	return &Registry{providers: cp}
}

// DefaultRegistry registers the FairPrice and Giant providers.
func DefaultRegistry() *Registry {
	return NewRegistry(map[constants.SupermarketType]Provider{
		constants.FairPrice: NewFairPriceProvider(),
		constants.Giant:     NewGiantProvider(),
	})
}

// Lookup returns the provider registered for t.
func (r *Registry) Lookup(t constants.SupermarketType) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.providers[t]
	return p, ok
}
