package llm

import (
	"context"

	"github.com/joseph-ayodele/pantry-tracker/internal/async"
)

// PooledCompleter runs every completion of next on a bounded worker pool so
// that slow model calls cannot pile up unbounded goroutines.
type PooledCompleter struct {
	next Completer
	pool *async.Pool
}

func NewPooledCompleter(next Completer, pool *async.Pool) *PooledCompleter {
	return &PooledCompleter{next: next, pool: pool}
}

func (p *PooledCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	return async.Do(ctx, p.pool, func(ctx context.Context) (string, error) {
		return p.next.Complete(ctx, messages)
	})
}
