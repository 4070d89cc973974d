package fetch

import (
	"context"
	"time"

	"github.com/matzehuels/repute/pkg/store"
)

// Func fetches a fresh record for one item from a source. Implementations
// own URL construction, authentication and response decoding, and report
// failures through the classified sentinels in this package.
type Func func(ctx context.Context, item Item) (*store.Record, error)

// Throttler paces requests to a source. Satisfied by [pacing.Limiter].
type Throttler interface {
	Throttle(ctx context.Context) error
}

// Orchestrator is a read-through cache over one source: records are served
// from the store while they are inside the staleness window, and fetched
// (paced, then persisted) otherwise. A failed fetch is never cached and
// leaves any stale record in place for a later retry.
type Orchestrator struct {
	store   store.Store
	limiter Throttler
	window  time.Duration

	// Refresh bypasses the freshness check so every item is refetched.
	Refresh bool

	now func() time.Time
}

// NewOrchestrator wires a source's store and limiter together with its
// staleness window.
func NewOrchestrator(st store.Store, limiter Throttler, window time.Duration) *Orchestrator {
	return &Orchestrator{store: st, limiter: limiter, window: window, now: time.Now}
}

// GetOrFetch returns a usable record for the item: the stored one if it is
// still fresh, otherwise the result of fn. A cache hit involves no pacing
// and no network access. On a fetch failure the error is returned as-is and
// nothing is written.
func (o *Orchestrator) GetOrFetch(ctx context.Context, item Item, fn Func) (*store.Record, error) {
	key := item.Key()

	if !o.Refresh {
		rec, ok, err := o.store.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok && rec.Fresh(o.now(), o.window) {
			return rec, nil
		}
	}

	if err := o.limiter.Throttle(ctx); err != nil {
		return nil, err
	}

	rec, err := fn(ctx, item)
	if err != nil {
		return nil, err
	}
	if err := o.store.Save(ctx, key, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
