package fetch

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/repute/pkg/store"
)

// ItemResult is the outcome for one item in a batch: either a record or the
// classified error that skipped it.
type ItemResult struct {
	Item   Item
	Record *store.Record
	Err    error
}

// BatchResult collects per-item outcomes in input order.
type BatchResult struct {
	Results []ItemResult
}

// Record returns the record fetched for item, or nil if the item failed or
// was never attempted.
func (r *BatchResult) Record(item Item) *store.Record {
	for _, res := range r.Results {
		if res.Item == item {
			return res.Record
		}
	}
	return nil
}

// Failures returns the items that were skipped, with their reasons, in
// input order.
func (r *BatchResult) Failures() []ItemResult {
	var failed []ItemResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Runner drives an orchestrator over an ordered list of items for a single
// source. Items are processed strictly sequentially; the limiter's pacing
// guarantee only holds for one ordered sequence of requests per source.
type Runner struct {
	source string
	orch   *Orchestrator
	logger *log.Logger
}

// NewRunner creates a batch runner for the named source. A nil logger
// falls back to the package default.
func NewRunner(source string, orch *Orchestrator, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{source: source, orch: orch, logger: logger}
}

// Run fetches every item in order. Recoverable failures (missing resources,
// transient errors) are recorded against the item and the batch continues.
// A rate-limit error aborts immediately: the remaining items would burn
// through the same dead quota, so the partial result is returned together
// with a single fatal error.
func (r *Runner) Run(ctx context.Context, items []Item, fn Func) (*BatchResult, error) {
	logger := r.logger.With("source", r.source, "batch", shortID())
	result := &BatchResult{Results: make([]ItemResult, 0, len(items))}

	for _, item := range items {
		rec, err := r.orch.GetOrFetch(ctx, item, fn)
		switch {
		case err == nil:
			result.Results = append(result.Results, ItemResult{Item: item, Record: rec})
		case Recoverable(err):
			logger.Warnf("Skipping %s: %v", item, err)
			result.Results = append(result.Results, ItemResult{Item: item, Err: err})
		default:
			return result, fmt.Errorf("%s: %s: %w", r.source, item, err)
		}
	}

	logger.Debugf("Fetched %d items, %d skipped", len(result.Results)-len(result.Failures()), len(result.Failures()))
	return result, nil
}

// shortID tags a batch's log lines so interleaved source runs can be told
// apart.
func shortID() string {
	return uuid.NewString()[:8]
}
