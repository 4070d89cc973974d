package fetch

import "errors"

// Classified fetch failures. Source clients map their transport-level
// errors onto these sentinels so the batch runner can decide between
// skipping an item and aborting the run.
var (
	// ErrNotFound means the item does not exist at the source (HTTP 404).
	// Recoverable: the batch skips the item and continues.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited means the source refused the request because the
	// quota is exhausted (HTTP 403/429). Fatal: every remaining request
	// would fail the same way, so the batch aborts immediately.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient covers network failures, 5xx responses and malformed
	// payloads. Treated as recoverable: the item is skipped, the cache is
	// left untouched, and a later run can retry.
	ErrTransient = errors.New("transient fetch error")
)

// Recoverable reports whether a classified error should skip the current
// item rather than abort the batch.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransient)
}
