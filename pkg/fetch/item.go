// Package fetch coordinates cached, rate-limited access to external
// metadata sources.
//
// [Orchestrator] is a read-through cache: it serves a stored record while it
// is fresh and otherwise paces and invokes a source-specific fetch function,
// persisting the result. [Runner] drives an orchestrator over an ordered
// batch of items, tolerating per-item failures and aborting only when the
// source's quota is exhausted.
package fetch

const (
	// VersionLatest marks an item that refers to a package's most recent
	// release rather than a pinned version.
	VersionLatest = "latest"

	keySeparator = "__"
)

// Item is one unit of work: a package name with an optional version
// qualifier. Items are compared by value.
type Item struct {
	Name    string
	Version string
}

// Key derives the stable storage key for the item. Distinct (name, version)
// pairs map to distinct keys; items without a version use the bare name.
func (it Item) Key() string {
	if it.Version == "" {
		return it.Name
	}
	return it.Name + keySeparator + it.Version
}

// String renders the item for logs and failure reports.
func (it Item) String() string {
	if it.Version == "" {
		return it.Name
	}
	return it.Name + "==" + it.Version
}
