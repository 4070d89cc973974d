// Package report joins per-source feature tables into the final
// package-indexed reputation report.
package report

import (
	"time"

	pep440 "github.com/aquasecurity/go-pep440-version"

	"github.com/matzehuels/repute/pkg/fetch"
	"github.com/matzehuels/repute/pkg/sources/github"
	"github.com/matzehuels/repute/pkg/sources/pypi"
	"github.com/matzehuels/repute/pkg/sources/pypistats"
)

// Row is one package's reputation signals. Pointer fields are nil when the
// backing source failed or was skipped for that package; the outer join
// leaves those cells empty rather than dropping the row.
type Row struct {
	Name    string
	Version string

	// From PyPI release metadata.
	VersionAgeDays           *int
	TimeSinceLastReleaseDays *int
	Outdated                 *bool

	// From pypistats.org.
	Downloads90d *int64

	// From GitHub.
	Stars     *int
	Watchers  *int
	GitHubURL string
}

// Skip records why one package is missing data from one source.
type Skip struct {
	Item   fetch.Item
	Source string
	Reason string
}

// Report is the joined result for a batch run.
type Report struct {
	Rows        []Row
	Skips       []Skip
	GeneratedAt time.Time
}

// Input carries the per-source batch results into the join. Any batch may
// be nil (source disabled or aborted); its columns stay empty.
type Input struct {
	Items  []fetch.Item       // pinned packages, in requirements order
	Pinned *fetch.BatchResult // pypi, keyed by pinned item
	Latest *fetch.BatchResult // pypi, keyed by (name, "latest")
	GitHub *fetch.BatchResult // github, keyed by pinned item
	Stats  *fetch.BatchResult // pypistats, keyed by bare name
	Now    time.Time
}

// Build outer-joins the source tables by package, preserving the input
// order. Batch failures and extraction failures both become skip entries;
// neither removes a row.
func Build(in Input) *Report {
	r := &Report{GeneratedAt: in.Now}

	for _, item := range in.Items {
		row := Row{Name: item.Name, Version: item.Version}
		r.joinPyPI(item, &row, in)
		r.joinStats(item, &row, in)
		r.joinGitHub(item, &row, in)
		r.Rows = append(r.Rows, row)
	}

	r.collectBatchSkips(in)
	return r
}

func (r *Report) joinPyPI(item fetch.Item, row *Row, in Input) {
	if in.Pinned != nil {
		if rec := in.Pinned.Record(item); rec != nil {
			rel, err := pypi.Extract(item, rec)
			if err != nil {
				r.skip(item, "pypi", err.Error())
			} else {
				row.VersionAgeDays = daysPtr(rec.FetchedAt.Sub(rel.ReleasedAt))
			}
		}
	}

	if in.Latest == nil {
		return
	}
	latestItem := fetch.Item{Name: item.Name, Version: fetch.VersionLatest}
	rec := in.Latest.Record(latestItem)
	if rec == nil {
		return
	}
	rel, err := pypi.Extract(latestItem, rec)
	if err != nil {
		r.skip(latestItem, "pypi", err.Error())
		return
	}
	row.TimeSinceLastReleaseDays = daysPtr(in.Now.Sub(rel.ReleasedAt))
	if outdated, ok := isOutdated(item.Version, rel.Version); ok {
		row.Outdated = &outdated
	}
}

func (r *Report) joinStats(item fetch.Item, row *Row, in Input) {
	if in.Stats == nil {
		return
	}
	rec := in.Stats.Record(fetch.Item{Name: item.Name})
	if rec == nil {
		return
	}
	total, err := pypistats.ExtractDownloads(rec, in.Now, pypistats.LookbackDays)
	if err != nil {
		r.skip(item, "pypistats", err.Error())
		return
	}
	row.Downloads90d = &total
}

func (r *Report) joinGitHub(item fetch.Item, row *Row, in Input) {
	if in.GitHub == nil {
		return
	}
	rec := in.GitHub.Record(item)
	if rec == nil {
		return
	}
	m, err := github.ExtractMetrics(rec)
	if err != nil {
		r.skip(item, "github", err.Error())
		return
	}
	row.Stars = &m.Stars
	row.Watchers = &m.Watchers
	row.GitHubURL = m.URL
}

func (r *Report) collectBatchSkips(in Input) {
	batches := []struct {
		source string
		batch  *fetch.BatchResult
	}{
		{"pypi", in.Pinned},
		{"pypi", in.Latest},
		{"pypistats", in.Stats},
		{"github", in.GitHub},
	}
	for _, b := range batches {
		if b.batch == nil {
			continue
		}
		for _, failure := range b.batch.Failures() {
			r.Skips = append(r.Skips, Skip{Item: failure.Item, Source: b.source, Reason: failure.Err.Error()})
		}
	}
}

// AddSkip records a per-item condition discovered outside a batch run, such
// as a package with no recognizable repository URL.
func (r *Report) AddSkip(item fetch.Item, source, reason string) {
	r.Skips = append(r.Skips, Skip{Item: item, Source: source, Reason: reason})
}

func (r *Report) skip(item fetch.Item, source, reason string) {
	r.Skips = append(r.Skips, Skip{Item: item, Source: source, Reason: reason})
}

// isOutdated compares a pinned version against the latest release using
// PEP 440 ordering. ok=false when either version does not parse.
func isOutdated(pinned, latest string) (outdated, ok bool) {
	pv, err := pep440.Parse(pinned)
	if err != nil {
		return false, false
	}
	lv, err := pep440.Parse(latest)
	if err != nil {
		return false, false
	}
	return pv.LessThan(lv), true
}

func daysPtr(d time.Duration) *int {
	days := int(d.Hours() / 24)
	return &days
}
