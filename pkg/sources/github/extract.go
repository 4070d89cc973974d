package github

import (
	"encoding/json"
	"time"

	"github.com/matzehuels/repute/pkg/store"
)

// RepoMetrics holds the popularity signals extracted from a cached GitHub
// repository record.
type RepoMetrics struct {
	URL        string
	Stars      int
	Watchers   int
	Forks      int
	OpenIssues int
	Archived   bool
	PushedAt   *time.Time
}

// ExtractMetrics pulls popularity fields out of a cached repository record.
func ExtractMetrics(rec *store.Record) (*RepoMetrics, error) {
	m := &RepoMetrics{}
	fields := map[string]any{
		"html_url":          &m.URL,
		"stargazers_count":  &m.Stars,
		"watchers_count":    &m.Watchers,
		"forks_count":       &m.Forks,
		"open_issues_count": &m.OpenIssues,
		"archived":          &m.Archived,
	}
	for field, dst := range fields {
		if err := rec.Unmarshal(field, dst); err != nil {
			return nil, err
		}
	}

	var pushedAt time.Time
	if raw, ok := rec.Fields["pushed_at"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &pushedAt); err == nil {
			m.PushedAt = &pushedAt
		}
	}
	return m, nil
}
