// Package github enriches packages with repository popularity metrics from
// the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/matzehuels/repute/pkg/fetch"
	"github.com/matzehuels/repute/pkg/sources"
	"github.com/matzehuels/repute/pkg/store"
)

var repoURLPattern = regexp.MustCompile(`https?://(?:www\.)?github\.com/([^/\s<>"'()]+)/([^/\s<>"'()]+?)(?:\.git)?(?:[/?#]|$)`)

// rateLimitGuidance is surfaced when GitHub rejects requests for quota
// reasons. Responses are cached, so waiting and re-running loses no work.
const rateLimitGuidance = "GitHub API rate limit exceeded; responses are cached, so wait an hour and re-run, " +
	"or set GITHUB_TOKEN to raise the limit"

// Client fetches repository documents from the GitHub API.
type Client struct {
	*sources.Client
	baseURL string
}

// NewClient creates a GitHub client. An empty token means unauthenticated
// requests, which have a much lower quota.
func NewClient(token string) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  sources.NewClient(headers),
		baseURL: "https://api.github.com",
	}
}

// Fetch retrieves the repository document for owner/repo as an opaque
// record. Quota errors carry actionable guidance for the operator.
func (c *Client) Fetch(ctx context.Context, owner, repo string) (*store.Record, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	fields, err := c.FetchRaw(ctx, url)
	if err != nil {
		switch {
		case errors.Is(err, fetch.ErrNotFound):
			return nil, fmt.Errorf("%w: github repo %s/%s", fetch.ErrNotFound, owner, repo)
		case errors.Is(err, fetch.ErrRateLimited):
			return nil, fmt.Errorf("%w: %s", fetch.ErrRateLimited, rateLimitGuidance)
		}
		return nil, err
	}
	return store.NewRecord(fields), nil
}

// ExtractURL finds a GitHub owner and repo in a package's project URLs.
// ok=false means the package has no recognizable GitHub repository; callers
// treat that as a per-item condition and skip enrichment.
func ExtractURL(urls map[string]string, homepage string) (owner, repo string, ok bool) {
	return sources.ExtractRepoURL(repoURLPattern, urls, homepage)
}
