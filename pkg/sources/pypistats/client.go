// Package pypistats fetches download counts from pypistats.org.
package pypistats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/repute/pkg/fetch"
	"github.com/matzehuels/repute/pkg/sources"
	"github.com/matzehuels/repute/pkg/store"
)

// LookbackDays is the download-count window reported per package.
const LookbackDays = 90

// Client fetches download statistics documents from pypistats.org.
// Stats are tracked per package, not per version, so items for this source
// carry no version qualifier.
type Client struct {
	*sources.Client
	baseURL string
}

// NewClient creates a pypistats client against the public API.
func NewClient() *Client {
	return &Client{
		Client:  sources.NewClient(nil),
		baseURL: "https://pypistats.org/api",
	}
}

// Fetch retrieves the overall download series for a package, excluding
// mirror traffic, as an opaque record.
func (c *Client) Fetch(ctx context.Context, item fetch.Item) (*store.Record, error) {
	url := fmt.Sprintf("%s/packages/%s/overall?mirrors=false", c.baseURL, item.Name)
	fields, err := c.FetchRaw(ctx, url)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return nil, fmt.Errorf("%w: pypistats for package %s", fetch.ErrNotFound, item.Name)
		}
		return nil, err
	}
	return store.NewRecord(fields), nil
}

type dailyDownloads struct {
	Category  string `json:"category"`
	Date      string `json:"date"`
	Downloads int64  `json:"downloads"`
}

// ExtractDownloads sums a cached download series over the lookback window
// ending at now.
func ExtractDownloads(rec *store.Record, now time.Time, lookbackDays int) (int64, error) {
	raw, ok := rec.Fields["data"]
	if !ok {
		return 0, errors.New("pypistats document has no data series")
	}
	var rows []dailyDownloads
	if err := json.Unmarshal(raw, &rows); err != nil {
		return 0, fmt.Errorf("pypistats data series: %w", err)
	}

	cutoff := now.AddDate(0, 0, -lookbackDays).Format("2006-01-02")
	var total int64
	for _, row := range rows {
		if row.Date >= cutoff {
			total += row.Downloads
		}
	}
	return total, nil
}
