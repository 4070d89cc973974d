// Package pypi fetches release metadata from the PyPI JSON API.
package pypi

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/repute/pkg/fetch"
	"github.com/matzehuels/repute/pkg/sources"
	"github.com/matzehuels/repute/pkg/store"
)

// Client fetches package documents from the PyPI registry.
type Client struct {
	*sources.Client
	baseURL string
}

// NewClient creates a PyPI client against the public registry.
func NewClient() *Client {
	return &Client{
		Client:  sources.NewClient(nil),
		baseURL: "https://pypi.org/pypi",
	}
}

// Fetch retrieves the full JSON document for an item. A pinned version
// queries that release; the "latest" qualifier queries the package's most
// recent release. The response is preserved wholesale as an opaque record.
func (c *Client) Fetch(ctx context.Context, item fetch.Item) (*store.Record, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, item.Name)
	if item.Version != "" && item.Version != fetch.VersionLatest {
		url = fmt.Sprintf("%s/%s", url, item.Version)
	}
	url += "/json"

	fields, err := c.FetchRaw(ctx, url)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return nil, fmt.Errorf("%w: pypi package %s", fetch.ErrNotFound, item)
		}
		return nil, err
	}
	return store.NewRecord(fields), nil
}
