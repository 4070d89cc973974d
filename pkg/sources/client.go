// Package sources provides the shared HTTP plumbing for all source clients.
//
// Every source (PyPI, GitHub, pypistats) talks through [Client], which
// applies default headers, classifies response statuses onto the fetch
// error taxonomy, and retries transient failures with exponential backoff.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/matzehuels/repute/pkg/fetch"
)

const (
	httpTimeout    = 10 * time.Second
	maxElapsedTime = 30 * time.Second
	userAgent      = "repute"
)

// NewHTTPClient creates an HTTP client with a standard timeout for source
// requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// Client provides shared HTTP functionality for source API clients: default
// headers, status classification, and transient-failure retries.
type Client struct {
	http    *http.Client
	headers map[string]string
}

// NewClient creates a Client with the given default headers. Pass nil if no
// headers are needed.
func NewClient(headers map[string]string) *Client {
	return &Client{http: NewHTTPClient(), headers: headers}
}

// GetJSON performs a GET request and decodes the JSON response into v.
// Transient failures (network errors, 5xx) are retried with exponential
// backoff; classified errors (ErrNotFound, ErrRateLimited) return
// immediately.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	return backoff.Retry(func() error {
		err := c.get(ctx, url, v)
		if err != nil && !errors.Is(err, fetch.ErrTransient) {
			return backoff.Permanent(err)
		}
		return err
	}, retryPolicy(ctx))
}

func retryPolicy(ctx context.Context) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsedTime
	return backoff.WithContext(bo, ctx)
}

func (c *Client) get(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", fetch.ErrTransient, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %v", fetch.ErrTransient, err)
	}
	return nil
}

// checkStatus maps an HTTP status onto the fetch error taxonomy. 403 is
// treated like 429: the registries involved use it to signal quota
// exhaustion, which is fatal at batch level.
func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return fetch.ErrNotFound
	case code == http.StatusForbidden || code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", fetch.ErrRateLimited, code)
	case code >= 500:
		return fmt.Errorf("%w: status %d", fetch.ErrTransient, code)
	default:
		return fmt.Errorf("%w: unexpected status %d", fetch.ErrTransient, code)
	}
}

// FetchRaw performs a GET request and returns the full JSON document as raw
// fields, preserving every value the source sent. This is the common shape
// for cacheable records: extraction of individual fields happens later,
// against the stored document.
func (c *Client) FetchRaw(ctx context.Context, url string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := c.GetJSON(ctx, url, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
