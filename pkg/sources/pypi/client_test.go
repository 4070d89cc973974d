package pypi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matzehuels/repute/pkg/fetch"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient()
	c.baseURL = srv.URL
	return c
}

func TestFetchPinnedURL(t *testing.T) {
	var gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"info": {"version": "2.31.0"}}`))
	})

	rec, err := c.Fetch(context.Background(), fetch.Item{Name: "requests", Version: "2.31.0"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotPath != "/requests/2.31.0/json" {
		t.Errorf("path = %q, want /requests/2.31.0/json", gotPath)
	}
	if _, ok := rec.Fields["info"]; !ok {
		t.Error("record missing info field")
	}
}

func TestFetchLatestURL(t *testing.T) {
	tests := []struct {
		name string
		item fetch.Item
	}{
		{name: "latest qualifier", item: fetch.Item{Name: "requests", Version: fetch.VersionLatest}},
		{name: "no version", item: fetch.Item{Name: "requests"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Write([]byte(`{}`))
			})
			if _, err := c.Fetch(context.Background(), tt.item); err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if gotPath != "/requests/json" {
				t.Errorf("path = %q, want /requests/json", gotPath)
			}
		})
	}
}

func TestFetchNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Fetch(context.Background(), fetch.Item{Name: "no-such-package", Version: "1.0"})
	if !errors.Is(err, fetch.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchRateLimited(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Fetch(context.Background(), fetch.Item{Name: "requests", Version: "2.31.0"})
	if !errors.Is(err, fetch.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}
