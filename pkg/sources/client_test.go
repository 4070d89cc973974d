package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/repute/pkg/fetch"
)

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		want error
	}{
		{name: "ok", code: http.StatusOK, want: nil},
		{name: "not found", code: http.StatusNotFound, want: fetch.ErrNotFound},
		{name: "forbidden", code: http.StatusForbidden, want: fetch.ErrRateLimited},
		{name: "too many requests", code: http.StatusTooManyRequests, want: fetch.ErrRateLimited},
		{name: "server error", code: http.StatusInternalServerError, want: fetch.ErrTransient},
		{name: "bad gateway", code: http.StatusBadGateway, want: fetch.ErrTransient},
		{name: "unexpected", code: http.StatusTeapot, want: fetch.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(tt.code)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("checkStatus(%d) = %v, want nil", tt.code, err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("checkStatus(%d) = %v, want %v", tt.code, err, tt.want)
			}
		})
	}
}

func TestGetJSONClassifiedErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var v map[string]any
	err := NewClient(nil).GetJSON(context.Background(), srv.URL, &v)
	if !errors.Is(err, fetch.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestGetJSONRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	var v map[string]any
	if err := NewClient(nil).GetJSON(context.Background(), srv.URL, &v); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if n := calls.Load(); n < 2 {
		t.Errorf("server saw %d requests, want at least 2", n)
	}
	if v["status"] != "ok" {
		t.Errorf("decoded %v, want status ok", v)
	}
}

func TestGetJSONSetsHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(map[string]string{"Accept": "application/json"})
	var v map[string]any
	if err := c.GetJSON(context.Background(), srv.URL, &v); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if gotUA != userAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, userAgent)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
}

func TestFetchRawPreservesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info": {"version": "1.0"}, "extra": [1, 2, 3]}`))
	}))
	defer srv.Close()

	fields, err := NewClient(nil).FetchRaw(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchRaw: %v", err)
	}
	if got := string(fields["extra"]); got != "[1, 2, 3]" {
		t.Errorf("extra field = %q, want raw JSON preserved", got)
	}
	if _, ok := fields["info"]; !ok {
		t.Error("info field missing")
	}
}

func TestGetJSONContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var v map[string]any
	if err := NewClient(nil).GetJSON(ctx, srv.URL, &v); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}
