package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func rawFields(pairs map[string]string) map[string]json.RawMessage {
	fields := make(map[string]json.RawMessage, len(pairs))
	for k, v := range pairs {
		fields[k] = json.RawMessage(v)
	}
	return fields
}

func TestFileStore_SaveLoad(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	rec := NewRecord(rawFields(map[string]string{
		"info":    `{"name":"flask","version":"2.0.0"}`,
		"urls":    `[{"upload_time":"2021-05-11T00:00:00"}]`,
		"integer": `42`,
	}))

	if err := s.Save(ctx, "flask__2.0.0", rec); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if rec.FetchedAt.IsZero() {
		t.Error("Save() did not stamp FetchedAt")
	}

	got, ok, err := s.Load(ctx, "flask__2.0.0")
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v; want record", ok, err)
	}
	for field, want := range map[string]string{
		"info":    `{"name":"flask","version":"2.0.0"}`,
		"urls":    `[{"upload_time":"2021-05-11T00:00:00"}]`,
		"integer": `42`,
	} {
		if string(got.Fields[field]) != want {
			t.Errorf("field %s = %s, want %s", field, got.Fields[field], want)
		}
	}
	if got.FetchedAt.IsZero() {
		t.Error("loaded record has no fetch timestamp")
	}
	if _, found := got.Fields[TimestampField]; found {
		t.Error("reserved timestamp field leaked into Fields")
	}
}

func TestFileStore_MissingIsAbsent(t *testing.T) {
	s := NewFileStore(t.TempDir())
	rec, ok, err := s.Load(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if ok || rec != nil {
		t.Error("Load() reported a record for a missing key")
	}
}

func TestFileStore_CorruptIsAbsent(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	ctx := context.Background()

	tests := []struct {
		name string
		body string
	}{
		{"invalidJSON", `{"info": garbage`},
		{"missingTimestamp", `{"info": {}}`},
		{"badTimestamp", `{"cache_timestamp": "not-a-time", "info": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(filepath.Join(dir, "pkg__1.0.json"), []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			_, ok, err := s.Load(ctx, "pkg__1.0")
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if ok {
				t.Error("corrupt record should be treated as absent")
			}
		})
	}
}

func TestFileStore_LazyDirCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pypi")
	s := NewFileStore(dir)
	ctx := context.Background()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("directory should not exist before first save")
	}

	// Loading from a store whose directory does not exist is a plain miss.
	if _, ok, err := s.Load(ctx, "x"); ok || err != nil {
		t.Fatalf("Load() = %v, %v; want miss", ok, err)
	}

	if err := s.Save(ctx, "x", NewRecord(nil)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := s.Save(ctx, "x", NewRecord(nil)); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created on save: %v", err)
	}
}

func TestFileStore_SaveReplacesWholesale(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	first := NewRecord(rawFields(map[string]string{"a": `1`, "b": `2`}))
	if err := s.Save(ctx, "pkg__1.0", first); err != nil {
		t.Fatal(err)
	}
	second := NewRecord(rawFields(map[string]string{"a": `9`}))
	if err := s.Save(ctx, "pkg__1.0", second); err != nil {
		t.Fatal(err)
	}

	got, ok, _ := s.Load(ctx, "pkg__1.0")
	if !ok {
		t.Fatal("record missing after replace")
	}
	if _, found := got.Fields["b"]; found {
		t.Error("stale field survived a replace")
	}
	if string(got.Fields["a"]) != `9` {
		t.Errorf("field a = %s, want 9", got.Fields["a"])
	}
}

func TestFileStore_TimestampStampedAtSaveTime(t *testing.T) {
	s := NewFileStore(t.TempDir())
	saveTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return saveTime }

	rec := NewRecord(nil)
	rec.FetchedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) // caller's value is ignored
	if err := s.Save(context.Background(), "k", rec); err != nil {
		t.Fatal(err)
	}

	got, ok, _ := s.Load(context.Background(), "k")
	if !ok {
		t.Fatal("record missing")
	}
	if !got.FetchedAt.Equal(saveTime) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, saveTime)
	}
}

func TestRecord_Fresh(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour

	tests := []struct {
		name      string
		fetchedAt time.Time
		want      bool
	}{
		{"justFetched", now, true},
		{"insideWindow", now.Add(-window + time.Second), true},
		{"exactBoundary", now.Add(-window), true},
		{"outsideWindow", now.Add(-window - time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{FetchedAt: tt.fetchedAt}
			if got := r.Fresh(now, window); got != tt.want {
				t.Errorf("Fresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNullStore(t *testing.T) {
	s := NewNullStore()
	ctx := context.Background()

	rec := NewRecord(nil)
	if err := s.Save(ctx, "k", rec); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if rec.FetchedAt.IsZero() {
		t.Error("Save() did not stamp FetchedAt")
	}
	if _, ok, _ := s.Load(ctx, "k"); ok {
		t.Error("NullStore should never report a record")
	}
}
