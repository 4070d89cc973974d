// Package store persists raw source responses as one JSON document per key.
//
// Each record keeps the full field set returned by a source, plus a single
// reserved cache_timestamp field stamped when the record is saved. Freshness
// decisions are made by the caller; the store only reports what it has.
//
// Three backends implement [Store]: [FileStore] (one file per key under a
// per-source directory), [RedisStore] (shared cache), and [NullStore]
// (caching disabled).
package store

import (
	"context"
	"encoding/json"
	"time"
)

// TimestampField is the reserved record field holding the fetch timestamp.
// Source payloads must not use this field name.
const TimestampField = "cache_timestamp"

// Record is one opaque metadata payload fetched from a source for one item.
// Fields preserves the source's values byte-for-byte; the store never
// interprets them. FetchedAt is stamped by [Store.Save].
type Record struct {
	Fields    map[string]json.RawMessage
	FetchedAt time.Time
}

// NewRecord wraps raw source fields in a Record. The fetch timestamp is
// assigned when the record is saved, not here.
func NewRecord(fields map[string]json.RawMessage) *Record {
	return &Record{Fields: fields}
}

// Unmarshal decodes the named field into v.
func (r *Record) Unmarshal(field string, v any) error {
	raw, ok := r.Fields[field]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// Fresh reports whether the record was fetched within window of now.
func (r *Record) Fresh(now time.Time, window time.Duration) bool {
	return !r.FetchedAt.Before(now.Add(-window))
}

// Store persists one record per key within a single source's namespace.
//
// Load never fails for a missing key: absence is an ordinary result. A
// stored record that cannot be parsed is also reported as absent, so a
// corrupt entry falls through to a refetch instead of poisoning the run.
//
// Save overwrites any prior record for the key and stamps the fetch
// timestamp at save time. Implementations are not safe for concurrent
// writers to the same key; callers serialize writes per source.
type Store interface {
	Load(ctx context.Context, key string) (*Record, bool, error)
	Save(ctx context.Context, key string, rec *Record) error
}

// encodeRecord serializes a record with the reserved timestamp field merged
// into the document at the top level.
func encodeRecord(rec *Record, fetchedAt time.Time) ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		doc[k] = v
	}
	ts, err := json.Marshal(fetchedAt.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	doc[TimestampField] = ts
	return json.Marshal(doc)
}

// decodeRecord parses a stored document, splitting the reserved timestamp
// field back out. Returns ok=false when the document or its timestamp does
// not parse; the caller treats that as a cache miss.
func decodeRecord(data []byte) (*Record, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	raw, found := doc[TimestampField]
	if !found {
		return nil, false
	}
	var stamp string
	if err := json.Unmarshal(raw, &stamp); err != nil {
		return nil, false
	}
	fetchedAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return nil, false
	}
	delete(doc, TimestampField)
	return &Record{Fields: doc, FetchedAt: fetchedAt}, true
}
