package store

import (
	"context"
	"time"
)

// NullStore never stores anything. Every load is a miss, so each request
// goes to the source. Useful for tests and the --no-cache flag.
type NullStore struct {
	now func() time.Time
}

// NewNullStore creates a store that discards all records.
func NewNullStore() *NullStore {
	return &NullStore{now: time.Now}
}

// Load always reports absence.
func (s *NullStore) Load(ctx context.Context, key string) (*Record, bool, error) {
	return nil, false, nil
}

// Save stamps the record's fetch timestamp but persists nothing.
func (s *NullStore) Save(ctx context.Context, key string, rec *Record) error {
	rec.FetchedAt = s.now()
	return nil
}

var _ Store = (*NullStore)(nil)
