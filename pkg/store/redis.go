package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps records in Redis, one value per key under a source
// prefix. Records carry their own fetch timestamp, so entries are stored
// without a Redis TTL; staleness is decided by the reader.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore connects to the Redis instance at url (redis://...) and
// scopes all keys with prefix (e.g. "repute:pypi:").
func NewRedisStore(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: redis.NewClient(opts), prefix: prefix, now: time.Now}, nil
}

// Load reads the record for key. A missing or unparseable value is absent.
func (s *RedisStore) Load(ctx context.Context, key string) (*Record, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rec, ok := decodeRecord(data)
	if !ok {
		return nil, false, nil
	}
	return rec, true, nil
}

// Save writes the record for key, stamping its fetch timestamp.
func (s *RedisStore) Save(ctx context.Context, key string, rec *Record) error {
	fetchedAt := s.now()
	data, err := encodeRecord(rec, fetchedAt)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return err
	}
	rec.FetchedAt = fetchedAt
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
