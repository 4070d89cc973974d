package store

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps one JSON file per key under a single directory. Each
// source gets its own directory, so keys from different sources never
// collide. The directory is created lazily on first save.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates a file-backed store rooted at dir. The directory is
// not created until the first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// Dir returns the store's root directory.
func (s *FileStore) Dir() string { return s.dir }

// Load reads the record for key. A missing file, or one that does not parse
// as a record, is reported as absent.
func (s *FileStore) Load(ctx context.Context, key string) (*Record, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
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

// Save writes the record for key, stamping its fetch timestamp and creating
// the store directory if needed. An existing record is replaced wholesale.
func (s *FileStore) Save(ctx context.Context, key string, rec *Record) error {
	fetchedAt := s.now()
	data, err := encodeRecord(rec, fetchedAt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return err
	}
	rec.FetchedAt = fetchedAt
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

var _ Store = (*FileStore)(nil)
