package storage

import (
	"encoding/hex"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"

	"github.com/rapidex/rescache/errors"
)

// FileStore is a Store backed by one file per key inside a directory.
//
// Writes are atomic (temp file + rename) so a crash mid-write leaves the
// previous record intact. Keys are hashed into filenames, so any string
// is a valid key.
type FileStore struct {
	mu  sync.Mutex
	dir string

	// maxBytes caps the size of a single value. Zero means unlimited.
	maxBytes int
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithFileQuota rejects values larger than maxBytes.
func WithFileQuota(maxBytes int) FileStoreOption {
	return func(s *FileStore) {
		if maxBytes > 0 {
			s.maxBytes = maxBytes
		}
	}
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	if dir == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "FileStore", "NewFileStore",
			"directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.WrapTransient(err, "FileStore", "NewFileStore", "create directory")
	}

	s := &FileStore{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetItem reads the value for key. A missing file is a miss, not an error.
func (s *FileStore) GetItem(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.WrapTransient(err, "FileStore", "GetItem", "read record")
	}
	return string(data), true, nil
}

// SetItem writes value under key atomically.
func (s *FileStore) SetItem(key, value string) error {
	if s.maxBytes > 0 && len(value) > s.maxBytes {
		return errors.WrapFatal(errors.ErrQuotaExceeded, "FileStore", "SetItem",
			"value exceeds quota")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.WrapTransient(err, "FileStore", "SetItem", "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.WrapTransient(err, "FileStore", "SetItem", "write record")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.WrapTransient(err, "FileStore", "SetItem", "close temp file")
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return errors.WrapTransient(err, "FileStore", "SetItem", "rename record")
	}
	return nil
}

// RemoveItem deletes the record for key.
func (s *FileStore) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.WrapTransient(err, "FileStore", "RemoveItem", "delete record")
	}
	return nil
}

// path maps a logical key to a stable filename under dir.
func (s *FileStore) path(key string) string {
	h := fnv.New64a()
	h.Write([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(h.Sum(nil))+".rec")
}
