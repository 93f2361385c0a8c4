package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every key in one JSON object on disk.
//
// Each Set re-reads the file, replaces a single key and writes the result via
// a temp file + rename, so processes that write different keys (the watch
// daemon writing history, a cycle command writing cycle state) do not erase
// each other's data.
type FileStore struct {
	path string

	mu   sync.Mutex
	last []byte // file content as last read or written by this store
}

// NewFileStore returns a store backed by path. The file and its directory are
// created on first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.readLocked()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Set implements Store.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.readLocked()
	if err != nil {
		return err
	}
	m[key] = value

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("kv: encode: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("kv: write %s: %w", s.path, err)
	}
	s.last = data
	return nil
}

// readLocked loads the whole file. A missing file is an empty store; so is a
// corrupt one, which is logged and left on disk until the next Set overwrites
// it. Must be called with s.mu held.
func (s *FileStore) readLocked() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.last = nil
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("kv: read %s: %w", s.path, err)
	}
	s.last = data

	m := make(map[string]string)
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		slog.Warn("kv: store file is corrupt, treating as empty", "path", s.path, "err", err)
		return make(map[string]string), nil
	}
	return m, nil
}

// changed reports whether the file on disk differs from what this store last
// saw, and records the new content if so.
func (s *FileStore) changed() bool {
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(data, s.last) {
		return false
	}
	s.last = data
	return true
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
