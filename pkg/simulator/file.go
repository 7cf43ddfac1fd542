package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every record in one JSON document, in the layout the
// hardware controller uses for switch_config.json. Writes replace the file
// atomically.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	records map[string]Record
}

// NewFileStore opens path, creating its directory. A missing file is an
// empty store.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &FileStore{path: path, records: make(map[string]Record)}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	for id, rec := range s.records {
		rec.Config.ID = id
		s.records[id] = rec
	}
	return s, nil
}

func (s *FileStore) All(context.Context) (map[string]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.records), nil
}

func (s *FileStore) Get(_ context.Context, id string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok, nil
}

func (s *FileStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.records)
	next[rec.Config.ID] = rec
	if err := s.write(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

func (s *FileStore) write(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".switch_config-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

var _ Store = (*FileStore)(nil)
