package hashstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/leakwatch/leakwatch/internal/types"
)

// fileDB is the on-disk layout: sha -> first time it was recorded (RFC 3339).
type fileDB struct {
	Entries map[string]string `json:"entries"`
}

// FileStore keeps the hash list in a JSON file, rewritten on every Add.
type FileStore struct {
	path string

	mu sync.Mutex
	db fileDB
	// now is replaced in tests
	now func() time.Time
}

// OpenFile loads the hash list at path. A missing file is an empty list.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path, db: fileDB{Entries: map[string]string{}}, now: time.Now}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hashstore: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &s.db); err != nil {
		return nil, fmt.Errorf("hashstore: parse %s: %w", path, err)
	}
	if s.db.Entries == nil {
		s.db.Entries = map[string]string{}
	}
	return s, nil
}

func (s *FileStore) Hashes(context.Context) (types.HashSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(types.HashSet, len(s.db.Entries))
	for sha := range s.db.Entries {
		set.Add(sha)
	}
	return set, nil
}

func (s *FileStore) Add(_ context.Context, shas ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	stamp := s.now().UTC().Format(time.RFC3339)
	for _, sha := range shas {
		if sha == "" {
			continue
		}
		if _, ok := s.db.Entries[sha]; ok {
			continue
		}
		s.db.Entries[sha] = stamp
		changed = true
	}
	if !changed {
		return nil
	}
	return s.save()
}

func (s *FileStore) save() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("hashstore: mkdir: %w", err)
		}
	}
	b, err := json.MarshalIndent(s.db, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("hashstore: write: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Close() error { return nil }
