package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	errorskg "github.com/sweetpotato0/convodesk/errors"
)

// FileStore persists each collection as one JSON object file mapping
// record ID to record. Every write loads the whole collection, mutates
// it and saves it back, serialized by a process wide mutex.
type FileStore struct {
	mu  sync.Mutex // Serializes read-modify-write cycles
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Save inserts or replaces a record in the kind's collection.
func (s *FileStore) Save(ctx context.Context, kind Kind, rec Record) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown record kind %q: %w", kind, errorskg.ErrInvalidInput)
	}
	if rec.ID == "" {
		return fmt.Errorf("record id cannot be empty: %w", errorskg.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(kind)
	if err != nil {
		return err
	}
	records[rec.ID] = rec
	return s.write(kind, records)
}

// Load returns one record by ID.
func (s *FileStore) Load(ctx context.Context, kind Kind, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(kind)
	if err != nil {
		return Record{}, err
	}
	rec, ok := records[id]
	if !ok {
		return Record{}, fmt.Errorf("record %s: %w", id, errorskg.ErrNotFound)
	}
	return rec, nil
}

// List returns every record of a kind, oldest first.
func (s *FileStore) List(ctx context.Context, kind Kind) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(kind)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *FileStore) path(kind Kind) string {
	return filepath.Join(s.dir, kind.Collection()+".json")
}

func (s *FileStore) read(kind Kind) (map[string]Record, error) {
	raw, err := os.ReadFile(s.path(kind))
	if os.IsNotExist(err) {
		return make(map[string]Record), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", kind.Collection(), err)
	}
	records := make(map[string]Record)
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode collection %s: %w", kind.Collection(), err)
	}
	return records, nil
}

func (s *FileStore) write(kind Kind, records map[string]Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", kind.Collection(), err)
	}
	if err := os.WriteFile(s.path(kind), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", kind.Collection(), err)
	}
	return nil
}
