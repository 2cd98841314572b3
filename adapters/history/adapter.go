// Package history persists a summary record per allocation run.
// Supports memory and file backends; the file backend writes one JSON
// document per record.
package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shipalloc/core/determinism"
	"shipalloc/core/flow"
	"shipalloc/internal/errors"
)

// Backend is a history backend type
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
)

// Record is one persisted run summary
type Record struct {
	// ID is the record identifier
	ID string `json:"id"`

	// RunID is the flow run this record summarizes
	RunID string `json:"run_id"`

	// Strategy is the allocator that produced the run
	Strategy string `json:"strategy"`

	// Phase is the terminal phase of the run
	Phase string `json:"phase"`

	// ItemCount is the number of stored inventory rows
	ItemCount int `json:"item_count"`

	// FailureCount is the number of skipped input rows
	FailureCount int `json:"failure_count"`

	// Fingerprint is the stable digest of the resulting inventory
	Fingerprint string `json:"fingerprint,omitempty"`

	// CreatedAt is the record timestamp
	CreatedAt time.Time `json:"created_at"`
}

// FromResult builds a record from a completed flow result
func FromResult(result *flow.Result) *Record {
	rec := &Record{
		ID:           uuid.NewString(),
		RunID:        result.RunID.String(),
		Strategy:     result.Strategy,
		Phase:        result.Phase.String(),
		FailureCount: result.Context.Len(),
		CreatedAt:    time.Now().UTC(),
	}
	if result.Phase == flow.PhaseDone {
		rec.ItemCount = result.Inventory.Len()
		rec.Fingerprint = result.Fingerprint()
	}
	return rec
}

// Store persists run summaries
type Store interface {
	// Save stores a record
	Save(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID
	Get(ctx context.Context, id string) (*Record, error)

	// List returns all records, newest first
	List(ctx context.Context) ([]*Record, error)

	// Close releases backend resources
	Close() error
}

// Open creates a store for the given backend
func Open(backend Backend, directory string) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(directory)
	}
	return nil, errors.Newf(errors.TypeConfig, "unknown history backend: %s", backend)
}

// MemoryStore keeps records in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	records *determinism.StableMap[string, *Record]
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: determinism.NewStableMap[string, *Record]()}
}

// Save implements Store
func (s *MemoryStore) Save(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *rec
	s.records.Set(rec.ID, &copied)
	return nil
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records.Get(id)
	if !ok {
		return nil, errors.Newf(errors.TypeSource, "history record not found: %s", id)
	}
	copied := *rec
	return &copied, nil
}

// List implements Store
func (s *MemoryStore) List(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	s.records.Range(func(_ string, rec *Record) bool {
		copied := *rec
		out = append(out, &copied)
		return true
	})
	determinism.SortSlice(out, func(a, b *Record) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, nil
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}

// FileStore writes one JSON file per record under a directory
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(errors.TypeStorage, err, "cannot create history directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save implements Store
func (s *FileStore) Save(ctx context.Context, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(errors.TypeStorage, "cannot encode history record", err)
	}
	if err := os.WriteFile(s.path(rec.ID), data, 0644); err != nil {
		return errors.Wrapf(errors.TypeStorage, err, "cannot write history record %s", rec.ID)
	}
	return nil
}

// Get implements Store
func (s *FileStore) Get(ctx context.Context, id string) (*Record, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.TypeSource, "history record not found: %s", id)
		}
		return nil, errors.Wrapf(errors.TypeSource, err, "cannot read history record %s", id)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(errors.TypeSource, err, "cannot decode history record %s", id)
	}
	return &rec, nil
}

// List implements Store
func (s *FileStore) List(ctx context.Context) ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeSource, err, "cannot read history directory %s", s.dir)
	}

	var out []*Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		rec, err := s.Get(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	determinism.SortSlice(out, func(a, b *Record) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, nil
}

// Close implements Store
func (s *FileStore) Close() error {
	return nil
}
