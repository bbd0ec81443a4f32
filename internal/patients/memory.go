package patients

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository keeps patient records in process memory.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[Key]Record
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[Key]Record)}
}

// Upsert merges the record with any existing one under the same key.
func (r *InMemoryRepository) Upsert(ctx context.Context, rec Record) (Record, error) {
	key := rec.Key().normalized()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[key]; ok {
		rec = merge(existing, rec)
	}
	rec.UpdatedAt = time.Now().UTC()
	r.records[key] = rec
	return rec, nil
}

// Get retrieves a record by its composite key.
func (r *InMemoryRepository) Get(ctx context.Context, key Key) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[key.normalized()]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec
	out.Appointments = append([]Appointment(nil), rec.Appointments...)
	return &out, nil
}

var _ Repository = (*InMemoryRepository)(nil)
