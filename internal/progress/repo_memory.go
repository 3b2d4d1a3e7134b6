package progress

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]Progress
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: map[string]Progress{}}
}

func (r *MemoryRepository) Get(ctx context.Context, userID string) (Progress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[userID]
	if !ok {
		return Progress{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, p Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.UserID] = p
	return nil
}
