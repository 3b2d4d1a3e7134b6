package personas

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests and local development.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]Prospect
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: map[string]Prospect{}}
}

func (r *MemoryRepository) Insert(ctx context.Context, p Prospect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = p
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Prospect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return Prospect{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepository) ListForUser(ctx context.Context, userID string) ([]Prospect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Prospect
	for _, p := range r.rows {
		if p.UserID == userID || p.IsDefault() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.IsDefault() {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *MemoryRepository) SetFavorite(ctx context.Context, id string, favorite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	p.Favorite = favorite
	r.rows[id] = p
	return nil
}

func (r *MemoryRepository) IncrementTimesUsed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	p.TimesUsed++
	r.rows[id] = p
	return nil
}
