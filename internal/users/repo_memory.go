package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]User // keyed by id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: map[string]User{}}
}

func (r *MemoryRepository) GetBySubject(ctx context.Context, subject string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.rows {
		if u.AuthSubject == subject {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.rows[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[u.ID] = u
	return nil
}

func (r *MemoryRepository) UpdateEmail(ctx context.Context, subject, email string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.rows {
		if u.AuthSubject == subject {
			u.Email = email
			u.UpdatedAt = at
			r.rows[id] = u
			return nil
		}
	}
	return ErrNotFound
}
