package calls

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sparrow-api/pkg/utils"
)

// SessionLimiter caps how many live practice sessions a user can hold at
// once. One is the product rule; the implementation allows the cap to change.
type SessionLimiter interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

const (
	sessionCapLimit = 1
	// Sessions hold a slot at most this long; crashes must not strand a user
	// behind their own dead session.
	sessionCapTTL = 30 * time.Minute
)

// RedisSessionLimiter enforces the cap atomically across instances.
type RedisSessionLimiter struct {
	rdb *redis.Client
}

func NewRedisSessionLimiter(rdb *redis.Client) *RedisSessionLimiter {
	return &RedisSessionLimiter{rdb: rdb}
}

func sessionCapKey(userID string) string {
	return fmt.Sprintf("sessions:user:%s", userID)
}

func (l *RedisSessionLimiter) Acquire(ctx context.Context, userID string) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, l.rdb, sessionCapKey(userID), sessionCapLimit, sessionCapTTL)
}

func (l *RedisSessionLimiter) Release(ctx context.Context, userID string) error {
	return utils.ReleaseConcurrencyCap(ctx, l.rdb, sessionCapKey(userID))
}

// MemorySessionLimiter is a single-process SessionLimiter for tests.
type MemorySessionLimiter struct {
	mu   sync.Mutex
	held map[string]int
}

func NewMemorySessionLimiter() *MemorySessionLimiter {
	return &MemorySessionLimiter{held: map[string]int{}}
}

func (l *MemorySessionLimiter) Acquire(ctx context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[userID] >= sessionCapLimit {
		return false, nil
	}
	l.held[userID]++
	return true, nil
}

func (l *MemorySessionLimiter) Release(ctx context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[userID] > 0 {
		l.held[userID]--
	}
	return nil
}
