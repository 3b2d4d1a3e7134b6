package plans

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimitReached means the user's plan has no remaining practice calls.
var ErrLimitReached = errors.New("plans: call limit reached")

// Period names the window a plan's limit applies to.
type Period string

const (
	PeriodLifetime  Period = "lifetime"
	PeriodMonthly   Period = "monthly"
	PeriodUnlimited Period = "unlimited"
)

// Limit describes one plan's allowance. Calls is nil for unlimited plans.
type Limit struct {
	Calls  *int
	Period Period
}

func intp(v int) *int { return &v }

// limits maps plan names to allowances. Unknown plans fall back to free.
var limits = map[string]Limit{
	"free":    {Calls: intp(4), Period: PeriodLifetime},
	"starter": {Calls: intp(50), Period: PeriodMonthly},
	"pro":     {Calls: nil, Period: PeriodUnlimited},
}

// LimitFor returns the allowance for a plan name.
func LimitFor(plan string) Limit {
	if l, ok := limits[plan]; ok {
		return l
	}
	return limits["free"]
}

// Usage is the current consumption snapshot returned to clients.
type Usage struct {
	Plan      string `json:"plan"`
	Period    Period `json:"period"`
	Used      int    `json:"used"`
	Limit     *int   `json:"limit"`     // nil when unlimited
	Remaining *int   `json:"remaining"` // nil when unlimited
}

// UsageRepository counts the calls that consume quota. Abandoned calls are
// excluded by the repository query.
type UsageRepository interface {
	CountCalls(ctx context.Context, userID string, since time.Time) (int, error)
}

// Service evaluates plan limits. The cache client is optional; quota
// enforcement always counts fresh, only the usage endpoint reads cached.
type Service struct {
	usage UsageRepository
	cache *redis.Client
	clock func() time.Time
}

func NewService(usage UsageRepository, cache *redis.Client) *Service {
	return &Service{usage: usage, cache: cache, clock: time.Now}
}

const usageCacheTTL = 30 * time.Second

func usageCacheKey(userID string) string {
	return fmt.Sprintf("usage:user:%s", userID)
}

// periodStart returns the lower bound for counting calls under a limit.
// Lifetime limits count everything; monthly limits count from the start of
// the current UTC calendar month.
func (s *Service) periodStart(p Period) time.Time {
	switch p {
	case PeriodMonthly:
		now := s.clock().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

// Current returns the user's usage under their plan, reading the cached count
// when one is fresh.
func (s *Service) Current(ctx context.Context, userID, plan string) (Usage, error) {
	limit := LimitFor(plan)
	u := Usage{Plan: plan, Period: limit.Period, Limit: limit.Calls}

	used, err := s.countCached(ctx, userID, limit.Period)
	if err != nil {
		return Usage{}, fmt.Errorf("plans: count calls: %w", err)
	}
	u.Used = used

	if limit.Calls != nil {
		remaining := *limit.Calls - used
		if remaining < 0 {
			remaining = 0
		}
		u.Remaining = &remaining
	}
	return u, nil
}

// Allow reports whether the user may start another call, returning
// ErrLimitReached when the plan's allowance is exhausted. Always counts
// fresh; a stale cache must never let a capped user through.
func (s *Service) Allow(ctx context.Context, userID, plan string) error {
	limit := LimitFor(plan)
	if limit.Calls == nil {
		return nil
	}
	used, err := s.usage.CountCalls(ctx, userID, s.periodStart(limit.Period))
	if err != nil {
		return fmt.Errorf("plans: count calls: %w", err)
	}
	if used >= *limit.Calls {
		return ErrLimitReached
	}
	return nil
}

// Invalidate drops the cached usage count. Called when a call starts.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, usageCacheKey(userID)).Err()
}

func (s *Service) countCached(ctx context.Context, userID string, period Period) (int, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, usageCacheKey(userID)).Result(); err == nil {
			if n, perr := strconv.Atoi(raw); perr == nil {
				return n, nil
			}
		}
	}
	used, err := s.usage.CountCalls(ctx, userID, s.periodStart(period))
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, usageCacheKey(userID), used, usageCacheTTL).Err()
	}
	return used, nil
}
