package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-api/internal/scoring"
)

var ErrNotFound = errors.New("progress: not found")

// Repository persists per-user progress aggregates.
type Repository interface {
	Get(ctx context.Context, userID string) (Progress, error)
	Upsert(ctx context.Context, p Progress) error
}

// Service applies completed-call results to the user's running aggregates.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

const (
	// Exponential moving average weights for per-skill scores. Existing
	// value dominates so one outlier call cannot swing a skill.
	emaExistingWeight = 0.7
	emaIncomingWeight = 0.3

	dateLayout = "2006-01-02"
)

// Apply folds one completed call's scores into the user's progress row.
// The first completed call seeds the row. Abandoned calls never reach here.
func (s *Service) Apply(ctx context.Context, userID string, res scoring.Result) (Progress, error) {
	if userID == "" {
		return Progress{}, errors.New("progress: user id is required")
	}

	now := s.clock().UTC()
	today := now.Format(dateLayout)

	p, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		p = Progress{
			UserID:          userID,
			TotalCalls:      1,
			CurrentStreak:   1,
			LongestStreak:   1,
			LastCallDate:    today,
			AvgOverallScore: res.Overall,
			Skills:          res.Categories,
			UpdatedAt:       now,
		}
		if err := s.repo.Upsert(ctx, p); err != nil {
			return Progress{}, fmt.Errorf("progress: seed: %w", err)
		}
		return p, nil
	case err != nil:
		return Progress{}, fmt.Errorf("progress: load: %w", err)
	}

	p.CurrentStreak = nextStreak(p.CurrentStreak, p.LastCallDate, today)
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.LastCallDate = today

	p.AvgOverallScore = (p.AvgOverallScore*float64(p.TotalCalls) + res.Overall) / float64(p.TotalCalls+1)
	p.TotalCalls++

	for _, c := range scoring.Categories() {
		prev := p.Skills.Get(c)
		p.Skills.Set(c, prev*emaExistingWeight+res.Categories.Get(c)*emaIncomingWeight)
	}

	p.UpdatedAt = now
	if err := s.repo.Upsert(ctx, p); err != nil {
		return Progress{}, fmt.Errorf("progress: save: %w", err)
	}
	return p, nil
}

// Get returns the user's aggregates, or a zero-valued row for users who have
// not completed a call yet.
func (s *Service) Get(ctx context.Context, userID string) (Progress, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Progress{UserID: userID}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	return p, nil
}

// nextStreak implements the calendar-day streak rules: a call the day after
// the last one extends the streak, a same-day call leaves it unchanged, and
// any longer gap resets it to 1. Unparseable stored dates also reset.
func nextStreak(current int, lastDate, today string) int {
	if lastDate == today {
		return current
	}
	last, err := time.Parse(dateLayout, lastDate)
	if err != nil {
		return 1
	}
	cur, err := time.Parse(dateLayout, today)
	if err != nil {
		return 1
	}
	if last.AddDate(0, 0, 1).Equal(cur) {
		return current + 1
	}
	return 1
}
