package reporting

import (
	"context"
	"fmt"
	"time"
)

// Stats is the admin-facing platform snapshot.
type Stats struct {
	TotalUsers      int            `json:"total_users"`
	CallsByStatus   map[string]int `json:"calls_by_status"`
	CompletedCalls  int            `json:"completed_calls"`
	AvgOverallScore float64        `json:"avg_overall_score"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// Repository aggregates across users, calls and scores.
type Repository interface {
	CountUsers(ctx context.Context) (int, error)
	CountCallsByStatus(ctx context.Context) (map[string]int, error)
	AverageOverallScore(ctx context.Context) (float64, error)
}

// Service produces platform-wide reports. Admin only; route guards enforce
// that.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) AdminStats(ctx context.Context) (Stats, error) {
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("reporting: count users: %w", err)
	}
	byStatus, err := s.repo.CountCallsByStatus(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("reporting: count calls: %w", err)
	}
	avg, err := s.repo.AverageOverallScore(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("reporting: average score: %w", err)
	}
	if byStatus == nil {
		byStatus = map[string]int{}
	}
	return Stats{
		TotalUsers:      users,
		CallsByStatus:   byStatus,
		CompletedCalls:  byStatus["completed"],
		AvgOverallScore: avg,
		GeneratedAt:     s.clock().UTC(),
	}, nil
}
