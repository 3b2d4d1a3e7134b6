package reporting

import (
	"context"
	"testing"
)

type fakeRepo struct {
	users    int
	byStatus map[string]int
	avg      float64
}

func (f *fakeRepo) CountUsers(ctx context.Context) (int, error) { return f.users, nil }

func (f *fakeRepo) CountCallsByStatus(ctx context.Context) (map[string]int, error) {
	return f.byStatus, nil
}

func (f *fakeRepo) AverageOverallScore(ctx context.Context) (float64, error) { return f.avg, nil }

func TestAdminStats(t *testing.T) {
	svc := NewService(&fakeRepo{
		users:    42,
		byStatus: map[string]int{"completed": 100, "abandoned": 7, "active": 2},
		avg:      6.8,
	})

	stats, err := svc.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 42 || stats.CompletedCalls != 100 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.CallsByStatus["abandoned"] != 7 {
		t.Fatalf("status breakdown missing: %+v", stats.CallsByStatus)
	}
	if stats.AvgOverallScore != 6.8 {
		t.Fatalf("unexpected avg: %v", stats.AvgOverallScore)
	}
}

func TestAdminStats_EmptyPlatform(t *testing.T) {
	svc := NewService(&fakeRepo{})
	stats, err := svc.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.CallsByStatus == nil {
		t.Fatalf("status map should never be nil")
	}
	if stats.CompletedCalls != 0 || stats.AvgOverallScore != 0 {
		t.Fatalf("unexpected zero stats: %+v", stats)
	}
}
