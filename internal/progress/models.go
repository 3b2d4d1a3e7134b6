package progress

import (
	"time"

	"sparrow-api/internal/scoring"
)

// Progress is the per-user aggregate updated after every completed call.
// LastCallDate is a UTC calendar date in "2006-01-02" form; streak math
// compares dates, not instants.
type Progress struct {
	UserID          string                 `json:"user_id"`
	TotalCalls      int                    `json:"total_calls"`
	CurrentStreak   int                    `json:"current_streak"`
	LongestStreak   int                    `json:"longest_streak"`
	LastCallDate    string                 `json:"last_call_date"`
	AvgOverallScore float64                `json:"avg_overall_score"`
	Skills          scoring.CategoryScores `json:"skills"`
	UpdatedAt       time.Time              `json:"updated_at"`
}
