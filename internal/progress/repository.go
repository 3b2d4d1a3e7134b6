package progress

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepository persists aggregates in the user_progress table. Skill
// columns use the persisted category names (skill_objection, skill_communication).
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (Progress, error) {
	const q = `
SELECT user_id, total_calls, current_streak, longest_streak, last_call_date,
       avg_overall_score,
       skill_opening, skill_discovery, skill_objection, skill_communication, skill_closing,
       updated_at
FROM user_progress WHERE user_id = $1
`
	var p Progress
	err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&p.UserID,
		&p.TotalCalls,
		&p.CurrentStreak,
		&p.LongestStreak,
		&p.LastCallDate,
		&p.AvgOverallScore,
		&p.Skills.Opening,
		&p.Skills.Discovery,
		&p.Skills.ObjectionHandling,
		&p.Skills.CallControl,
		&p.Skills.Closing,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Progress{}, ErrNotFound
		}
		return Progress{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p Progress) error {
	const q = `
INSERT INTO user_progress (
  user_id, total_calls, current_streak, longest_streak, last_call_date,
  avg_overall_score,
  skill_opening, skill_discovery, skill_objection, skill_communication, skill_closing,
  updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (user_id) DO UPDATE SET
  total_calls = EXCLUDED.total_calls,
  current_streak = EXCLUDED.current_streak,
  longest_streak = EXCLUDED.longest_streak,
  last_call_date = EXCLUDED.last_call_date,
  avg_overall_score = EXCLUDED.avg_overall_score,
  skill_opening = EXCLUDED.skill_opening,
  skill_discovery = EXCLUDED.skill_discovery,
  skill_objection = EXCLUDED.skill_objection,
  skill_communication = EXCLUDED.skill_communication,
  skill_closing = EXCLUDED.skill_closing,
  updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q,
		p.UserID,
		p.TotalCalls,
		p.CurrentStreak,
		p.LongestStreak,
		p.LastCallDate,
		p.AvgOverallScore,
		p.Skills.Opening,
		p.Skills.Discovery,
		p.Skills.ObjectionHandling,
		p.Skills.CallControl,
		p.Skills.Closing,
		p.UpdatedAt,
	)
	return err
}
