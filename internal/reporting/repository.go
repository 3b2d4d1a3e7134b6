package reporting

import (
	"context"
	"database/sql"
)

// PostgresRepository reads aggregates straight from the base tables.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CountUsers(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM users`
	var n int
	err := r.db.QueryRowContext(ctx, q).Scan(&n)
	return n, err
}

func (r *PostgresRepository) CountCallsByStatus(ctx context.Context) (map[string]int, error) {
	const q = `SELECT status, COUNT(*) FROM calls GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *PostgresRepository) AverageOverallScore(ctx context.Context) (float64, error) {
	const q = `SELECT COALESCE(AVG(overall), 0) FROM call_scores`
	var avg float64
	err := r.db.QueryRowContext(ctx, q).Scan(&avg)
	return avg, err
}
