package personas

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PostgresRepository persists prospects in the prospects table.
//
// user_id is NULL for shipped defaults; config is a jsonb column.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, p Prospect) error {
	const q = `
INSERT INTO prospects (id, user_id, name, config, favorite, times_used, created_at)
VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, $7)
`
	cfg, err := json.Marshal(p.Config)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, p.ID, p.UserID, p.Name, cfg, p.Favorite, p.TimesUsed, p.CreatedAt)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Prospect, error) {
	const q = `
SELECT id, COALESCE(user_id,''), name, config, favorite, times_used, created_at
FROM prospects
WHERE id = $1
`
	var p Prospect
	var cfg []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&cfg,
		&p.Favorite,
		&p.TimesUsed,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Prospect{}, ErrNotFound
		}
		return Prospect{}, err
	}
	if err := json.Unmarshal(cfg, &p.Config); err != nil {
		return Prospect{}, err
	}
	return p, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]Prospect, error) {
	const q = `
SELECT id, COALESCE(user_id,''), name, config, favorite, times_used, created_at
FROM prospects
WHERE user_id = $1 OR user_id IS NULL
ORDER BY user_id IS NULL, created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Prospect
	for rows.Next() {
		var p Prospect
		var cfg []byte
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &cfg, &p.Favorite, &p.TimesUsed, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cfg, &p.Config); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM prospects WHERE id = $1 AND user_id IS NOT NULL`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetFavorite(ctx context.Context, id string, favorite bool) error {
	const q = `UPDATE prospects SET favorite = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, favorite)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) IncrementTimesUsed(ctx context.Context, id string) error {
	const q = `UPDATE prospects SET times_used = times_used + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
