package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepository persists users in the users table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, auth_subject, email, plan, role, onboarded, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.AuthSubject,
		&u.Email,
		&u.Plan,
		&u.Role,
		&u.Onboarded,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) GetBySubject(ctx context.Context, subject string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE auth_subject = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, subject))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepository) Insert(ctx context.Context, u User) error {
	const q = `
INSERT INTO users (id, auth_subject, email, plan, role, onboarded, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		u.ID,
		u.AuthSubject,
		u.Email,
		u.Plan,
		u.Role,
		u.Onboarded,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) UpdateEmail(ctx context.Context, subject, email string, at time.Time) error {
	const q = `UPDATE users SET email = $2, updated_at = $3 WHERE auth_subject = $1`
	res, err := r.db.ExecContext(ctx, q, subject, email, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
