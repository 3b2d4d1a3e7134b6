package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"sparrow-api/pkg/utils"
)

// Repository is the persistence contract for calls and their satellite rows.
type Repository interface {
	Insert(ctx context.Context, c Call) error
	Get(ctx context.Context, id string) (Call, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Call, error)

	// MarkActive moves a ready call to active, records the voice session id
	// and stamps started_at. The clock starts when the session is live, not
	// when the row was inserted, so setup time never counts as talk time.
	MarkActive(ctx context.Context, id, conversationID string, at time.Time) error
	// MarkAbandoned terminates a call that never completed.
	MarkAbandoned(ctx context.Context, id string, at time.Time) error
	// CompleteIfActive transitions active -> completed and reports whether the
	// row actually moved. A false return means the call was not active, which
	// callers treat as a duplicate-end conflict.
	CompleteIfActive(ctx context.Context, id string, durationSeconds int, at time.Time) (bool, error)

	SaveTranscript(ctx context.Context, callID string, msgs []Message) error
	GetTranscript(ctx context.Context, callID string) ([]Message, error)

	InsertScore(ctx context.Context, s Score) error
	GetScore(ctx context.Context, callID string) (Score, error)

	InsertFeedback(ctx context.Context, items []Feedback) error
	ListFeedback(ctx context.Context, callID string) ([]Feedback, error)

	// CountCalls counts quota-consuming calls, excluding abandoned ones.
	// A zero since counts the user's full history. The signature matches
	// plans.UsageRepository so the same repository backs quota checks.
	CountCalls(ctx context.Context, userID string, since time.Time) (int, error)
}

// PostgresRepository persists calls across the calls, call_transcripts,
// call_scores and call_feedback tables.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const callColumns = `id, user_id, prospect_id, call_type, persona, status, conversation_id, duration_seconds, started_at, ended_at, created_at`

func scanCall(scan func(dest ...any) error) (Call, error) {
	var (
		c          Call
		prospectID sql.NullString
		convID     sql.NullString
		persona    []byte
		endedAt    sql.NullTime
	)
	err := scan(
		&c.ID,
		&c.UserID,
		&prospectID,
		&c.CallType,
		&persona,
		&c.Status,
		&convID,
		&c.DurationSeconds,
		&c.StartedAt,
		&endedAt,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	c.ProspectID = prospectID.String
	c.ConversationID = convID.String
	if endedAt.Valid {
		t := endedAt.Time
		c.EndedAt = &t
	}
	if len(persona) > 0 {
		if err := json.Unmarshal(persona, &c.Persona); err != nil {
			return Call{}, err
		}
	}
	return c, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, c Call) error {
	persona, err := json.Marshal(c.Persona)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO calls (id, user_id, prospect_id, call_type, persona, status, duration_seconds, started_at, created_at)
VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9)
`
	_, err = r.db.ExecContext(ctx, q,
		c.ID, c.UserID, c.ProspectID, c.CallType, persona, c.Status,
		c.DurationSeconds, c.StartedAt, c.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Call, error) {
	const q = `SELECT ` + callColumns + ` FROM calls WHERE id = $1`
	return scanCall(r.db.QueryRowContext(ctx, q, id).Scan)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Call, error) {
	const q = `
SELECT ` + callColumns + ` FROM calls
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.db.QueryContext(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Call{}
	for rows.Next() {
		c, err := scanCall(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) MarkActive(ctx context.Context, id, conversationID string, at time.Time) error {
	const q = `UPDATE calls SET status = $2, conversation_id = $3, started_at = $4 WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, q, id, StatusActive, conversationID, at, StatusReady)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkAbandoned(ctx context.Context, id string, at time.Time) error {
	const q = `
UPDATE calls SET status = $2, ended_at = $3
WHERE id = $1 AND status IN ($4, $5)
`
	_, err := r.db.ExecContext(ctx, q, id, StatusAbandoned, at, StatusReady, StatusActive)
	return err
}

func (r *PostgresRepository) CompleteIfActive(ctx context.Context, id string, durationSeconds int, at time.Time) (bool, error) {
	const q = `
UPDATE calls SET status = $2, duration_seconds = $3, ended_at = $4
WHERE id = $1 AND status = $5
`
	res, err := r.db.ExecContext(ctx, q, id, StatusCompleted, durationSeconds, at, StatusActive)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepository) SaveTranscript(ctx context.Context, callID string, msgs []Message) error {
	if msgs == nil {
		msgs = []Message{}
	}
	payload, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO call_transcripts (call_id, messages, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (call_id) DO UPDATE SET messages = EXCLUDED.messages, updated_at = now()
`
	_, err = r.db.ExecContext(ctx, q, callID, payload)
	return err
}

func (r *PostgresRepository) GetTranscript(ctx context.Context, callID string) ([]Message, error) {
	const q = `SELECT messages FROM call_transcripts WHERE call_id = $1`
	var payload []byte
	if err := r.db.QueryRowContext(ctx, q, callID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []Message{}, nil
		}
		return nil, err
	}
	msgs := []Message{}
	if err := json.Unmarshal(payload, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *PostgresRepository) InsertScore(ctx context.Context, s Score) error {
	const q = `
INSERT INTO call_scores (
  call_id, overall, opening, discovery, objection, communication, closing,
  outcome, confidence, scoring_provider, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`
	_, err := r.db.ExecContext(ctx, q,
		s.CallID, s.Overall, s.Opening, s.Discovery, s.Objection, s.Communication,
		s.Closing, s.Outcome, s.Confidence, s.Provider, s.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) GetScore(ctx context.Context, callID string) (Score, error) {
	const q = `
SELECT call_id, overall, opening, discovery, objection, communication, closing,
       outcome, confidence, scoring_provider, created_at
FROM call_scores WHERE call_id = $1
`
	var s Score
	err := r.db.QueryRowContext(ctx, q, callID).Scan(
		&s.CallID, &s.Overall, &s.Opening, &s.Discovery, &s.Objection,
		&s.Communication, &s.Closing, &s.Outcome, &s.Confidence, &s.Provider,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Score{}, ErrNotFound
	}
	return s, err
}

func (r *PostgresRepository) InsertFeedback(ctx context.Context, items []Feedback) error {
	if len(items) == 0 {
		return nil
	}
	const q = `
INSERT INTO call_feedback (id, call_id, category, timestamp_ms, type, title, content, suggestion, excerpt, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	// All-or-nothing: a partial feedback list is worse than none.
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, f := range items {
			if _, err := tx.ExecContext(ctx, q,
				f.ID, f.CallID, f.Category, f.TimestampMS, f.Type, f.Title,
				f.Content, f.Suggestion, f.Excerpt, f.CreatedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepository) ListFeedback(ctx context.Context, callID string) ([]Feedback, error) {
	const q = `
SELECT id, call_id, category, timestamp_ms, type, title, content, suggestion, excerpt, created_at
FROM call_feedback WHERE call_id = $1
ORDER BY timestamp_ms ASC, created_at ASC
`
	rows, err := r.db.QueryContext(ctx, q, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Feedback{}
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(
			&f.ID, &f.CallID, &f.Category, &f.TimestampMS, &f.Type, &f.Title,
			&f.Content, &f.Suggestion, &f.Excerpt, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CountCalls(ctx context.Context, userID string, since time.Time) (int, error) {
	const q = `
SELECT COUNT(*) FROM calls
WHERE user_id = $1 AND status <> $2 AND created_at >= $3
`
	var n int
	err := r.db.QueryRowContext(ctx, q, userID, StatusAbandoned, since).Scan(&n)
	return n, err
}
