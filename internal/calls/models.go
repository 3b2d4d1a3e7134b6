package calls

import (
	"time"

	"sparrow-api/internal/personas"
)

// Status is the call lifecycle state. Transitions are one-directional:
// ready -> active -> completed | abandoned. There is no way back.
type Status string

const (
	StatusReady     Status = "ready"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Call is one practice session.
type Call struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	ProspectID      string          `json:"prospect_id,omitempty"`
	CallType        string          `json:"call_type"`
	Persona         personas.Config `json:"persona"`
	Status          Status          `json:"status"`
	ConversationID  string          `json:"-"`
	DurationSeconds int             `json:"duration_seconds"`
	StartedAt       time.Time       `json:"started_at"`
	EndedAt         *time.Time      `json:"ended_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Message is one transcript utterance.
type Message struct {
	Speaker     string `json:"speaker"` // "user" | "prospect"
	Content     string `json:"content"`
	TimestampMS int64  `json:"timestamp_ms"`
}

// Score is the persisted scoring row for a call. Category columns use the
// persisted names (objection, communication).
type Score struct {
	CallID        string    `json:"call_id"`
	Overall       float64   `json:"overall"`
	Opening       float64   `json:"opening"`
	Discovery     float64   `json:"discovery"`
	Objection     float64   `json:"objection"`
	Communication float64   `json:"communication"`
	Closing       float64   `json:"closing"`
	Outcome       string    `json:"outcome"`
	Confidence    float64   `json:"confidence"`
	Provider      string    `json:"scoring_provider"`
	CreatedAt     time.Time `json:"created_at"`
}

// Feedback is one persisted coaching moment. Timestamps are milliseconds
// into the call; the title is derived from the content at insert time.
type Feedback struct {
	ID          string    `json:"id"`
	CallID      string    `json:"call_id"`
	Category    string    `json:"category"`
	TimestampMS int64     `json:"timestamp_ms"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Suggestion  string    `json:"suggestion,omitempty"`
	Excerpt     string    `json:"excerpt,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
