package personas

import "time"

// Config describes the simulated buyer driving both the voice agent and the
// scoring context. It is embedded as JSON on the call row.
type Config struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Company     string   `json:"company"`
	Industry    string   `json:"industry"`
	Personality string   `json:"personality"`
	Difficulty  string   `json:"difficulty"`
	Objections  []string `json:"objections,omitempty"`
	Background  string   `json:"background,omitempty"`
}

// Prospect is a reusable persona template. Default prospects are shipped with
// the product (UserID empty); the rest are user-created.
type Prospect struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id,omitempty" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Config    Config    `json:"config" db:"config"`
	Favorite  bool      `json:"favorite" db:"favorite"`
	TimesUsed int       `json:"times_used" db:"times_used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsDefault reports whether this prospect is a shipped default.
func (p Prospect) IsDefault() bool { return p.UserID == "" }
