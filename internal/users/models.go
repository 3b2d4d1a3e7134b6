package users

import "time"

// User bridges the identity provider's subject to an internal id.
//
// Rows are created lazily the first time a subject starts a call; the email
// is a placeholder until the identity webhook delivers the real one.
type User struct {
	ID          string    `json:"id" db:"id"`
	AuthSubject string    `json:"auth_subject" db:"auth_subject"`
	Email       string    `json:"email" db:"email"`
	Plan        string    `json:"plan" db:"plan"`
	Role        string    `json:"role" db:"role"`
	Onboarded   bool      `json:"onboarded" db:"onboarded"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
