package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Role names. Keep these stable; they are part of the auth contract.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims are the only supported JWT claims shape for this service.
//
// Subject (registered "sub") carries the identity provider's user id. It is
// the bridge between the external auth system and internal user rows; it is
// never an internal id.
type Claims struct {
	jwt.RegisteredClaims

	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
