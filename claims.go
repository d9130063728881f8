package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the claim set carried by signed tokens
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	Email    string `json:"email,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// TokenPayload is the verified content of a signed token. It is a value
// copy, mutating it has no effect on the token.
type TokenPayload struct {
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email"`
	UserRole   UserRole  `json:"role"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	TokenID    string    `json:"token_id,omitempty"`
}

// ID satisfies RoleHolder so payloads can be fed to the policy helpers.
func (p TokenPayload) ID() string {
	return p.IdentityID
}

// Role satisfies RoleHolder.
func (p TokenPayload) Role() UserRole {
	return p.UserRole
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *JWTClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func (c *JWTClaims) payload() *TokenPayload {
	return &TokenPayload{
		IdentityID: c.UserID(),
		Email:      c.Email,
		UserRole:   UserRole(c.UserRole),
		IssuedAt:   c.Issued(),
		ExpiresAt:  c.Expires(),
		TokenID:    c.RegisteredClaims.ID,
	}
}
