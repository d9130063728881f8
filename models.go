package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. The authentication core only reads it, the
// surrounding user-management code owns writes.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	IsActive       bool       `bun:"is_active,notnull" json:"is_active"`
	EmailValidated bool       `bun:"is_email_verified,notnull" json:"is_email_verified"`
	LoggedInAt     *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// SessionRecord is a server tracked, revocable session.
type SessionRecord struct {
	bun.BaseModel  `bun:"table:auth_sessions,alias:ses"`
	ID             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	IdentityID     string    `bun:"identity_id,notnull" json:"identity_id"`
	Token          string    `bun:"token,notnull,unique" json:"-"`
	ExpiresAt      time.Time `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
	LastAccessedAt time.Time `bun:"last_accessed_at,notnull" json:"last_accessed_at"`
	IPAddress      string    `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent      string    `bun:"user_agent" json:"user_agent,omitempty"`
}

// ActiveAt reports whether the session is still valid at t.
func (s *SessionRecord) ActiveAt(t time.Time) bool {
	return s != nil && t.Before(s.ExpiresAt)
}

// Origin returns the origin metadata captured at creation.
func (s *SessionRecord) Origin() OriginMeta {
	if s == nil {
		return OriginMeta{}
	}
	return OriginMeta{IPAddress: s.IPAddress, UserAgent: s.UserAgent}
}

// ActivityEntry is a single row of the audit trail.
type ActivityEntry struct {
	bun.BaseModel `bun:"table:auth_activity,alias:act"`
	ID            uuid.UUID      `bun:"id,pk,type:uuid" json:"id"`
	IdentityID    string         `bun:"identity_id" json:"identity_id,omitempty"`
	Action        ActivityAction `bun:"action,notnull" json:"action"`
	Description   string         `bun:"description" json:"description,omitempty"`
	IPAddress     string         `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent     string         `bun:"user_agent" json:"user_agent,omitempty"`
	Metadata      map[string]any `bun:"metadata,type:jsonb,json_use_number" json:"metadata,omitempty"`
	CreatedAt     time.Time      `bun:"created_at,notnull" json:"created_at"`
}
