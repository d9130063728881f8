package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger is the logging contract used across the package. Messages are
// followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an identity that are safe to hand back
// to callers. It never exposes credential material.
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() UserRole
	Active() bool
	Verified() bool
	LastLoginAt() *time.Time
}

// CredentialIdentity is an Identity that also carries its stored password
// hash. Only the IdentityProvider hands these out.
type CredentialIdentity interface {
	Identity
	PasswordHash() string
}

// IdentityProvider is the user-management collaborator. The core reads
// identities through it and asks it to stamp successful logins.
type IdentityProvider interface {
	// FindIdentityByEmail returns ErrIdentityNotFound when no identity matches.
	FindIdentityByEmail(ctx context.Context, email string) (CredentialIdentity, error)
	// FindIdentityByID returns ErrIdentityNotFound when no identity matches.
	FindIdentityByID(ctx context.Context, id string) (Identity, error)
	TrackSuccessfulLogin(ctx context.Context, id string, at time.Time) error
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	// GetTokenExpiration is the signed token lifetime in hours.
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetSessionTTL() time.Duration
	GetMinPasswordLength() int
	GetPasswordHashCost() int
	GetLoginMaxAttempts() int
	GetLoginWindow() time.Duration
}

// OriginMeta describes where a request came from.
type OriginMeta struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// IsZero reports whether no origin information is available.
func (o OriginMeta) IsZero() bool {
	return o.IPAddress == "" && o.UserAgent == ""
}

// LoginResultCode classifies the outcome of an authentication attempt.
type LoginResultCode string

const (
	ResultSuccess            LoginResultCode = "success"
	ResultInvalidCredentials LoginResultCode = LoginResultCode(TextCodeInvalidCreds)
	ResultAccountDeactivated LoginResultCode = LoginResultCode(TextCodeAccountDeactivated)
	ResultRateLimited        LoginResultCode = LoginResultCode(TextCodeTooManyAttempts)
)

const (
	MessageInvalidCredentials = "invalid email or password"
	MessageAccountDeactivated = "account deactivated"
	MessageRateLimited        = "too many login attempts, try again later"
)

// LoginResult is returned by Authenticate for every non-infrastructure
// outcome. Failed attempts only carry Code and Message.
type LoginResult struct {
	Success          bool            `json:"success"`
	Code             LoginResultCode `json:"code"`
	Message          string          `json:"message,omitempty"`
	Identity         *IdentityView   `json:"identity,omitempty"`
	SessionToken     string          `json:"session_token,omitempty"`
	SessionExpiresAt time.Time       `json:"session_expires_at,omitempty"`
	SignedToken      string          `json:"signed_token,omitempty"`
	TokenExpiresAt   time.Time       `json:"token_expires_at,omitempty"`
}

func failedLogin(code LoginResultCode, message string) *LoginResult {
	return &LoginResult{
		Success: false,
		Code:    code,
		Message: message,
	}
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] AUTH " + format(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] AUTH " + format(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] AUTH " + format(msg, args...))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] AUTH " + format(msg, args...))
}

func format(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(args) {
			fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, "%v", args[i])
		}
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
