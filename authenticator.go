package auth

import (
	"context"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultLoginMaxAttempts is the number of login attempts allowed per window.
	DefaultLoginMaxAttempts = 5
	// DefaultLoginWindow is the login rate-limit window.
	DefaultLoginWindow = 15 * time.Minute
)

// Auther orchestrates credential checks, sessions, signed tokens, rate
// limiting and the audit trail. The session is authoritative for
// revocation, the signed token can not be revoked before it expires.
type Auther struct {
	provider     IdentityProvider
	sessions     SessionStore
	tokenService TokenService
	hasher       PasswordHasher
	limiter      RateLimiter
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time

	sessionTTL       time.Duration
	loginMaxAttempts int
	loginWindow      time.Duration

	timingOnce sync.Once
	timingHash string
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(provider IdentityProvider, sessions SessionStore, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
	)

	hasher := NewPasswordHasher(
		WithHashCost(opts.GetPasswordHashCost()),
		WithMinPasswordLength(opts.GetMinPasswordLength()),
	)

	a := &Auther{
		provider:         provider,
		sessions:         sessions,
		tokenService:     tokenService,
		hasher:           hasher,
		limiter:          NewMemoryRateLimiter(),
		activitySink:     noopActivitySink{},
		logger:           defLogger{},
		now:              time.Now,
		sessionTTL:       opts.GetSessionTTL(),
		loginMaxAttempts: opts.GetLoginMaxAttempts(),
		loginWindow:      opts.GetLoginWindow(),
	}

	if a.sessionTTL <= 0 {
		a.sessionTTL = DefaultSessionTTL
	}
	if a.loginMaxAttempts <= 0 {
		a.loginMaxAttempts = DefaultLoginMaxAttempts
	}
	if a.loginWindow <= 0 {
		a.loginWindow = DefaultLoginWindow
	}

	return a
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	if ts, ok := s.tokenService.(*TokenServiceImpl); ok {
		WithTokenLogger(s.logger)(ts)
	}
	return s
}

// WithActivitySink configures an ActivitySink for the audit trail.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithRateLimiter swaps the rate limiter, e.g. for a shared store.
func (s *Auther) WithRateLimiter(limiter RateLimiter) *Auther {
	if limiter != nil {
		s.limiter = limiter
	}
	return s
}

// WithPasswordHasher swaps the password hasher.
func (s *Auther) WithPasswordHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
		s.timingOnce = sync.Once{}
	}
	return s
}

// WithTokenService swaps the signed token service.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *Auther) WithClock(clock func() time.Time) *Auther {
	if clock != nil {
		s.now = clock
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Authenticate verifies credentials and, on success, opens a session and
// issues a signed token. Credential failures are reported through the
// result, the error return is reserved for infrastructure failures.
func (s *Auther) Authenticate(ctx context.Context, email, password string, origin OriginMeta) (*LoginResult, error) {
	email = normalizeEmail(email)
	rateKey := LoginRateLimitKey(origin, email)

	if !s.CheckRateLimit(ctx, rateKey, s.loginMaxAttempts, s.loginWindow) {
		s.record(ctx, NewActivityEntry("", ActivityLoginFailure, "login rate limited", origin, map[string]any{
			"email":  email,
			"reason": "rate_limited",
		}))
		return failedLogin(ResultRateLimited, MessageRateLimited), nil
	}

	identity, reason, err := s.findCredentials(ctx, email)
	if err != nil {
		return nil, err
	}

	if identity == nil {
		// Spend the same hashing time as a real check so response timing
		// does not reveal whether the email exists.
		s.hasher.Verify(password, s.dummyHash())
		s.record(ctx, NewActivityEntry("", ActivityLoginFailure, "login failed", origin, map[string]any{
			"email":  email,
			"reason": reason,
		}))
		return failedLogin(ResultInvalidCredentials, MessageInvalidCredentials), nil
	}

	if !identity.Active() {
		s.record(ctx, NewActivityEntry(identity.ID(), ActivityLoginFailure, "login on deactivated account", origin, map[string]any{
			"email":  email,
			"reason": "deactivated",
		}))
		return failedLogin(ResultAccountDeactivated, MessageAccountDeactivated), nil
	}

	if !s.hasher.Verify(password, identity.PasswordHash()) {
		s.record(ctx, NewActivityEntry(identity.ID(), ActivityLoginFailure, "login failed", origin, map[string]any{
			"email":  email,
			"reason": "invalid_password",
		}))
		return failedLogin(ResultInvalidCredentials, MessageInvalidCredentials), nil
	}

	now := s.now()
	if err := s.provider.TrackSuccessfulLogin(ctx, identity.ID(), now); err != nil {
		s.logger.Error("failed to track successful login", "identity_id", identity.ID(), "error", err)
	}

	sessionToken, sessionExpiry, err := s.sessions.Create(ctx, identity.ID(), s.sessionTTL, origin)
	if err != nil {
		s.logger.Error("failed to create session", "identity_id", identity.ID(), "error", err)
		return nil, err
	}

	signedToken, tokenExpiry, err := s.tokenService.Issue(identity)
	if err != nil {
		s.logger.Error("failed to issue signed token", "identity_id", identity.ID(), "error", err)
		if ierr := s.sessions.Invalidate(ctx, sessionToken); ierr != nil {
			s.logger.Error("failed to roll back session", "identity_id", identity.ID(), "error", ierr)
		}
		return nil, err
	}

	s.record(ctx, NewActivityEntry(identity.ID(), ActivityLoginSuccess, "login succeeded", origin, map[string]any{
		"email": email,
	}))

	s.ResetRateLimit(ctx, rateKey)

	view := NewIdentityView(identity)
	view.LastLogin = &now

	return &LoginResult{
		Success:          true,
		Code:             ResultSuccess,
		Identity:         view,
		SessionToken:     sessionToken,
		SessionExpiresAt: sessionExpiry,
		SignedToken:      signedToken,
		TokenExpiresAt:   tokenExpiry,
	}, nil
}

// VerifySession resolves a session token to its identity. Unknown, expired
// and revoked sessions, as well as deleted or deactivated identities, all
// yield (nil, nil). Expiry is fixed, lookups never extend it.
func (s *Auther) VerifySession(ctx context.Context, token string) (Identity, error) {
	record, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		s.logger.Error("session lookup failed", "error", err)
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	identity, err := s.provider.FindIdentityByID(ctx, record.IdentityID)
	if err != nil {
		if IsIdentityNotFound(err) {
			return nil, nil
		}
		if IsInvalidRole(err) {
			s.logger.Error("session identity has invalid role", "identity_id", record.IdentityID, "error", err)
			return nil, nil
		}
		s.logger.Error("identity lookup failed", "identity_id", record.IdentityID, "error", err)
		return nil, storeError(err, "failed to resolve session identity")
	}

	if identity == nil || !identity.Active() {
		return nil, nil
	}

	return NewIdentityView(identity), nil
}

// VerifyToken checks a signed token without touching any store.
func (s *Auther) VerifyToken(token string) *TokenPayload {
	return s.tokenService.Verify(token)
}

// Logout invalidates the session and records the event. It never fails,
// errors only reach the logger.
func (s *Auther) Logout(ctx context.Context, sessionToken, identityID string, origin OriginMeta) {
	if sessionToken != "" {
		// the session owner wins over the caller supplied id
		if record, err := s.sessions.Lookup(ctx, sessionToken); err == nil && record != nil {
			if identityID != "" && identityID != record.IdentityID {
				s.logger.Warn("logout identity does not own session",
					"identity_id", identityID, "owner_id", record.IdentityID)
			}
			identityID = record.IdentityID
		}
	}

	if err := s.sessions.Invalidate(ctx, sessionToken); err != nil {
		s.logger.Error("failed to invalidate session", "identity_id", identityID, "error", err)
	}

	s.record(ctx, NewActivityEntry(identityID, ActivityLogout, "logout", origin, nil))
}

// RevokeSessions invalidates every session of an identity, e.g. after a
// password change.
func (s *Auther) RevokeSessions(ctx context.Context, identityID string, origin OriginMeta) (int, error) {
	n, err := s.sessions.InvalidateAll(ctx, identityID)
	if err != nil {
		s.logger.Error("failed to revoke sessions", "identity_id", identityID, "error", err)
		return 0, err
	}

	s.record(ctx, NewActivityEntry(identityID, ActivitySessionsRevoked, "all sessions revoked", origin, map[string]any{
		"count": n,
	}))

	return n, nil
}

// CheckRateLimit counts an attempt for identifier. A failing limiter store
// refuses the attempt.
func (s *Auther) CheckRateLimit(ctx context.Context, identifier string, maxAttempts int, window time.Duration) bool {
	allowed, err := s.limiter.Allow(ctx, identifier, maxAttempts, window)
	if err != nil {
		s.logger.Error("rate limiter unavailable, refusing attempt", "error", err)
		return false
	}
	return allowed
}

// ResetRateLimit clears identifier's window.
func (s *Auther) ResetRateLimit(ctx context.Context, identifier string) {
	if err := s.limiter.Reset(ctx, identifier); err != nil {
		s.logger.Warn("rate limiter reset failed", "error", err)
	}
}

// findCredentials returns a nil identity together with the audit reason
// when the login must fail generically.
func (s *Auther) findCredentials(ctx context.Context, email string) (CredentialIdentity, string, error) {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return nil, "unknown_identity", nil
	}

	identity, err := s.provider.FindIdentityByEmail(ctx, email)
	if err != nil {
		if IsIdentityNotFound(err) {
			return nil, "unknown_identity", nil
		}
		if IsInvalidRole(err) {
			// callers see the same answer as for an unknown email
			s.logger.Error("identity has invalid role", "email", email, "error", err)
			return nil, "invalid_role", nil
		}
		s.logger.Error("identity lookup failed", "error", err)
		return nil, "", storeError(err, "failed to lookup identity")
	}

	if identity == nil {
		return nil, "unknown_identity", nil
	}

	return identity, "", nil
}

const timingCredential = "timing-equalisation-credential"

// dummyHash is a digest the hasher will spend real work on. Bcrypt hashers
// get it straight from bcrypt at their own cost so the password policy can
// not leave it empty.
func (s *Auther) dummyHash() string {
	s.timingOnce.Do(func() {
		var (
			h   string
			err error
		)
		if c, ok := s.hasher.(interface{ Cost() int }); ok {
			var raw []byte
			raw, err = bcrypt.GenerateFromPassword([]byte(timingCredential), c.Cost())
			h = string(raw)
		} else {
			h, err = s.hasher.Hash(timingCredential)
		}
		if err != nil {
			s.logger.Warn("failed to prepare timing hash", "error", err)
			return
		}
		s.timingHash = h
	})
	return s.timingHash
}

func (s *Auther) record(ctx context.Context, entry ActivityEntry) {
	sink := normalizeActivitySink(s.activitySink)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := sink.Record(ctx, entry); err != nil {
		s.logger.Warn("activity sink record error", "action", string(entry.Action), "error", err)
	}
}
