package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenExpiration is the signed token lifetime in hours (7 days).
const DefaultTokenExpiration = 24 * 7

// TokenService issues and verifies signed bearer tokens.
type TokenService interface {
	// Issue signs a token for identity. The expiry is always computed by
	// the service from its configured lifetime.
	Issue(identity RoleHolderWithEmail) (string, time.Time, error)
	// Verify returns nil for malformed, tampered or expired tokens.
	Verify(token string) *TokenPayload
}

// RoleHolderWithEmail is what a signed token needs to know about an identity.
type RoleHolderWithEmail interface {
	RoleHolder
	Email() string
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	lifetime   time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

var _ TokenService = (*TokenServiceImpl)(nil)

// TokenServiceOption customizes a TokenServiceImpl.
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// WithTokenLogger sets the logger used for verification diagnostics.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		ts.logger = normalizeLogger(logger)
	}
}

// NewTokenService creates a new TokenService instance. tokenExpiration is
// expressed in hours, zero or negative values fall back to seven days.
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, audience []string, opts ...TokenServiceOption) *TokenServiceImpl {
	if tokenExpiration <= 0 {
		tokenExpiration = DefaultTokenExpiration
	}

	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	ts := &TokenServiceImpl{
		signingKey: signingKey,
		lifetime:   time.Duration(tokenExpiration) * time.Hour,
		issuer:     issuer,
		audience:   aud,
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// Lifetime returns the fixed token lifetime.
func (ts *TokenServiceImpl) Lifetime() time.Duration {
	return ts.lifetime
}

// Issue creates a signed token for the identity
func (ts *TokenServiceImpl) Issue(identity RoleHolderWithEmail) (string, time.Time, error) {
	if identity == nil {
		return "", time.Time{}, errors.New("identity is required", errors.CategoryBadInput)
	}

	if len(ts.signingKey) == 0 {
		return "", time.Time{}, errors.New("signing key is not configured", errors.CategoryInternal)
	}

	now := ts.now()
	expiresAt := now.Add(ts.lifetime)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:      identity.ID(),
		Email:    identity.Email(),
		UserRole: string(identity.Role()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	// NumericDate truncates to seconds, report what the token carries.
	return signedString, claims.Expires(), nil
}

// Verify parses and validates a token string. Every failure collapses to
// nil, the reason only reaches the debug log.
func (ts *TokenServiceImpl) Verify(tokenString string) *TokenPayload {
	if tokenString == "" || len(ts.signingKey) == 0 {
		return nil
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		ts.logger.Debug("token verification failed", "error", err)
		return nil
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID() == "" {
		ts.logger.Debug("token verification failed", "error", ErrTokenInvalid)
		return nil
	}

	return claims.payload()
}
