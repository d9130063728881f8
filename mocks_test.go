package auth_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	auth "github.com/goliatone/go-cms-auth"
)

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) FindIdentityByEmail(ctx context.Context, email string) (auth.CredentialIdentity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(auth.CredentialIdentity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (auth.Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(auth.Identity), args.Error(1)
}

func (m *MockIdentityProvider) TrackSuccessfulLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockConfig implements auth.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockConfig) GetSessionTTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func (m *MockConfig) GetMinPasswordLength() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetPasswordHashCost() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetLoginMaxAttempts() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetLoginWindow() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockSessionStore implements auth.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, identityID string, ttl time.Duration, origin auth.OriginMeta) (string, time.Time, error) {
	args := m.Called(ctx, identityID, ttl, origin)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockSessionStore) Lookup(ctx context.Context, token string) (*auth.SessionRecord, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.SessionRecord), args.Error(1)
}

func (m *MockSessionStore) Invalidate(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSessionStore) InvalidateAll(ctx context.Context, identityID string) (int, error) {
	args := m.Called(ctx, identityID)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionStore) PurgeExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockRateLimiter implements auth.RateLimiter
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (bool, error) {
	args := m.Called(ctx, identifier, maxAttempts, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateLimiter) Reset(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}
