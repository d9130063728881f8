package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-cms-auth"
)

const testSigningKey = "test-signing-key-with-enough-entropy!"

// testIdentity is a simple implementation of auth.CredentialIdentity
type testIdentity struct {
	id        string
	username  string
	email     string
	role      auth.UserRole
	active    bool
	verified  bool
	lastLogin *time.Time
	hash      string
}

func (t testIdentity) ID() string              { return t.id }
func (t testIdentity) Username() string        { return t.username }
func (t testIdentity) Email() string           { return t.email }
func (t testIdentity) Role() auth.UserRole     { return t.role }
func (t testIdentity) Active() bool            { return t.active }
func (t testIdentity) Verified() bool          { return t.verified }
func (t testIdentity) LastLoginAt() *time.Time { return t.lastLogin }
func (t testIdentity) PasswordHash() string    { return t.hash }

// fakeClock is a settable clock shared by the components under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingSink collects activity entries.
type recordingSink struct {
	mu      sync.Mutex
	entries []auth.ActivityEntry
	err     error
}

func (r *recordingSink) Record(_ context.Context, entry auth.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

func (r *recordingSink) Entries() []auth.ActivityEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.ActivityEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *recordingSink) Last() auth.ActivityEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return auth.ActivityEntry{}
	}
	return r.entries[len(r.entries)-1]
}

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return(testSigningKey)
	mockConfig.On("GetTokenExpiration").Return(24)
	mockConfig.On("GetIssuer").Return("test-issuer")
	mockConfig.On("GetAudience").Return([]string{"test:audience"})
	mockConfig.On("GetSessionTTL").Return(24 * time.Hour)
	mockConfig.On("GetMinPasswordLength").Return(8)
	mockConfig.On("GetPasswordHashCost").Return(bcrypt.MinCost)
	mockConfig.On("GetLoginMaxAttempts").Return(5)
	mockConfig.On("GetLoginWindow").Return(15 * time.Minute)
	return mockConfig
}

func fastHasher() *auth.BcryptHasher {
	return auth.NewPasswordHasher(auth.WithHashCost(bcrypt.MinCost))
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := fastHasher().Hash(password)
	require.NoError(t, err)
	return hash
}

// setupTestDB returns an in-memory SQLite database with the auth schema.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})

	require.NoError(t, auth.CreateSchema(context.Background(), db))
	return db
}

func seedUser(t *testing.T, db *bun.DB, email, password string, role auth.UserRole, active bool) *auth.User {
	t.Helper()

	user, err := auth.NewUsersRepository(db).Register(context.Background(), &auth.User{
		Username:     email,
		Email:        email,
		Role:         role,
		PasswordHash: mustHash(t, password),
		IsActive:     active,
	})
	require.NoError(t, err)
	return user
}
