package auth_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-cms-auth"
)

func newTestSessionStore(t *testing.T, clock *fakeClock) (auth.SessionStore, *auth.BunSessionRepository) {
	t.Helper()
	repo := auth.NewSessionsRepository(setupTestDB(t))
	return auth.NewSessionStore(repo, auth.WithSessionClock(clock.Now)), repo
}

func TestNewSessionToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := auth.NewSessionToken()
		require.NoError(t, err)
		// 48 bytes in unpadded base64url
		assert.Len(t, token, 64)
		assert.NotContains(t, token, "=")
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")

		_, dup := seen[token]
		assert.False(t, dup)
		seen[token] = struct{}{}
	}
}

func TestSessionStore_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	store, _ := newTestSessionStore(t, clock)

	origin := auth.OriginMeta{IPAddress: "203.0.113.7", UserAgent: "test-agent"}
	token, expiresAt, err := store.Create(ctx, "identity-1", time.Hour, origin)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, expiresAt.Equal(clock.Now().Add(time.Hour)))

	record, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "identity-1", record.IdentityID)
	assert.Equal(t, origin, record.Origin())
	assert.True(t, record.ExpiresAt.Equal(expiresAt))
}

func TestSessionStore_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	store, _ := newTestSessionStore(t, clock)

	token, expiresAt, err := store.Create(ctx, "identity-1", time.Hour, auth.OriginMeta{})
	require.NoError(t, err)

	clock.Advance(time.Hour - time.Millisecond)
	record, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, record, "session must be valid just before expiry")

	// expiry is fixed, a lookup does not push it forward
	assert.True(t, record.ExpiresAt.Equal(expiresAt))

	clock.Advance(time.Millisecond)
	record, err = store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, record, "session must be invalid at its expiry instant")

	clock.Advance(time.Millisecond)
	record, err = store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestSessionStore_LookupUpdatesLastAccessed(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	store, repo := newTestSessionStore(t, clock)

	token, _, err := store.Create(ctx, "identity-1", time.Hour, auth.OriginMeta{})
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	_, err = store.Lookup(ctx, token)
	require.NoError(t, err)

	records, err := repo.ListByIdentity(ctx, "identity-1", clock.Now().UTC())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].LastAccessedAt.Equal(clock.Now()))
	assert.True(t, records[0].CreatedAt.Equal(clock.Now().Add(-10*time.Minute)))
}

func TestSessionStore_LookupUnknownAndEmpty(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSessionStore(t, newFakeClock(time.Now()))

	record, err := store.Lookup(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, record)

	record, err = store.Lookup(ctx, "does-not-exist")
	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestSessionStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSessionStore(t, newFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))

	token, _, err := store.Create(ctx, "identity-1", time.Hour, auth.OriginMeta{})
	require.NoError(t, err)

	require.NoError(t, store.Invalidate(ctx, token))

	record, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, record)

	// idempotent
	assert.NoError(t, store.Invalidate(ctx, token))
	assert.NoError(t, store.Invalidate(ctx, "never-existed"))
	assert.NoError(t, store.Invalidate(ctx, ""))
}

func TestSessionStore_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSessionStore(t, newFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))

	first, _, err := store.Create(ctx, "identity-1", time.Hour, auth.OriginMeta{})
	require.NoError(t, err)
	second, _, err := store.Create(ctx, "identity-1", time.Hour, auth.OriginMeta{})
	require.NoError(t, err)
	other, _, err := store.Create(ctx, "identity-2", time.Hour, auth.OriginMeta{})
	require.NoError(t, err)

	n, err := store.InvalidateAll(ctx, "identity-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, token := range []string{first, second} {
		record, err := store.Lookup(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, record)
	}

	record, err := store.Lookup(ctx, other)
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestSessionStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	store, repo := newTestSessionStore(t, clock)

	_, _, err := store.Create(ctx, "identity-1", time.Minute, auth.OriginMeta{})
	require.NoError(t, err)
	_, _, err = store.Create(ctx, "identity-1", time.Minute, auth.OriginMeta{})
	require.NoError(t, err)
	live, _, err := store.Create(ctx, "identity-1", time.Hour, auth.OriginMeta{})
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	records, err := repo.ListByIdentity(ctx, "identity-1", clock.Now().UTC())
	require.NoError(t, err)
	require.Len(t, records, 1)

	record, err := store.Lookup(ctx, live)
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestSessionStore_CreateDefaults(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	store, _ := newTestSessionStore(t, clock)

	_, expiresAt, err := store.Create(ctx, "identity-1", 0, auth.OriginMeta{})
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(clock.Now().Add(auth.DefaultSessionTTL)))

	_, _, err = store.Create(ctx, "", time.Hour, auth.OriginMeta{})
	assert.Error(t, err)
}

func TestSessionStore_ConcurrentCreateYieldsDistinctTokens(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSessionStore(t, newFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))

	const workers = 20
	tokens := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], _, errs[i] = store.Create(ctx, "identity-1", time.Hour, auth.OriginMeta{})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, workers)
	for i := range tokens {
		require.NoError(t, errs[i])
		_, dup := seen[tokens[i]]
		assert.False(t, dup)
		seen[tokens[i]] = struct{}{}
	}
}

// flakyRepo scripts Insert outcomes and records calls.
type flakyRepo struct {
	mu        sync.Mutex
	insertErr []error
	inserted  []*auth.SessionRecord
	findErr   error
	touchErr  error
	found     *auth.SessionRecord
}

func (r *flakyRepo) Insert(_ context.Context, record *auth.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.inserted = append(r.inserted, &cp)
	if len(r.insertErr) == 0 {
		return nil
	}
	err := r.insertErr[0]
	r.insertErr = r.insertErr[1:]
	return err
}

func (r *flakyRepo) FindActiveByToken(context.Context, string, time.Time) (*auth.SessionRecord, error) {
	return r.found, r.findErr
}

func (r *flakyRepo) TouchAccessed(context.Context, uuid.UUID, time.Time) error {
	return r.touchErr
}

func (r *flakyRepo) DeleteByToken(context.Context, string) error { return nil }

func (r *flakyRepo) DeleteByIdentity(context.Context, string) (int, error) { return 0, nil }

func (r *flakyRepo) DeleteExpired(context.Context, time.Time) (int, error) { return 0, nil }

func sequentialTokens() func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("token-%d", n), nil
	}
}

func TestSessionStore_CreateRetriesOnCollision(t *testing.T) {
	repo := &flakyRepo{insertErr: []error{
		fmt.Errorf("insert session: %w", auth.ErrDuplicateSessionToken),
	}}
	store := auth.NewSessionStore(repo, auth.WithSessionTokenGenerator(sequentialTokens()))

	token, _, err := store.Create(context.Background(), "identity-1", time.Hour, auth.OriginMeta{})
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	require.Len(t, repo.inserted, 2)
	assert.NotEqual(t, repo.inserted[0].ID, repo.inserted[1].ID)
}

func TestSessionStore_CreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	dup := fmt.Errorf("insert session: %w", auth.ErrDuplicateSessionToken)
	repo := &flakyRepo{insertErr: []error{dup, dup, dup, dup}}
	store := auth.NewSessionStore(repo, auth.WithSessionTokenGenerator(sequentialTokens()))

	_, _, err := store.Create(context.Background(), "identity-1", time.Hour, auth.OriginMeta{})
	require.Error(t, err)
	assert.True(t, auth.IsStoreUnavailable(err))
	assert.Len(t, repo.inserted, 3)
}

func TestSessionStore_CreateDoesNotRetryOtherFailures(t *testing.T) {
	repo := &flakyRepo{insertErr: []error{stderrors.New("connection reset")}}
	store := auth.NewSessionStore(repo, auth.WithSessionTokenGenerator(sequentialTokens()))

	_, _, err := store.Create(context.Background(), "identity-1", time.Hour, auth.OriginMeta{})
	require.Error(t, err)
	assert.True(t, auth.IsStoreUnavailable(err))
	assert.Len(t, repo.inserted, 1)
}

func TestSessionStore_LookupErrors(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("find failure is a store error", func(t *testing.T) {
		store := auth.NewSessionStore(&flakyRepo{findErr: stderrors.New("db down")})
		_, err := store.Lookup(context.Background(), "token")
		require.Error(t, err)
		assert.True(t, auth.IsStoreUnavailable(err))
	})

	t.Run("touch failure does not fail the lookup", func(t *testing.T) {
		repo := &flakyRepo{
			found:    &auth.SessionRecord{ID: uuid.New(), IdentityID: "identity-1", ExpiresAt: now.Add(time.Hour)},
			touchErr: stderrors.New("read only replica"),
		}
		store := auth.NewSessionStore(repo, auth.WithSessionClock(func() time.Time { return now }))

		record, err := store.Lookup(context.Background(), "token")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "identity-1", record.IdentityID)
	})

	t.Run("expired record from repository is ignored", func(t *testing.T) {
		repo := &flakyRepo{
			found: &auth.SessionRecord{ID: uuid.New(), IdentityID: "identity-1", ExpiresAt: now},
		}
		store := auth.NewSessionStore(repo, auth.WithSessionClock(func() time.Time { return now }))

		record, err := store.Lookup(context.Background(), "token")
		require.NoError(t, err)
		assert.Nil(t, record)
	})
}

func TestSessionSweeper_Run(t *testing.T) {
	swept := make(chan struct{}, 1)
	store := new(MockSessionStore)
	store.On("PurgeExpired", mock.Anything).Return(3, nil).Run(func(mock.Arguments) {
		select {
		case swept <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		auth.NewSessionSweeper(store, time.Hour, nil).Run(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not purge on start")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	store.AssertCalled(t, "PurgeExpired", mock.Anything)
}
