package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	// SessionTokenBytes is the entropy of an opaque session token.
	SessionTokenBytes = 48
	// DefaultSessionTTL is used when Create is called with a non positive ttl.
	DefaultSessionTTL = 7 * 24 * time.Hour

	maxSessionCreateAttempts = 3
)

// SessionRepository is the persistence contract behind a SessionStore.
// Implementations must return ErrDuplicateSessionToken on token collisions.
type SessionRepository interface {
	Insert(ctx context.Context, record *SessionRecord) error
	// FindActiveByToken returns (nil, nil) when no session with expires_at
	// after now matches.
	FindActiveByToken(ctx context.Context, token string, now time.Time) (*SessionRecord, error)
	TouchAccessed(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteByIdentity(ctx context.Context, identityID string) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// SessionStore creates, looks up and invalidates opaque sessions.
type SessionStore interface {
	Create(ctx context.Context, identityID string, ttl time.Duration, origin OriginMeta) (string, time.Time, error)
	// Lookup returns (nil, nil) for unknown and expired tokens alike.
	Lookup(ctx context.Context, token string) (*SessionRecord, error)
	// Invalidate is idempotent.
	Invalidate(ctx context.Context, token string) error
	InvalidateAll(ctx context.Context, identityID string) (int, error)
	PurgeExpired(ctx context.Context) (int, error)
}

type sessionStore struct {
	repo     SessionRepository
	logger   Logger
	now      func() time.Time
	generate func() (string, error)
}

var _ SessionStore = (*sessionStore)(nil)

// SessionStoreOption customizes the SessionStore.
type SessionStoreOption func(*sessionStore)

// WithSessionClock injects a custom clock (useful for tests).
func WithSessionClock(clock func() time.Time) SessionStoreOption {
	return func(s *sessionStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSessionLogger sets the store logger.
func WithSessionLogger(logger Logger) SessionStoreOption {
	return func(s *sessionStore) {
		s.logger = normalizeLogger(logger)
	}
}

// WithSessionTokenGenerator overrides the token generator.
func WithSessionTokenGenerator(gen func() (string, error)) SessionStoreOption {
	return func(s *sessionStore) {
		if gen != nil {
			s.generate = gen
		}
	}
}

// NewSessionStore returns a SessionStore persisting through repo.
func NewSessionStore(repo SessionRepository, opts ...SessionStoreOption) SessionStore {
	s := &sessionStore{
		repo:     repo,
		logger:   defLogger{},
		now:      time.Now,
		generate: NewSessionToken,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// NewSessionToken returns a random, URL safe opaque token.
func NewSessionToken() (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *sessionStore) Create(ctx context.Context, identityID string, ttl time.Duration, origin OriginMeta) (string, time.Time, error) {
	if identityID == "" {
		return "", time.Time{}, errors.New("identity id is required", errors.CategoryBadInput)
	}

	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := s.now().UTC()
	record := &SessionRecord{
		IdentityID:     identityID,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
		LastAccessedAt: now,
		IPAddress:      origin.IPAddress,
		UserAgent:      origin.UserAgent,
	}

	// Only a token collision is retried, every other failure goes back to
	// the caller so we never create a session twice.
	for attempt := 1; attempt <= maxSessionCreateAttempts; attempt++ {
		token, err := s.generate()
		if err != nil {
			return "", time.Time{}, err
		}

		record.ID = uuid.New()
		record.Token = token

		err = s.repo.Insert(ctx, record)
		if err == nil {
			return token, record.ExpiresAt, nil
		}

		if !errors.Is(err, ErrDuplicateSessionToken) {
			return "", time.Time{}, storeError(err, "failed to create session")
		}

		s.logger.Warn("session token collision, regenerating", "attempt", attempt)
	}

	return "", time.Time{}, storeError(ErrDuplicateSessionToken, "failed to create session")
}

func (s *sessionStore) Lookup(ctx context.Context, token string) (*SessionRecord, error) {
	if token == "" {
		return nil, nil
	}

	now := s.now().UTC()
	record, err := s.repo.FindActiveByToken(ctx, token, now)
	if err != nil {
		return nil, storeError(err, "failed to lookup session")
	}

	if record == nil || !record.ActiveAt(now) {
		return nil, nil
	}

	if err := s.repo.TouchAccessed(ctx, record.ID, now); err != nil {
		s.logger.Warn("failed to update session access time", "session_id", record.ID.String(), "error", err)
	} else {
		record.LastAccessedAt = now
	}

	return record, nil
}

func (s *sessionStore) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.DeleteByToken(ctx, token); err != nil {
		return storeError(err, "failed to invalidate session")
	}
	return nil
}

func (s *sessionStore) InvalidateAll(ctx context.Context, identityID string) (int, error) {
	if identityID == "" {
		return 0, nil
	}
	n, err := s.repo.DeleteByIdentity(ctx, identityID)
	if err != nil {
		return 0, storeError(err, "failed to invalidate identity sessions")
	}
	return n, nil
}

func (s *sessionStore) PurgeExpired(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, storeError(err, "failed to purge expired sessions")
	}
	return n, nil
}

// SessionSweeper periodically purges expired sessions.
type SessionSweeper struct {
	store    SessionStore
	interval time.Duration
	logger   Logger
}

// NewSessionSweeper returns a sweeper running every interval.
func NewSessionSweeper(store SessionStore, interval time.Duration, logger Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionSweeper{
		store:    store,
		interval: interval,
		logger:   normalizeLogger(logger),
	}
}

// Run blocks until ctx is done, purging on every tick.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	n, err := s.store.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("session sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("purged expired sessions", "count", n)
	}
}
