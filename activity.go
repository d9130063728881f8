package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityAction tags an audit entry. The set below is what the core emits,
// callers may define their own.
type ActivityAction string

const (
	ActivityLoginSuccess    ActivityAction = "auth.login.success"
	ActivityLoginFailure    ActivityAction = "auth.login.failure"
	ActivityLogout          ActivityAction = "auth.logout"
	ActivitySessionsRevoked ActivityAction = "auth.sessions.revoked"
)

// ActivitySink consumes activity entries for auditing purposes.
type ActivitySink interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, entry ActivityEntry) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, entry ActivityEntry) error {
	if f == nil {
		return nil
	}
	return f(ctx, entry)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEntry) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// ActivityRepository is the append only persistence behind ActivityLogger.
type ActivityRepository interface {
	Append(ctx context.Context, entry *ActivityEntry) error
	ListByIdentity(ctx context.Context, identityID string, limit int) ([]ActivityEntry, error)
}

// ActivityLogger is an ActivitySink that persists entries.
type ActivityLogger struct {
	repo ActivityRepository
	now  func() time.Time
}

var _ ActivitySink = (*ActivityLogger)(nil)

// NewActivityLogger returns a sink writing to repo.
func NewActivityLogger(repo ActivityRepository) *ActivityLogger {
	return &ActivityLogger{
		repo: repo,
		now:  time.Now,
	}
}

// Record stamps id and creation time when missing and appends the entry.
func (l *ActivityLogger) Record(ctx context.Context, entry ActivityEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now().UTC()
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	return l.repo.Append(ctx, &entry)
}

// History returns the most recent entries of an identity, newest first.
func (l *ActivityLogger) History(ctx context.Context, identityID string, limit int) ([]ActivityEntry, error) {
	return l.repo.ListByIdentity(ctx, identityID, limit)
}

// NewActivityEntry builds an entry with origin metadata applied.
func NewActivityEntry(identityID string, action ActivityAction, description string, origin OriginMeta, metadata map[string]any) ActivityEntry {
	return ActivityEntry{
		IdentityID:  identityID,
		Action:      action,
		Description: description,
		IPAddress:   origin.IPAddress,
		UserAgent:   origin.UserAgent,
		Metadata:    metadata,
	}
}
