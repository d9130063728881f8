package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunSessionRepository implements SessionRepository using Bun ORM
type BunSessionRepository struct {
	db bun.IDB
}

var _ SessionRepository = (*BunSessionRepository)(nil)

// NewSessionsRepository creates a new Bun-based session repository
func NewSessionsRepository(db bun.IDB) *BunSessionRepository {
	return &BunSessionRepository{db: db}
}

// Insert inserts a new session
func (r *BunSessionRepository) Insert(ctx context.Context, record *SessionRecord) error {
	_, err := r.db.NewInsert().
		Model(record).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert session: %w", ErrDuplicateSessionToken)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FindActiveByToken is the primary lookup method for authentication
func (r *BunSessionRepository) FindActiveByToken(ctx context.Context, token string, now time.Time) (*SessionRecord, error) {
	record := new(SessionRecord)
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.expires_at > ?", now).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return record, nil
}

// ListByIdentity returns the live sessions of an identity, newest first
func (r *BunSessionRepository) ListByIdentity(ctx context.Context, identityID string, now time.Time) ([]SessionRecord, error) {
	var sessions []SessionRecord
	err := r.db.NewSelect().
		Model(&sessions).
		Where("?TableAlias.identity_id = ?", identityID).
		Where("?TableAlias.expires_at > ?", now).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identity sessions: %w", err)
	}
	return sessions, nil
}

// TouchAccessed updates the last_accessed_at timestamp for a session
func (r *BunSessionRepository) TouchAccessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*SessionRecord)(nil)).
		Set("last_accessed_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update last accessed: %w", err)
	}
	return nil
}

// DeleteByToken removes a session, missing rows are not an error
func (r *BunSessionRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByIdentity removes every session of an identity
func (r *BunSessionRepository) DeleteByIdentity(ctx context.Context, identityID string) (int, error) {
	res, err := r.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("identity_id = ?", identityID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete identity sessions: %w", err)
	}
	return rowsAffected(res), nil
}

// DeleteExpired deletes all sessions whose expiry is at or before now.
// Should be run periodically by a cleanup job
func (r *BunSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return rowsAffected(res), nil
}

func rowsAffected(res sql.Result) int {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	// sqlite drivers only expose the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
