package auth

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultActivityHistoryLimit caps ListByIdentity when no limit is given.
const DefaultActivityHistoryLimit = 50

type activities struct {
	repository.Repository[*ActivityEntry]
	db *bun.DB
}

var _ ActivityRepository = (*activities)(nil)

// NewActivityRepository returns a bun backed, append only activity store.
func NewActivityRepository(db *bun.DB) ActivityRepository {
	repo := repository.NewRepository[*ActivityEntry](db, repository.ModelHandlers[*ActivityEntry]{
		NewRecord: func() *ActivityEntry { return &ActivityEntry{} },
		GetID: func(e *ActivityEntry) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *ActivityEntry, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
		GetIdentifier: func() string {
			return "identity_id"
		},
	})

	return &activities{
		Repository: repo,
		db:         db,
	}
}

func (a *activities) Append(ctx context.Context, entry *ActivityEntry) error {
	if _, err := a.Repository.Create(ctx, entry); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (a *activities) ListByIdentity(ctx context.Context, identityID string, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityHistoryLimit
	}

	var entries []ActivityEntry
	err := a.db.NewSelect().
		Model(&entries).
		Where("?TableAlias.identity_id = ?", identityID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
