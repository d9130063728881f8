package auth_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-cms-auth"
)

func TestActivitySinkFunc(t *testing.T) {
	var got auth.ActivityEntry
	sink := auth.ActivitySinkFunc(func(_ context.Context, entry auth.ActivityEntry) error {
		got = entry
		return stderrors.New("rejected")
	})

	entry := auth.NewActivityEntry("id-1", auth.ActivityLogout, "logout", auth.OriginMeta{IPAddress: "10.0.0.1", UserAgent: "ua"}, nil)
	err := sink.Record(context.Background(), entry)

	assert.EqualError(t, err, "rejected")
	assert.Equal(t, "id-1", got.IdentityID)
	assert.Equal(t, "10.0.0.1", got.IPAddress)
	assert.Equal(t, "ua", got.UserAgent)
}

func TestActivityLogger_RecordDefaults(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	logger := auth.NewActivityLogger(auth.NewActivityRepository(db))

	require.NoError(t, logger.Record(ctx, auth.NewActivityEntry("id-1", auth.ActivityLoginSuccess, "login succeeded", auth.OriginMeta{}, nil)))

	history, err := logger.History(ctx, "id-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.NotEqual(t, uuid.Nil, history[0].ID)
	assert.False(t, history[0].CreatedAt.IsZero())
	assert.Equal(t, "login succeeded", history[0].Description)
}

func TestActivityLogger_HistoryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	logger := auth.NewActivityLogger(auth.NewActivityRepository(db))

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := auth.NewActivityEntry("id-1", auth.ActivityLoginFailure, "login failed", auth.OriginMeta{}, map[string]any{
			"attempt": i,
		})
		entry.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, logger.Record(ctx, entry))
	}
	require.NoError(t, logger.Record(ctx, auth.NewActivityEntry("id-2", auth.ActivityLogout, "logout", auth.OriginMeta{}, nil)))

	history, err := logger.History(ctx, "id-1", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].CreatedAt.Equal(base.Add(4*time.Minute)))
	assert.True(t, history[2].CreatedAt.Equal(base.Add(2*time.Minute)))

	history, err = logger.History(ctx, "id-1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 5)

	history, err = logger.History(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
