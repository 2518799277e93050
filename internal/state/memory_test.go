package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

func TestMemoryStorePendingRoundTrip(t *testing.T) {
	store := NewMemoryStore(30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	pending, err := store.GetPending(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, pending)

	files := []models.FileItem{{ID: "f1"}, {ID: "f2"}}
	require.NoError(t, store.PutPending(ctx, "s1", files))

	pending, err = store.GetPending(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "f1", pending[0].ID)

	require.NoError(t, store.DeletePending(ctx, "s1"))
	pending, err = store.GetPending(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestMemoryStorePendingExpires(t *testing.T) {
	store := NewMemoryStore(30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.PutPending(ctx, "s1", []models.FileItem{{ID: "f1"}}))

	now = now.Add(31 * time.Minute)
	pending, err := store.GetPending(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestMemoryStoreCounterWindow(t *testing.T) {
	store := NewMemoryStore(30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.AddFilesSent(ctx, "s1", 2))
	require.NoError(t, store.AddFilesSent(ctx, "s1", 1))

	count, err := store.FilesSent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// The counter resets once the rolling window has passed.
	now = now.Add(25 * time.Hour)
	count, err = store.FilesSent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	store := NewMemoryStore(30*time.Minute, 24*time.Hour)
	ctx := context.Background()

	require.NoError(t, store.AddFilesSent(ctx, "s1", 2))

	count, err := store.FilesSent(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
