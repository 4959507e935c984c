package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentmgr/pkg/platform/sentinel"
	"consentmgr/pkg/requestcontext"
)

func TestMemoryStore(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	expiredCtx := requestcontext.WithTime(context.Background(), now.Add(time.Minute))
	_, err = store.Get(expiredCtx, "k")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.Set(ctx, "forever", "v", 0))
	_, err = store.Get(requestcontext.WithTime(context.Background(), now.AddDate(10, 0, 0)), "forever")
	assert.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "forever"))
	_, err = store.Get(ctx, "forever")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
