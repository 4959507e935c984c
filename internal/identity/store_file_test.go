package identity

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentmgr/pkg/platform/sentinel"
	"consentmgr/pkg/requestcontext"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "identity.json")
	store := NewFileStore(path)

	_, err := store.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.Set(ctx, DefaultKey, storedID, DefaultTTL))

	got, err := NewFileStore(path).Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, storedID, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	require.NoError(t, store.Delete(ctx, DefaultKey))
	_, err = store.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFileStoreExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	store := NewFileStore(filepath.Join(t.TempDir(), "identity.json"))

	require.NoError(t, store.Set(ctx, "short", "a", time.Minute))
	require.NoError(t, store.Set(ctx, "forever", "b", 0))

	later := requestcontext.WithTime(context.Background(), now.Add(time.Hour))
	_, err := store.Get(later, "short")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	got, err := store.Get(later, "forever")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestFileStoreCorruptFileIsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "identity.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewFileStore(path)

	_, err := store.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	m := NewManager(store)
	v, err := m.Resolve(ctx)
	require.NoError(t, err)
	got, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, v.String(), got)
}

func TestDefaultFilePath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	path, err := DefaultFilePath()
	require.NoError(t, err)
	assert.Equal(t, "identity.json", filepath.Base(path))
	assert.Equal(t, "consentmgr", filepath.Base(filepath.Dir(path)))
}
