package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_CustomDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "workspaces.json")
	store := NewStateStore(path)

	got, err := store.CustomDir(ctx, "/work/a")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.SetCustomDir(ctx, "/work/a", "/configs/a"))
	require.NoError(t, store.SetCustomDir(ctx, "/work/b", "/configs/b"))

	// a fresh store reads what the first persisted
	reopened := NewStateStore(path)
	got, err = reopened.CustomDir(ctx, "/work/a/")
	require.NoError(t, err)
	assert.Equal(t, "/configs/a", got)

	require.NoError(t, reopened.SetCustomDir(ctx, "/work/a", ""))
	got, err = store.CustomDir(ctx, "/work/a")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.CustomDir(ctx, "/work/b")
	require.NoError(t, err)
	assert.Equal(t, "/configs/b", got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file renamed away")
}

func TestStateStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspaces.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := NewStateStore(path).CustomDir(context.Background(), "/x")
	assert.Error(t, err)
}
