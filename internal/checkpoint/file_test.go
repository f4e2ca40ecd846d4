package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileKVRoundTrip(t *testing.T) {
	t.Parallel()

	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = kv.Get(ctx, "pracuj-1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Put(ctx, "pracuj-1", []byte(`{"page":7}`)))
	raw, err := kv.Get(ctx, "pracuj-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"page":7}`, string(raw))

	require.NoError(t, kv.Put(ctx, "pracuj-1", []byte(`{"page":8}`)))
	raw, err = kv.Get(ctx, "pracuj-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"page":8}`, string(raw))
}

func TestFileKVCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "checkpoints")
	_, err := NewFileKV(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestFileKVRequiresDirectory(t *testing.T) {
	t.Parallel()

	_, err := NewFileKV("  ")
	require.Error(t, err)
}

func TestFileKVSanitizesKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "../escape/attempt", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the key stays inside the base directory")

	raw, err := kv.Get(ctx, "../escape/attempt")
	require.NoError(t, err)
	require.Equal(t, []byte("x"), raw)
}

func TestFileKVLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Put(context.Background(), "pracuj-1", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "pracuj-1.json", entries[0].Name())
}
