package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a LocalStore in a temporary directory.
func setupTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

// writeObject creates bucket/key with the given content.
func writeObject(t *testing.T, store *LocalStore, bucket, key, content string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), bucket, key, []byte(content), "application/octet-stream"))
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates directory if not exists", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "store")

		store, err := NewLocalStore(root)
		require.NoError(t, err)
		assert.Equal(t, root, store.Root())

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("uses default directory when empty", func(t *testing.T) {
		store, err := NewLocalStore("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(os.TempDir(), "mediainfo-pipeline"), store.Root())
	})
}

func TestLocalStore_List(t *testing.T) {
	store := setupTestStore(t)
	writeObject(t, store, "media", "videos/b.txt", "b")
	writeObject(t, store, "media", "videos/a.mp4", "aaaa")
	writeObject(t, store, "media", "videos/deep/c.MOV", "c")
	writeObject(t, store, "media", "other/d.mp4", "d")

	var objects []Object
	err := store.List(context.Background(), "media", "videos/", func(o Object) error {
		objects = append(objects, o)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, objects, 3)
	assert.Equal(t, "videos/a.mp4", objects[0].Key)
	assert.Equal(t, int64(4), objects[0].Size)
	assert.Equal(t, "videos/b.txt", objects[1].Key)
	assert.Equal(t, "videos/deep/c.MOV", objects[2].Key)
}

func TestLocalStore_List_EmptyBucket(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(store.Root(), "empty"), 0750))

	calls := 0
	err := store.List(context.Background(), "empty", "", func(Object) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestLocalStore_List_MissingBucket(t *testing.T) {
	store := setupTestStore(t)

	err := store.List(context.Background(), "missing", "", func(Object) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_List_ContextCancelled(t *testing.T) {
	store := setupTestStore(t)
	writeObject(t, store, "media", "a.mp4", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.List(ctx, "media", "", func(Object) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStore_PresignGet(t *testing.T) {
	store := setupTestStore(t)
	writeObject(t, store, "media", "videos/a.mp4", "a")

	path, err := store.PresignGet(context.Background(), "media", "videos/a.mp4", time.Minute)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a", string(content))
}

func TestLocalStore_Put(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "reports", "mediainfo/mp4.mediainfo.json", []byte("first"), "application/json"))
	require.NoError(t, store.Put(ctx, "reports", "mediainfo/mp4.mediainfo.json", []byte("second"), "application/json"))

	content, err := os.ReadFile(filepath.Join(store.Root(), "reports", "mediainfo", "mp4.mediainfo.json"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store := setupTestStore(t)

	err := store.Put(context.Background(), "reports", "../outside.json", []byte("x"), "application/json")
	require.Error(t, err)

	_, err = store.PresignGet(context.Background(), "reports", "../../etc/passwd", time.Minute)
	require.Error(t, err)
}

func TestLocalStore_RejectsEscapingBuckets(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, bucket := range []string{"../outside", "..", ".", "", "a/b", `a\b`, "reports/../../outside"} {
		t.Run(bucket, func(t *testing.T) {
			err := store.Put(ctx, bucket, "pwn.json", []byte("x"), "application/json")
			assert.ErrorIs(t, err, ErrInvalidBucket)

			_, err = store.PresignGet(ctx, bucket, "a.mp4", time.Minute)
			assert.ErrorIs(t, err, ErrInvalidBucket)

			err = store.List(ctx, bucket, "", func(Object) error { return nil })
			assert.ErrorIs(t, err, ErrInvalidBucket)
		})
	}

	_, err := os.Stat(filepath.Join(filepath.Dir(store.Root()), "outside"))
	assert.True(t, os.IsNotExist(err), "nothing may be written outside the store root")
}
