package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	return store
}

func TestNewFileStore_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "storage")

	store, err := NewFileStore(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, filepath.IsAbs(store.Root()))
}

func TestFileStore_PutOpenDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	data := []byte("not really a png")

	require.NoError(t, store.Put(ctx, "a1b2.png", data))

	ok, err := store.Exists(ctx, "a1b2.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, size, err := store.Open(ctx, "a1b2.png")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, int64(len(data)), size)

	require.NoError(t, store.Delete(ctx, "a1b2.png"))
	ok, err = store.Exists(ctx, "a1b2.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = os.Stat(filepath.Join(store.Root(), "a1b2.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_PutOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "x.jpg", []byte("first")))
	require.NoError(t, store.Put(ctx, "x.jpg", []byte("second")))

	rc, _, err := store.Open(ctx, "x.jpg")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_OpenMissing(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Open(context.Background(), "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_DeleteMissingIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Delete(context.Background(), "missing.png"))
}

func TestFileStore_PutFailureIsStorageFault(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// a non-empty directory sitting at the target name makes the rename fail
	target := filepath.Join(store.Root(), "occupied.png")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0755))

	err := store.Put(ctx, "occupied.png", []byte("data"))
	assert.ErrorIs(t, err, ErrStorageFault)
}

func TestFileStore_PathContainment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	outside := filepath.Join(filepath.Dir(store.Root()), "escaped.png")

	bad := []string{
		"",
		".",
		"..",
		"../escaped.png",
		"a/../../escaped.png",
		"png.../../../escaped.png",
		"sub/inside.png",
		"tok.png/b",
		`sub\inside.png`,
		outside,
		"/etc/passwd",
	}
	for _, name := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := store.Path(name)
			assert.ErrorIs(t, err, ErrInvalidPath)

			assert.ErrorIs(t, store.Put(ctx, name, []byte("x")), ErrInvalidPath)
			_, _, err = store.Open(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidPath)
			_, err = store.Exists(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidPath)
			assert.ErrorIs(t, store.Delete(ctx, name), ErrInvalidPath)
		})
	}

	_, err := os.Stat(outside)
	assert.True(t, os.IsNotExist(err), "nothing may be written outside root")
}

func TestFileStore_PutKeepsRootFlat(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Put(ctx, "nested/blob.png", []byte("x")), ErrInvalidPath)
	_, err := os.Stat(filepath.Join(store.Root(), "nested"))
	assert.True(t, os.IsNotExist(err), "no subdirectory may be created")

	p, err := store.Path("plain.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "plain.png"), p)
}
