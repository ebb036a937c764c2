package storage

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveStreamAndList(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, n, err := store.SaveStream("background-videos", "loop.mp4", strings.NewReader("frames"), 1024)
	require.NoError(t, err)
	assert.Equal(t, "background-videos/loop.mp4", rel)
	assert.Equal(t, int64(6), n)

	objects, err := store.List("background-videos")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, rel, objects[0].Path)

	f, err := store.Open(rel)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "frames", string(body))
}

func TestLocalStorageRejectsOversizedStream(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.SaveStream("background-videos", "big.mp4", bytes.NewReader(make([]byte, 20)), 10)
	require.ErrorIs(t, err, ErrTooLarge)

	objects, err := store.List("background-videos")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("../etc/passwd")
	assert.Error(t, err)
}

func TestLocalStorageListMissingBucket(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	objects, err := store.List("nothing-here")
	require.NoError(t, err)
	assert.Empty(t, objects)
}
