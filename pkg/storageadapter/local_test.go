package storageadapter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLocalWriteReadRoundTrip(t *testing.T) {
	l := newTestLocal(t)

	err := l.Write("objects/ab/cdef", []byte("hello"))
	require.NoError(t, err)

	data, err := l.Read("objects/ab/cdef")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestLocalReadMissingIsNotFound(t *testing.T) {
	l := newTestLocal(t)

	_, err := l.Read("nope")
	assert.ErrorIs(t, err, memerrs.ErrNotFound)
}

func TestLocalPathEscapeRejected(t *testing.T) {
	l := newTestLocal(t)

	_, err := l.resolve("../../../etc/passwd")
	assert.Error(t, err)

	err = l.Write("../escape", []byte("x"))
	assert.Error(t, err)
}

func TestLocalExistsDelete(t *testing.T) {
	l := newTestLocal(t)

	require.NoError(t, l.Write("a/b.txt", []byte("x")))
	assert.True(t, l.Exists("a/b.txt"))

	removed, err := l.Delete("a/b.txt")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, l.Exists("a/b.txt"))

	removed, err = l.Delete("a/b.txt")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLocalList(t *testing.T) {
	l := newTestLocal(t)

	require.NoError(t, l.Write("dir/one.txt", []byte("1")))
	require.NoError(t, l.Write("dir/two.txt", []byte("2")))

	entries, err := l.List("dir")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLocalMakeDirsIsDir(t *testing.T) {
	l := newTestLocal(t)

	require.NoError(t, l.MakeDirs("nested/dir"))
	assert.True(t, l.IsDir("nested/dir"))
	assert.False(t, l.IsDir("nested/dir/does-not-exist"))
}

func TestLocalAcquireLockExcludesConcurrentHolder(t *testing.T) {
	l := newTestLocal(t)

	lock1, err := l.AcquireLock("repo", 2*time.Second)
	require.NoError(t, err)

	_, err = l.AcquireLock("repo", 200*time.Millisecond)
	assert.Error(t, err, "a second acquire should time out while the first lock is held")

	require.NoError(t, lock1.Release())

	lock2, err := l.AcquireLock("repo", 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}

func TestLocalWriteCreatesParentDirs(t *testing.T) {
	l := newTestLocal(t)

	err := l.Write(filepath.Join("a", "b", "c", "d.txt"), []byte("deep"))
	require.NoError(t, err)
	assert.True(t, l.Exists(filepath.Join("a", "b", "c", "d.txt")))
}
