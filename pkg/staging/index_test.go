package staging

import (
	"testing"

	"github.com/kraklabs/memvcs/pkg/objectstore"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) (*Index, storageadapter.Adapter) {
	t.Helper()
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	store := objectstore.New(adapter, nil)
	return New(adapter, store), adapter
}

func TestAddSingleFileStagesIt(t *testing.T) {
	idx, adapter := newTestIndex(t)
	require.NoError(t, adapter.Write("current/notes/today.md", []byte("drink water")))

	require.NoError(t, idx.Add("notes/today.md"))

	entries, err := idx.Entries()
	require.NoError(t, err)
	require.Contains(t, entries, "notes/today.md")
	assert.NotEmpty(t, entries["notes/today.md"].BlobHash)
}

func TestAddDirectoryWalksAllFiles(t *testing.T) {
	idx, adapter := newTestIndex(t)
	require.NoError(t, adapter.Write("current/episodic/one.md", []byte("a")))
	require.NoError(t, adapter.Write("current/episodic/sub/two.md", []byte("b")))

	require.NoError(t, idx.Add("episodic"))

	entries, err := idx.Entries()
	require.NoError(t, err)
	assert.Contains(t, entries, "episodic/one.md")
	assert.Contains(t, entries, "episodic/sub/two.md")
}

func TestRemoveUnstagesPath(t *testing.T) {
	idx, adapter := newTestIndex(t)
	require.NoError(t, adapter.Write("current/a.md", []byte("x")))
	require.NoError(t, idx.Add("a.md"))

	require.NoError(t, idx.Remove("a.md"))

	entries, err := idx.Entries()
	require.NoError(t, err)
	assert.NotContains(t, entries, "a.md")
}

func TestClearEmptiesIndex(t *testing.T) {
	idx, adapter := newTestIndex(t)
	require.NoError(t, adapter.Write("current/a.md", []byte("x")))
	require.NoError(t, idx.Add("a.md"))

	require.NoError(t, idx.Clear())

	entries, err := idx.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSortedPathsIsLexicographic(t *testing.T) {
	idx, adapter := newTestIndex(t)
	require.NoError(t, adapter.Write("current/b.md", []byte("b")))
	require.NoError(t, adapter.Write("current/a.md", []byte("a")))
	require.NoError(t, idx.Add("b.md"))
	require.NoError(t, idx.Add("a.md"))

	paths, err := idx.SortedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md"}, paths)
}

func TestStatusReportClassifiesEachState(t *testing.T) {
	idx, adapter := newTestIndex(t)

	// staged: added and unchanged since.
	require.NoError(t, adapter.Write("current/staged.md", []byte("v1")))
	require.NoError(t, idx.Add("staged.md"))

	// modified-unstaged: staged, then changed again in the working tree.
	require.NoError(t, adapter.Write("current/changed.md", []byte("v1")))
	require.NoError(t, idx.Add("changed.md"))
	require.NoError(t, adapter.Write("current/changed.md", []byte("v2")))

	// untracked: present in working tree, never staged, not in HEAD.
	require.NoError(t, adapter.Write("current/new.md", []byte("fresh")))

	headHash := objectstore.HashContent([]byte("head-version"))
	headBlobHashes := map[string]string{
		"deleted.md": headHash, // deleted: in HEAD, absent from working tree and index.
	}

	report, err := idx.StatusReport(headBlobHashes)
	require.NoError(t, err)

	byPath := map[string]FileStatus{}
	for _, s := range report {
		byPath[s.Path] = s.State
	}

	assert.Equal(t, StatusStaged, byPath["staged.md"])
	assert.Equal(t, StatusModifiedUnstaged, byPath["changed.md"])
	assert.Equal(t, StatusUntracked, byPath["new.md"])
	assert.Equal(t, StatusDeleted, byPath["deleted.md"])
}

func TestStatusReportOmitsUnchangedPaths(t *testing.T) {
	idx, adapter := newTestIndex(t)
	require.NoError(t, adapter.Write("current/same.md", []byte("same content")))

	headHash := objectstore.HashContent([]byte("same content"))
	report, err := idx.StatusReport(map[string]string{"same.md": headHash})
	require.NoError(t, err)
	assert.Empty(t, report)
}
