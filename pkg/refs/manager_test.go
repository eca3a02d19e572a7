package refs

import (
	"testing"
	"time"

	"github.com/kraklabs/memvcs/pkg/objectstore"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *objectstore.Store) {
	t.Helper()
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	store := objectstore.New(adapter, nil)
	return New(adapter, store), store
}

func commitWithParents(t *testing.T, store *objectstore.Store, parents []string) string {
	t.Helper()
	hash, err := store.PutCommit(objectstore.Commit{
		TreeHash:  "sometree",
		Parents:   parents,
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Message:   "m",
	})
	require.NoError(t, err)
	return hash
}

func TestInitHeadAndResolveUnbornBranch(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.InitHEAD("main"))

	branch, isBranch, err := m.HeadBranch()
	require.NoError(t, err)
	assert.True(t, isBranch)
	assert.Equal(t, "main", branch)

	_, err = m.Resolve("HEAD")
	assert.Error(t, err, "an unborn branch has no commits yet")
}

func TestUpdateHeadAndResolveHead(t *testing.T) {
	m, store := newTestManager(t)
	require.NoError(t, m.InitHEAD("main"))

	c1 := commitWithParents(t, store, nil)
	require.NoError(t, m.UpdateHead(c1, "tester", "commit: first"))

	resolved, err := m.Resolve("HEAD")
	require.NoError(t, err)
	assert.Equal(t, c1, resolved)

	resolvedBranch, err := m.Resolve("main")
	require.NoError(t, err)
	assert.Equal(t, c1, resolvedBranch)
}

func TestHeadTildeWalksFirstParent(t *testing.T) {
	m, store := newTestManager(t)
	require.NoError(t, m.InitHEAD("main"))

	c1 := commitWithParents(t, store, nil)
	c2 := commitWithParents(t, store, []string{c1})
	c3 := commitWithParents(t, store, []string{c2})
	require.NoError(t, m.UpdateHead(c3, "tester", "commit: third"))

	resolved, err := m.Resolve("HEAD~1")
	require.NoError(t, err)
	assert.Equal(t, c2, resolved)

	resolved, err = m.Resolve("HEAD~2")
	require.NoError(t, err)
	assert.Equal(t, c1, resolved)

	_, err = m.Resolve("HEAD~3")
	assert.Error(t, err)
}

func TestShortHashResolutionAndAmbiguity(t *testing.T) {
	m, store := newTestManager(t)
	c1 := commitWithParents(t, store, nil)

	resolved, err := m.Resolve(c1[:6])
	require.NoError(t, err)
	assert.Equal(t, c1, resolved)

	_, err = m.Resolve("ab")
	assert.Error(t, err, "short hashes under 4 hex chars are rejected")
}

func TestCreateBranchFailsIfExists(t *testing.T) {
	m, store := newTestManager(t)
	c1 := commitWithParents(t, store, nil)

	require.NoError(t, m.CreateBranch("feature", c1, "tester"))
	err := m.CreateBranch("feature", c1, "tester")
	assert.Error(t, err)
}

func TestDeleteBranchFailsIfCheckedOut(t *testing.T) {
	m, store := newTestManager(t)
	require.NoError(t, m.InitHEAD("main"))
	c1 := commitWithParents(t, store, nil)
	require.NoError(t, m.UpdateHead(c1, "tester", "commit: first"))

	err := m.DeleteBranch("main")
	assert.Error(t, err)
}

func TestCreateTagAndResolve(t *testing.T) {
	m, store := newTestManager(t)
	c1 := commitWithParents(t, store, nil)

	require.NoError(t, m.CreateTag("v1", c1, "tester"))
	resolved, err := m.Resolve("v1")
	require.NoError(t, err)
	assert.Equal(t, c1, resolved)

	err = m.CreateTag("v1", c1, "tester")
	assert.Error(t, err, "tags are immutable once created")
}

func TestReflogRecordsEachMutation(t *testing.T) {
	m, store := newTestManager(t)
	require.NoError(t, m.InitHEAD("main"))
	c1 := commitWithParents(t, store, nil)
	c2 := commitWithParents(t, store, []string{c1})

	require.NoError(t, m.UpdateHead(c1, "tester", "commit: first"))
	require.NoError(t, m.UpdateHead(c2, "tester", "commit: second"))

	entries, err := m.Reflog("refs/heads/main")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "", entries[0].OldHash)
	assert.Equal(t, c1, entries[0].NewHash)
	assert.Equal(t, c1, entries[1].OldHash)
	assert.Equal(t, c2, entries[1].NewHash)
}

func TestListBranchesAndTags(t *testing.T) {
	m, store := newTestManager(t)
	c1 := commitWithParents(t, store, nil)

	require.NoError(t, m.CreateBranch("main", c1, "tester"))
	require.NoError(t, m.CreateBranch("dev", c1, "tester"))
	require.NoError(t, m.CreateTag("v1", c1, "tester"))

	branches, err := m.ListBranches()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main", "dev"}, branches)

	tags, err := m.ListTags()
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, tags)
}
