package distill

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kraklabs/memvcs/pkg/objectstore"
	"github.com/kraklabs/memvcs/pkg/repo"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (storageadapter.Adapter, *repo.Repository) {
	t.Helper()
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	store := objectstore.New(adapter, nil)
	r := repo.Open(adapter, store, objectstore.Author{Name: "tester", Email: "tester@example.com"})
	require.NoError(t, r.Init())
	return adapter, r
}

func seedEpisodicFile(t *testing.T, adapter storageadapter.Adapter, relPath, content string) {
	t.Helper()
	require.NoError(t, adapter.Write("current/episodic/"+relPath, []byte(content)))
}

func longSentences(topic string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("This is a fairly long observation about ")
		b.WriteString(topic)
		b.WriteString(" gathered during a working session today. ")
	}
	return b.String()
}

func TestRunProducesConsolidatedFilesAndCommits(t *testing.T) {
	adapter, r := newTestRepo(t)
	seedEpisodicFile(t, adapter, "a.md", longSentences("database", 5))
	seedEpisodicFile(t, adapter, "b.md", longSentences("database", 5))
	seedEpisodicFile(t, adapter, "c.md", longSentences("database", 5))

	engine := New(adapter, r, nil, nil)
	result, err := engine.Run(context.Background(), Options{ClusterMin: 2, ClusterMax: 5, SafetyBranchMode: false})
	require.NoError(t, err)
	require.Equal(t, StateDone, result.State)
	assert.NotEmpty(t, result.CommitHash)
	assert.NotEmpty(t, result.WrittenFiles)
	assert.Greater(t, result.FactsWritten, 0)

	for _, f := range result.WrittenFiles {
		assert.True(t, adapter.Exists("current/"+f))
	}

	entries, err := r.Log(0, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, result.CommitHash, entries[0].Hash)
}

func TestRunIsNoopWhenSourceDirMissing(t *testing.T) {
	adapter, r := newTestRepo(t)

	engine := New(adapter, r, nil, nil)
	result, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.Empty(t, result.WrittenFiles)
	assert.Empty(t, result.CommitHash)
}

func TestRunWithSafetyBranchCommitsOnNewBranch(t *testing.T) {
	adapter, r := newTestRepo(t)
	require.NoError(t, adapter.Write("current/README.md", []byte("seed")))
	require.NoError(t, r.Add("README.md"))
	_, err := r.Commit("seed commit", nil)
	require.NoError(t, err)

	seedEpisodicFile(t, adapter, "a.md", longSentences("security", 5))
	seedEpisodicFile(t, adapter, "b.md", longSentences("security", 5))
	seedEpisodicFile(t, adapter, "c.md", longSentences("security", 5))

	engine := New(adapter, r, nil, nil)
	result, err := engine.Run(context.Background(), Options{ClusterMin: 2, ClusterMax: 5, SafetyBranchMode: true})
	require.NoError(t, err)
	require.Equal(t, StateDone, result.State)

	branch, isBranch, err := r.Refs().HeadBranch()
	require.NoError(t, err)
	require.True(t, isBranch)
	assert.True(t, strings.HasPrefix(branch, "auto-distill/"))
}
