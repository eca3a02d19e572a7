package health

import (
	"testing"
	"time"

	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T) storageadapter.Adapter {
	t.Helper()
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter
}

func TestRedundancyFlagsDuplicateContent(t *testing.T) {
	adapter := newAdapter(t)
	require.NoError(t, adapter.Write("current/semantic/a.md", []byte("same content")))
	require.NoError(t, adapter.Write("current/semantic/b.md", []byte("same content")))
	require.NoError(t, adapter.Write("current/semantic/c.md", []byte("different")))

	rep, err := Redundancy(adapter)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.TotalFiles)
	assert.Len(t, rep.DuplicateHashes, 1)
}

func TestRedundancyOnMissingDirReturnsEmptyReport(t *testing.T) {
	rep, err := Redundancy(newAdapter(t))
	require.NoError(t, err)
	assert.Equal(t, 0, rep.TotalFiles)
	assert.Empty(t, rep.Warning)
}

func TestStaleFlagsFilesPastThreshold(t *testing.T) {
	adapter := newAdapter(t)
	require.NoError(t, adapter.Write("current/episodic/old.md", []byte("x")))
	require.NoError(t, adapter.Write("current/episodic/new.md", []byte("y")))

	now := time.Now().UTC().Add(200 * 24 * time.Hour)
	rep, err := Stale(adapter, now, 90)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.TotalFiles)
	assert.Len(t, rep.StaleFiles, 2)
}

func TestStaleDefaultsThresholdWhenNonPositive(t *testing.T) {
	adapter := newAdapter(t)
	require.NoError(t, adapter.Write("current/episodic/a.md", []byte("x")))

	rep, err := Stale(adapter, time.Now().UTC(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalFiles)
	assert.Empty(t, rep.StaleFiles)
}

func TestCheckAggregatesAllReports(t *testing.T) {
	adapter := newAdapter(t)
	require.NoError(t, adapter.Write("current/semantic/a.md", []byte("x")))

	rep, err := Check(adapter, time.Now().UTC(), 90)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Redundancy.TotalFiles)
}
