package collaboration

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

func TestRegisterThenGetRoundTrips(t *testing.T) {
	r := NewRegistry(newAdapter(t))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a, err := r.Register("agent-1", "Claude session", "", now)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", a.ID)

	got, ok, err := r.Get("agent-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Claude session", got.Name)
}

func TestRemoveDeregistersAgent(t *testing.T) {
	r := NewRegistry(newAdapter(t))
	now := time.Now().UTC()
	_, err := r.Register("agent-1", "one", "", now)
	require.NoError(t, err)

	removed, err := r.Remove("agent-1")
	require.NoError(t, err)
	assert.True(t, removed)

	_, ok, err := r.Get("agent-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantTrustThenLevelRoundTrips(t *testing.T) {
	tm := NewTrustManager(newAdapter(t))
	now := time.Now().UTC()

	require.NoError(t, tm.Grant("agent-1", "agent-2", TrustPartial, "reviewed output", now))

	level, err := tm.Level("agent-1", "agent-2")
	require.NoError(t, err)
	assert.Equal(t, TrustPartial, level)
}

func TestUngrantedPairDefaultsToNone(t *testing.T) {
	tm := NewTrustManager(newAdapter(t))
	level, err := tm.Level("agent-1", "agent-2")
	require.NoError(t, err)
	assert.Equal(t, TrustNone, level)
}

func TestRevokeRemovesRelation(t *testing.T) {
	tm := NewTrustManager(newAdapter(t))
	now := time.Now().UTC()
	require.NoError(t, tm.Grant("agent-1", "agent-2", TrustFull, "", now))

	revoked, err := tm.Revoke("agent-1", "agent-2")
	require.NoError(t, err)
	assert.True(t, revoked)

	level, err := tm.Level("agent-1", "agent-2")
	require.NoError(t, err)
	assert.Equal(t, TrustNone, level)
}

func TestMeetsOrdersTrustLevels(t *testing.T) {
	assert.True(t, Meets(TrustFull, TrustPartial))
	assert.False(t, Meets(TrustReadOnly, TrustPartial))
	assert.True(t, Meets(TrustNone, TrustNone))
}

func TestLeaderboardRanksDescendingByCommitCount(t *testing.T) {
	ct := NewContributionTracker(newAdapter(t))
	now := time.Now().UTC()
	require.NoError(t, ct.Record(Contribution{AgentID: "agent-1", CommitHash: "a1", Timestamp: now}))
	require.NoError(t, ct.Record(Contribution{AgentID: "agent-2", CommitHash: "b1", Timestamp: now}))
	require.NoError(t, ct.Record(Contribution{AgentID: "agent-2", CommitHash: "b2", Timestamp: now}))

	board, err := ct.Leaderboard(0)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "agent-2", board[0].AgentID)
	assert.Equal(t, 2, board[0].Commits)
}
