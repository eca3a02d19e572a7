package session

import (
	"testing"
	"time"

	"github.com/kraklabs/memvcs/pkg/objectstore"
	"github.com/kraklabs/memvcs/pkg/repo"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T, cfg Config) (*Recorder, storageadapter.Adapter, *repo.Repository) {
	t.Helper()
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	store := objectstore.New(adapter, nil)
	r := repo.Open(adapter, store, objectstore.Author{Name: "tester", Email: "tester@example.com"})
	require.NoError(t, r.Init())

	rec := NewRecorder(adapter, r, cfg)
	return rec, adapter, r
}

func TestAddObservationBuffersWithoutCommittingBelowThreshold(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{MaxObservationsPerCommit: 10, MinObservationsForCommit: 5, CommitIntervalSeconds: 900})

	_, hash, err := rec.AddObservation("write_file", map[string]string{"path": "a.md"}, "ok")
	require.NoError(t, err)
	assert.Empty(t, hash)

	s, err := rec.Start()
	require.NoError(t, err)
	assert.Len(t, s.Observations, 1)
	assert.Equal(t, TopicFileOperations, s.Observations[0].Topic)
}

func TestAddObservationCommitsOnceBufferReachesMax(t *testing.T) {
	rec, adapter, r := newTestRecorder(t, Config{MaxObservationsPerCommit: 3, MinObservationsForCommit: 100, CommitIntervalSeconds: 900})

	var lastHash string
	for i := 0; i < 3; i++ {
		_, hash, err := rec.AddObservation("run_test", map[string]string{"n": "x"}, "")
		require.NoError(t, err)
		lastHash = hash
	}
	require.NotEmpty(t, lastHash, "third observation should trigger a commit")

	entries, err := r.Log(0, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, lastHash, entries[0].Hash)
	assert.True(t, adapter.Exists("current/episodic/sessions/session-"+entries[0].Commit.Metadata["session_id"]+".md"))
}

func TestAddObservationCommitsOnElapsedTimeOnceMinimumMet(t *testing.T) {
	rec, _, r := newTestRecorder(t, Config{MaxObservationsPerCommit: 100, MinObservationsForCommit: 2, CommitIntervalSeconds: 1})

	fakeNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return fakeNow }

	_, hash, err := rec.AddObservation("deploy_service", nil, "")
	require.NoError(t, err)
	assert.Empty(t, hash)

	fakeNow = fakeNow.Add(2 * time.Second)
	_, hash, err = rec.AddObservation("deploy_service", nil, "")
	require.NoError(t, err)
	assert.NotEmpty(t, hash, "elapsed interval with enough observations should trigger a commit")

	entries, err := r.Log(0, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestEndSessionCommitsRemainingObservations(t *testing.T) {
	rec, _, r := newTestRecorder(t, Config{MaxObservationsPerCommit: 100, MinObservationsForCommit: 100, CommitIntervalSeconds: 900})

	_, hash, err := rec.AddObservation("write_file", map[string]string{"path": "a.md"}, "")
	require.NoError(t, err)
	assert.Empty(t, hash)

	commitHash, err := rec.End(true)
	require.NoError(t, err)
	assert.NotEmpty(t, commitHash)

	entries, err := r.Log(0, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestDiscardRemovesSessionWithoutCommitting(t *testing.T) {
	rec, adapter, r := newTestRecorder(t, Config{MaxObservationsPerCommit: 100, MinObservationsForCommit: 100, CommitIntervalSeconds: 900})

	_, _, err := rec.AddObservation("write_file", nil, "")
	require.NoError(t, err)

	require.NoError(t, rec.Discard())
	assert.False(t, adapter.Exists(sessionFilePath))

	entries, err := r.Log(0, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
