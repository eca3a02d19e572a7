package confidence

import (
	"testing"

	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSourceStore(t *testing.T) *SourceStore {
	t.Helper()
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return NewSourceStore(adapter)
}

func TestUnregisteredSourceReliabilityDefaultsToOneHalf(t *testing.T) {
	s := newSourceStore(t)
	r, err := s.GetReliability("unknown-agent")
	require.NoError(t, err)
	assert.Equal(t, 0.5, r)
}

func TestRegisterThenGetReliabilityRoundTrips(t *testing.T) {
	s := newSourceStore(t)
	require.NoError(t, s.Register("agent-1", "Claude session", 0.8, "agent"))

	r, err := s.GetReliability("agent-1")
	require.NoError(t, err)
	assert.Equal(t, 0.8, r)
}

func TestRecordVerificationAdjustsRegisteredSourceAndCounts(t *testing.T) {
	s := newSourceStore(t)
	require.NoError(t, s.Register("agent-1", "Claude session", 0.8, "agent"))

	require.NoError(t, s.RecordVerification("agent-1", true))
	r, err := s.GetReliability("agent-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.81, r, 1e-9)

	require.NoError(t, s.RecordVerification("agent-1", false))
	r, err = s.GetReliability("agent-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.76, r, 1e-9)

	all, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, 1, all["agent-1"].VerifiedCount)
	assert.Equal(t, 1, all["agent-1"].ErrorCount)
}

func TestRecordVerificationIsNoopForUnregisteredSource(t *testing.T) {
	s := newSourceStore(t)
	require.NoError(t, s.RecordVerification("ghost", true))
	all, err := s.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateReliabilityClampsToBounds(t *testing.T) {
	s := newSourceStore(t)
	require.NoError(t, s.Register("agent-1", "x", 0.99, "agent"))
	r, err := s.UpdateReliability("agent-1", 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)

	require.NoError(t, s.Register("agent-2", "y", 0.12, "agent"))
	r, err = s.UpdateReliability("agent-2", -1.0)
	require.NoError(t, err)
	assert.Equal(t, 0.1, r)
}

func TestRecordContributionIncrementsCount(t *testing.T) {
	s := newSourceStore(t)
	require.NoError(t, s.Register("agent-1", "x", 0.8, "agent"))
	require.NoError(t, s.RecordContribution("agent-1"))
	require.NoError(t, s.RecordContribution("agent-1"))

	all, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, 2, all["agent-1"].Contributions)
}
