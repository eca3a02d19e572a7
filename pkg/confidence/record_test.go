package confidence

import (
	"testing"

	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreAppliesCorroborationAndContradictionCaps(t *testing.T) {
	r := Record{
		SourceReliability:  0.5,
		CorroborationCount: 100, // capped at +0.2
		ContradictionCount: 100, // capped at -0.3
		DecayRate:          DecayExponential,
		HalfLifeDays:       30,
		AgeDays:            0,
	}
	score := r.Score()
	// 0.5 + 0.2 - 0.3 = 0.4, decay at age 0 is 1.0
	assert.InDelta(t, 0.4, score, 1e-9)
}

func TestScoreIsClampedToZeroOne(t *testing.T) {
	r := Record{SourceReliability: 1.0, CorroborationCount: 1000, DecayRate: DecayExponential, HalfLifeDays: 30}
	assert.LessOrEqual(t, r.Score(), 1.0)

	r2 := Record{SourceReliability: 0.0, ContradictionCount: 1000, DecayRate: DecayExponential, HalfLifeDays: 30}
	assert.GreaterOrEqual(t, r2.Score(), 0.0)
}

func TestRecordVerificationAdjustsAndClampsReliability(t *testing.T) {
	r := Record{SourceReliability: 0.99}
	r.RecordVerification(true)
	assert.LessOrEqual(t, r.SourceReliability, 1.0)

	r = Record{SourceReliability: 0.12}
	r.RecordVerification(false)
	assert.GreaterOrEqual(t, r.SourceReliability, 0.1)
}

func TestStorePutGetRoundTrip(t *testing.T) {
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	store := NewStore(adapter)

	r := Record{
		Path:               "semantic/consolidated/facts.md",
		SourceReliability:  0.7,
		CorroborationCount: 2,
		DecayRate:          DecayExponential,
		HalfLifeDays:       90,
	}
	require.NoError(t, store.Put(r))

	loaded, ok, err := store.Get(r.Path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, r.Path, loaded.Path)
	assert.InDelta(t, r.Score(), loaded.ComputedScore, 1e-9)
}

func TestGetMissingRecordReturnsFalse(t *testing.T) {
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	store := NewStore(adapter)
	_, ok, err := store.Get("nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
}
