package privacy

import (
	"math"
	"testing"

	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccountant(t *testing.T) *Accountant {
	t.Helper()
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return New(adapter)
}

func TestInitThenLoadRoundTrip(t *testing.T) {
	a := newTestAccountant(t)
	require.NoError(t, a.Init(1.0, 1e-5))

	b, err := a.Load()
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.EpsilonSpent)
	assert.Equal(t, 1.0, b.EpsilonMax)
}

func TestInitTwiceFails(t *testing.T) {
	a := newTestAccountant(t)
	require.NoError(t, a.Init(1.0, 1e-5))
	err := a.Init(2.0, 1e-5)
	assert.Error(t, err)
}

func TestSpendWithinBudgetSucceedsAndAccumulates(t *testing.T) {
	a := newTestAccountant(t)
	require.NoError(t, a.Init(1.0, 1e-5))

	ok, err := a.Spend(0.4)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Spend(0.4)
	require.NoError(t, err)
	assert.True(t, ok)

	b, err := a.Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.8, b.EpsilonSpent, 1e-9)
}

func TestSpendExceedingBudgetIsDeniedAndLeavesStateUnchanged(t *testing.T) {
	a := newTestAccountant(t)
	require.NoError(t, a.Init(1.0, 1e-5))

	ok, err := a.Spend(0.9)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.Spend(0.2)
	require.NoError(t, err)
	assert.False(t, ok, "a spend that would push epsilon_spent above epsilon_max must be denied")

	b, err := a.Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.9, b.EpsilonSpent, 1e-9, "a denied spend must not mutate the persisted budget")
}

func TestNoiseAddsVarianceProportionalToSigma(t *testing.T) {
	const trials = 2000
	var sum, sumSq float64
	for i := 0; i < trials; i++ {
		noisy := Noise(0, 1.0, 1.0, 1e-5)
		sum += noisy
		sumSq += noisy * noisy
	}
	mean := sum / trials
	variance := sumSq/trials - mean*mean

	sigma := 1.0 * math.Sqrt(2*math.Log(1.25/1e-5)) / 1.0
	expectedVariance := sigma * sigma

	assert.InDelta(t, 0, mean, sigma*0.2, "noise should be unbiased around the true value")
	assert.InDelta(t, expectedVariance, variance, expectedVariance*0.3, "empirical variance should track sigma^2")
}
