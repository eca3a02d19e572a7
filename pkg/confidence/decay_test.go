package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExponentialDecayAtHalfLifeIsOneHalf(t *testing.T) {
	d := Decay(DecayExponential, 30, 30)
	assert.InDelta(t, 0.5, d, 1e-9)
}

func TestLinearDecayReachesZeroAtTwiceHalfLife(t *testing.T) {
	d := Decay(DecayLinear, 60, 30)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestStepDecayThresholds(t *testing.T) {
	assert.Equal(t, 1.0, Decay(DecayStep, 5, 10))
	assert.Equal(t, 0.5, Decay(DecayStep, 15, 10))
	assert.Equal(t, 0.2, Decay(DecayStep, 25, 10))
}

func TestDaysUntilInvertsExponentialDecay(t *testing.T) {
	days, ok := DaysUntil(DecayExponential, 30, 0.5)
	assert.True(t, ok)
	assert.InDelta(t, 30, days, 1e-6)

	d := Decay(DecayExponential, days, 30)
	assert.InDelta(t, 0.5, d, 1e-6)
}

func TestDaysUntilInvertsLinearDecay(t *testing.T) {
	days, ok := DaysUntil(DecayLinear, 30, 0.5)
	assert.True(t, ok)
	d := Decay(DecayLinear, days, 30)
	assert.InDelta(t, 0.5, d, 1e-6)
}
