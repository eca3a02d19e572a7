package confidence

import "math"

// DecayModel selects one of the three decay curves (§4.7).
type DecayModel string

const (
	DecayExponential DecayModel = "exponential"
	DecayLinear      DecayModel = "linear"
	DecayStep        DecayModel = "step"
)

// Decay returns d(t) for age t (days) and half-life h (days) under
// model. Exponential is the default curve.
func Decay(model DecayModel, t, h float64) float64 {
	switch model {
	case DecayLinear:
		return math.Max(0, 1-t/(2*h))
	case DecayStep:
		switch {
		case t < h:
			return 1.0
		case t < 2*h:
			return 0.5
		default:
			return 0.2
		}
	case DecayExponential, "":
		return math.Exp(-t * math.Ln2 / h)
	default:
		return math.Exp(-t * math.Ln2 / h)
	}
}

// DaysUntil inverts the decay model, returning the age in days at
// which d(t) first falls below threshold, or false if the curve never
// drops below it (e.g. a step curve's floor of 0.2 above threshold).
func DaysUntil(model DecayModel, h, threshold float64) (float64, bool) {
	switch model {
	case DecayLinear:
		// 1 - t/(2h) = threshold  =>  t = 2h(1-threshold)
		if threshold >= 1 {
			return 0, true
		}
		return 2 * h * (1 - threshold), true
	case DecayStep:
		switch {
		case threshold > 1.0:
			return 0, true
		case threshold > 0.5:
			return h, true
		case threshold > 0.2:
			return 2 * h, true
		default:
			return 0, false
		}
	case DecayExponential, "":
		// exp(-t*ln2/h) = threshold  =>  t = -h*ln(threshold)/ln2
		if threshold <= 0 {
			return 0, false
		}
		if threshold >= 1 {
			return 0, true
		}
		return -h * math.Log(threshold) / math.Ln2, true
	default:
		return 0, false
	}
}
