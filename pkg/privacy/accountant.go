package privacy

import (
	"encoding/json"
	"math"
	"math/rand/v2"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const budgetPath = ".mem/privacy_budget.json"

// Budget is the persisted (ε_spent, ε_max, δ) record (§3, §4.6).
type Budget struct {
	EpsilonSpent float64 `json:"epsilon_spent"`
	EpsilonMax   float64 `json:"max_epsilon"`
	Delta        float64 `json:"delta"`
}

// Accountant enforces I6 (ε_spent ≤ ε_max at all times) and is
// consulted before any DP query runs.
type Accountant struct {
	adapter storageadapter.Adapter
}

// New creates an Accountant persisting through adapter.
func New(adapter storageadapter.Adapter) *Accountant {
	return &Accountant{adapter: adapter}
}

// Init persists a fresh budget. Fails if one already exists so a
// repository's privacy budget is never silently reset.
func (a *Accountant) Init(epsilonMax, delta float64) error {
	if a.adapter.Exists(budgetPath) {
		return memerrs.Wrap(memerrs.ErrConflict, "privacy budget already initialized", nil)
	}
	return a.save(Budget{EpsilonSpent: 0, EpsilonMax: epsilonMax, Delta: delta})
}

// Load reads the persisted budget.
func (a *Accountant) Load() (Budget, error) {
	if !a.adapter.Exists(budgetPath) {
		return Budget{}, memerrs.Wrap(memerrs.ErrNotFound, "no privacy budget initialized", nil)
	}
	data, err := a.adapter.Read(budgetPath)
	if err != nil {
		return Budget{}, err
	}
	var b Budget
	if err := json.Unmarshal(data, &b); err != nil {
		return Budget{}, memerrs.Wrap(memerrs.ErrIntegrity, "decode privacy budget", err)
	}
	return b, nil
}

func (a *Accountant) save(b Budget) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrIntegrity, "encode privacy budget", err)
	}
	return a.adapter.Write(budgetPath, data)
}

// Spend admits a query costing epsilonCost. If epsilon_spent +
// epsilonCost would exceed epsilon_max, it returns false and leaves
// the persisted budget untouched; otherwise it persists the new spend
// atomically (via the adapter's write-temp-then-rename) and returns
// true. Denied spends never partially execute.
func (a *Accountant) Spend(epsilonCost float64) (bool, error) {
	b, err := a.Load()
	if err != nil {
		return false, err
	}

	if b.EpsilonSpent+epsilonCost > b.EpsilonMax {
		return false, nil
	}

	b.EpsilonSpent += epsilonCost
	if err := a.save(b); err != nil {
		return false, err
	}
	return true, nil
}

// Noise draws independent Gaussian noise with σ = sensitivity *
// sqrt(2*ln(1.25/δ)) / ε, realizing the (ε,δ)-Gaussian mechanism for a
// bounded-sensitivity query, and adds it to value.
func Noise(value, sensitivity, epsilon, delta float64) float64 {
	sigma := sensitivity * math.Sqrt(2*math.Log(1.25/delta)) / epsilon
	return value + rand.NormFloat64()*sigma
}
