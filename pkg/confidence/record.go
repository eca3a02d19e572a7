package confidence

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const (
	minReliability = 0.1
	maxReliability = 1.0

	reliabilityGainOnSuccess = 0.01
	reliabilityLossOnFailure = 0.05

	maxCorroborationBonus  = 0.2
	corroborationWeight    = 0.05
	maxContradictionPenalty = 0.3
	contradictionWeight     = 0.1

	scoresPath = ".mem/confidence_scores.json"
)

// Record is one memory path's confidence state (§3). SourceReliability
// is a snapshot taken from a SourceStore at the time the score was last
// computed, not a live reference to it.
type Record struct {
	Path               string     `json:"path"`
	SourceReliability  float64    `json:"source_reliability"`
	CorroborationCount int        `json:"corroboration_count"`
	ContradictionCount int        `json:"contradiction_count"`
	AgeDays            float64    `json:"age_days"`
	AccessFrequency    int        `json:"access_frequency"`
	LastVerified       time.Time  `json:"last_verified"`
	ComputedScore      float64    `json:"computed_score"`
	DecayRate          DecayModel `json:"decay_rate"`
	HalfLifeDays       float64    `json:"half_life_days"`
}

// Score computes clamp01(source_reliability + min(0.2, 0.05*corroboration)
// - min(0.3, 0.1*contradiction)) * d(age_days) (§4.7).
func (r Record) Score() float64 {
	corroborationBonus := math.Min(maxCorroborationBonus, corroborationWeight*float64(r.CorroborationCount))
	contradictionPenalty := math.Min(maxContradictionPenalty, contradictionWeight*float64(r.ContradictionCount))

	base := clamp01(r.SourceReliability + corroborationBonus - contradictionPenalty)
	return base * Decay(r.DecayRate, r.AgeDays, r.HalfLifeDays)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RecordVerification applies a verification event's outcome to
// SourceReliability: +0.01 on success, -0.05 on failure, clamped to
// [0.1, 1.0]. This mutates the record's own snapshot only; callers
// tracking a named source should also update it via SourceStore so the
// next computed score for any path drawing on that source reflects the
// change.
func (r *Record) RecordVerification(success bool) {
	if success {
		r.SourceReliability += reliabilityGainOnSuccess
	} else {
		r.SourceReliability -= reliabilityLossOnFailure
	}
	r.SourceReliability = clampRange(r.SourceReliability, minReliability, maxReliability)
	r.LastVerified = time.Now().UTC()
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DaysUntilBelow inverts r's decay model to answer "when will this
// memory fall below threshold" (§4.7 days_until).
func (r Record) DaysUntilBelow(threshold float64) (float64, bool) {
	corroborationBonus := math.Min(maxCorroborationBonus, corroborationWeight*float64(r.CorroborationCount))
	contradictionPenalty := math.Min(maxContradictionPenalty, contradictionWeight*float64(r.ContradictionCount))
	base := clamp01(r.SourceReliability + corroborationBonus - contradictionPenalty)
	if base <= 0 {
		return 0, true
	}
	return DaysUntil(r.DecayRate, r.HalfLifeDays, threshold/base)
}

// Store persists every memory path's confidence record in a single
// aggregate file at .mem/confidence_scores.json, keyed by path.
type Store struct {
	adapter storageadapter.Adapter
}

// NewStore creates a Store over adapter.
func NewStore(adapter storageadapter.Adapter) *Store {
	return &Store{adapter: adapter}
}

type scoresFile struct {
	Scores map[string]Record `json:"scores"`
}

func (s *Store) load() (scoresFile, error) {
	var f scoresFile
	f.Scores = make(map[string]Record)
	if !s.adapter.Exists(scoresPath) {
		return f, nil
	}
	data, err := s.adapter.Read(scoresPath)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return scoresFile{}, memerrs.Wrap(memerrs.ErrIntegrity, "decode confidence scores", err)
	}
	if f.Scores == nil {
		f.Scores = make(map[string]Record)
	}
	return f, nil
}

func (s *Store) save(f scoresFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrIntegrity, "encode confidence scores", err)
	}
	return s.adapter.Write(scoresPath, data)
}

// Get loads the record for memoryPath, or (zero-value, false) if none
// has been recorded yet.
func (s *Store) Get(memoryPath string) (Record, bool, error) {
	f, err := s.load()
	if err != nil {
		return Record{}, false, err
	}
	r, ok := f.Scores[memoryPath]
	return r, ok, nil
}

// Put persists r, recomputing ComputedScore before writing.
func (s *Store) Put(r Record) error {
	f, err := s.load()
	if err != nil {
		return err
	}
	r.ComputedScore = r.Score()
	f.Scores[r.Path] = r
	return s.save(f)
}

// BelowThreshold returns every stored record whose ComputedScore is
// below threshold, sorted ascending by score (§4.7 low-confidence
// listing).
func (s *Store) BelowThreshold(threshold float64) ([]Record, error) {
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range f.Scores {
		if r.ComputedScore < threshold {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComputedScore < out[j].ComputedScore })
	return out, nil
}
