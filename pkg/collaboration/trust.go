package collaboration

import (
	"encoding/json"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const trustPath = ".mem/trust.json"

// TrustLevel orders how much one agent's output another agent accepts
// without independent verification.
type TrustLevel string

const (
	TrustFull     TrustLevel = "full"
	TrustPartial  TrustLevel = "partial"
	TrustReadOnly TrustLevel = "read-only"
	TrustNone     TrustLevel = "none"
)

var trustRank = map[TrustLevel]int{
	TrustFull: 3, TrustPartial: 2, TrustReadOnly: 1, TrustNone: 0,
}

// Relation is a directed trust grant from one agent to another.
type Relation struct {
	FromAgent string     `json:"from_agent"`
	ToAgent   string     `json:"to_agent"`
	Level     TrustLevel `json:"trust_level"`
	Reason    string     `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TrustManager persists trust relations at .mem/trust.json.
type TrustManager struct {
	adapter storageadapter.Adapter
}

// NewTrustManager creates a TrustManager over adapter.
func NewTrustManager(adapter storageadapter.Adapter) *TrustManager {
	return &TrustManager{adapter: adapter}
}

type trustFile struct {
	Relations []Relation `json:"relations"`
}

func (t *TrustManager) load() (trustFile, error) {
	var f trustFile
	if !t.adapter.Exists(trustPath) {
		return f, nil
	}
	data, err := t.adapter.Read(trustPath)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return trustFile{}, memerrs.Wrap(memerrs.ErrIntegrity, "decode trust relations", err)
	}
	return f, nil
}

func (t *TrustManager) save(f trustFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrIntegrity, "encode trust relations", err)
	}
	return t.adapter.Write(trustPath, data)
}

// Grant records fromAgent's trust in toAgent at level, replacing any
// existing relation between the same pair.
func (t *TrustManager) Grant(fromAgent, toAgent string, level TrustLevel, reason string, now time.Time) error {
	f, err := t.load()
	if err != nil {
		return err
	}
	kept := f.Relations[:0]
	for _, r := range f.Relations {
		if r.FromAgent == fromAgent && r.ToAgent == toAgent {
			continue
		}
		kept = append(kept, r)
	}
	f.Relations = append(kept, Relation{
		FromAgent: fromAgent, ToAgent: toAgent, Level: level, Reason: reason, CreatedAt: now,
	})
	return t.save(f)
}

// Revoke removes any trust relation from fromAgent to toAgent,
// reporting whether one existed.
func (t *TrustManager) Revoke(fromAgent, toAgent string) (bool, error) {
	f, err := t.load()
	if err != nil {
		return false, err
	}
	var kept []Relation
	removed := false
	for _, r := range f.Relations {
		if r.FromAgent == fromAgent && r.ToAgent == toAgent {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	if !removed {
		return false, nil
	}
	f.Relations = kept
	return true, t.save(f)
}

// Level returns the trust fromAgent has granted toAgent, defaulting to
// TrustNone if no relation has been recorded.
func (t *TrustManager) Level(fromAgent, toAgent string) (TrustLevel, error) {
	f, err := t.load()
	if err != nil {
		return TrustNone, err
	}
	for _, r := range f.Relations {
		if r.FromAgent == fromAgent && r.ToAgent == toAgent {
			return r.Level, nil
		}
	}
	return TrustNone, nil
}

// Meets reports whether level satisfies at least minimum on the
// full > partial > read-only > none ordering.
func Meets(level, minimum TrustLevel) bool {
	return trustRank[level] >= trustRank[minimum]
}

// Graph returns every recorded relation, for dashboard-style rendering.
func (t *TrustManager) Graph() ([]Relation, error) {
	f, err := t.load()
	if err != nil {
		return nil, err
	}
	return f.Relations, nil
}
