package confidence

import (
	"encoding/json"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const (
	sourcesPath            = ".mem/sources.json"
	defaultInitReliability = 0.8
	unknownSourceDefault   = 0.5
)

// Source is one contributor's tracked reliability (§4.7 / §12). It is
// kept independent of any single memory's confidence Record: a
// verification event updates the Source, while Records scored earlier
// keep the reliability value they copied when they were scored.
type Source struct {
	Name          string    `json:"name"`
	Reliability   float64   `json:"reliability"`
	Type          string    `json:"type"`
	Contributions int       `json:"contributions"`
	VerifiedCount int       `json:"verified_count"`
	ErrorCount    int       `json:"error_count"`
	RegisteredAt  time.Time `json:"registered_at"`
}

// SourceStore persists source reliability at .mem/sources.json,
// independent of per-path confidence records.
type SourceStore struct {
	adapter storageadapter.Adapter
}

// NewSourceStore creates a SourceStore over adapter.
func NewSourceStore(adapter storageadapter.Adapter) *SourceStore {
	return &SourceStore{adapter: adapter}
}

type sourcesFile struct {
	Sources map[string]Source `json:"sources"`
}

func (s *SourceStore) load() (sourcesFile, error) {
	var f sourcesFile
	f.Sources = make(map[string]Source)
	if !s.adapter.Exists(sourcesPath) {
		return f, nil
	}
	data, err := s.adapter.Read(sourcesPath)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return sourcesFile{}, memerrs.Wrap(memerrs.ErrIntegrity, "decode source store", err)
	}
	if f.Sources == nil {
		f.Sources = make(map[string]Source)
	}
	return f, nil
}

func (s *SourceStore) save(f sourcesFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrIntegrity, "encode source store", err)
	}
	return s.adapter.Write(sourcesPath, data)
}

// Register adds a new tracked source with an initial reliability.
// Registering an id that already exists overwrites it.
func (s *SourceStore) Register(sourceID, name string, initialReliability float64, sourceType string) error {
	f, err := s.load()
	if err != nil {
		return err
	}
	f.Sources[sourceID] = Source{
		Name:         name,
		Reliability:  initialReliability,
		Type:         sourceType,
		RegisteredAt: time.Now().UTC(),
	}
	return s.save(f)
}

// GetReliability returns sourceID's current reliability, or 0.5 for an
// unregistered source.
func (s *SourceStore) GetReliability(sourceID string) (float64, error) {
	f, err := s.load()
	if err != nil {
		return 0, err
	}
	src, ok := f.Sources[sourceID]
	if !ok {
		return unknownSourceDefault, nil
	}
	return src.Reliability, nil
}

// UpdateReliability adjusts sourceID's reliability by delta, clamped
// to [0.1, 1.0]. A no-op, returning the unknown-source default,
// if sourceID is not registered.
func (s *SourceStore) UpdateReliability(sourceID string, delta float64) (float64, error) {
	f, err := s.load()
	if err != nil {
		return 0, err
	}
	src, ok := f.Sources[sourceID]
	if !ok {
		return unknownSourceDefault, nil
	}
	src.Reliability = clampRange(src.Reliability+delta, minReliability, maxReliability)
	f.Sources[sourceID] = src
	if err := s.save(f); err != nil {
		return 0, err
	}
	return src.Reliability, nil
}

// RecordVerification applies a verification event for sourceID:
// +0.01 reliability and a verified-count bump on success, -0.05 and
// an error-count bump on failure (§4.7). A no-op if sourceID is not
// registered.
func (s *SourceStore) RecordVerification(sourceID string, verified bool) error {
	f, err := s.load()
	if err != nil {
		return err
	}
	src, ok := f.Sources[sourceID]
	if !ok {
		return nil
	}
	if verified {
		src.VerifiedCount++
		src.Reliability = clampRange(src.Reliability+reliabilityGainOnSuccess, minReliability, maxReliability)
	} else {
		src.ErrorCount++
		src.Reliability = clampRange(src.Reliability-reliabilityLossOnFailure, minReliability, maxReliability)
	}
	f.Sources[sourceID] = src
	return s.save(f)
}

// RecordContribution increments sourceID's contribution count, used
// when a source supplies a new memory.
func (s *SourceStore) RecordContribution(sourceID string) error {
	f, err := s.load()
	if err != nil {
		return err
	}
	src, ok := f.Sources[sourceID]
	if !ok {
		return nil
	}
	src.Contributions++
	f.Sources[sourceID] = src
	return s.save(f)
}

// All returns every registered source keyed by id.
func (s *SourceStore) All() (map[string]Source, error) {
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Sources, nil
}
