package compliance

import (
	"errors"
	"time"

	"github.com/kraklabs/memvcs/pkg/crypto"
	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/merkle"
	"github.com/kraklabs/memvcs/pkg/privacy"
	"github.com/kraklabs/memvcs/pkg/repo"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

// Report is a point-in-time snapshot of a repository's compliance
// posture: how much privacy budget has been spent, whether at-rest
// encryption is configured, whether the Merkle snapshot still matches
// the working tree, and how large the audit trail (commit history) is.
type Report struct {
	GeneratedAt time.Time

	PrivacyInitialized bool
	EpsilonSpent       float64
	EpsilonMax         float64
	Delta              float64

	EncryptionEnabled bool

	MerkleRecorded  bool
	MerkleRoot      string
	MerkleDrift     int // added + modified + deleted paths since the recorded snapshot
	MerkleDriftKind map[string]int

	CommitCount  int
	LastCommit   string
	LastCommitAt time.Time
}

// Generate assembles a Report from the repository's current state.
// A missing privacy budget or Merkle snapshot is reported as such, not
// treated as an error -- a repository that never initialized DP
// accounting or never ran fsck is simply not yet compliant on that
// axis.
func Generate(adapter storageadapter.Adapter, r *repo.Repository, acct *privacy.Accountant, now time.Time) (Report, error) {
	rep := Report{GeneratedAt: now, MerkleDriftKind: map[string]int{}}

	budget, err := acct.Load()
	switch {
	case err == nil:
		rep.PrivacyInitialized = true
		rep.EpsilonSpent = budget.EpsilonSpent
		rep.EpsilonMax = budget.EpsilonMax
		rep.Delta = budget.Delta
	case errors.Is(err, memerrs.ErrNotFound):
		// not yet initialized
	default:
		return Report{}, err
	}

	if _, ok, err := crypto.LoadConfig(adapter); err != nil {
		return Report{}, err
	} else if ok {
		rep.EncryptionEnabled = true
	}

	if stored, ok, err := merkle.Load(adapter); err != nil {
		return Report{}, err
	} else if ok {
		rep.MerkleRecorded = true
		rep.MerkleRoot = stored.Root
		diff, err := merkle.Verify(adapter, "current", stored)
		if err != nil {
			return Report{}, err
		}
		rep.MerkleDriftKind["added"] = len(diff.Added)
		rep.MerkleDriftKind["modified"] = len(diff.Modified)
		rep.MerkleDriftKind["deleted"] = len(diff.Deleted)
		rep.MerkleDrift = len(diff.Added) + len(diff.Modified) + len(diff.Deleted)
	}

	entries, err := r.Log(0, time.Time{})
	if err != nil {
		return Report{}, err
	}
	rep.CommitCount = len(entries)
	if len(entries) > 0 {
		rep.LastCommit = entries[0].Hash
		rep.LastCommitAt = entries[0].Commit.Timestamp
	}

	return rep, nil
}

// WithinBudget reports whether the privacy budget still has headroom.
// An uninitialized budget counts as within budget: there is nothing to
// exceed yet.
func (r Report) WithinBudget() bool {
	if !r.PrivacyInitialized {
		return true
	}
	return r.EpsilonSpent <= r.EpsilonMax
}

// Tampered reports whether the working tree has drifted from the last
// recorded Merkle snapshot.
func (r Report) Tampered() bool {
	return r.MerkleRecorded && r.MerkleDrift > 0
}
