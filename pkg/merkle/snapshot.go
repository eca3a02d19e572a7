package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

// Snapshot is the persisted record {merkle_root, file_count,
// computed_at, file_hashes} (§3, §4.5, §6).
type Snapshot struct {
	Root        string            `json:"merkle_root"`
	FileCount   int               `json:"file_count"`
	ComputedAt  time.Time         `json:"computed_at"`
	PerFile     map[string]string `json:"file_hashes"`
	sortedPaths []string
}

// Build enumerates every file under rootDir (lexicographic by
// relative path), hashes each leaf, and builds the balanced binary
// tree over them.
func Build(adapter storageadapter.Adapter, rootDir string) (*Snapshot, error) {
	paths, err := listFilesSorted(adapter, rootDir)
	if err != nil {
		return nil, err
	}

	perFile := make(map[string]string, len(paths))
	leaves := make([][]byte, 0, len(paths))
	for _, p := range paths {
		content, err := adapter.Read(p)
		if err != nil {
			return nil, err
		}
		leaf := leafHash(content)
		perFile[relativeTo(rootDir, p)] = hex.EncodeToString(leaf)
		leaves = append(leaves, leaf)
	}

	levels := buildLevels(leaves)
	root := levels[len(levels)-1][0]

	return &Snapshot{
		Root:        hex.EncodeToString(root),
		FileCount:   len(paths),
		ComputedAt:  time.Now().UTC(),
		PerFile:     perFile,
		sortedPaths: sortedKeys(perFile),
	}, nil
}

func leafHash(content []byte) []byte {
	sum := sha256.Sum256(content)
	return sum[:]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DiffResult classifies every path against a stored snapshot.
type DiffResult struct {
	Added    []string
	Modified []string
	Deleted  []string
	Verified bool
	NewRoot  string
}

// Verify re-runs Build over rootDir and classifies each path relative
// to stored: modified (leaf differs), added (missing from stored),
// deleted (stored but missing now). Verified is true iff all three
// sets are empty and the recomputed root equals the stored root.
func Verify(adapter storageadapter.Adapter, rootDir string, stored *Snapshot) (*DiffResult, error) {
	current, err := Build(adapter, rootDir)
	if err != nil {
		return nil, err
	}

	result := &DiffResult{NewRoot: current.Root}

	for path, hash := range current.PerFile {
		oldHash, existed := stored.PerFile[path]
		if !existed {
			result.Added = append(result.Added, path)
		} else if oldHash != hash {
			result.Modified = append(result.Modified, path)
		}
	}
	for path := range stored.PerFile {
		if _, stillThere := current.PerFile[path]; !stillThere {
			result.Deleted = append(result.Deleted, path)
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.Modified)
	sort.Strings(result.Deleted)

	result.Verified = len(result.Added) == 0 && len(result.Modified) == 0 &&
		len(result.Deleted) == 0 && current.Root == stored.Root

	return result, nil
}

const snapshotPath = ".mem/merkle_root.json"

// Save persists s to adapter.
func Save(adapter storageadapter.Adapter, s *Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrIntegrity, "encode merkle snapshot", err)
	}
	return adapter.Write(snapshotPath, data)
}

// Load reads the persisted snapshot, if any.
func Load(adapter storageadapter.Adapter) (*Snapshot, bool, error) {
	if !adapter.Exists(snapshotPath) {
		return nil, false, nil
	}
	data, err := adapter.Read(snapshotPath)
	if err != nil {
		return nil, false, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, memerrs.Wrap(memerrs.ErrIntegrity, "decode merkle snapshot", err)
	}
	s.sortedPaths = sortedKeys(s.PerFile)
	return &s, true, nil
}

// Proof returns the ordered sibling hashes from the leaf at path to
// the root, rebuilding the tree from the snapshot's recorded leaves.
func (s *Snapshot) Proof(path string) ([]ProofStep, error) {
	if _, ok := s.PerFile[path]; !ok {
		return nil, memerrs.Wrap(memerrs.ErrNotFound, "no such path in snapshot: "+path, nil)
	}

	paths := s.sortedPaths
	if paths == nil {
		paths = sortedKeys(s.PerFile)
	}

	leaves := make([][]byte, len(paths))
	index := -1
	for i, p := range paths {
		h, err := hex.DecodeString(s.PerFile[p])
		if err != nil {
			return nil, memerrs.Wrap(memerrs.ErrIntegrity, "decode leaf hash", err)
		}
		leaves[i] = h
		if p == path {
			index = i
		}
	}
	if index == -1 {
		return nil, memerrs.Wrap(memerrs.ErrNotFound, "no such path in snapshot: "+path, nil)
	}

	levels := buildLevels(leaves)
	return buildProof(levels, index), nil
}

// VerifyProof checks that leafContent, via proof, recomputes to root.
func VerifyProof(leafContent []byte, proof []ProofStep, root string) (bool, error) {
	rootBytes, err := hex.DecodeString(root)
	if err != nil {
		return false, memerrs.Wrap(memerrs.ErrValidation, "decode root hash", err)
	}
	return verifyProof(leafHashOf(leafContent), proof, rootBytes), nil
}

func leafHashOf(content []byte) []byte {
	return leafHash(content)
}
