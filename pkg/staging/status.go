package staging

import (
	"sort"

	"github.com/kraklabs/memvcs/pkg/objectstore"
)

// FileStatus classifies one path under current/ (§4.3 status).
type FileStatus string

const (
	StatusStaged           FileStatus = "staged"
	StatusModifiedUnstaged FileStatus = "modified-unstaged"
	StatusUntracked        FileStatus = "untracked"
	StatusDeleted          FileStatus = "deleted"
)

// Status is one classified path.
type Status struct {
	Path  string     `json:"path"`
	State FileStatus `json:"state"`
}

// StatusReport classifies every path that appears in any of the
// working tree, the staging index, or headBlobHashes (HEAD's tree
// flattened to path -> blob hash). Paths identical across all three
// are unchanged and omitted.
func (idx *Index) StatusReport(headBlobHashes map[string]string) ([]Status, error) {
	staged, err := idx.load()
	if err != nil {
		return nil, err
	}

	workingHashes, err := idx.hashWorkingTree()
	if err != nil {
		return nil, err
	}

	paths := map[string]struct{}{}
	for p := range staged {
		paths[p] = struct{}{}
	}
	for p := range workingHashes {
		paths[p] = struct{}{}
	}
	for p := range headBlobHashes {
		paths[p] = struct{}{}
	}

	var results []Status
	for p := range paths {
		workingHash, inWorking := workingHashes[p]
		stagedEntry, inStaged := staged[p]
		headHash, inHead := headBlobHashes[p]

		state, changed := classify(inWorking, workingHash, inStaged, stagedEntry.BlobHash, inHead, headHash)
		if !changed {
			continue
		}
		results = append(results, Status{Path: p, State: state})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

func classify(inWorking bool, workingHash string, inStaged bool, stagedHash string, inHead bool, headHash string) (FileStatus, bool) {
	if !inWorking {
		if inStaged || inHead {
			return StatusDeleted, true
		}
		return "", false
	}

	if inStaged {
		if workingHash != stagedHash {
			return StatusModifiedUnstaged, true
		}
		return StatusStaged, true
	}

	if !inHead {
		return StatusUntracked, true
	}

	if workingHash != headHash {
		return StatusModifiedUnstaged, true
	}

	return "", false
}

// WorkingTreeHashes returns path -> content hash for every regular
// file under current/, without touching the object store. Exposed for
// callers (e.g. checkout) that need to compare the live working tree
// against a target revision.
func (idx *Index) WorkingTreeHashes() (map[string]string, error) {
	return idx.hashWorkingTree()
}

// hashWorkingTree walks current/ and returns path -> content hash for
// every regular file, without touching the object store.
func (idx *Index) hashWorkingTree() (map[string]string, error) {
	if !idx.adapter.IsDir(workingRoot) {
		return map[string]string{}, nil
	}
	files, err := idx.walkFiles(workingRoot)
	if err != nil {
		return nil, err
	}

	hashes := make(map[string]string, len(files))
	for _, full := range files {
		content, err := idx.adapter.Read(full)
		if err != nil {
			return nil, err
		}
		rel := full[len(workingRoot)+1:]
		hashes[rel] = objectstore.HashContent(content)
	}
	return hashes, nil
}
