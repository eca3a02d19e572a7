package repo

import (
	"errors"
	"time"

	"github.com/kraklabs/memvcs/pkg/log"
	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/metrics"
	"github.com/kraklabs/memvcs/pkg/objectstore"
	"github.com/kraklabs/memvcs/pkg/refs"
	"github.com/kraklabs/memvcs/pkg/staging"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const defaultBranch = "main"

// LockName is the single advisory lock every write operation (commit,
// checkout, ref update, stage, distill, Merkle snapshot) serializes
// through (§5). LockTimeout bounds how long a writer waits for a
// concurrent holder before giving up. Exported so callers that mutate
// repository state outside a Repository method (the fsck command's
// Merkle snapshot build/save) can serialize through the same lock.
const LockName = "repo"
const LockTimeout = 30 * time.Second

// Repository ties together the object store, ref namespace, and
// staging index into the operations memvcs exposes to callers (§4.3).
type Repository struct {
	adapter storageadapter.Adapter
	store   *objectstore.Store
	refs    *refs.Manager
	index   *staging.Index
	author  objectstore.Author
}

// Open wires up a Repository over an already-initialized adapter.
func Open(adapter storageadapter.Adapter, store *objectstore.Store, author objectstore.Author) *Repository {
	r := &Repository{
		adapter: adapter,
		store:   store,
		author:  author,
	}
	r.refs = refs.New(adapter, store)
	r.index = staging.New(adapter, store)
	return r
}

// Init creates a fresh repository: HEAD points at an unborn default
// branch and the staging index starts empty.
func (r *Repository) Init() error {
	return r.refs.InitHEAD(defaultBranch)
}

// Add stages relPath (file or directory) exactly as pkg/staging.Add.
func (r *Repository) Add(relPath string) error {
	lock, err := r.adapter.AcquireLock(LockName, LockTimeout)
	if err != nil {
		return err
	}
	defer lock.Release()
	return r.index.Add(relPath)
}

// Remove un-stages relPath.
func (r *Repository) Remove(relPath string) error {
	lock, err := r.adapter.AcquireLock(LockName, LockTimeout)
	if err != nil {
		return err
	}
	defer lock.Release()
	return r.index.Remove(relPath)
}

// CreateBranch creates a branch named name at hash under the
// repository lock, the same serialization Commit and Checkout use.
func (r *Repository) CreateBranch(name, hash, who string) error {
	lock, err := r.adapter.AcquireLock(LockName, LockTimeout)
	if err != nil {
		return err
	}
	defer lock.Release()
	return r.refs.CreateBranch(name, hash, who)
}

// DeleteBranch removes a branch under the repository lock.
func (r *Repository) DeleteBranch(name string) error {
	lock, err := r.adapter.AcquireLock(LockName, LockTimeout)
	if err != nil {
		return err
	}
	defer lock.Release()
	return r.refs.DeleteBranch(name)
}

// CreateTag creates a tag under the repository lock.
func (r *Repository) CreateTag(name, hash, who string) error {
	lock, err := r.adapter.AcquireLock(LockName, LockTimeout)
	if err != nil {
		return err
	}
	defer lock.Release()
	return r.refs.CreateTag(name, hash, who)
}

// Status classifies every changed path under current/ against the
// staging index and HEAD's tree.
func (r *Repository) Status() ([]staging.Status, error) {
	headHashes, err := r.headBlobHashes()
	if err != nil {
		return nil, err
	}
	return r.index.StatusReport(headHashes)
}

func (r *Repository) headBlobHashes() (map[string]string, error) {
	headHash, err := r.refs.Resolve("HEAD")
	if err != nil {
		if errors.Is(err, memerrs.ErrNotFound) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	commit, err := r.store.GetCommit(headHash)
	if err != nil {
		return nil, err
	}
	return flattenTree(r.store, commit.TreeHash)
}

// Commit builds a tree from the staging index, writes a commit object
// with parent = HEAD, fast-forwards the current branch, and clears
// staging. An empty index is a no-op, not an error (§4.3).
func (r *Repository) Commit(message string, metadata map[string]string) (string, error) {
	lock, err := r.adapter.AcquireLock(LockName, LockTimeout)
	if err != nil {
		return "", err
	}
	defer lock.Release()

	timer := metrics.NewTimer()

	entries, err := r.index.Entries()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}

	treeHash, err := buildTreeFromIndex(r.store, entries)
	if err != nil {
		return "", err
	}

	var parents []string
	if headHash, err := r.refs.Resolve("HEAD"); err == nil {
		parents = []string{headHash}
	} else if !errors.Is(err, memerrs.ErrNotFound) {
		return "", err
	}

	commitHash, err := r.store.PutCommit(objectstore.Commit{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    r.author,
		Timestamp: time.Now().UTC(),
		Message:   message,
		Metadata:  metadata,
	})
	if err != nil {
		return "", err
	}

	reason := "commit: " + truncate(message, 40)
	if err := r.refs.UpdateHead(commitHash, r.author.Name, reason); err != nil {
		return "", err
	}

	if err := r.index.Clear(); err != nil {
		return "", err
	}

	metrics.CommitsTotal.Inc()
	timer.ObserveDuration(metrics.CommitDuration)
	log.WithHash(commitHash).Info().Msg("commit created")
	return commitHash, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Checkout resolves target, materializes its tree into current/, and
// moves HEAD. Without force, any dirty path that differs from both
// the current and target trees aborts before touching disk.
func (r *Repository) Checkout(target string, force bool) error {
	lock, err := r.adapter.AcquireLock(LockName, LockTimeout)
	if err != nil {
		return err
	}
	defer lock.Release()

	commitHash, err := r.refs.Resolve(target)
	if err != nil {
		return err
	}

	commit, err := r.store.GetCommit(commitHash)
	if err != nil {
		return err
	}
	targetFiles, err := flattenTree(r.store, commit.TreeHash)
	if err != nil {
		return err
	}

	headFiles, err := r.headBlobHashes()
	if err != nil {
		return err
	}

	if !force {
		if err := r.checkCleanFor(headFiles, targetFiles); err != nil {
			return err
		}
	}

	if err := r.materialize(headFiles, targetFiles); err != nil {
		return err
	}

	if r.refs.BranchExists(target) {
		return r.refs.SetHeadToBranch(target)
	}
	return r.refs.SetHeadDetached(commitHash)
}

// checkCleanFor aborts the checkout if applying target would touch a
// path (write it with different content, or delete a tracked file
// target no longer has) that also carries uncommitted local changes,
// which would otherwise silently discard working-tree edits. Paths
// checkout would never touch -- e.g. untracked files absent from both
// HEAD and target -- never conflict, regardless of their content.
func (r *Repository) checkCleanFor(headFiles, targetFiles map[string]string) error {
	workingHashes, err := r.index.WorkingTreeHashes()
	if err != nil {
		return err
	}

	paths := map[string]struct{}{}
	for p := range workingHashes {
		paths[p] = struct{}{}
	}
	for p := range headFiles {
		paths[p] = struct{}{}
	}
	for p := range targetFiles {
		paths[p] = struct{}{}
	}

	for p := range paths {
		workingHash, inWorking := workingHashes[p]
		targetHash, inTarget := targetFiles[p]
		headHash, inHead := headFiles[p]

		touched := inTarget || inHead && !inTarget
		if !touched {
			continue
		}

		noopChange := inTarget && inWorking && workingHash == targetHash || !inTarget && !inWorking
		if noopChange {
			continue
		}

		clean := inWorking == inHead && (!inWorking || workingHash == headHash)
		if clean {
			continue
		}

		return memerrs.Wrap(memerrs.ErrConflict, "checkout would overwrite dirty path: "+p, nil)
	}
	return nil
}

// materialize writes every file target introduces or changes and
// removes tracked files target no longer has. Untracked working-tree
// files outside both trees are left alone.
func (r *Repository) materialize(headFiles, targetFiles map[string]string) error {
	for path, hash := range targetFiles {
		content, err := r.store.GetBlob(hash)
		if err != nil {
			return err
		}
		if err := r.adapter.Write("current/"+path, content); err != nil {
			return err
		}
	}
	for path := range headFiles {
		if _, ok := targetFiles[path]; ok {
			continue
		}
		if _, err := r.adapter.Delete("current/" + path); err != nil {
			return err
		}
	}
	metrics.CheckoutsTotal.WithLabelValues("ok").Inc()
	return nil
}

// CommitLog is one entry in a first-parent history walk.
type CommitLog struct {
	Hash   string
	Commit objectstore.Commit
}

// Log walks commits from HEAD by first-parent, yielding up to max
// entries (0 means unbounded) no older than since.
func (r *Repository) Log(max int, since time.Time) ([]CommitLog, error) {
	head, err := r.refs.Resolve("HEAD")
	if err != nil {
		if errors.Is(err, memerrs.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var out []CommitLog
	current := head
	for current != "" {
		if max > 0 && len(out) >= max {
			break
		}
		commit, err := r.store.GetCommit(current)
		if err != nil {
			return nil, err
		}
		if !since.IsZero() && commit.Timestamp.Before(since) {
			break
		}
		out = append(out, CommitLog{Hash: current, Commit: commit})
		if len(commit.Parents) == 0 {
			break
		}
		current = commit.Parents[0]
	}
	return out, nil
}

// Diff computes the tree diff between revisions a and b (§4.3 diff).
func (r *Repository) Diff(a, b string) ([]DiffEntry, error) {
	aHash, err := r.refs.Resolve(a)
	if err != nil {
		return nil, err
	}
	bHash, err := r.refs.Resolve(b)
	if err != nil {
		return nil, err
	}

	aCommit, err := r.store.GetCommit(aHash)
	if err != nil {
		return nil, err
	}
	bCommit, err := r.store.GetCommit(bHash)
	if err != nil {
		return nil, err
	}

	aFiles, err := flattenTree(r.store, aCommit.TreeHash)
	if err != nil {
		return nil, err
	}
	bFiles, err := flattenTree(r.store, bCommit.TreeHash)
	if err != nil {
		return nil, err
	}

	return diffTrees(aFiles, bFiles), nil
}

// Refs exposes the underlying ref manager for CLI commands that need
// branch/tag operations directly.
func (r *Repository) Refs() *refs.Manager { return r.refs }

// Store exposes the underlying object store.
func (r *Repository) Store() *objectstore.Store { return r.store }
