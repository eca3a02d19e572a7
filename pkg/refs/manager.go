package refs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/objectstore"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const (
	headPath = ".mem/HEAD"

	// Storage paths, rooted under .mem/ per the on-disk layout (§6).
	headsDir = ".mem/refs/heads/"
	tagsDir  = ".mem/refs/tags/"
	logsDir  = ".mem/logs/"

	// Symbolic ref names, as written inside HEAD's "ref: ..." line and
	// used as reflog keys — these never carry the .mem/ prefix.
	headsSymbolic = "refs/heads/"
	tagsSymbolic  = "refs/tags/"

	minShortHash   = 4
	symbolicPrefix = "ref: "
)

// CommitSource is the subset of objectstore.Store that ref resolution
// needs: commit existence and parent lookup for HEAD~N walks.
type CommitSource interface {
	Has(kind objectstore.Kind, hash string) bool
	GetCommit(hash string) (objectstore.Commit, error)
}

// Manager resolves and mutates the reference namespace (§4.3). All
// state is persisted through a storageadapter.Adapter so it behaves
// identically for a local or remote-backed repository.
type Manager struct {
	adapter storageadapter.Adapter
	store   CommitSource
}

// New creates a Manager over adapter and store.
func New(adapter storageadapter.Adapter, store CommitSource) *Manager {
	return &Manager{adapter: adapter, store: store}
}

// InitHEAD points HEAD at an as-yet-unborn branch, matching a fresh
// repository's state before its first commit.
func (m *Manager) InitHEAD(branch string) error {
	return m.adapter.Write(headPath, []byte(symbolicPrefix+headsSymbolic+branch+"\n"))
}

// SetHeadToBranch points HEAD symbolically at an existing branch,
// without touching the branch's own ref.
func (m *Manager) SetHeadToBranch(branch string) error {
	return m.adapter.Write(headPath, []byte(symbolicPrefix+headsSymbolic+branch+"\n"))
}

// SetHeadDetached points HEAD directly at hash, used when checking
// out a tag or a bare commit hash.
func (m *Manager) SetHeadDetached(hash string) error {
	return m.adapter.Write(headPath, []byte(hash+"\n"))
}

// BranchExists reports whether refs/heads/<name> is present.
func (m *Manager) BranchExists(name string) bool {
	return m.adapter.Exists(headsDir + name)
}

// HeadBranch returns the branch HEAD symbolically points to, or
// ("", false) if HEAD is detached or unborn.
func (m *Manager) HeadBranch() (string, bool, error) {
	if !m.adapter.Exists(headPath) {
		return "", false, nil
	}
	data, err := m.adapter.Read(headPath)
	if err != nil {
		return "", false, err
	}
	content := strings.TrimSpace(string(data))
	if !strings.HasPrefix(content, symbolicPrefix) {
		return "", false, nil
	}
	target := strings.TrimPrefix(content, symbolicPrefix)
	if !strings.HasPrefix(target, headsSymbolic) {
		return "", false, nil
	}
	return strings.TrimPrefix(target, headsSymbolic), true, nil
}

// Resolve looks up ref_or_hash (§4.3): HEAD, HEAD~N, branch names,
// tags, or an unambiguous short hash of at least 4 hex characters.
func (m *Manager) Resolve(refOrHash string) (string, error) {
	if refOrHash == "HEAD" {
		return m.resolveHead()
	}
	if strings.HasPrefix(refOrHash, "HEAD~") {
		n, err := strconv.Atoi(strings.TrimPrefix(refOrHash, "HEAD~"))
		if err != nil || n < 0 {
			return "", memerrs.Wrap(memerrs.ErrValidation, "invalid HEAD~N expression: "+refOrHash, nil)
		}
		head, err := m.resolveHead()
		if err != nil {
			return "", err
		}
		return m.walkFirstParent(head, n)
	}

	if hash, err, ok := m.tryReadRef(headsDir + refOrHash); ok {
		return hash, err
	}
	if hash, err, ok := m.tryReadRef(tagsDir + refOrHash); ok {
		return hash, err
	}

	return m.resolveShortHash(refOrHash)
}

func (m *Manager) tryReadRef(path string) (string, error, bool) {
	if !m.adapter.Exists(path) {
		return "", nil, false
	}
	data, err := m.adapter.Read(path)
	if err != nil {
		return "", err, true
	}
	return strings.TrimSpace(string(data)), nil, true
}

func (m *Manager) resolveHead() (string, error) {
	branch, isBranch, err := m.HeadBranch()
	if err != nil {
		return "", err
	}
	if isBranch {
		if hash, err, ok := m.tryReadRef(headsDir + branch); ok {
			if err != nil {
				return "", err
			}
			return hash, nil
		}
		return "", memerrs.Wrap(memerrs.ErrNotFound, "branch has no commits yet: "+branch, nil)
	}
	// Detached HEAD stores a raw hash.
	if !m.adapter.Exists(headPath) {
		return "", memerrs.Wrap(memerrs.ErrNotFound, "HEAD is unset", nil)
	}
	data, err := m.adapter.Read(headPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (m *Manager) walkFirstParent(hash string, n int) (string, error) {
	current := hash
	for i := 0; i < n; i++ {
		commit, err := m.store.GetCommit(current)
		if err != nil {
			return "", err
		}
		if len(commit.Parents) == 0 {
			return "", memerrs.Wrap(memerrs.ErrNotFound, fmt.Sprintf("HEAD~%d exceeds history depth", n), nil)
		}
		current = commit.Parents[0]
	}
	return current, nil
}

// resolveShortHash scans .mem/objects/commit/<prefix2>/ for entries
// whose full name starts with the remaining hex digits, failing on
// zero or more than one match.
func (m *Manager) resolveShortHash(short string) (string, error) {
	if len(short) < minShortHash || !isHex(short) {
		return "", memerrs.Wrap(memerrs.ErrNotFound, "no ref or object matches: "+short, nil)
	}

	prefix2 := short[:2]
	rest := short[2:]

	entries, err := m.adapter.List(".mem/objects/commit/" + prefix2)
	if err != nil {
		return "", memerrs.Wrap(memerrs.ErrNotFound, "no ref or object matches: "+short, nil)
	}

	var matches []string
	for _, e := range entries {
		name := lastSegment(e.Path)
		if strings.HasPrefix(name, rest) {
			matches = append(matches, prefix2+name)
		}
	}

	switch len(matches) {
	case 0:
		return "", memerrs.Wrap(memerrs.ErrNotFound, "no ref or object matches: "+short, nil)
	case 1:
		return matches[0], nil
	default:
		return "", memerrs.Wrap(memerrs.ErrValidation, fmt.Sprintf("ambiguous short hash %s matches %d objects", short, len(matches)), nil)
	}
}

func lastSegment(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx == -1 {
		return path
	}
	return path[idx+1:]
}

func isHex(s string) bool {
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}

// Update writes newHash to storagePath and appends a reflog entry
// under refName (a symbolic name like "refs/heads/main" or "HEAD").
func (m *Manager) Update(storagePath, refName, newHash, who, reason string) error {
	oldHash := ""
	if data, err, ok := m.tryReadRef(storagePath); ok {
		if err != nil {
			return err
		}
		oldHash = data
	}

	if err := m.adapter.Write(storagePath, []byte(newHash+"\n")); err != nil {
		return err
	}

	return m.appendReflog(refName, oldHash, newHash, who, reason)
}

// UpdateHead fast-forwards the branch HEAD currently points to, or
// moves HEAD itself if detached.
func (m *Manager) UpdateHead(newHash, who, reason string) error {
	branch, isBranch, err := m.HeadBranch()
	if err != nil {
		return err
	}
	if isBranch {
		return m.Update(headsDir+branch, headsSymbolic+branch, newHash, who, reason)
	}
	old := ""
	if m.adapter.Exists(headPath) {
		data, err := m.adapter.Read(headPath)
		if err != nil {
			return err
		}
		old = strings.TrimSpace(string(data))
	}
	if err := m.adapter.Write(headPath, []byte(newHash+"\n")); err != nil {
		return err
	}
	return m.appendReflog("HEAD", old, newHash, who, reason)
}

// CreateBranch creates refs/heads/<name> pointing at hash. Fails if
// the branch already exists.
func (m *Manager) CreateBranch(name, hash, who string) error {
	path := headsDir + name
	if m.adapter.Exists(path) {
		return memerrs.Wrap(memerrs.ErrConflict, "branch already exists: "+name, nil)
	}
	if err := m.adapter.Write(path, []byte(hash+"\n")); err != nil {
		return err
	}
	return m.appendReflog(headsSymbolic+name, "", hash, who, "branch: created "+name)
}

// DeleteBranch removes refs/heads/<name>. Fails if it is the branch
// HEAD currently has checked out.
func (m *Manager) DeleteBranch(name string) error {
	branch, isBranch, err := m.HeadBranch()
	if err != nil {
		return err
	}
	if isBranch && branch == name {
		return memerrs.Wrap(memerrs.ErrConflict, "cannot delete the checked-out branch: "+name, nil)
	}
	removed, err := m.adapter.Delete(headsDir + name)
	if err != nil {
		return err
	}
	if !removed {
		return memerrs.Wrap(memerrs.ErrNotFound, "no such branch: "+name, nil)
	}
	return nil
}

// CreateTag creates an immutable refs/tags/<name> pointer. Fails if
// the tag already exists.
func (m *Manager) CreateTag(name, hash, who string) error {
	path := tagsDir + name
	if m.adapter.Exists(path) {
		return memerrs.Wrap(memerrs.ErrConflict, "tag already exists: "+name, nil)
	}
	if err := m.adapter.Write(path, []byte(hash+"\n")); err != nil {
		return err
	}
	return m.appendReflog(tagsSymbolic+name, "", hash, who, "tag: created "+name)
}

// ListBranches returns every refs/heads/* branch name.
func (m *Manager) ListBranches() ([]string, error) {
	return m.listRefNames(headsDir)
}

// ListTags returns every refs/tags/* tag name.
func (m *Manager) ListTags() ([]string, error) {
	return m.listRefNames(tagsDir)
}

func (m *Manager) listRefNames(dirPath string) ([]string, error) {
	dir := strings.TrimSuffix(dirPath, "/")
	if !m.adapter.IsDir(dir) {
		return nil, nil
	}
	entries, err := m.adapter.List(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir {
			names = append(names, lastSegment(e.Path))
		}
	}
	return names, nil
}

// ReflogEntry is one (old_hash, new_hash, who, when, reason) record.
type ReflogEntry struct {
	OldHash string    `json:"old_hash"`
	NewHash string    `json:"new_hash"`
	Who     string    `json:"who"`
	When    time.Time `json:"when"`
	Reason  string    `json:"reason"`
}
