package repo

import (
	"path"
	"sort"
	"strings"

	"github.com/kraklabs/memvcs/pkg/objectstore"
	"github.com/kraklabs/memvcs/pkg/staging"
)

// dirNode is an in-memory directory accumulator used while building a
// tree bottom-up from a flat path -> staging.Entry index.
type dirNode struct {
	files map[string]staging.Entry
	dirs  map[string]*dirNode
}

func newDirNode() *dirNode {
	return &dirNode{files: map[string]staging.Entry{}, dirs: map[string]*dirNode{}}
}

func (d *dirNode) insert(parts []string, entry staging.Entry) {
	if len(parts) == 1 {
		d.files[parts[0]] = entry
		return
	}
	child, ok := d.dirs[parts[0]]
	if !ok {
		child = newDirNode()
		d.dirs[parts[0]] = child
	}
	child.insert(parts[1:], entry)
}

// buildTreeFromIndex builds one tree object per non-empty directory
// of the staging index, referenced from its parent (§4.3 commit), and
// returns the root tree's hash. An empty index yields an empty tree.
func buildTreeFromIndex(store *objectstore.Store, entries map[string]staging.Entry) (string, error) {
	root := newDirNode()
	for p, entry := range entries {
		parts := strings.Split(p, "/")
		root.insert(parts, entry)
	}
	return writeDirNode(store, root, "")
}

func writeDirNode(store *objectstore.Store, node *dirNode, subpathPrefix string) (string, error) {
	var treeEntries []objectstore.TreeEntry

	for name, entry := range node.files {
		treeEntries = append(treeEntries, objectstore.TreeEntry{
			Mode:    entry.Mode,
			Kind:    objectstore.EntryBlob,
			Hash:    entry.BlobHash,
			Name:    name,
			Subpath: path.Join(subpathPrefix, name),
		})
	}

	dirNames := make([]string, 0, len(node.dirs))
	for name := range node.dirs {
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)

	for _, name := range dirNames {
		childSubpath := path.Join(subpathPrefix, name)
		childHash, err := writeDirNode(store, node.dirs[name], childSubpath)
		if err != nil {
			return "", err
		}
		treeEntries = append(treeEntries, objectstore.TreeEntry{
			Mode:    0o755,
			Kind:    objectstore.EntryTree,
			Hash:    childHash,
			Name:    name,
			Subpath: childSubpath,
		})
	}

	return store.PutTree(objectstore.Tree{Entries: treeEntries})
}

// flattenTree walks rootHash and returns path -> blob hash for every
// file reachable from it.
func flattenTree(store *objectstore.Store, rootHash string) (map[string]string, error) {
	result := map[string]string{}
	if rootHash == "" {
		return result, nil
	}
	if err := flattenInto(store, rootHash, "", result); err != nil {
		return nil, err
	}
	return result, nil
}

func flattenInto(store *objectstore.Store, treeHash, prefix string, out map[string]string) error {
	tree, err := store.GetTree(treeHash)
	if err != nil {
		return err
	}
	for _, e := range tree.Entries {
		full := path.Join(prefix, e.Name)
		switch e.Kind {
		case objectstore.EntryBlob:
			out[full] = e.Hash
		case objectstore.EntryTree:
			if err := flattenInto(store, e.Hash, full, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// DiffEntry is one path's classification in a tree diff (§4.3 diff).
type DiffEntry struct {
	Path     string
	Kind     string // added | deleted | modified
	OldHash  string
	NewHash  string
}

// diffTrees computes the three-way set partition of paths in tree(a)
// union tree(b) into added/deleted/modified.
func diffTrees(a, b map[string]string) []DiffEntry {
	paths := map[string]struct{}{}
	for p := range a {
		paths[p] = struct{}{}
	}
	for p := range b {
		paths[p] = struct{}{}
	}

	var out []DiffEntry
	for p := range paths {
		oldHash, inA := a[p]
		newHash, inB := b[p]
		switch {
		case !inA && inB:
			out = append(out, DiffEntry{Path: p, Kind: "added", NewHash: newHash})
		case inA && !inB:
			out = append(out, DiffEntry{Path: p, Kind: "deleted", OldHash: oldHash})
		case oldHash != newHash:
			out = append(out, DiffEntry{Path: p, Kind: "modified", OldHash: oldHash, NewHash: newHash})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
