package staging

import (
	"encoding/json"
	"path"
	"sort"
	"strings"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/objectstore"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const (
	indexPath    = ".mem/index.json"
	workingRoot  = "current"
	defaultMode  = uint32(0o644)
	executeMode  = uint32(0o755)
)

// Entry is one staged (blob_hash, mode) record.
type Entry struct {
	BlobHash string `json:"blob_hash"`
	Mode     uint32 `json:"mode"`
}

// Index is the persisted path -> Entry mapping staged for the next
// commit.
type Index struct {
	adapter storageadapter.Adapter
	store   *objectstore.Store
}

// New creates an Index over adapter and store. add() writes blobs to
// store immediately so they exist by the time commit builds a tree.
func New(adapter storageadapter.Adapter, store *objectstore.Store) *Index {
	return &Index{adapter: adapter, store: store}
}

func (idx *Index) load() (map[string]Entry, error) {
	if !idx.adapter.Exists(indexPath) {
		return map[string]Entry{}, nil
	}
	data, err := idx.adapter.Read(indexPath)
	if err != nil {
		return nil, err
	}
	entries := map[string]Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, "decode staging index", err)
	}
	return entries, nil
}

func (idx *Index) save(entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrIntegrity, "encode staging index", err)
	}
	return idx.adapter.Write(indexPath, data)
}

// workingPath joins a current/-relative path onto the working root
// and rejects any escape from current/ (I2).
func workingPath(relPath string) (string, error) {
	cleaned := path.Clean("/" + relPath)
	if cleaned == "/" {
		return "", memerrs.Wrap(memerrs.ErrValidation, "empty path", nil)
	}
	return path.Join(workingRoot, cleaned), nil
}

// Add stages relPath. If relPath names a directory, every regular
// file under it is staged.
func (idx *Index) Add(relPath string) error {
	full, err := workingPath(relPath)
	if err != nil {
		return err
	}

	if idx.adapter.IsDir(full) {
		return idx.addDir(full)
	}
	return idx.addFile(full)
}

func (idx *Index) addDir(full string) error {
	files, err := idx.walkFiles(full)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := idx.addFile(f); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) addFile(full string) error {
	content, err := idx.adapter.Read(full)
	if err != nil {
		return err
	}
	hash, err := idx.store.PutBlob(content)
	if err != nil {
		return err
	}

	entries, err := idx.load()
	if err != nil {
		return err
	}
	rel := strings.TrimPrefix(full, workingRoot+"/")
	entries[rel] = Entry{BlobHash: hash, Mode: defaultMode}
	return idx.save(entries)
}

// Remove un-stages relPath.
func (idx *Index) Remove(relPath string) error {
	entries, err := idx.load()
	if err != nil {
		return err
	}
	rel := strings.TrimPrefix(path.Clean(relPath), "/")
	delete(entries, rel)
	return idx.save(entries)
}

// Clear empties the staging index, used after a successful commit.
func (idx *Index) Clear() error {
	return idx.save(map[string]Entry{})
}

// Entries returns a snapshot of the current staging index as a map;
// use SortedPaths for a deterministic iteration order.
func (idx *Index) Entries() (map[string]Entry, error) {
	return idx.load()
}

// SortedPaths returns the staged paths in lexicographic order.
func (idx *Index) SortedPaths() ([]string, error) {
	entries, err := idx.load()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// walkFiles recursively lists every regular file under full.
func (idx *Index) walkFiles(full string) ([]string, error) {
	entries, err := idx.adapter.List(full)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir {
			nested, err := idx.walkFiles(e.Path)
			if err != nil {
				return nil, err
			}
			files = append(files, nested...)
			continue
		}
		files = append(files, e.Path)
	}
	return files, nil
}
