package merkle

import (
	"sort"
	"strings"

	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

// listFilesSorted recursively enumerates every regular file under
// rootDir, returned in lexicographic order by full path (§4.5 step 1).
func listFilesSorted(adapter storageadapter.Adapter, rootDir string) ([]string, error) {
	if !adapter.IsDir(rootDir) {
		return nil, nil
	}
	var files []string
	if err := walk(adapter, rootDir, &files); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func walk(adapter storageadapter.Adapter, dir string, out *[]string) error {
	entries, err := adapter.List(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir {
			if err := walk(adapter, e.Path, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, e.Path)
	}
	return nil
}

func relativeTo(root, full string) string {
	rel := strings.TrimPrefix(full, root)
	return strings.TrimPrefix(rel, "/")
}
