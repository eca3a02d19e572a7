package storageadapter

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
)

// Local implements Adapter over a directory on the local filesystem.
// Every path passed to its methods is resolved relative to root and
// must stay inside it; ".." or absolute-path escapes fail with an
// error wrapping memerrs.ErrStorage.
type Local struct {
	root  string
	locks *lockTable
}

// NewLocal creates a Local adapter rooted at root, creating it if
// necessary, and opens its lease table for AcquireLock.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, pathError("resolve root", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, pathError("makedirs", abs, err)
	}

	locks, err := newLockTable(filepath.Join(abs, ".mem", "locks.db"))
	if err != nil {
		return nil, err
	}

	return &Local{root: abs, locks: locks}, nil
}

// Close releases the lease table's file handle.
func (l *Local) Close() error {
	return l.locks.close()
}

// resolve joins rel onto root and rejects any result that escapes root.
func (l *Local) resolve(rel string) (string, error) {
	cleaned := filepath.Clean("/" + rel) // neutralizes ".." by rooting first
	full := filepath.Join(l.root, cleaned)

	if full != l.root && !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", memerrs.Wrap(memerrs.ErrStorage, "path escapes root: "+rel, nil)
	}
	return full, nil
}

func (l *Local) Read(path string) ([]byte, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, memerrs.Wrap(memerrs.ErrNotFound, "read "+path, err)
		}
		return nil, pathError("read", path, err)
	}
	return data, nil
}

// Write durably persists data at path via write-temp-then-rename, so a
// concurrent reader never observes a partially written file.
func (l *Local) Write(path string, data []byte) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return pathError("makedirs", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return pathError("create temp", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pathError("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pathError("sync", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pathError("close", path, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return pathError("rename", path, err)
	}
	return nil
}

func (l *Local) Exists(path string) bool {
	full, err := l.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (l *Local) Delete(path string) (bool, error) {
	full, err := l.resolve(path)
	if err != nil {
		return false, err
	}
	err = os.Remove(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, pathError("delete", path, err)
	}
	return true, nil
}

func (l *Local) List(path string) ([]Entry, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, memerrs.Wrap(memerrs.ErrNotFound, "list "+path, err)
		}
		return nil, pathError("list", path, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Path:  filepath.Join(path, de.Name()),
			Size:  info.Size(),
			Mtime: info.ModTime(),
			IsDir: de.IsDir(),
		})
	}
	return entries, nil
}

func (l *Local) MakeDirs(path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return pathError("makedirs", path, err)
	}
	return nil
}

func (l *Local) IsDir(path string) bool {
	full, err := l.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func (l *Local) AcquireLock(name string, timeout time.Duration) (Lock, error) {
	return acquireLease(l.locks, name, timeout)
}

// streamCopy copies the file at path into w without loading the whole
// file into memory. Nothing in the module calls it.
func streamCopy(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
