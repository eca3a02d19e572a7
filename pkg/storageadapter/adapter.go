// Package storageadapter provides the byte-level storage contract (§4.1)
// that every higher memvcs layer builds on, plus a local-filesystem
// implementation. The contract is intentionally small so that a
// cloud-object-storage adapter (S3, GCS) can implement it without the
// core knowing where bytes actually live.
package storageadapter

import (
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
)

// Entry describes one item returned by List.
type Entry struct {
	Path  string
	Size  int64
	Mtime time.Time
	IsDir bool
}

// Adapter is the storage contract every memvcs layer is built on.
// Implementations must resolve every path under a single root and
// reject escape attempts (e.g. "..") with an error wrapping
// memerrs.ErrStorage.
type Adapter interface {
	// Read returns the bytes at path, or an error wrapping
	// memerrs.ErrNotFound if it does not exist.
	Read(path string) ([]byte, error)

	// Write durably persists data at path. It must be atomic from the
	// caller's perspective: a concurrent Read either sees the whole
	// previous content or the whole new content, never a partial
	// write.
	Write(path string, data []byte) error

	// Exists reports whether path is present.
	Exists(path string) bool

	// Delete removes path, returning true if something was removed.
	Delete(path string) (bool, error)

	// List enumerates entries directly under path.
	List(path string) ([]Entry, error)

	// MakeDirs ensures path exists as a directory, creating parents
	// as needed.
	MakeDirs(path string) error

	// IsDir reports whether path exists and is a directory.
	IsDir(path string) bool

	// AcquireLock obtains the named advisory lock within timeout,
	// returning an error wrapping memerrs.ErrLockTimeout if it could
	// not be obtained in time. Implementations must be safe across
	// concurrent processes.
	AcquireLock(name string, timeout time.Duration) (Lock, error)
}

// Lock represents a held advisory lock. Release is idempotent.
type Lock interface {
	Release() error
}

// pathError is a convenience constructor for an ErrStorage error about
// one path, matching the other layers' wrapping style.
func pathError(op, path string, cause error) error {
	return memerrs.Wrap(memerrs.ErrStorage, op+" "+path, cause)
}
