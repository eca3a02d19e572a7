// Package memerrs defines the error taxonomy shared by every memvcs
// layer: storage, object store, refs, crypto, privacy, and the
// distillation pipeline all return errors that wrap one of the
// sentinels below, so callers can classify failures with errors.Is
// regardless of which layer produced them.
package memerrs

import "errors"

// Sentinel categories. Every error surfaced across a package boundary
// wraps one of these via Wrap so the category survives
// errors.Is/errors.As across layers.
var (
	// ErrStorage covers I/O failure, an unwritable target, or a path
	// escape attempt caught by the storage adapter.
	ErrStorage = errors.New("storage error")

	// ErrLockTimeout means an advisory lock was not obtained within
	// the caller-supplied timeout.
	ErrLockTimeout = errors.New("lock timeout")

	// ErrNotFound means the requested object, ref, or revision does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity covers authenticated-decryption failure, a hash
	// mismatch on read, corrupted canonical encoding, or a dangling
	// ref/missing parent found during fsck.
	ErrIntegrity = errors.New("integrity error")

	// ErrValidation covers malformed input: a bad hash format, a bad
	// ref name, or a conflicting trust level.
	ErrValidation = errors.New("validation error")

	// ErrPrivacyBudgetExceeded means a privacy spend was denied
	// because it would push ε_spent above ε_max.
	ErrPrivacyBudgetExceeded = errors.New("privacy budget exceeded")

	// ErrConflict covers a checkout that would overwrite dirty paths
	// without force, or a branch/tag name collision.
	ErrConflict = errors.New("conflict")

	// ErrConfig covers a missing or malformed configuration, such as
	// encryption enabled with no passphrase available.
	ErrConfig = errors.New("config error")
)

// Wrap annotates cause with msg and ties it to category so that
// errors.Is(err, category) continues to hold after wrapping.
func Wrap(category error, msg string, cause error) error {
	if cause == nil {
		return &wrapped{category: category, msg: msg}
	}
	return &wrapped{category: category, msg: msg, cause: cause}
}

type wrapped struct {
	category error
	msg      string
	cause    error
}

func (w *wrapped) Error() string {
	if w.cause == nil {
		return w.msg
	}
	return w.msg + ": " + w.cause.Error()
}

func (w *wrapped) Unwrap() []error {
	if w.cause == nil {
		return []error{w.category}
	}
	return []error{w.category, w.cause}
}
