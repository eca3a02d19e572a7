// Package storageadapter implements L0 of memvcs: the byte-level
// contract (Adapter) that every higher layer is built on, plus Local,
// a filesystem-backed implementation rooted at a repository directory.
//
// Local resolves every path under its root and rejects escapes (the
// path-traversal invariant, I2) before touching disk, writes durably
// via write-temp-then-rename, and backs AcquireLock with a small
// bbolt lease table (adapted from the teacher's BoltStore) so the
// same lock semantics — a table-based lease with a stale-lock
// timeout — hold whether the adapter is local or, eventually, a
// cloud object store behind the same interface.
package storageadapter
