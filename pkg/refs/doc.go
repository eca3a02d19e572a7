// Package refs implements L2's reference namespace (§3, §4.3): HEAD
// (symbolic or detached), mutable refs/heads/* branch tips, immutable
// refs/tags/* pointers, and a per-ref reflog. Resolution supports
// HEAD, HEAD~N, branch names, tags, and unambiguous short hashes.
package refs
