// Package staging implements L2's staging area (§4.3): a persisted
// path -> (blob_hash, mode) index populated by add/remove, and
// status(), which classifies every path under current/ into staged,
// modified-unstaged, untracked, or deleted by comparing working
// content against the index and the HEAD tree.
package staging
