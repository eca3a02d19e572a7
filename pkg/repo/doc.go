// Package repo implements L3: the Repository that orchestrates
// pkg/objectstore, pkg/refs, and pkg/staging into add/commit/checkout/
// log/diff (§4.3). Object writes always happen before any ref update,
// so a failed ref update only ever leaves harmless dangling objects
// (I3/I5), and commit on an empty staging index is a no-op.
package repo
