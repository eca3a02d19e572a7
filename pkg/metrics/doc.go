// Package metrics exposes Prometheus instrumentation for every memvcs
// layer: object store put/get counters, commit and lock-wait
// histograms, the live privacy-budget gauge, Merkle verify mismatch
// counts, and distillation/session counters. Components record
// against the package-level collectors directly; Handler returns the
// promhttp handler for callers that want to serve /metrics themselves
// (the core never opens a socket).
package metrics
