// Package merkle implements L4's tamper-evidence layer (§4.5): a
// balanced binary hash tree over a working tree's files, snapshotted
// to detect later modification/addition/deletion, plus inclusion
// proofs for individual leaves.
package merkle
