// Package objectstore implements L1 of memvcs: the four immutable
// object kinds (blob, tree, commit, tag), their canonical,
// deterministic serialization, and a content-addressed Store built on
// a storageadapter.Adapter. An object's address is always
// hex(SHA-256(canonical plaintext bytes)) (I1), so compression and
// optional encryption (§4.4) never change an object's hash.
package objectstore
