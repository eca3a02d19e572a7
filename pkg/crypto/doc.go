// Package crypto implements memvcs's encryption-at-rest envelope
// (§4.4): Argon2id key derivation from a user passphrase, AES-256-GCM
// sealing of object payloads, and a process-scoped key cache. Object
// content addresses are always taken over plaintext bytes (I1), so
// enabling or disabling encryption never changes an object's hash.
package crypto
