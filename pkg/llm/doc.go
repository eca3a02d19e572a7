// Package llm defines the external-collaborator contract the
// distillation pipeline calls into during EXTRACT (§4.8, §6), plus a
// small HTTP-backed implementation for OpenAI-compatible chat
// completion APIs. The core never requires a provider to be
// configured: pkg/distill's heuristic extractor is the
// zero-configuration default, and a Provider is consulted only when
// one has been wired in.
package llm
