// Package collaboration tracks multi-agent identity, trust, and
// attribution over a repository: which agents have contributed,
// which agents trust which others and at what level, and a per-agent
// contribution ledger keyed by commit hash.
package collaboration
