package objectstore

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
)

// Kind identifies one of the four object types named in §3.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
	KindTag    Kind = "tag"
)

// EntryKind is the kind of a tree entry's target object.
type EntryKind string

const (
	EntryBlob EntryKind = "blob"
	EntryTree EntryKind = "tree"
)

// TreeEntry is one (mode, kind, hash, name, subpath) record (§3).
type TreeEntry struct {
	Mode    uint32    `json:"mode"`
	Kind    EntryKind `json:"kind"`
	Hash    string    `json:"hash"`
	Name    string    `json:"name"`
	Subpath string    `json:"subpath"`
}

// Tree encodes a directory snapshot of the current/ working root.
// Entries must be sorted by Name before canonical encoding so two
// trees with the same logical content always hash identically.
type Tree struct {
	Entries []TreeEntry `json:"entries"`
}

// CanonicalBytes returns t's deterministic serialization. Entries are
// sorted by name first so caller-supplied ordering never affects the
// resulting hash.
func (t Tree) CanonicalBytes() ([]byte, error) {
	sorted := make([]TreeEntry, len(t.Entries))
	copy(sorted, t.Entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return canonicalJSON(struct {
		Kind    Kind        `json:"kind"`
		Entries []TreeEntry `json:"entries"`
	}{Kind: KindTree, Entries: sorted})
}

// Author identifies who produced a commit or tag.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// metadataKV is the canonical, order-stable form of Commit.Metadata.
type metadataKV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Commit is (tree_hash, parent_hashes[], author, timestamp, message,
// metadata_map) (§3). Parents form a DAG; the first parent defines
// linear history for log.
type Commit struct {
	TreeHash  string            `json:"tree_hash"`
	Parents   []string          `json:"parents"`
	Author    Author            `json:"author"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"-"`
}

// CanonicalBytes returns c's deterministic serialization. Metadata is
// converted to a key-sorted slice so Go's randomized map iteration
// never perturbs the hash.
func (c Commit) CanonicalBytes() ([]byte, error) {
	kvs := make([]metadataKV, 0, len(c.Metadata))
	for k, v := range c.Metadata {
		kvs = append(kvs, metadataKV{Key: k, Value: v})
	}
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })

	parents := c.Parents
	if parents == nil {
		parents = []string{}
	}

	return canonicalJSON(struct {
		Kind      Kind         `json:"kind"`
		TreeHash  string       `json:"tree_hash"`
		Parents   []string     `json:"parents"`
		Author    Author       `json:"author"`
		Timestamp time.Time    `json:"timestamp"`
		Message   string       `json:"message"`
		Metadata  []metadataKV `json:"metadata"`
	}{
		Kind:      KindCommit,
		TreeHash:  c.TreeHash,
		Parents:   parents,
		Author:    c.Author,
		Timestamp: c.Timestamp.UTC(),
		Message:   c.Message,
		Metadata:  kvs,
	})
}

// Tag is (target_hash, name, tagger, timestamp, message) (§3).
type Tag struct {
	TargetHash string    `json:"target_hash"`
	Name       string    `json:"name"`
	Tagger     Author    `json:"tagger"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
}

// CanonicalBytes returns t's deterministic serialization.
func (t Tag) CanonicalBytes() ([]byte, error) {
	return canonicalJSON(struct {
		Kind       Kind      `json:"kind"`
		TargetHash string    `json:"target_hash"`
		Name       string    `json:"name"`
		Tagger     Author    `json:"tagger"`
		Timestamp  time.Time `json:"timestamp"`
		Message    string    `json:"message"`
	}{
		Kind:       KindTag,
		TargetHash: t.TargetHash,
		Name:       t.Name,
		Tagger:     t.Tagger,
		Timestamp:  t.Timestamp.UTC(),
		Message:    t.Message,
	})
}

// canonicalJSON marshals v with no extraneous whitespace. encoding/json
// preserves struct field declaration order, which combined with the
// pre-sorted slices above gives a byte-stable encoding for identical
// logical content.
func canonicalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, "canonicalize object", err)
	}
	out := buf.Bytes()
	// json.Encoder always appends a trailing newline; strip it so the
	// same logical object yields byte-identical output whether encoded
	// via Encoder or Marshal.
	return bytes.TrimSuffix(out, []byte("\n")), nil
}

// DecodeTree parses canonical tree bytes.
func DecodeTree(data []byte) (Tree, error) {
	var wire struct {
		Entries []TreeEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Tree{}, memerrs.Wrap(memerrs.ErrIntegrity, "decode tree", err)
	}
	return Tree{Entries: wire.Entries}, nil
}

// DecodeCommit parses canonical commit bytes.
func DecodeCommit(data []byte) (Commit, error) {
	var wire struct {
		TreeHash  string       `json:"tree_hash"`
		Parents   []string     `json:"parents"`
		Author    Author       `json:"author"`
		Timestamp time.Time    `json:"timestamp"`
		Message   string       `json:"message"`
		Metadata  []metadataKV `json:"metadata"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Commit{}, memerrs.Wrap(memerrs.ErrIntegrity, "decode commit", err)
	}
	md := make(map[string]string, len(wire.Metadata))
	for _, kv := range wire.Metadata {
		md[kv.Key] = kv.Value
	}
	return Commit{
		TreeHash:  wire.TreeHash,
		Parents:   wire.Parents,
		Author:    wire.Author,
		Timestamp: wire.Timestamp,
		Message:   wire.Message,
		Metadata:  md,
	}, nil
}

// DecodeTag parses canonical tag bytes.
func DecodeTag(data []byte) (Tag, error) {
	var t Tag
	if err := json.Unmarshal(data, &t); err != nil {
		return Tag{}, memerrs.Wrap(memerrs.ErrIntegrity, "decode tag", err)
	}
	return t, nil
}
