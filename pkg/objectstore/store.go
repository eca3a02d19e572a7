package objectstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/kraklabs/memvcs/pkg/crypto"
	"github.com/kraklabs/memvcs/pkg/log"
	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/metrics"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

// Sealer optionally encrypts/decrypts object payloads (§4.4). A nil
// Sealer means encryption is disabled for this store.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// keySealer adapts a bare derived key to Sealer using pkg/crypto.
type keySealer struct {
	key []byte
}

func (s keySealer) Seal(plaintext []byte) ([]byte, error) { return crypto.Seal(s.key, plaintext) }
func (s keySealer) Open(sealed []byte) ([]byte, error)     { return crypto.Open(s.key, sealed) }

// NewKeySealer builds a Sealer from a derived Argon2id key.
func NewKeySealer(key []byte) Sealer {
	return keySealer{key: key}
}

// Store is the content-addressed object store (§4.2), layered on a
// storageadapter.Adapter for bytes and an optional Sealer for
// encryption at rest.
type Store struct {
	adapter storageadapter.Adapter
	sealer  Sealer
}

// New creates a Store backed by adapter. Pass a nil sealer to store
// objects unencrypted.
func New(adapter storageadapter.Adapter, sealer Sealer) *Store {
	return &Store{adapter: adapter, sealer: sealer}
}

// hashOf returns the hex SHA-256 digest of canonical plaintext bytes.
func hashOf(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// HashContent returns the address a blob with this content would have
// once stored, without writing anything. Callers compare this against
// a staged or committed blob hash to classify working-tree state
// (§4.3 status) without touching the object store.
func HashContent(content []byte) string {
	return hashOf(content)
}

func objectPath(kind Kind, hash string) (string, error) {
	if len(hash) < 3 {
		return "", memerrs.Wrap(memerrs.ErrValidation, "hash too short: "+hash, nil)
	}
	return fmt.Sprintf(".mem/objects/%s/%s/%s", kind, hash[:2], hash[2:]), nil
}

// Put computes hash = SHA-256(canonical_bytes); if the object already
// exists it returns the existing hash without rewriting it
// (deduplication). Otherwise it compresses, optionally seals, and
// writes atomically to objects/<kind>/<hash[:2]>/<hash[2:]>.
func (s *Store) Put(kind Kind, canonical []byte) (string, error) {
	timer := metrics.NewTimer()
	hash := hashOf(canonical)
	path, err := objectPath(kind, hash)
	if err != nil {
		return "", err
	}

	if s.adapter.Exists(path) {
		metrics.ObjectsPutTotal.WithLabelValues(string(kind), "deduplicated").Inc()
		return hash, nil
	}

	compressed, err := compress(canonical)
	if err != nil {
		return "", err
	}

	payload := compressed
	if s.sealer != nil {
		payload, err = s.sealer.Seal(compressed)
		if err != nil {
			return "", err
		}
	}

	if err := s.adapter.Write(path, payload); err != nil {
		return "", err
	}

	metrics.ObjectsPutTotal.WithLabelValues(string(kind), "written").Inc()
	timer.ObserveDurationVec(metrics.ObjectPutDuration, string(kind))
	log.WithHash(hash).Debug().Msg("object written")
	return hash, nil
}

// Get reverses Put: reads, optionally decrypts, decompresses, and
// verifies the decoded payload hashes back to hash. An
// authenticated-decryption failure surfaces as memerrs.ErrIntegrity,
// never as corrupted plaintext.
func (s *Store) Get(kind Kind, hash string) ([]byte, error) {
	path, err := objectPath(kind, hash)
	if err != nil {
		return nil, err
	}

	raw, err := s.adapter.Read(path)
	if err != nil {
		metrics.ObjectsGetTotal.WithLabelValues(string(kind), "not_found").Inc()
		return nil, err
	}

	payload := raw
	if s.sealer != nil {
		payload, err = s.sealer.Open(raw)
		if err != nil {
			metrics.ObjectsGetTotal.WithLabelValues(string(kind), "integrity_error").Inc()
			return nil, err
		}
	}

	canonical, err := decompress(payload)
	if err != nil {
		metrics.ObjectsGetTotal.WithLabelValues(string(kind), "integrity_error").Inc()
		return nil, err
	}

	if got := hashOf(canonical); got != hash {
		metrics.ObjectsGetTotal.WithLabelValues(string(kind), "integrity_error").Inc()
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, fmt.Sprintf("hash mismatch for %s: got %s", hash, got), nil)
	}

	metrics.ObjectsGetTotal.WithLabelValues(string(kind), "hit").Inc()
	return canonical, nil
}

// Has reports whether an object with hash exists, without reading it.
func (s *Store) Has(kind Kind, hash string) bool {
	path, err := objectPath(kind, hash)
	if err != nil {
		return false
	}
	return s.adapter.Exists(path)
}

// PutTree canonicalizes and stores a tree object.
func (s *Store) PutTree(t Tree) (string, error) {
	b, err := t.CanonicalBytes()
	if err != nil {
		return "", err
	}
	return s.Put(KindTree, b)
}

// GetTree fetches and decodes a tree object.
func (s *Store) GetTree(hash string) (Tree, error) {
	b, err := s.Get(KindTree, hash)
	if err != nil {
		return Tree{}, err
	}
	return DecodeTree(b)
}

// PutCommit canonicalizes and stores a commit object.
func (s *Store) PutCommit(c Commit) (string, error) {
	b, err := c.CanonicalBytes()
	if err != nil {
		return "", err
	}
	return s.Put(KindCommit, b)
}

// GetCommit fetches and decodes a commit object.
func (s *Store) GetCommit(hash string) (Commit, error) {
	b, err := s.Get(KindCommit, hash)
	if err != nil {
		return Commit{}, err
	}
	return DecodeCommit(b)
}

// PutTag canonicalizes and stores a tag object.
func (s *Store) PutTag(t Tag) (string, error) {
	b, err := t.CanonicalBytes()
	if err != nil {
		return "", err
	}
	return s.Put(KindTag, b)
}

// GetTag fetches and decodes a tag object.
func (s *Store) GetTag(hash string) (Tag, error) {
	b, err := s.Get(KindTag, hash)
	if err != nil {
		return Tag{}, err
	}
	return DecodeTag(b)
}

// PutBlob stores raw file content. A blob's canonical bytes are its
// content verbatim.
func (s *Store) PutBlob(content []byte) (string, error) {
	return s.Put(KindBlob, content)
}

// GetBlob fetches raw file content.
func (s *Store) GetBlob(hash string) ([]byte, error) {
	return s.Get(KindBlob, hash)
}

var zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
var zstdDecoder, _ = zstd.NewReader(nil)

func compress(data []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func decompress(data []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, "decompress object", err)
	}
	return out, nil
}
