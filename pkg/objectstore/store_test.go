package objectstore

import (
	"testing"
	"time"

	"github.com/kraklabs/memvcs/pkg/crypto"
	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, sealer Sealer) *Store {
	t.Helper()
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return New(adapter, sealer)
}

func TestPutBlobIsDeterministicAndDeduplicates(t *testing.T) {
	s := newTestStore(t, nil)

	h1, err := s.PutBlob([]byte("remember to water the plants"))
	require.NoError(t, err)
	h2, err := s.PutBlob([]byte("remember to water the plants"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "identical content must hash identically")

	assert.True(t, s.Has(KindBlob, h1))

	got, err := s.GetBlob(h1)
	require.NoError(t, err)
	assert.Equal(t, []byte("remember to water the plants"), got)
}

func TestGetMissingBlobIsNotFound(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.GetBlob("deadbeef00000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, memerrs.ErrNotFound)
}

func TestTreeCanonicalBytesAreOrderIndependent(t *testing.T) {
	a := Tree{Entries: []TreeEntry{
		{Mode: 0o644, Kind: EntryBlob, Hash: "aaaa", Name: "b.txt", Subpath: "b.txt"},
		{Mode: 0o644, Kind: EntryBlob, Hash: "bbbb", Name: "a.txt", Subpath: "a.txt"},
	}}
	b := Tree{Entries: []TreeEntry{
		{Mode: 0o644, Kind: EntryBlob, Hash: "bbbb", Name: "a.txt", Subpath: "a.txt"},
		{Mode: 0o644, Kind: EntryBlob, Hash: "aaaa", Name: "b.txt", Subpath: "b.txt"},
	}}

	ab, err := a.CanonicalBytes()
	require.NoError(t, err)
	bb, err := b.CanonicalBytes()
	require.NoError(t, err)
	assert.Equal(t, ab, bb, "tree hash must not depend on caller-supplied entry order")
}

func TestPutTreeGetTreeRoundTrip(t *testing.T) {
	s := newTestStore(t, nil)

	tree := Tree{Entries: []TreeEntry{
		{Mode: 0o644, Kind: EntryBlob, Hash: "aaaa", Name: "note.md", Subpath: "note.md"},
	}}

	hash, err := s.PutTree(tree)
	require.NoError(t, err)

	got, err := s.GetTree(hash)
	require.NoError(t, err)
	assert.Equal(t, tree, got)
}

func TestPutCommitGetCommitRoundTripWithMetadata(t *testing.T) {
	s := newTestStore(t, nil)

	c := Commit{
		TreeHash: "sometreehash",
		Parents:  []string{"parent1"},
		Author:   Author{Name: "memvcs", Email: "memvcs@local"},
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Message:  "distill: extracted 3 facts",
		Metadata: map[string]string{"z": "last", "a": "first"},
	}

	hash, err := s.PutCommit(c)
	require.NoError(t, err)

	got, err := s.GetCommit(hash)
	require.NoError(t, err)
	assert.Equal(t, c.TreeHash, got.TreeHash)
	assert.Equal(t, c.Parents, got.Parents)
	assert.Equal(t, c.Metadata, got.Metadata)
}

func TestCommitCanonicalBytesAreMetadataOrderIndependent(t *testing.T) {
	base := Commit{
		TreeHash:  "tree",
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Metadata:  map[string]string{"b": "2", "a": "1"},
	}
	a, err := base.CanonicalBytes()
	require.NoError(t, err)

	base.Metadata = map[string]string{"a": "1", "b": "2"}
	b, err := base.CanonicalBytes()
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestStoreWithEncryptionSealsAndDecryptsTransparently(t *testing.T) {
	cfg, err := crypto.NewConfig()
	require.NoError(t, err)
	key, err := cfg.DeriveKey("hunter2")
	require.NoError(t, err)

	s := newTestStore(t, NewKeySealer(key))

	hash, err := s.PutBlob([]byte("sensitive memory content"))
	require.NoError(t, err)

	got, err := s.GetBlob(hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("sensitive memory content"), got)
}

func TestStoreEncryptedObjectFailsWithoutKey(t *testing.T) {
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	cfg, err := crypto.NewConfig()
	require.NoError(t, err)
	key, err := cfg.DeriveKey("correct-passphrase")
	require.NoError(t, err)

	sealed := New(adapter, NewKeySealer(key))
	hash, err := sealed.PutBlob([]byte("top secret"))
	require.NoError(t, err)

	unsealed := New(adapter, nil)
	_, err = unsealed.GetBlob(hash)
	assert.Error(t, err, "reading a sealed object without decryption must fail loudly, not return garbage")
}

func TestObjectAddressIsStableRegardlessOfEncryption(t *testing.T) {
	plaintext := []byte("the content address must not depend on encryption")

	plain := newTestStore(t, nil)
	plainHash, err := plain.PutBlob(plaintext)
	require.NoError(t, err)

	cfg, err := crypto.NewConfig()
	require.NoError(t, err)
	key, err := cfg.DeriveKey("pw")
	require.NoError(t, err)
	encrypted := newTestStore(t, NewKeySealer(key))
	encryptedHash, err := encrypted.PutBlob(plaintext)
	require.NoError(t, err)

	assert.Equal(t, plainHash, encryptedHash, "I1: content address is taken over plaintext bytes")
}
