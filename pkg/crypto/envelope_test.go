package crypto

import (
	"testing"

	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	key, err := cfg.DeriveKey("correct horse battery staple")
	require.NoError(t, err)

	plaintext := []byte("tree abc123\nparent def456\n")
	sealed, err := Seal(key, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, sealed)

	opened, err := Open(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSealProducesDistinctCiphertextForSamePlaintext(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	key, err := cfg.DeriveKey("pw")
	require.NoError(t, err)

	a, err := Seal(key, []byte("same"))
	require.NoError(t, err)
	b, err := Seal(key, []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh IV per call must avoid ciphertext reuse")
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	key1, err := cfg.DeriveKey("pw1")
	require.NoError(t, err)
	key2, err := cfg.DeriveKey("pw2")
	require.NoError(t, err)

	sealed, err := Seal(key1, []byte("secret"))
	require.NoError(t, err)

	_, err = Open(key2, sealed)
	assert.Error(t, err)
}

func TestOpenRejectsFlippedTagByte(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	key, err := cfg.DeriveKey("pw")
	require.NoError(t, err)

	sealed, err := Seal(key, []byte("secret"))
	require.NoError(t, err)

	tampered := make([]byte, len(sealed))
	copy(tampered, sealed)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = Open(key, tampered)
	assert.Error(t, err)
}

func TestOpenRejectsShortPayload(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	key, err := cfg.DeriveKey("pw")
	require.NoError(t, err)

	_, err = Open(key, []byte("short"))
	assert.Error(t, err)
}

func TestDeriveKeyIsDeterministicForSameSaltAndCost(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	k1, err := cfg.DeriveKey("pw")
	require.NoError(t, err)
	k2, err := cfg.DeriveKey("pw")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestLoadSaveConfigRoundTrip(t *testing.T) {
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	_, ok, err := LoadConfig(adapter)
	require.NoError(t, err)
	assert.False(t, ok)

	cfg, err := NewConfig()
	require.NoError(t, err)
	require.NoError(t, SaveConfig(adapter, cfg))

	loaded, ok, err := LoadConfig(adapter)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cfg, loaded)
}

func TestKeyCacheGetSetClear(t *testing.T) {
	c := NewKeyCache()
	_, ok := c.Get()
	assert.False(t, ok)

	c.Set([]byte{1, 2, 3, 4})
	key, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, key)

	c.Clear()
	_, ok = c.Get()
	assert.False(t, ok)
}
