package crypto

import "sync"

// KeyCache holds a single derived key in memory for the lifetime of a
// process so a repository's passphrase is only run through Argon2id
// once per process even across many Seal/Open calls. It is never
// persisted and never logged.
type KeyCache struct {
	mu  sync.RWMutex
	key []byte
}

// NewKeyCache returns an empty cache.
func NewKeyCache() *KeyCache {
	return &KeyCache{}
}

// Get returns the cached key and whether one is set.
func (c *KeyCache) Get() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.key == nil {
		return nil, false
	}
	out := make([]byte, len(c.key))
	copy(out, c.key)
	return out, true
}

// Set stores key, replacing any previously cached value.
func (c *KeyCache) Set(key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = make([]byte, len(key))
	copy(c.key, key)
}

// Clear zeroes and drops the cached key, e.g. at process shutdown.
func (c *KeyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.key {
		c.key[i] = 0
	}
	c.key = nil
}
