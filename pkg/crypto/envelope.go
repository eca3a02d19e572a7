package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"golang.org/x/crypto/argon2"
)

const (
	// KeyLen is the derived-key length for AES-256.
	KeyLen = 32
	// SaltLen is the length of the random salt generated at init time.
	SaltLen = 16
	// ivLen is the length of the random nonce prepended to ciphertext.
	ivLen = 12
	// tagLen is the GCM authentication tag length.
	tagLen = 16
	// minSealedLen is the shortest a sealed payload can legally be.
	minSealedLen = ivLen + tagLen

	// ConfigPath is the repo-relative path to the encryption config.
	ConfigPath = ".mem/encryption.json"

	defaultTimeCost    = uint32(3)
	defaultMemoryCost  = uint32(64 * 1024) // 64 MiB
	defaultParallelism = uint8(4)
)

// Config is the persisted Argon2id configuration (§4.3 Encryption
// config). The passphrase is never part of it and never touches disk.
type Config struct {
	SaltHex     string `json:"salt_hex"`
	TimeCost    uint32 `json:"time_cost"`
	MemoryCost  uint32 `json:"memory_cost"`
	Parallelism uint8  `json:"parallelism"`
}

// NewConfig generates a fresh random salt with default Argon2id cost
// parameters, suitable for repository initialization.
func NewConfig() (Config, error) {
	salt := make([]byte, SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return Config{}, memerrs.Wrap(memerrs.ErrConfig, "generate salt", err)
	}
	return Config{
		SaltHex:     hex.EncodeToString(salt),
		TimeCost:    defaultTimeCost,
		MemoryCost:  defaultMemoryCost,
		Parallelism: defaultParallelism,
	}, nil
}

// Salt decodes the persisted hex salt back to raw bytes.
func (c Config) Salt() ([]byte, error) {
	salt, err := hex.DecodeString(c.SaltHex)
	if err != nil {
		return nil, memerrs.Wrap(memerrs.ErrConfig, "decode salt", err)
	}
	return salt, nil
}

// DeriveKey runs Argon2id over passphrase with c's parameters,
// producing a 32-byte AES-256 key. The passphrase itself is never
// retained by this function's caller-visible state.
func (c Config) DeriveKey(passphrase string) ([]byte, error) {
	salt, err := c.Salt()
	if err != nil {
		return nil, err
	}
	return argon2.IDKey([]byte(passphrase), salt, c.TimeCost, c.MemoryCost, c.Parallelism, KeyLen), nil
}

// LoadConfig reads the encryption config from adapter, if present.
func LoadConfig(adapter storageadapter.Adapter) (Config, bool, error) {
	if !adapter.Exists(ConfigPath) {
		return Config{}, false, nil
	}
	data, err := adapter.Read(ConfigPath)
	if err != nil {
		return Config{}, false, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, false, memerrs.Wrap(memerrs.ErrIntegrity, "decode encryption config", err)
	}
	return cfg, true, nil
}

// SaveConfig persists cfg to adapter.
func SaveConfig(adapter storageadapter.Adapter, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrConfig, "encode encryption config", err)
	}
	return adapter.Write(ConfigPath, data)
}

// Seal encrypts plaintext with AES-256-GCM under key, prepending a
// fresh 12-byte IV so identical plaintexts yield distinct ciphertexts
// (§4.4). aad is always empty per the spec's sealing contract.
func Seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, "create cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, "create gcm", err)
	}

	iv := make([]byte, ivLen)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, "generate iv", err)
	}

	sealed := gcm.Seal(iv, iv, plaintext, nil)
	return sealed, nil
}

// Open authenticates and decrypts a payload produced by Seal. Any
// failure — too short, wrong key, flipped tag or ciphertext bit —
// surfaces as memerrs.ErrIntegrity, never as corrupted plaintext (I7).
func Open(key, sealed []byte) ([]byte, error) {
	if len(sealed) < minSealedLen {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, fmt.Sprintf("sealed payload too short: %d bytes", len(sealed)), nil)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, "create cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, "create gcm", err)
	}

	iv, ciphertext := sealed[:ivLen], sealed[ivLen:]
	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, "authenticated decryption failed", err)
	}
	return plaintext, nil
}
