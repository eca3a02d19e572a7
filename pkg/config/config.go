// Package config loads the per-repository configuration file
// (.mem/config.json, §6) and applies environment variable overrides
// for secrets that are never persisted to disk.
package config

import (
	"encoding/json"
	"os"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const (
	configPath = ".mem/config.json"

	envEncryptionPassphrase = "MEMVCS_ENCRYPTION_PASSPHRASE"
	envLLMProvider          = "MEMVCS_LLM_PROVIDER"
	envOpenAIAPIKey         = "MEMVCS_OPENAI_API_KEY"
	envAnthropicAPIKey      = "MEMVCS_ANTHROPIC_API_KEY"
)

// Config is the repository-level configuration persisted at
// .mem/config.json. It never carries secrets: the encryption
// passphrase and LLM API keys are sourced only from the environment.
type Config struct {
	EncryptionEnabled bool    `json:"encryption_enabled"`
	LLMProvider       string  `json:"llm_provider"`
	LLMModel          string  `json:"llm_model"`
	PrivacyEpsilonMax float64 `json:"privacy_epsilon_max"`
	PrivacyDelta      float64 `json:"privacy_delta"`
	DistillCMin       int     `json:"distill_cluster_min"`
	DistillCMax       int     `json:"distill_cluster_max"`
	DistillCChar      int     `json:"distill_chunk_chars"`
	SafetyBranchMode  bool    `json:"safety_branch_mode"`

	SessionMaxObservations   int `json:"session_max_observations_per_commit"`
	SessionCommitIntervalSec int `json:"session_commit_interval_seconds"`
	SessionMinObservations   int `json:"session_min_observations_for_commit"`
}

// Secrets holds values sourced only from the process environment,
// never written to .mem/config.json or logged.
type Secrets struct {
	EncryptionPassphrase string
	LLMProviderOverride  string
	OpenAIAPIKey         string
	AnthropicAPIKey      string
}

// Default returns the configuration a freshly initialized repository
// starts with.
func Default() Config {
	return Config{
		EncryptionEnabled: false,
		LLMProvider:       "heuristic",
		PrivacyEpsilonMax: 1.0,
		PrivacyDelta:      1e-5,
		DistillCMin:       3,
		DistillCMax:       20,
		DistillCChar:      2000,
		SafetyBranchMode:  true,

		SessionMaxObservations:   50,
		SessionCommitIntervalSec: 900,
		SessionMinObservations:   3,
	}
}

// Load reads .mem/config.json, or returns Default() if the repository
// has none yet.
func Load(adapter storageadapter.Adapter) (Config, error) {
	if !adapter.Exists(configPath) {
		return Default(), nil
	}
	data, err := adapter.Read(configPath)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, memerrs.Wrap(memerrs.ErrConfig, "decode repository config", err)
	}
	return cfg, nil
}

// Save persists cfg to .mem/config.json.
func Save(adapter storageadapter.Adapter, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrConfig, "encode repository config", err)
	}
	return adapter.Write(configPath, data)
}

// LoadSecrets reads the environment variables that configure secrets
// the core never persists (§6).
func LoadSecrets() Secrets {
	return Secrets{
		EncryptionPassphrase: os.Getenv(envEncryptionPassphrase),
		LLMProviderOverride:  os.Getenv(envLLMProvider),
		OpenAIAPIKey:         os.Getenv(envOpenAIAPIKey),
		AnthropicAPIKey:      os.Getenv(envAnthropicAPIKey),
	}
}

// EffectiveLLMProvider resolves which provider name governs a run: an
// environment override always wins over the persisted config.
func (c Config) EffectiveLLMProvider(s Secrets) string {
	if s.LLMProviderOverride != "" {
		return s.LLMProviderOverride
	}
	if c.LLMProvider == "" {
		return "heuristic"
	}
	return c.LLMProvider
}
