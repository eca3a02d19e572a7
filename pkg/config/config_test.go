package config

import (
	"testing"

	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReturnsDefaultWhenUnconfigured(t *testing.T) {
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	cfg, err := Load(adapter)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	adapter, err := storageadapter.NewLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	cfg := Default()
	cfg.LLMProvider = "openai"
	cfg.PrivacyEpsilonMax = 2.5
	require.NoError(t, Save(adapter, cfg))

	loaded, err := Load(adapter)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEffectiveLLMProviderPrefersEnvOverride(t *testing.T) {
	cfg := Default()
	cfg.LLMProvider = "heuristic"

	assert.Equal(t, "openai", cfg.EffectiveLLMProvider(Secrets{LLMProviderOverride: "openai"}))
	assert.Equal(t, "heuristic", cfg.EffectiveLLMProvider(Secrets{}))
}
