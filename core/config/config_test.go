package config_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/alfred/core/config"
)

func TestDefaultAgentConfig(t *testing.T) {
	cfg := config.DefaultAgentConfig()

	assert.Equal(t, config.ProviderGroq, cfg.Provider)
	assert.Equal(t, "qwen/qwen3-32b", cfg.Model)
	assert.Equal(t, config.GroqBaseURL, cfg.BaseURL)
	assert.Zero(t, cfg.Temperature)
}

func TestAgentConfig_Merge(t *testing.T) {
	t.Run("provider switch clears base url", func(t *testing.T) {
		cfg := config.DefaultAgentConfig()
		cfg.Merge(&config.AgentConfig{Provider: config.ProviderAnthropic, Model: "claude-sonnet-4-5"})

		assert.Equal(t, config.ProviderAnthropic, cfg.Provider)
		assert.Equal(t, "claude-sonnet-4-5", cfg.Model)
		assert.Empty(t, cfg.BaseURL)
	})

	t.Run("explicit base url wins", func(t *testing.T) {
		cfg := config.DefaultAgentConfig()
		cfg.Merge(&config.AgentConfig{Provider: config.ProviderOllama, BaseURL: "http://localhost:11434"})

		assert.Equal(t, "http://localhost:11434", cfg.BaseURL)
	})

	t.Run("zero values ignored", func(t *testing.T) {
		cfg := config.DefaultAgentConfig()
		cfg.Merge(&config.AgentConfig{})

		assert.Equal(t, config.DefaultAgentConfig(), cfg)
	})
}

func TestAgentConfig_ResolveAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "from-env")

	cfg := config.DefaultAgentConfig()
	assert.Equal(t, "from-env", cfg.ResolveAPIKey())

	cfg.APIKey = "explicit"
	assert.Equal(t, "explicit", cfg.ResolveAPIKey())

	cfg = config.AgentConfig{Provider: config.ProviderOllama}
	assert.Empty(t, cfg.ResolveAPIKey())
}

func TestDuration_JSON(t *testing.T) {
	var cfg config.AgentConfig
	require.NoError(t, json.Unmarshal([]byte(`{"timeout":"90s"}`), &cfg))
	assert.Equal(t, 90*time.Second, cfg.Timeout.Std())

	require.NoError(t, json.Unmarshal([]byte(`{"timeout":1000000000}`), &cfg))
	assert.Equal(t, time.Second, cfg.Timeout.Std())

	assert.Error(t, json.Unmarshal([]byte(`{"timeout":"soon"}`), &cfg))

	data, err := json.Marshal(config.Duration(time.Minute))
	require.NoError(t, err)
	assert.JSONEq(t, `"1m0s"`, string(data))
}
