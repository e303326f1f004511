// Package config holds configuration types shared by the agent factory and
// the provider backends.
package config

import (
	"os"
	"time"
)

// Provider names understood by the agent factory.
const (
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// GroqBaseURL is the OpenAI-compatible endpoint used for the groq provider.
const GroqBaseURL = "https://api.groq.com/openai/v1"

const (
	defaultModel     = "qwen/qwen3-32b"
	defaultMaxTokens = 4096
	defaultTimeout   = 2 * time.Minute
)

var apiKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderGroq:      "GROQ_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

// AgentConfig selects and parameterizes a model backend.
type AgentConfig struct {
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	BaseURL     string   `json:"base_url,omitempty"`
	APIKey      string   `json:"api_key,omitempty"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Timeout     Duration `json:"timeout,omitempty"`
}

// DefaultAgentConfig targets Groq's qwen3-32b at temperature 0.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Provider:  ProviderGroq,
		Model:     defaultModel,
		BaseURL:   GroqBaseURL,
		MaxTokens: defaultMaxTokens,
		Timeout:   Duration(defaultTimeout),
	}
}

// Merge applies non-zero values from source into c. Switching provider
// clears the base URL unless source sets one.
func (c *AgentConfig) Merge(source *AgentConfig) {
	if source.Provider != "" && source.Provider != c.Provider {
		c.Provider = source.Provider
		c.BaseURL = ""
		if source.Provider == ProviderGroq {
			c.BaseURL = GroqBaseURL
		}
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Temperature > 0 {
		c.Temperature = source.Temperature
	}
	if source.MaxTokens > 0 {
		c.MaxTokens = source.MaxTokens
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
}

// ResolveAPIKey returns the configured key, falling back to the provider's
// environment variable.
func (c *AgentConfig) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if env, ok := apiKeyEnv[c.Provider]; ok {
		return os.Getenv(env)
	}
	return ""
}

// APIKeyEnv returns the environment variable consulted for provider.
func APIKeyEnv(provider string) string {
	return apiKeyEnv[provider]
}
