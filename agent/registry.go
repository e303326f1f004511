package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tailored-agentic-units/alfred/agent/anthropic"
	"github.com/tailored-agentic-units/alfred/agent/gemini"
	"github.com/tailored-agentic-units/alfred/agent/ollama"
	"github.com/tailored-agentic-units/alfred/agent/openai"
	"github.com/tailored-agentic-units/alfred/core/config"
)

// Factory builds an Agent from configuration.
type Factory func(cfg *config.AgentConfig) (Agent, error)

var (
	providers = map[string]Factory{
		config.ProviderOpenAI:    func(cfg *config.AgentConfig) (Agent, error) { return openai.New(cfg) },
		config.ProviderGroq:      func(cfg *config.AgentConfig) (Agent, error) { return openai.New(cfg) },
		config.ProviderAnthropic: func(cfg *config.AgentConfig) (Agent, error) { return anthropic.New(cfg) },
		config.ProviderGemini:    func(cfg *config.AgentConfig) (Agent, error) { return gemini.New(cfg) },
		config.ProviderOllama:    func(cfg *config.AgentConfig) (Agent, error) { return ollama.New(cfg) },
	}
	mu sync.RWMutex
)

// New creates an Agent for cfg.Provider.
func New(cfg *config.AgentConfig) (Agent, error) {
	if cfg.Provider == "" {
		return nil, ErrEmptyProvider
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: provider %s", ErrMissingModel, cfg.Provider)
	}

	mu.RLock()
	factory, exists := providers[cfg.Provider]
	mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	a, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s agent: %w", cfg.Provider, err)
	}
	return a, nil
}

// Register adds a provider factory. Built-in providers cannot be shadowed;
// use Replace for that.
func Register(name string, factory Factory) error {
	if name == "" {
		return ErrEmptyProvider
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := providers[name]; exists {
		return fmt.Errorf("%w: %s", ErrProviderExists, name)
	}

	providers[name] = factory
	return nil
}

// Replace swaps the factory of an existing provider.
func Replace(name string, factory Factory) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := providers[name]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	providers[name] = factory
	return nil
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
