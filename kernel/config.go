package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/alfred/core/config"
	"github.com/tailored-agentic-units/alfred/memory"
	"github.com/tailored-agentic-units/alfred/retrieval"
	"github.com/tailored-agentic-units/alfred/tools/builtin"
)

const (
	defaultMaxIterations = 10
	defaultRetrievalK    = 3
)

// DefaultSystemPrompt asks for answers in the "FINAL ANSWER: ..." template.
const DefaultSystemPrompt = `You are a helpful assistant tasked with answering questions using a set of tools.
Report your thoughts, and finish your answer with the following template:
FINAL ANSWER: [YOUR FINAL ANSWER].
YOUR FINAL ANSWER should be a number OR as few words as possible OR a comma separated list of numbers and/or strings.
If you are asked for a number, don't use comma to write your number neither use units such as $ or percent sign unless specified otherwise.
If you are asked for a string, don't use articles, neither abbreviations (e.g. for cities), and write the digits in plain text unless specified otherwise.
If you are asked for a comma separated list, apply the above rules depending of whether the element to be put in the list is a number or a string.
Your answer should only start with "FINAL ANSWER: ", then follows with your answer.`

// Config holds initialization parameters for all kernel subsystems.
// Each subsystem section delegates to that subsystem's config-driven constructor.
type Config struct {
	Agent            config.AgentConfig `json:"agent"`
	Tools            builtin.Config     `json:"tools"`
	Retrieval        retrieval.Config   `json:"retrieval"`
	Memory           memory.Config      `json:"memory"`
	MaxIterations    int                `json:"max_iterations,omitempty"`
	RetrievalK       int                `json:"retrieval_k,omitempty"`
	ParallelTools    *bool              `json:"parallel_tools,omitempty"`
	SystemPrompt     string             `json:"system_prompt,omitempty"`
	SystemPromptFile string             `json:"system_prompt_file,omitempty"`
	Observers        []string           `json:"observers,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	parallel := true
	return Config{
		Agent:         config.DefaultAgentConfig(),
		Tools:         builtin.DefaultConfig(),
		Retrieval:     retrieval.DefaultConfig(),
		Memory:        memory.DefaultConfig(),
		MaxIterations: defaultMaxIterations,
		RetrievalK:    defaultRetrievalK,
		ParallelTools: &parallel,
		SystemPrompt:  DefaultSystemPrompt,
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Agent.Merge(&source.Agent)
	c.Tools.Merge(&source.Tools)
	c.Retrieval.Merge(&source.Retrieval)
	c.Memory.Merge(&source.Memory)

	if source.MaxIterations > 0 {
		c.MaxIterations = source.MaxIterations
	}
	if source.RetrievalK > 0 {
		c.RetrievalK = source.RetrievalK
	}
	if source.ParallelTools != nil {
		parallel := *source.ParallelTools
		c.ParallelTools = &parallel
	}
	if source.SystemPrompt != "" {
		c.SystemPrompt = source.SystemPrompt
	}
	if source.SystemPromptFile != "" {
		c.SystemPromptFile = source.SystemPromptFile
	}
	if len(source.Observers) > 0 {
		c.Observers = source.Observers
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config. A system_prompt_file, relative to the config file's
// directory unless absolute, is resolved into SystemPrompt.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)

	if cfg.SystemPromptFile != "" {
		path := cfg.SystemPromptFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(filename), path)
		}
		prompt, err := LoadSystemPrompt(path)
		if err != nil {
			return nil, err
		}
		cfg.SystemPrompt = prompt
	}

	return &cfg, nil
}

// LoadSystemPrompt reads the SYSTEM_PROMPT key from a YAML file.
func LoadSystemPrompt(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt file: %w", err)
	}

	var doc struct {
		SystemPrompt string `yaml:"SYSTEM_PROMPT"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse system prompt file: %w", err)
	}
	if doc.SystemPrompt == "" {
		return "", fmt.Errorf("system prompt file %s has no SYSTEM_PROMPT key", filename)
	}
	return doc.SystemPrompt, nil
}
