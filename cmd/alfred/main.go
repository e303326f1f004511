// Command alfred answers questions with a tool-using language model agent.
//
//	alfred run "What is 12 divided by 4?"
//	alfred serve --addr :8080
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/alfred/kernel"
	"github.com/tailored-agentic-units/alfred/memory"
	"github.com/tailored-agentic-units/alfred/retrieval"
)

var rootCmd = &cobra.Command{
	Use:           "alfred",
	Short:         "Alfred answers questions using tools and similar solved examples",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		return nil
	},
}

func init() {
	addConfigFlags(rootCmd)
}

// addConfigFlags defines the flags read by loadConfig and newLogger.
func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to config JSON file")
	flags.String("env-file", ".env", "Environment file loaded before running")
	flags.String("provider", "", "Model provider: openai, groq, anthropic, gemini, ollama (overrides config)")
	flags.String("model", "", "Model name (overrides config)")
	flags.String("base-url", "", "Model endpoint base URL (overrides config)")
	flags.String("system-prompt", "", "System prompt (overrides config)")
	flags.String("corpus", "", "Path to a JSON Lines corpus of solved examples (overrides config)")
	flags.String("corpus-source", "", "Corpus source: file, hub, postgres, none (overrides config)")
	flags.String("cache", "", "Directory for the tool result cache (overrides config)")
	flags.Int("max-iterations", -1, "Maximum model calls per run; 0 for unlimited (overrides config)")
	flags.BoolP("verbose", "v", false, "Enable verbose logging to stderr")
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*kernel.Config, error) {
	flags := cmd.Flags()

	cfg := kernel.DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := kernel.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	var override kernel.Config
	override.Agent.Provider, _ = flags.GetString("provider")
	override.Agent.Model, _ = flags.GetString("model")
	override.Agent.BaseURL, _ = flags.GetString("base-url")
	override.SystemPrompt, _ = flags.GetString("system-prompt")
	override.Retrieval.Source, _ = flags.GetString("corpus-source")
	override.Retrieval.Path, _ = flags.GetString("corpus")
	if override.Retrieval.Path != "" && override.Retrieval.Source == "" {
		override.Retrieval.Source = retrieval.SourceFile
	}
	if dir, _ := flags.GetString("cache"); dir != "" {
		override.Memory.Backend = memory.BackendFile
		override.Memory.Path = dir
	}
	cfg.Merge(&override)

	if n, _ := flags.GetInt("max-iterations"); n >= 0 {
		cfg.MaxIterations = n
	}

	return &cfg, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
