package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Source kinds.
const (
	SourceFile     = "file"
	SourceHub      = "hub"
	SourcePostgres = "postgres"
	SourceNone     = "none"
)

const (
	defaultHubURL        = "https://datasets-server.huggingface.co"
	defaultDataset       = "ExtarLearn/questions"
	defaultHubConfig     = "default"
	defaultSplit         = "train"
	defaultHubPageSize   = 100
	defaultPostgresQuery = "SELECT content, metadata FROM questions ORDER BY id"
)

// Config selects the corpus source.
type Config struct {
	Source  string `json:"source"`
	Path    string `json:"path,omitempty"`
	HubURL  string `json:"hub_url,omitempty"`
	Dataset string `json:"dataset,omitempty"`
	Config  string `json:"config,omitempty"`
	Split   string `json:"split,omitempty"`
	DSN     string `json:"dsn,omitempty"`
	Query   string `json:"query,omitempty"`
}

// DefaultConfig loads the ExtarLearn/questions train split from the hub.
func DefaultConfig() Config {
	return Config{
		Source:  SourceHub,
		HubURL:  defaultHubURL,
		Dataset: defaultDataset,
		Config:  defaultHubConfig,
		Split:   defaultSplit,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Source != "" {
		c.Source = source.Source
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.HubURL != "" {
		c.HubURL = source.HubURL
	}
	if source.Dataset != "" {
		c.Dataset = source.Dataset
	}
	if source.Config != "" {
		c.Config = source.Config
	}
	if source.Split != "" {
		c.Split = source.Split
	}
	if source.DSN != "" {
		c.DSN = source.DSN
	}
	if source.Query != "" {
		c.Query = source.Query
	}
}

// NewSource creates the Source named by cfg.Source. The "none" source yields
// an empty corpus.
func NewSource(cfg *Config) (Source, error) {
	switch cfg.Source {
	case SourceFile:
		return FileSource{Path: cfg.Path}, nil
	case SourceHub:
		return HubSource{
			BaseURL: cfg.HubURL,
			Dataset: cfg.Dataset,
			Config:  cfg.Config,
			Split:   cfg.Split,
			Token:   os.Getenv("HF_TOKEN"),
		}, nil
	case SourcePostgres:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		return PostgresSource{DSN: dsn, Query: cfg.Query}, nil
	case SourceNone, "":
		return emptySource{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, cfg.Source)
	}
}

type emptySource struct{}

func (emptySource) Load(context.Context) ([]Record, error) { return nil, nil }

// Load reads the configured corpus and builds an Index from it.
func Load(ctx context.Context, cfg *Config, logger *slog.Logger) (*Index, error) {
	src, err := NewSource(cfg)
	if err != nil {
		return nil, err
	}
	records, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Build(records, logger), nil
}
