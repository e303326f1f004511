// Package builtin provides the tools offered to the model: arithmetic, web
// and encyclopedia search, simulated weather, and spreadsheet summaries for
// the file attached to the active session.
package builtin

import (
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/tailored-agentic-units/alfred/core/config"
	"github.com/tailored-agentic-units/alfred/core/protocol"
	"github.com/tailored-agentic-units/alfred/memory"
	"github.com/tailored-agentic-units/alfred/tools"
)

// Tool names.
const (
	WebSearch     = "web_search"
	WikiSearch    = "wiki_search"
	ReadExcelFile = "read_excel_file"
	WeatherInfo   = "get_weather_info"
	Add           = "add"
	Divide        = "divide"
)

const (
	defaultTavilyURL    = "https://api.tavily.com"
	defaultWikipediaURL = "https://en.wikipedia.org/w/api.php"
	defaultFilesURL     = "https://agents-course-unit4-scoring.hf.space"
	defaultTimeout      = 30 * time.Second
)

// Config holds provider endpoints and credentials for the builtin tools.
type Config struct {
	TavilyURL    string          `json:"tavily_url,omitempty"`
	TavilyAPIKey string          `json:"tavily_api_key,omitempty"`
	WikipediaURL string          `json:"wikipedia_url,omitempty"`
	FilesURL     string          `json:"files_url,omitempty"`
	Timeout      config.Duration `json:"timeout,omitempty"`
}

// DefaultConfig returns the public provider endpoints.
func DefaultConfig() Config {
	return Config{
		TavilyURL:    defaultTavilyURL,
		WikipediaURL: defaultWikipediaURL,
		FilesURL:     defaultFilesURL,
		Timeout:      config.Duration(defaultTimeout),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.TavilyURL != "" {
		c.TavilyURL = source.TavilyURL
	}
	if source.TavilyAPIKey != "" {
		c.TavilyAPIKey = source.TavilyAPIKey
	}
	if source.WikipediaURL != "" {
		c.WikipediaURL = source.WikipediaURL
	}
	if source.FilesURL != "" {
		c.FilesURL = source.FilesURL
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
}

// Toolset binds the builtin tool handlers to their providers.
type Toolset struct {
	web     WebSearcher
	wiki    WikiSearcher
	files   Downloader
	cache   *memory.Cache
	pick    func(n int) int
	tempDir string
	logger  *slog.Logger
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithWebSearcher overrides the Tavily client.
func WithWebSearcher(s WebSearcher) Option {
	return func(t *Toolset) { t.web = s }
}

// WithWikiSearcher overrides the Wikipedia client.
func WithWikiSearcher(s WikiSearcher) Option {
	return func(t *Toolset) { t.wiki = s }
}

// WithDownloader overrides the task file client.
func WithDownloader(d Downloader) Option {
	return func(t *Toolset) { t.files = d }
}

// WithCache caches search results. A nil cache disables caching.
func WithCache(c *memory.Cache) Option {
	return func(t *Toolset) { t.cache = c }
}

// WithRand sets the random source used by get_weather_info.
func WithRand(r *rand.Rand) Option {
	return func(t *Toolset) { t.pick = r.IntN }
}

// WithTempDir sets where downloaded spreadsheets are staged.
func WithTempDir(dir string) Option {
	return func(t *Toolset) { t.tempDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Toolset) { t.logger = l }
}

// New creates a Toolset whose providers are built from cfg. The Tavily key
// falls back to TAVILY_API_KEY.
func New(cfg *Config, opts ...Option) *Toolset {
	client := &http.Client{Timeout: cfg.Timeout.Std()}

	t := &Toolset{
		web:    NewTavilyClient(cfg.TavilyURL, cfg.TavilyAPIKey, client),
		wiki:   NewWikipediaClient(cfg.WikipediaURL, client),
		files:  NewFileClient(cfg.FilesURL, client),
		pick:   rand.IntN,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register adds every builtin tool to reg in catalog order.
func (t *Toolset) Register(reg *tools.Registry) error {
	for _, b := range t.bindings() {
		if err := reg.Register(b.tool, b.handler); err != nil {
			return err
		}
	}
	return nil
}

type binding struct {
	tool    protocol.Tool
	handler tools.Handler
}

func (t *Toolset) bindings() []binding {
	return []binding{
		{
			tool: protocol.NewTool(WebSearch,
				"Perform a live web search using Tavily. Best for finding current information, recent news, specific facts, or details that might not be in general knowledge databases. Returns a string containing the content, title, and source URL of up to 3 relevant web pages.",
				protocol.Param{Name: "query", Type: protocol.TypeString, Description: "The search query to send to the web search engine.", Required: true},
			),
			handler: t.webSearch,
		},
		{
			tool: protocol.NewTool(WikiSearch,
				"Search Wikipedia for information. Excellent for historical information, biographies, scientific concepts, or well-established topics. Uses the latest available version of English Wikipedia. Returns a string containing the content and metadata (source, page) of up to 2 relevant Wikipedia articles.",
				protocol.Param{Name: "query", Type: protocol.TypeString, Description: "The search query.", Required: true},
			),
			handler: t.wikiSearch,
		},
		{
			tool: protocol.NewTool(ReadExcelFile,
				"Analyze the Excel file attached to the current task and return its shape, column names and summary statistics.",
				protocol.Param{Name: "task_id", Type: protocol.TypeString, Description: "Identifier of the task whose file should be read.", Required: true},
			),
			handler: t.readExcelFile,
		},
		{
			tool: protocol.NewTool(WeatherInfo,
				"Fetches dummy weather information for a given location.",
				protocol.Param{Name: "location", Type: protocol.TypeString, Required: true},
			),
			handler: t.weatherInfo,
		},
		{
			tool: protocol.NewTool(Add,
				"Add two numbers.",
				protocol.Param{Name: "a", Type: protocol.TypeInteger, Required: true},
				protocol.Param{Name: "b", Type: protocol.TypeInteger, Required: true},
			),
			handler: add,
		},
		{
			tool: protocol.NewTool(Divide,
				"Divide a and b - for Master Wayne's occasional calculations.",
				protocol.Param{Name: "a", Type: protocol.TypeInteger, Required: true},
				protocol.Param{Name: "b", Type: protocol.TypeInteger, Required: true},
			),
			handler: divide,
		},
	}
}
