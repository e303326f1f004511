package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/tailored-agentic-units/alfred/tools"
)

// WebResult is one web search hit.
type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// WebSearcher runs a web search returning at most max results.
type WebSearcher interface {
	Search(ctx context.Context, query string, max int) ([]WebResult, error)
}

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewTavilyClient creates a client. An empty apiKey falls back to
// TAVILY_API_KEY at request time.
func NewTavilyClient(baseURL, apiKey string, client *http.Client) *TavilyClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &TavilyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    client,
	}
}

func (c *TavilyClient) Search(ctx context.Context, query string, max int) ([]WebResult, error) {
	key := c.apiKey
	if key == "" {
		key = os.Getenv("TAVILY_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("%w: tavily: missing api key (set TAVILY_API_KEY)", tools.ErrProvider)
	}

	body, err := json.Marshal(map[string]any{
		"query":       query,
		"max_results": max,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: tavily: %w", tools.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tavily: %s", tools.ErrProvider, resp.Status)
	}

	var out struct {
		Results []WebResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: tavily: decode: %v", tools.ErrProvider, err)
	}

	if len(out.Results) > max {
		out.Results = out.Results[:max]
	}
	return out.Results, nil
}
