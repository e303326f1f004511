package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/tailored-agentic-units/alfred/tools"
)

// WikiPage is one encyclopedia article.
type WikiPage struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Content string `json:"content"`
}

// WikiSearcher finds at most max articles for a query.
type WikiSearcher interface {
	Search(ctx context.Context, query string, max int) ([]WikiPage, error)
}

// WikipediaClient queries the MediaWiki action API.
type WikipediaClient struct {
	endpoint string
	http     *http.Client
}

// NewWikipediaClient creates a client for the api.php endpoint.
func NewWikipediaClient(endpoint string, client *http.Client) *WikipediaClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &WikipediaClient{endpoint: endpoint, http: client}
}

func (c *WikipediaClient) Search(ctx context.Context, query string, max int) ([]WikiPage, error) {
	var search struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	err := c.get(ctx, url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprint(max)},
		"format":   {"json"},
	}, &search)
	if err != nil {
		return nil, err
	}

	pages := make([]WikiPage, 0, len(search.Query.Search))
	for _, hit := range search.Query.Search {
		page, err := c.page(ctx, hit.Title)
		if err != nil {
			return nil, err
		}
		if page != nil {
			pages = append(pages, *page)
		}
	}
	return pages, nil
}

func (c *WikipediaClient) page(ctx context.Context, title string) (*WikiPage, error) {
	var resp struct {
		Query struct {
			Pages map[string]struct {
				Title   string `json:"title"`
				Extract string `json:"extract"`
				FullURL string `json:"fullurl"`
				Missing any    `json:"missing"`
			} `json:"pages"`
		} `json:"query"`
	}
	err := c.get(ctx, url.Values{
		"action":      {"query"},
		"prop":        {"extracts|info"},
		"explaintext": {"1"},
		"inprop":      {"url"},
		"redirects":   {"1"},
		"titles":      {title},
		"format":      {"json"},
	}, &resp)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Query.Pages))
	for id := range resp.Query.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := resp.Query.Pages[id]
		if p.Missing != nil {
			continue
		}
		return &WikiPage{Title: p.Title, Source: p.FullURL, Content: p.Extract}, nil
	}
	return nil, nil
}

func (c *WikipediaClient) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "alfred/1.0 (https://github.com/tailored-agentic-units/alfred)")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: wikipedia: %w", tools.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: wikipedia: %s", tools.ErrProvider, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: wikipedia: decode: %v", tools.ErrProvider, err)
	}
	return nil
}
