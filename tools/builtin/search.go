package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/alfred/memory"
	"github.com/tailored-agentic-units/alfred/tools"
)

const (
	maxWebResults   = 3
	maxWikiPages    = 2
	maxWikiChars    = 4000
	resultSeparator = "\n\n---\n\n"
)

type queryArgs struct {
	Query string `json:"query"`
}

func decodeQuery(args json.RawMessage) (string, error) {
	var in queryArgs
	if err := tools.DecodeArgs(args, &in); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("%w: query is required", tools.ErrInvalidArgs)
	}
	return in.Query, nil
}

func (t *Toolset) webSearch(ctx context.Context, _ *tools.SessionContext, args json.RawMessage) (tools.Result, error) {
	query, err := decodeQuery(args)
	if err != nil {
		return tools.Result{}, err
	}

	results, err := memory.Fetch(ctx, t.cache, memory.NamespaceWebSearch, query,
		func(ctx context.Context) ([]WebResult, error) {
			return t.web.Search(ctx, query, maxWebResults)
		})
	if err != nil {
		return tools.Result{}, err
	}

	t.logger.DebugContext(ctx, "web search complete", "query", query, "results", len(results))
	return encodeResults("web_results", FormatWebResults(results))
}

func (t *Toolset) wikiSearch(ctx context.Context, _ *tools.SessionContext, args json.RawMessage) (tools.Result, error) {
	query, err := decodeQuery(args)
	if err != nil {
		return tools.Result{}, err
	}

	pages, err := memory.Fetch(ctx, t.cache, memory.NamespaceWikiSearch, query,
		func(ctx context.Context) ([]WikiPage, error) {
			return t.wiki.Search(ctx, query, maxWikiPages)
		})
	if err != nil {
		return tools.Result{}, err
	}

	t.logger.DebugContext(ctx, "wiki search complete", "query", query, "pages", len(pages))
	return encodeResults("wiki_results", FormatWikiPages(pages))
}

func encodeResults(key, blocks string) (tools.Result, error) {
	data, err := json.Marshal(map[string]string{key: blocks})
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Result{Content: string(data)}, nil
}

// FormatWebResults renders web hits as Document blocks.
func FormatWebResults(results []WebResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		content := r.Content
		if content == "" {
			content = "No content available"
		}
		blocks[i] = fmt.Sprintf("<Document source=\"%s\" title=\"%s\">\n%s\n</Document>", r.URL, r.Title, content)
	}
	return strings.Join(blocks, resultSeparator)
}

// FormatWikiPages renders articles as Document blocks, truncating each to
// 4000 characters.
func FormatWikiPages(pages []WikiPage) string {
	blocks := make([]string, len(pages))
	for i, p := range pages {
		blocks[i] = fmt.Sprintf("<Document source=\"%s\" page=\"%s\"/>\n%s\n</Document>", p.Source, p.Title, truncate(p.Content, maxWikiChars))
	}
	return strings.Join(blocks, resultSeparator)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
