package retrieval

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUnknownSource = errors.New("unknown corpus source")
	ErrSourceFailed  = errors.New("corpus source failed")
)

// Source loads raw corpus records.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
}

// FileSource reads records from a JSON Lines file, one
// {"content": ..., "metadata": ...} object per line.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFailed, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrSourceFailed, s.Path, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFailed, err)
	}
	return records, nil
}

// HubSource pages through a Hugging Face dataset split with the
// datasets-server /rows API.
type HubSource struct {
	BaseURL  string
	Dataset  string
	Config   string
	Split    string
	PageSize int
	Token    string
	Client   *http.Client
}

type hubPage struct {
	Rows []struct {
		Row Record `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

func (s HubSource) Load(ctx context.Context) ([]Record, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = defaultHubPageSize
	}

	var records []Record
	for offset := 0; ; offset += pageSize {
		page, err := s.fetch(ctx, client, offset, pageSize)
		if err != nil {
			return nil, err
		}
		for _, r := range page.Rows {
			records = append(records, r.Row)
		}
		if len(page.Rows) == 0 || offset+len(page.Rows) >= page.NumRowsTotal {
			return records, nil
		}
	}
}

func (s HubSource) fetch(ctx context.Context, client *http.Client, offset, length int) (*hubPage, error) {
	q := url.Values{}
	q.Set("dataset", s.Dataset)
	q.Set("config", s.Config)
	q.Set("split", s.Split)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("length", strconv.Itoa(length))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(s.BaseURL, "/")+"/rows?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFailed, err)
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrSourceFailed, s.Dataset, resp.Status)
	}

	var page hubPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode rows: %v", ErrSourceFailed, err)
	}
	return &page, nil
}

// PostgresSource reads records from a table whose query yields content and
// metadata columns.
type PostgresSource struct {
	DSN   string
	Query string
}

func (s PostgresSource) Load(ctx context.Context) ([]Record, error) {
	pool, err := pgxpool.New(ctx, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrSourceFailed, err)
	}
	defer pool.Close()

	query := s.Query
	if query == "" {
		query = defaultPostgresQuery
	}

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrSourceFailed, err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[Record])
	if err != nil {
		return nil, fmt.Errorf("%w: scan: %v", ErrSourceFailed, err)
	}
	return records, nil
}
