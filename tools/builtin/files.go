package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Downloader streams the file attached to a task into w.
type Downloader interface {
	Download(ctx context.Context, taskID string, w io.Writer) error
}

// FileClient fetches task files from GET {base}/files/{id}.
type FileClient struct {
	baseURL string
	http    *http.Client
}

// NewFileClient creates a client for the scoring service file endpoint.
func NewFileClient(baseURL string, client *http.Client) *FileClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &FileClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

func (c *FileClient) Download(ctx context.Context, taskID string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+url.PathEscape(taskID), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /files/%s: %s", taskID, resp.Status)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}
