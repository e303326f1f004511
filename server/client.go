package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"
)

// Answer is the decoded reply of a remote Run.
type Answer struct {
	Answer     string
	Iterations int
	SessionID  string
}

// Client calls the Run procedure of a remote server.
type Client struct {
	run *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a Client for the server at baseURL using the JSON codec.
// A nil httpClient uses http.DefaultClient.
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		run: connect.NewClient[structpb.Struct, structpb.Struct](
			httpClient,
			strings.TrimSuffix(baseURL, "/")+RunProcedure,
			connect.WithProtoJSON(),
		),
	}
}

// Run asks the remote server to answer query.
func (c *Client) Run(ctx context.Context, query, sessionID string) (*Answer, error) {
	msg, err := structpb.NewStruct(map[string]any{
		"query":      query,
		"session_id": sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	res, err := c.run.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}

	fields := res.Msg.GetFields()
	return &Answer{
		Answer:     fields["answer"].GetStringValue(),
		Iterations: int(fields["iterations"].GetNumberValue()),
		SessionID:  fields["session_id"].GetStringValue(),
	}, nil
}
