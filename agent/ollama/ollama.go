// Package ollama implements the agent contract on a local Ollama server via
// the /api/chat endpoint with tools.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/tailored-agentic-units/alfred/core/config"
	"github.com/tailored-agentic-units/alfred/core/protocol"
)

const defaultHost = "http://localhost:11434"

// Agent talks to an Ollama server.
type Agent struct {
	client      *api.Client
	model       string
	temperature float64
	maxTokens   int
}

// New creates an Agent from cfg. The host comes from cfg.BaseURL, then
// OLLAMA_HOST, then the local default.
func New(cfg *config.AgentConfig) (*Agent, error) {
	host := cfg.BaseURL
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultHost
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	httpClient := &http.Client{}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout.Std()
	}

	return &Agent{
		client:      api.NewClient(u, httpClient),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (a *Agent) ID() string {
	return config.ProviderOllama + "/" + a.model
}

// wire shapes shared with the Ollama JSON API; converted into the api
// package types by a JSON round trip.
type wireFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type wireCall struct {
	Function wireFunction `json:"function"`
}

type wireMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []wireCall `json:"tool_calls,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
}

func (a *Agent) Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.AssistantMessage, error) {
	req, err := a.buildRequest(messages, tools)
	if err != nil {
		return protocol.AssistantMessage{}, err
	}

	var (
		content strings.Builder
		calls   []wireCall
	)
	err = a.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if len(resp.Message.ToolCalls) == 0 {
			return nil
		}
		data, err := json.Marshal(resp.Message.ToolCalls)
		if err != nil {
			return err
		}
		var chunk []wireCall
		if err := json.Unmarshal(data, &chunk); err != nil {
			return err
		}
		calls = append(calls, chunk...)
		return nil
	})
	if err != nil {
		return protocol.AssistantMessage{}, err
	}

	out := make([]protocol.ToolCall, 0, len(calls))
	for i, c := range calls {
		args := c.Function.Arguments
		if args == nil {
			args = map[string]any{}
		}
		data, err := json.Marshal(args)
		if err != nil {
			return protocol.AssistantMessage{}, fmt.Errorf("ollama: encode args: %w", err)
		}
		out = append(out, protocol.NewToolCall(fmt.Sprintf("call_%d", i), c.Function.Name, string(data)))
	}

	return protocol.NewAssistant(content.String(), out...), nil
}

func (a *Agent) buildRequest(messages []protocol.Message, tools []protocol.Tool) (*api.ChatRequest, error) {
	wire, err := toWire(messages)
	if err != nil {
		return nil, err
	}

	var msgs []api.Message
	if err := roundTrip(wire, &msgs); err != nil {
		return nil, fmt.Errorf("ollama: encode messages: %w", err)
	}

	var apiTools api.Tools
	if len(tools) > 0 {
		defs := make([]map[string]any, 0, len(tools))
		for _, t := range tools {
			defs = append(defs, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Schema(),
				},
			})
		}
		if err := roundTrip(defs, &apiTools); err != nil {
			return nil, fmt.Errorf("ollama: encode tools: %w", err)
		}
	}

	options := map[string]any{"temperature": a.temperature}
	if a.maxTokens > 0 {
		options["num_predict"] = a.maxTokens
	}

	stream := false
	return &api.ChatRequest{
		Model:    a.model,
		Messages: msgs,
		Tools:    apiTools,
		Stream:   &stream,
		Options:  options,
	}, nil
}

func toWire(messages []protocol.Message) ([]wireMessage, error) {
	out := make([]wireMessage, 0, len(messages))
	for _, msg := range messages {
		switch m := msg.(type) {
		case protocol.SystemMessage:
			out = append(out, wireMessage{Role: "system", Content: m.Content})
		case protocol.HumanMessage:
			out = append(out, wireMessage{Role: "user", Content: m.Content})
		case protocol.AssistantMessage:
			w := wireMessage{Role: "assistant", Content: m.Content}
			for _, tc := range m.ToolCalls {
				args := map[string]any{}
				if strings.TrimSpace(tc.Arguments) != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
						return nil, fmt.Errorf("ollama: tool call %s: %w", tc.ID, err)
					}
				}
				w.ToolCalls = append(w.ToolCalls, wireCall{Function: wireFunction{Name: tc.Name, Arguments: args}})
			}
			out = append(out, w)
		case protocol.ToolResultMessage:
			out = append(out, wireMessage{Role: "tool", Content: m.Content, ToolName: m.Name})
		}
	}
	return out, nil
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
