// Package openai implements the agent contract on the OpenAI chat completions
// API. Any OpenAI-compatible endpoint works, which is how the groq provider
// is served.
package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/tailored-agentic-units/alfred/core/config"
	"github.com/tailored-agentic-units/alfred/core/protocol"
)

// ErrEmptyResponse is returned when the completion has no choices.
var ErrEmptyResponse = errors.New("openai: completion returned no choices")

// Agent talks to an OpenAI-compatible chat completions endpoint.
type Agent struct {
	client      *goopenai.Client
	provider    string
	model       string
	temperature float32
	maxTokens   int
}

// New creates an Agent from cfg. The API key falls back to the provider's
// environment variable.
func New(cfg *config.AgentConfig) (*Agent, error) {
	key := cfg.ResolveAPIKey()
	if key == "" {
		return nil, fmt.Errorf("openai: missing api key (set %s)", config.APIKeyEnv(cfg.Provider))
	}

	clientCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout.Std()}
	}

	// go-openai omits a zero temperature, which providers read as their
	// default of 1.0.
	temperature := float32(cfg.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return &Agent{
		client:      goopenai.NewClientWithConfig(clientCfg),
		provider:    cfg.Provider,
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (a *Agent) ID() string {
	return a.provider + "/" + a.model
}

func (a *Agent) Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.AssistantMessage, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    toMessages(messages),
		Tools:       toTools(tools),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return protocol.AssistantMessage{}, err
	}
	if len(resp.Choices) == 0 {
		return protocol.AssistantMessage{}, ErrEmptyResponse
	}

	return fromMessage(resp.Choices[0].Message), nil
}

func toMessages(messages []protocol.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		switch m := msg.(type) {
		case protocol.SystemMessage:
			out = append(out, goopenai.ChatCompletionMessage{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: m.Content,
			})
		case protocol.HumanMessage:
			out = append(out, goopenai.ChatCompletionMessage{
				Role:    goopenai.ChatMessageRoleUser,
				Content: m.Content,
			})
		case protocol.AssistantMessage:
			wire := goopenai.ChatCompletionMessage{
				Role:    goopenai.ChatMessageRoleAssistant,
				Content: m.Content,
			}
			for _, tc := range m.ToolCalls {
				wire.ToolCalls = append(wire.ToolCalls, goopenai.ToolCall{
					ID:   tc.ID,
					Type: goopenai.ToolTypeFunction,
					Function: goopenai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, wire)
		case protocol.ToolResultMessage:
			out = append(out, goopenai.ChatCompletionMessage{
				Role:       goopenai.ChatMessageRoleTool,
				Content:    m.Content,
				Name:       m.Name,
				ToolCallID: m.CallID,
			})
		}
	}
	return out
}

func toTools(tools []protocol.Tool) []goopenai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]goopenai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema(),
			},
		})
	}
	return out
}

func fromMessage(msg goopenai.ChatCompletionMessage) protocol.AssistantMessage {
	calls := make([]protocol.ToolCall, 0, len(msg.ToolCalls))
	for i, tc := range msg.ToolCalls {
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		calls = append(calls, protocol.NewToolCall(id, tc.Function.Name, args))
	}
	return protocol.NewAssistant(msg.Content, calls...)
}
