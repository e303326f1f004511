// Package anthropic implements the agent contract on the Anthropic Messages
// API using tool_use and tool_result content blocks.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tailored-agentic-units/alfred/core/config"
	"github.com/tailored-agentic-units/alfred/core/protocol"
)

const defaultMaxTokens = 1024

// Agent talks to the Anthropic Messages API.
type Agent struct {
	client      sdk.Client
	model       string
	temperature float64
	maxTokens   int64
}

// New creates an Agent from cfg. The API key falls back to ANTHROPIC_API_KEY.
func New(cfg *config.AgentConfig) (*Agent, error) {
	key := cfg.ResolveAPIKey()
	if key == "" {
		return nil, fmt.Errorf("anthropic: missing api key (set %s)", config.APIKeyEnv(config.ProviderAnthropic))
	}

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout.Std()}))
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Agent{
		client:      sdk.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (a *Agent) ID() string {
	return config.ProviderAnthropic + "/" + a.model
}

func (a *Agent) Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.AssistantMessage, error) {
	system, params, err := toMessages(messages)
	if err != nil {
		return protocol.AssistantMessage{}, err
	}

	req := sdk.MessageNewParams{
		Model:       sdk.Model(a.model),
		MaxTokens:   a.maxTokens,
		Messages:    params,
		Temperature: sdk.Float(a.temperature),
		Tools:       toTools(tools),
	}
	if len(system) > 0 {
		req.System = system
	}

	msg, err := a.client.Messages.New(ctx, req)
	if err != nil {
		return protocol.AssistantMessage{}, err
	}

	return fromContent(msg.Content), nil
}

// toMessages splits system prompts out of the log and folds consecutive tool
// results into a single user turn, as the Messages API requires.
func toMessages(messages []protocol.Message) ([]sdk.TextBlockParam, []sdk.MessageParam, error) {
	var (
		system  []sdk.TextBlockParam
		params  []sdk.MessageParam
		results []sdk.ContentBlockParamUnion
	)

	flush := func() {
		if len(results) > 0 {
			params = append(params, sdk.NewUserMessage(results...))
			results = nil
		}
	}

	for _, msg := range messages {
		switch m := msg.(type) {
		case protocol.SystemMessage:
			system = append(system, sdk.TextBlockParam{Text: m.Content})
		case protocol.HumanMessage:
			flush()
			params = append(params, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case protocol.AssistantMessage:
			flush()
			var blocks []sdk.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				input, err := decodeInput(tc.Arguments)
				if err != nil {
					return nil, nil, fmt.Errorf("anthropic: tool call %s: %w", tc.ID, err)
				}
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			params = append(params, sdk.NewAssistantMessage(blocks...))
		case protocol.ToolResultMessage:
			results = append(results, sdk.NewToolResultBlock(m.CallID, m.Content, m.IsError))
		}
	}
	flush()

	return system, params, nil
}

func decodeInput(arguments string) (map[string]any, error) {
	input := map[string]any{}
	if strings.TrimSpace(arguments) == "" {
		return input, nil
	}
	if err := json.Unmarshal([]byte(arguments), &input); err != nil {
		return nil, err
	}
	return input, nil
}

func toTools(tools []protocol.Tool) []sdk.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]sdk.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        t.Name,
				Description: sdk.String(t.Description),
				InputSchema: sdk.ToolInputSchemaParam{
					Properties: t.Properties(),
					Required:   t.Required(),
				},
			},
		})
	}
	return out
}

func fromContent(content []sdk.ContentBlockUnion) protocol.AssistantMessage {
	var (
		text  strings.Builder
		calls []protocol.ToolCall
	)
	for _, cb := range content {
		switch block := cb.AsAny().(type) {
		case sdk.TextBlock:
			text.WriteString(block.Text)
		case sdk.ToolUseBlock:
			args := string(block.Input)
			if args == "" || args == "null" {
				args = "{}"
			}
			calls = append(calls, protocol.NewToolCall(block.ID, block.Name, args))
		}
	}
	return protocol.NewAssistant(text.String(), calls...)
}
