// Package gemini implements the agent contract on Google's Gemini API using
// function calling.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/tailored-agentic-units/alfred/core/config"
	"github.com/tailored-agentic-units/alfred/core/protocol"
)

var (
	// ErrEmptyResponse is returned when Gemini produces no candidate content.
	ErrEmptyResponse = errors.New("gemini: empty response")
	// ErrNoPrompt is returned when the log has nothing to send.
	ErrNoPrompt = errors.New("gemini: no user turn to send")
)

// Agent talks to the Gemini API.
type Agent struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// New creates an Agent from cfg. The API key falls back to GEMINI_API_KEY.
func New(cfg *config.AgentConfig) (*Agent, error) {
	key := cfg.ResolveAPIKey()
	if key == "" {
		return nil, fmt.Errorf("gemini: missing api key (set %s)", config.APIKeyEnv(config.ProviderGemini))
	}

	opts := []option.ClientOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}

	return &Agent{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

func (a *Agent) ID() string {
	return config.ProviderGemini + "/" + a.model
}

// Close releases the underlying client.
func (a *Agent) Close() error {
	return a.client.Close()
}

func (a *Agent) Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.AssistantMessage, error) {
	model := a.client.GenerativeModel(a.model)
	model.SetTemperature(a.temperature)
	if a.maxTokens > 0 {
		model.SetMaxOutputTokens(a.maxTokens)
	}
	if decls := toDeclarations(tools); len(decls) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	system, contents, err := toContents(messages)
	if err != nil {
		return protocol.AssistantMessage{}, err
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(contents) == 0 || contents[len(contents)-1].Role != "user" {
		return protocol.AssistantMessage{}, ErrNoPrompt
	}

	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]

	resp, err := chat.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return protocol.AssistantMessage{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return protocol.AssistantMessage{}, ErrEmptyResponse
	}

	return fromParts(resp.Candidates[0].Content.Parts)
}

// toContents maps the log onto Gemini turns. System prompts are joined into
// one instruction; consecutive tool results share a single user turn.
func toContents(messages []protocol.Message) (string, []*genai.Content, error) {
	var (
		system   []string
		contents []*genai.Content
	)

	appendUser := func(part genai.Part, merge bool) {
		if merge && len(contents) > 0 {
			last := contents[len(contents)-1]
			if last.Role == "user" && isFunctionTurn(last) {
				last.Parts = append(last.Parts, part)
				return
			}
		}
		contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{part}})
	}

	for _, msg := range messages {
		switch m := msg.(type) {
		case protocol.SystemMessage:
			system = append(system, m.Content)
		case protocol.HumanMessage:
			appendUser(genai.Text(m.Content), false)
		case protocol.AssistantMessage:
			turn := &genai.Content{Role: "model"}
			if m.Content != "" {
				turn.Parts = append(turn.Parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args := map[string]any{}
				if strings.TrimSpace(tc.Arguments) != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
						return "", nil, fmt.Errorf("gemini: tool call %s: %w", tc.ID, err)
					}
				}
				turn.Parts = append(turn.Parts, genai.FunctionCall{Name: tc.Name, Args: args})
			}
			contents = append(contents, turn)
		case protocol.ToolResultMessage:
			response := map[string]any{"content": m.Content}
			if m.IsError {
				response["error"] = true
			}
			appendUser(genai.FunctionResponse{Name: m.Name, Response: response}, true)
		}
	}

	return strings.Join(system, "\n\n"), contents, nil
}

func isFunctionTurn(c *genai.Content) bool {
	for _, p := range c.Parts {
		if _, ok := p.(genai.FunctionResponse); !ok {
			return false
		}
	}
	return len(c.Parts) > 0
}

func toDeclarations(tools []protocol.Tool) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]*genai.Schema, len(t.Params))
		for _, p := range t.Params {
			props[p.Name] = &genai.Schema{
				Type:        schemaType(p.Type),
				Description: p.Description,
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   t.Required(),
			},
		})
	}
	return decls
}

func schemaType(t protocol.ParamType) genai.Type {
	switch t {
	case protocol.TypeNumber:
		return genai.TypeNumber
	case protocol.TypeInteger:
		return genai.TypeInteger
	case protocol.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// fromParts collects text and function calls. Gemini does not assign call
// ids, so one is generated per call.
func fromParts(parts []genai.Part) (protocol.AssistantMessage, error) {
	var (
		text  strings.Builder
		calls []protocol.ToolCall
	)
	for _, part := range parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				return protocol.AssistantMessage{}, fmt.Errorf("gemini: encode args: %w", err)
			}
			if p.Args == nil {
				args = []byte("{}")
			}
			calls = append(calls, protocol.NewToolCall("call_"+uuid.NewString(), p.Name, string(args)))
		}
	}
	return protocol.NewAssistant(text.String(), calls...), nil
}
