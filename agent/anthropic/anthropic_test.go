package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/alfred/agent/anthropic"
	"github.com/tailored-agentic-units/alfred/core/config"
	"github.com/tailored-agentic-units/alfred/core/protocol"
)

func newServer(t *testing.T, reply string, capture *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if capture != nil {
			require.NoError(t, json.Unmarshal(body, capture))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAgent(t *testing.T, baseURL string) *anthropic.Agent {
	t.Helper()
	a, err := anthropic.New(&config.AgentConfig{
		Provider: config.ProviderAnthropic,
		Model:    "claude-sonnet-4-5",
		BaseURL:  baseURL,
		APIKey:   "test-key",
	})
	require.NoError(t, err)
	return a
}

func TestNew_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := anthropic.New(&config.AgentConfig{Provider: config.ProviderAnthropic, Model: "m"})
	assert.Error(t, err)
}

func TestTools_ToolUseReply(t *testing.T) {
	var req map[string]any
	srv := newServer(t, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-5",
		"stop_reason": "tool_use",
		"content": [
			{"type": "text", "text": "Dividing."},
			{"type": "tool_use", "id": "toolu_1", "name": "divide", "input": {"a": 12, "b": 4}}
		],
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, &req)

	a := newAgent(t, srv.URL)
	assert.Equal(t, "anthropic/claude-sonnet-4-5", a.ID())

	tools := []protocol.Tool{protocol.NewTool("divide", "Divide two numbers.",
		protocol.Param{Name: "a", Type: protocol.TypeNumber, Required: true},
		protocol.Param{Name: "b", Type: protocol.TypeNumber, Required: true},
	)}

	reply, err := a.Tools(context.Background(), []protocol.Message{
		protocol.NewSystem("be brief"),
		protocol.NewHuman("What is 12 divided by 4?"),
	}, tools)
	require.NoError(t, err)

	assert.Equal(t, "Dividing.", reply.Content)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "toolu_1", reply.ToolCalls[0].ID)
	assert.Equal(t, "divide", reply.ToolCalls[0].Name)
	assert.JSONEq(t, `{"a":12,"b":4}`, reply.ToolCalls[0].Arguments)

	system := req["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "be brief", system[0].(map[string]any)["text"])

	msgs := req["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])

	wireTools := req["tools"].([]any)
	require.Len(t, wireTools, 1)
	assert.Equal(t, "divide", wireTools[0].(map[string]any)["name"])
}

func TestTools_GroupsToolResults(t *testing.T) {
	var req map[string]any
	srv := newServer(t, `{
		"id": "msg_2", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
		"stop_reason": "end_turn",
		"content": [{"type": "text", "text": "FINAL ANSWER: 3"}],
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, &req)

	a := newAgent(t, srv.URL)

	first := protocol.NewToolCall("toolu_1", "divide", `{"a":12,"b":4}`)
	second := protocol.NewToolCall("toolu_2", "web_search", `{"query":"x"}`)
	reply, err := a.Tools(context.Background(), []protocol.Message{
		protocol.NewHuman("12/4?"),
		protocol.NewAssistant("", first, second),
		protocol.NewToolResult(first, "3.0", false),
		protocol.NewToolResult(second, "Error: boom", true),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "FINAL ANSWER: 3", reply.Content)
	assert.False(t, reply.HasToolCalls())

	msgs := req["messages"].([]any)
	require.Len(t, msgs, 3)

	results := msgs[2].(map[string]any)
	assert.Equal(t, "user", results["role"])
	blocks := results["content"].([]any)
	require.Len(t, blocks, 2)
	assert.Equal(t, "tool_result", blocks[0].(map[string]any)["type"])
	assert.Equal(t, "toolu_1", blocks[0].(map[string]any)["tool_use_id"])
	assert.Equal(t, true, blocks[1].(map[string]any)["is_error"])
}

func TestTools_InvalidArguments(t *testing.T) {
	a := newAgent(t, "http://127.0.0.1:1")

	call := protocol.NewToolCall("toolu_1", "divide", `not json`)
	_, err := a.Tools(context.Background(), []protocol.Message{
		protocol.NewHuman("x"),
		protocol.NewAssistant("", call),
	}, nil)
	assert.Error(t, err)
}
