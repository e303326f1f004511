package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/alfred/agent/mock"
	"github.com/tailored-agentic-units/alfred/core/protocol"
)

func TestAgent_ReplaysSteps(t *testing.T) {
	boom := errors.New("boom")
	a := mock.New(
		mock.WithID("scripted"),
		mock.WithReplies(protocol.NewAssistant("one")),
		mock.WithSteps(mock.Step{Err: boom}),
	)
	ctx := context.Background()
	msgs := []protocol.Message{protocol.NewHuman("hi")}

	assert.Equal(t, "scripted", a.ID())

	reply, err := a.Tools(ctx, msgs, nil)
	require.NoError(t, err)
	assert.Equal(t, "one", reply.Content)

	_, err = a.Tools(ctx, msgs, nil)
	assert.ErrorIs(t, err, boom)

	_, err = a.Tools(ctx, msgs, nil)
	assert.ErrorIs(t, err, mock.ErrScriptExhausted)

	assert.Len(t, a.Calls(), 3)
}

func TestAgent_Handler(t *testing.T) {
	a := mock.New(mock.WithHandler(func(_ context.Context, msgs []protocol.Message, _ []protocol.Tool) (protocol.AssistantMessage, error) {
		return protocol.NewAssistant(msgs[len(msgs)-1].Text()), nil
	}))

	reply, err := a.Tools(context.Background(), []protocol.Message{protocol.NewHuman("echo")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "echo", reply.Content)
}

func TestAgent_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.New(mock.WithReplies(protocol.NewAssistant("x"))).Tools(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
