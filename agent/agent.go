// Package agent defines the model backend contract used by the kernel and a
// factory that builds a backend from configuration.
//
//	a, err := agent.New(&cfg)
//	reply, err := a.Tools(ctx, messages, registry.List())
package agent

import (
	"context"
	"errors"

	"github.com/tailored-agentic-units/alfred/core/protocol"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrEmptyProvider   = errors.New("provider name is empty")
	ErrProviderExists  = errors.New("provider already registered")
	ErrMissingModel    = errors.New("model is required")
)

// Agent is a model backend. Tools sends the ordered message log and the tool
// catalog and returns a single assistant message, which is terminal when it
// carries no tool calls.
type Agent interface {
	ID() string
	Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.AssistantMessage, error)
}
