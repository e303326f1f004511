// Package mock provides a scripted agent for exercising the kernel without a
// model backend.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/tailored-agentic-units/alfred/core/protocol"
)

// ErrScriptExhausted is returned once every scripted step has been consumed.
var ErrScriptExhausted = errors.New("mock: no more scripted responses")

// Step is one scripted reply. When Err is set it is returned instead of
// Reply.
type Step struct {
	Reply protocol.AssistantMessage
	Err   error
}

// Call records what the agent received on one Tools invocation.
type Call struct {
	Messages []protocol.Message
	Tools    []protocol.Tool
}

// HandlerFunc computes a reply from the received log.
type HandlerFunc func(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.AssistantMessage, error)

// Agent replays Steps in order, or delegates to a HandlerFunc.
type Agent struct {
	id      string
	handler HandlerFunc

	mu    sync.Mutex
	steps []Step
	calls []Call
}

// Option configures an Agent.
type Option func(*Agent)

// WithID sets the agent ID.
func WithID(id string) Option {
	return func(a *Agent) { a.id = id }
}

// WithSteps appends scripted steps.
func WithSteps(steps ...Step) Option {
	return func(a *Agent) { a.steps = append(a.steps, steps...) }
}

// WithReplies scripts successful replies.
func WithReplies(replies ...protocol.AssistantMessage) Option {
	return func(a *Agent) {
		for _, r := range replies {
			a.steps = append(a.steps, Step{Reply: r})
		}
	}
}

// WithHandler makes the agent compute replies instead of replaying steps.
func WithHandler(h HandlerFunc) Option {
	return func(a *Agent) { a.handler = h }
}

// New creates a mock Agent.
func New(opts ...Option) *Agent {
	a := &Agent{id: "mock"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) ID() string {
	return a.id
}

func (a *Agent) Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.AssistantMessage, error) {
	if err := ctx.Err(); err != nil {
		return protocol.AssistantMessage{}, err
	}

	a.mu.Lock()
	a.calls = append(a.calls, Call{
		Messages: append([]protocol.Message(nil), messages...),
		Tools:    append([]protocol.Tool(nil), tools...),
	})
	if a.handler != nil {
		a.mu.Unlock()
		return a.handler(ctx, messages, tools)
	}
	if len(a.steps) == 0 {
		a.mu.Unlock()
		return protocol.AssistantMessage{}, ErrScriptExhausted
	}
	step := a.steps[0]
	a.steps = a.steps[1:]
	a.mu.Unlock()

	return step.Reply, step.Err
}

// Calls returns every recorded invocation in order.
func (a *Agent) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}
