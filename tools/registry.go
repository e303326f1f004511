// Package tools provides the registry of capabilities the model may invoke
// during an agent run.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/tailored-agentic-units/alfred/core/protocol"
)

// Handler is the function signature for tool implementations.
// Handlers receive the request context, the run's session context and the
// JSON-encoded arguments produced by the model.
type Handler func(ctx context.Context, sc *SessionContext, args json.RawMessage) (Result, error)

// Result is the tool execution output that feeds back into the next model turn.
type Result struct {
	Content string
	IsError bool
}

// SessionContext carries per-run state that tools may need but the model
// cannot be trusted to supply. One is created for every run and passed to
// every invocation made during that run.
type SessionContext struct {
	SessionID string
}

// NewSessionContext creates a SessionContext for the given session identifier.
func NewSessionContext(sessionID string) *SessionContext {
	return &SessionContext{SessionID: sessionID}
}

// ActiveSession returns the session identifier and whether one is set.
func (sc *SessionContext) ActiveSession() (string, bool) {
	if sc == nil || sc.SessionID == "" {
		return "", false
	}
	return sc.SessionID, true
}

type entry struct {
	tool    protocol.Tool
	handler Handler
}

// Registry maps tool names to definitions and handlers.
// All methods are safe for concurrent use.
type Registry struct {
	entries map[string]entry
	order   []string
	mu      sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a new tool.
// Returns ErrAlreadyExists if a tool with the same name is already registered.
func (r *Registry) Register(tool protocol.Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tool.Name)
	}

	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	r.order = append(r.order, tool.Name)
	return nil
}

// Replace updates an existing tool's definition and handler.
// Returns ErrUnknownTool if no tool with the given name is registered.
func (r *Registry) Replace(tool protocol.Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownTool, tool.Name)
	}

	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return nil
}

// Get retrieves a handler by tool name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return e.handler, true
}

// List returns the definitions of all registered tools in registration order.
func (r *Registry) List() []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]protocol.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.entries[name].tool)
	}
	return tools
}

// Execute dispatches a tool call to the registered handler by name.
// Returns ErrUnknownTool if the tool is not registered and an
// *ExecutionError wrapping the cause if the handler fails or panics.
func (r *Registry) Execute(ctx context.Context, sc *SessionContext, name string, args json.RawMessage) (Result, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	return invoke(ctx, e.handler, sc, name, args)
}

// invoke runs handler, converting a panic into an *ExecutionError wrapping
// ErrPanic.
func invoke(ctx context.Context, handler Handler, sc *SessionContext, name string, args json.RawMessage) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = Result{}, &ExecutionError{Tool: name, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
	}()

	result, err = handler(ctx, sc, args)
	if err != nil {
		return Result{}, &ExecutionError{Tool: name, Err: err}
	}
	return result, nil
}

// DecodeArgs decodes JSON tool arguments into out, a pointer to a struct
// tagged with `json` keys. Scalars are weakly typed so "12" decodes into a
// float64 field. Empty input decodes as an empty object.
func DecodeArgs(args json.RawMessage, out any) error {
	raw := map[string]any{}
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}
