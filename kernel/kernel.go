// Package kernel implements the agent control loop that answers one query:
// retrieve similar solved examples, ask the model, run the tools it requests,
// and repeat until the model replies without tool calls.
//
// The kernel initializes from configuration via New, creating all subsystems
// internally. Functional options allow test overrides of any subsystem.
//
//	k, err := kernel.New(ctx, &cfg)
//	result, err := k.Run(ctx, "What is 12 divided by 4?", taskID)
package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/alfred/agent"
	"github.com/tailored-agentic-units/alfred/core/protocol"
	"github.com/tailored-agentic-units/alfred/memory"
	"github.com/tailored-agentic-units/alfred/observability"
	"github.com/tailored-agentic-units/alfred/retrieval"
	"github.com/tailored-agentic-units/alfred/session"
	"github.com/tailored-agentic-units/alfred/tools"
	"github.com/tailored-agentic-units/alfred/tools/builtin"
)

// ExamplesPreamble introduces the retrieved examples in the conversation.
const ExamplesPreamble = "Here are some similar questions and answers for reference:\n\n"

// Result holds the outcome of a kernel Run invocation.
type Result struct {
	Response       string             // Final text response from the agent.
	Iterations     int                // Number of model calls made.
	ToolCalls      []ToolCallRecord   // Log of all tool invocations.
	Messages       []protocol.Message // Full conversation transcript.
	SessionID      string
	ConversationID string
}

type ToolCallRecord struct {
	protocol.ToolCall
	Iteration int           // Loop cycle in which the call occurred.
	Result    string        // Tool output or error observation.
	IsError   bool          // Whether execution returned an error.
	Duration  time.Duration // Wall time of the execution.
}

// ToolExecutor abstracts tool listing and execution for testability.
// *tools.Registry satisfies it.
type ToolExecutor interface {
	List() []protocol.Tool
	Execute(ctx context.Context, sc *tools.SessionContext, name string, args json.RawMessage) (tools.Result, error)
}

// Option configures a Kernel. Subsystems supplied by options are used as-is
// and not created from configuration.
type Option func(*Kernel)

// WithAgent overrides the config-created agent.
func WithAgent(a agent.Agent) Option {
	return func(k *Kernel) { k.agent = a }
}

// WithToolExecutor overrides the config-created tool registry.
func WithToolExecutor(e ToolExecutor) Option {
	return func(k *Kernel) { k.tools = e }
}

// WithIndex overrides the config-loaded retrieval index.
func WithIndex(idx *retrieval.Index) Option {
	return func(k *Kernel) { k.index = idx }
}

// WithObserver overrides the config-resolved observer.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// WithLogger sets the logger handed to subsystems created from config.
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) { k.logger = l }
}

// WithMaxIterations overrides the iteration budget. Zero means unbounded.
func WithMaxIterations(n int) Option {
	return func(k *Kernel) { k.maxIterations = n }
}

// WithParallelTools toggles concurrent execution of one step's tool calls.
func WithParallelTools(enabled bool) Option {
	return func(k *Kernel) { k.parallelTools = enabled }
}

// Kernel runs the agent control loop. It holds no per-run state, so Run may
// be called concurrently.
type Kernel struct {
	agent         agent.Agent
	tools         ToolExecutor
	index         *retrieval.Index
	observer      observability.Observer
	logger        *slog.Logger
	maxIterations int
	retrievalK    int
	parallelTools bool
	systemPrompt  string
}

// New creates a Kernel from configuration. Subsystems not supplied through
// options are created from their config sections; the retrieval corpus is
// loaded and indexed here, so ctx bounds that load.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{
		maxIterations: cfg.MaxIterations,
		retrievalK:    cfg.RetrievalK,
		parallelTools: cfg.ParallelTools == nil || *cfg.ParallelTools,
		systemPrompt:  cfg.SystemPrompt,
	}

	for _, opt := range opts {
		opt(k)
	}

	if k.logger == nil {
		k.logger = slog.Default()
	}

	if k.observer == nil {
		if len(cfg.Observers) == 0 {
			k.observer = observability.NewSlogObserver(k.logger)
		} else {
			obs, err := observability.Resolve(cfg.Observers...)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve observers: %w", err)
			}
			k.observer = obs
		}
	}

	if k.agent == nil {
		a, err := agent.New(&cfg.Agent)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent: %w", err)
		}
		k.agent = a
	}

	if k.tools == nil {
		store, err := memory.NewStore(&cfg.Memory)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory store: %w", err)
		}

		reg := tools.NewRegistry()
		toolset := builtin.New(&cfg.Tools,
			builtin.WithCache(memory.NewCache(store, k.logger)),
			builtin.WithLogger(k.logger),
		)
		if err := toolset.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register tools: %w", err)
		}
		k.tools = reg
	}

	if k.index == nil {
		idx, err := retrieval.Load(ctx, &cfg.Retrieval, k.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load retrieval corpus: %w", err)
		}
		k.index = idx
	}

	return k, nil
}

// Close releases resources held by the agent, if any.
func (k *Kernel) Close() error {
	if c, ok := k.agent.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Tools returns the tool catalog offered to the model.
func (k *Kernel) Tools() []protocol.Tool {
	return k.tools.List()
}

type state int

const (
	stateRetrieve state = iota
	stateAskModel
	stateRunTools
	stateDone
)

// run is the per-invocation state of the control loop.
type run struct {
	session session.Session
	sc      *tools.SessionContext
	result  *Result
	pending protocol.AssistantMessage
}

// Run answers query for the task identified by sessionID. The session
// identifier is handed to tools through a run-scoped SessionContext; it may
// be empty.
//
// Returns ErrModelBackend when the model call fails, ErrMaxIterations when a
// non-zero iteration budget is exhausted, and the context error on
// cancellation. The Result is non-nil in every case and holds whatever
// transcript was produced.
func (k *Kernel) Run(ctx context.Context, query, sessionID string) (*Result, error) {
	sess := session.New(sessionID)
	r := &run{
		session: sess,
		sc:      tools.NewSessionContext(sessionID),
		result: &Result{
			SessionID:      sessionID,
			ConversationID: sess.ConversationID(),
		},
	}

	if strings.TrimSpace(query) == "" {
		return r.result, ErrEmptyQuery
	}

	start := time.Now()
	k.emit(ctx, r, EventRunStart, observability.LevelInfo, map[string]any{
		"query_length":   len(query),
		"max_iterations": k.maxIterations,
		"tools":          len(k.tools.List()),
	})

	err := k.loop(ctx, r, query)
	r.result.Messages = sess.Messages()

	outcome := OutcomeAnswered
	switch {
	case err == nil:
	case ctx.Err() != nil:
		outcome = OutcomeCancelled
	case errors.Is(err, ErrMaxIterations):
		outcome = OutcomeMaxIterations
	default:
		outcome = OutcomeBackendError
	}

	k.emit(ctx, r, EventRunComplete, observability.LevelInfo, map[string]any{
		"outcome":    outcome,
		"iterations": r.result.Iterations,
		"tool_calls": len(r.result.ToolCalls),
		"duration":   time.Since(start),
	})

	return r.result, err
}

func (k *Kernel) loop(ctx context.Context, r *run, query string) error {
	for st := stateRetrieve; st != stateDone; {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch st {
		case stateRetrieve:
			k.retrieve(ctx, r, query)
			st = stateAskModel

		case stateAskModel:
			if k.maxIterations > 0 && r.result.Iterations >= k.maxIterations {
				k.emit(ctx, r, EventError, observability.LevelWarning, map[string]any{
					"error":      ErrMaxIterations.Error(),
					"iterations": r.result.Iterations,
				})
				return ErrMaxIterations
			}

			next, err := k.askModel(ctx, r)
			if err != nil {
				return err
			}
			st = next

		case stateRunTools:
			k.runTools(ctx, r)
			st = stateAskModel
		}
	}
	return nil
}

// retrieve seeds the conversation with the system prompt, the query and the
// rendered top-k similar examples.
func (k *Kernel) retrieve(ctx context.Context, r *run, query string) {
	var docs []retrieval.Document
	if k.index != nil {
		docs = k.index.Query(query, k.retrievalK)
	}

	if k.systemPrompt != "" {
		r.session.Append(protocol.NewSystem(k.systemPrompt))
	}
	r.session.Append(
		protocol.NewHuman(query),
		protocol.NewHuman(ExamplesPreamble+retrieval.Render(docs)),
	)

	k.emit(ctx, r, EventRetrieve, observability.LevelVerbose, map[string]any{
		"k":       k.retrievalK,
		"matches": len(docs),
	})
}

func (k *Kernel) askModel(ctx context.Context, r *run) (state, error) {
	r.result.Iterations++
	iteration := r.result.Iterations

	k.emit(ctx, r, EventIterationStart, observability.LevelVerbose, map[string]any{
		"iteration": iteration,
	})

	reply, err := k.agent.Tools(ctx, r.session.Messages(), k.tools.List())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stateDone, ctxErr
		}
		k.emit(ctx, r, EventError, observability.LevelError, map[string]any{
			"error":     err.Error(),
			"iteration": iteration,
			"agent":     k.agent.ID(),
		})
		return stateDone, fmt.Errorf("%w: %w", ErrModelBackend, err)
	}

	r.session.Append(reply)

	if reply.HasToolCalls() {
		r.pending = reply
		return stateRunTools, nil
	}

	r.result.Response = reply.Content
	k.emit(ctx, r, EventResponse, observability.LevelInfo, map[string]any{
		"iteration":       iteration,
		"response_length": len(reply.Content),
	})
	return stateDone, nil
}

// runTools executes every call of the pending assistant message and appends
// one tool result per call, in call order.
func (k *Kernel) runTools(ctx context.Context, r *run) {
	calls := r.pending.ToolCalls
	records := make([]ToolCallRecord, len(calls))

	if k.parallelTools && len(calls) > 1 {
		var g errgroup.Group
		for i, call := range calls {
			g.Go(func() error {
				records[i] = k.execute(ctx, r, call)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, call := range calls {
			records[i] = k.execute(ctx, r, call)
		}
	}

	for i, rec := range records {
		r.session.Append(protocol.NewToolResult(calls[i], rec.Result, rec.IsError))
	}
	r.result.ToolCalls = append(r.result.ToolCalls, records...)
	r.pending = protocol.AssistantMessage{}
}

func (k *Kernel) execute(ctx context.Context, r *run, call protocol.ToolCall) ToolCallRecord {
	iteration := r.result.Iterations
	k.emit(ctx, r, EventToolCall, observability.LevelVerbose, map[string]any{
		"iteration": iteration,
		"name":      call.Name,
		"call_id":   call.ID,
	})

	record := ToolCallRecord{ToolCall: call, Iteration: iteration}

	start := time.Now()
	res, err := k.tools.Execute(ctx, r.sc, call.Name, json.RawMessage(call.Arguments))
	record.Duration = time.Since(start)

	registered := !errors.Is(err, tools.ErrUnknownTool)
	if err != nil {
		record.Result = tools.Observation(err)
		record.IsError = true
	} else {
		record.Result = res.Content
		record.IsError = res.IsError
	}

	k.emit(ctx, r, EventToolComplete, observability.LevelVerbose, map[string]any{
		"iteration":  iteration,
		"name":       call.Name,
		"error":      record.IsError,
		"registered": registered,
		"duration":   record.Duration,
	})

	return record
}

func (k *Kernel) emit(ctx context.Context, r *run, typ observability.EventType, level observability.Level, data map[string]any) {
	if r.session.ID() != "" {
		data["session_id"] = r.session.ID()
	}
	observability.Emit(ctx, k.observer, observability.Event{
		Type:        typ,
		Level:       level,
		Source:      "kernel.Run",
		Correlation: r.session.ConversationID(),
		Data:        data,
	})
}
