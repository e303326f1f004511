package metrics_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/alfred/agent/mock"
	"github.com/tailored-agentic-units/alfred/core/protocol"
	"github.com/tailored-agentic-units/alfred/kernel"
	"github.com/tailored-agentic-units/alfred/metrics"
	"github.com/tailored-agentic-units/alfred/observability"
	"github.com/tailored-agentic-units/alfred/retrieval"
	"github.com/tailored-agentic-units/alfred/tools"
	"github.com/tailored-agentic-units/alfred/tools/builtin"
)

func TestPrometheusObserver_Events(t *testing.T) {
	o := metrics.NewPrometheusObserver()
	ctx := context.Background()

	o.OnEvent(ctx, observability.Event{Type: kernel.EventRunStart, Data: map[string]any{}})
	o.OnEvent(ctx, observability.Event{Type: kernel.EventToolComplete, Data: map[string]any{
		"name": "divide", "error": false, "duration": 20 * time.Millisecond,
	}})
	o.OnEvent(ctx, observability.Event{Type: kernel.EventToolComplete, Data: map[string]any{
		"name": "divide", "error": true, "duration": 5 * time.Millisecond,
	}})
	o.OnEvent(ctx, observability.Event{Type: kernel.EventRunComplete, Data: map[string]any{
		"outcome": kernel.OutcomeAnswered, "iterations": 3,
	}})
	o.OnEvent(ctx, observability.Event{Type: kernel.EventResponse, Data: map[string]any{}})

	expected := `
# HELP alfred_runs_total Completed agent runs by outcome.
# TYPE alfred_runs_total counter
alfred_runs_total{outcome="answered"} 1
# HELP alfred_tool_calls_total Tool executions by tool and outcome.
# TYPE alfred_tool_calls_total counter
alfred_tool_calls_total{outcome="error",tool="divide"} 1
alfred_tool_calls_total{outcome="ok",tool="divide"} 1
# HELP alfred_runs_in_flight Runs currently executing.
# TYPE alfred_runs_in_flight gauge
alfred_runs_in_flight 0
`
	require.NoError(t, testutil.GatherAndCompare(o.Registry(), strings.NewReader(expected),
		"alfred_runs_total", "alfred_tool_calls_total", "alfred_runs_in_flight"))

	assert.Equal(t, 1, testutil.CollectAndCount(o.Registry(), "alfred_run_iterations"))
	assert.Equal(t, 1, testutil.CollectAndCount(o.Registry(), "alfred_tool_duration_seconds"))
}

func TestPrometheusObserver_KernelRun(t *testing.T) {
	o := metrics.NewPrometheusObserver()

	cfg := builtin.DefaultConfig()
	reg := tools.NewRegistry()
	require.NoError(t, builtin.New(&cfg).Register(reg))

	agent := mock.New(mock.WithReplies(
		protocol.NewAssistant("", protocol.NewToolCall("1", builtin.Divide, `{"a": 1, "b": 0}`)),
		protocol.NewAssistant("FINAL ANSWER: undefined"),
	))

	kcfg := kernel.DefaultConfig()
	k, err := kernel.New(context.Background(), &kcfg,
		kernel.WithAgent(agent),
		kernel.WithToolExecutor(reg),
		kernel.WithIndex(retrieval.NewIndex(nil)),
		kernel.WithObserver(observability.NewMultiObserver(o, observability.NewSlogObserver(slog.New(slog.DiscardHandler)))),
	)
	require.NoError(t, err)

	_, err = k.Run(context.Background(), "What is 1 divided by 0?", "")
	require.NoError(t, err)

	expected := `
# HELP alfred_tool_calls_total Tool executions by tool and outcome.
# TYPE alfred_tool_calls_total counter
alfred_tool_calls_total{outcome="error",tool="divide"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(o.Registry(), strings.NewReader(expected), "alfred_tool_calls_total"))
}

func TestPrometheusObserver_UnregisteredToolsShareLabel(t *testing.T) {
	o := metrics.NewPrometheusObserver()

	cfg := builtin.DefaultConfig()
	reg := tools.NewRegistry()
	require.NoError(t, builtin.New(&cfg).Register(reg))

	agent := mock.New(mock.WithReplies(
		protocol.NewAssistant("",
			protocol.NewToolCall("1", "made_up_tool", `{}`),
			protocol.NewToolCall("2", "another_invention", `{}`),
			protocol.NewToolCall("3", builtin.Add, `{"a": 1, "b": 1}`),
		),
		protocol.NewAssistant("FINAL ANSWER: 2"),
	))

	kcfg := kernel.DefaultConfig()
	k, err := kernel.New(context.Background(), &kcfg,
		kernel.WithAgent(agent),
		kernel.WithToolExecutor(reg),
		kernel.WithIndex(retrieval.NewIndex(nil)),
		kernel.WithObserver(o),
	)
	require.NoError(t, err)

	_, err = k.Run(context.Background(), "invent tools", "")
	require.NoError(t, err)

	expected := `
# HELP alfred_tool_calls_total Tool executions by tool and outcome.
# TYPE alfred_tool_calls_total counter
alfred_tool_calls_total{outcome="error",tool="unknown"} 2
alfred_tool_calls_total{outcome="ok",tool="add"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(o.Registry(), strings.NewReader(expected), "alfred_tool_calls_total"))
}

func TestDefaultRegistered(t *testing.T) {
	obs, err := observability.GetObserver("prometheus")
	require.NoError(t, err)
	assert.Same(t, metrics.Default(), obs)
}
