package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/alfred/observability"
)

type recorder struct {
	events []observability.Event
}

func (r *recorder) OnEvent(_ context.Context, e observability.Event) {
	r.events = append(r.events, e)
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  string
	}{
		{1, "TRACE"},
		{observability.LevelVerbose, "DEBUG"},
		{observability.LevelInfo, "INFO"},
		{observability.LevelWarning, "WARN"},
		{observability.LevelError, "ERROR"},
		{21, "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, observability.LevelVerbose.SlogLevel())
	assert.Equal(t, slog.LevelInfo, observability.LevelInfo.SlogLevel())
	assert.Equal(t, slog.LevelWarn, observability.LevelWarning.SlogLevel())
	assert.Equal(t, slog.LevelError, observability.LevelError.SlogLevel())
}

func TestEmit_StampsTimestamp(t *testing.T) {
	rec := &recorder{}
	observability.Emit(context.Background(), rec, observability.Event{Type: "x"})

	require.Len(t, rec.events, 1)
	assert.False(t, rec.events[0].Timestamp.IsZero())
}

func TestEmit_KeepsExplicitTimestamp(t *testing.T) {
	rec := &recorder{}
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	observability.Emit(context.Background(), rec, observability.Event{Type: "x", Timestamp: ts})

	assert.Equal(t, ts, rec.events[0].Timestamp)
}

func TestEmit_NilObserver(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.Emit(context.Background(), nil, observability.Event{Type: "x"})
	})
}

func TestMultiObserver_FansOutSkippingNil(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	multi := observability.NewMultiObserver(a, nil, b)

	multi.OnEvent(context.Background(), observability.Event{Type: "fan"})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestSlogObserver_WritesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := observability.NewSlogObserver(logger)

	obs.OnEvent(context.Background(), observability.Event{
		Type:        "kernel.tool.call",
		Level:       observability.LevelInfo,
		Source:      "kernel.Run",
		Correlation: "conv-1",
		Data:        map[string]any{"name": "divide", "iteration": 2},
	})

	out := buf.String()
	assert.Contains(t, out, "msg=kernel.tool.call")
	assert.Contains(t, out, "source=kernel.Run")
	assert.Contains(t, out, "conversation_id=conv-1")
	assert.Less(t, strings.Index(out, "iteration=2"), strings.Index(out, "name=divide"))
}

func TestSlogObserver_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	observability.NewSlogObserver(logger).OnEvent(context.Background(), observability.Event{
		Type:  "noisy",
		Level: observability.LevelVerbose,
	})

	assert.Empty(t, buf.String())
}

func TestRegistry(t *testing.T) {
	rec := &recorder{}
	observability.RegisterObserver("recorder", rec)

	got, err := observability.GetObserver("recorder")
	require.NoError(t, err)
	assert.Same(t, rec, got)

	_, err = observability.GetObserver("missing")
	assert.Error(t, err)

	assert.Contains(t, observability.Names(), "recorder")
}

func TestResolve(t *testing.T) {
	obs, err := observability.Resolve()
	require.NoError(t, err)
	assert.IsType(t, &observability.SlogObserver{}, obs)

	obs, err = observability.Resolve("noop", "slog")
	require.NoError(t, err)
	assert.IsType(t, &observability.MultiObserver{}, obs)

	_, err = observability.Resolve("noop", "nope")
	assert.Error(t, err)
}
