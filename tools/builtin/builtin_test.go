package builtin_test

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/alfred/tools"
	"github.com/tailored-agentic-units/alfred/tools/builtin"
)

func newRegistry(t *testing.T, opts ...builtin.Option) *tools.Registry {
	t.Helper()
	cfg := builtin.DefaultConfig()
	reg := tools.NewRegistry()
	require.NoError(t, builtin.New(&cfg, opts...).Register(reg))
	return reg
}

func execute(t *testing.T, reg *tools.Registry, sc *tools.SessionContext, name, args string) (tools.Result, error) {
	t.Helper()
	return reg.Execute(context.Background(), sc, name, json.RawMessage(args))
}

func TestRegister_Catalog(t *testing.T) {
	reg := newRegistry(t)

	var names []string
	for _, tool := range reg.List() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	assert.Equal(t, []string{
		builtin.WebSearch,
		builtin.WikiSearch,
		builtin.ReadExcelFile,
		builtin.WeatherInfo,
		builtin.Add,
		builtin.Divide,
	}, names)

	cfg := builtin.DefaultConfig()
	assert.ErrorIs(t, builtin.New(&cfg).Register(reg), tools.ErrAlreadyExists)
}

func TestConfig_Merge(t *testing.T) {
	cfg := builtin.DefaultConfig()
	cfg.Merge(&builtin.Config{TavilyAPIKey: "tvly", FilesURL: "http://files"})

	assert.Equal(t, "tvly", cfg.TavilyAPIKey)
	assert.Equal(t, "http://files", cfg.FilesURL)
	assert.Equal(t, "https://api.tavily.com", cfg.TavilyURL)
}

func TestDivide(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		args string
		want string
	}{
		{`{"a": 12, "b": 4}`, "3.0"},
		{`{"a": 5, "b": 2}`, "2.5"},
		{`{"a": "9", "b": "3"}`, "3.0"},
		{`{"a": 1, "b": 3}`, "0.3333333333333333"},
		{`{"a": -7, "b": 2}`, "-3.5"},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			res, err := execute(t, reg, nil, builtin.Divide, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Content)
		})
	}
}

func TestDivide_ByZero(t *testing.T) {
	reg := newRegistry(t)

	_, err := execute(t, reg, nil, builtin.Divide, `{"a": 1, "b": 0}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, tools.ErrDivisionByZero)

	var execErr *tools.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, builtin.Divide, execErr.Tool)
	assert.Regexp(t, `^Error: `, tools.Observation(err))
}

func TestAdd(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		args string
		want string
	}{
		{`{"a": 2, "b": 3}`, "5"},
		{`{"a": "12", "b": 4}`, "16"},
		{`{"a": 1.5, "b": 2}`, "3.5"},
		{`{"a": -4, "b": 4}`, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			res, err := execute(t, reg, nil, builtin.Add, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Content)
		})
	}
}

func TestArithmetic_InvalidArgs(t *testing.T) {
	reg := newRegistry(t)

	for _, args := range []string{`{"a": 1}`, `{"a": "x", "b": 1}`, `not json`} {
		_, err := execute(t, reg, nil, builtin.Add, args)
		assert.ErrorIs(t, err, tools.ErrInvalidArgs, args)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := map[float64]string{
		3:      "3.0",
		2.5:    "2.5",
		0:      "0.0",
		-0.25:  "-0.25",
		1e16:   "1e+16",
		1.5e-5: "1.5e-05",
		123456: "123456.0",
	}
	for in, want := range tests {
		assert.Equal(t, want, builtin.FormatFloat(in), "%v", in)
	}
}

func TestWeatherInfo(t *testing.T) {
	reg := newRegistry(t, builtin.WithRand(rand.New(rand.NewPCG(1, 2))))

	allowed := []string{
		"Weather in Paris: Rainy, 15°C",
		"Weather in Paris: Clear, 25°C",
		"Weather in Paris: Windy, 20°C",
	}
	for range 10 {
		res, err := execute(t, reg, nil, builtin.WeatherInfo, `{"location": "Paris"}`)
		require.NoError(t, err)
		assert.Contains(t, allowed, res.Content)
	}
}

func TestWeatherInfo_Deterministic(t *testing.T) {
	first := newRegistry(t, builtin.WithRand(rand.New(rand.NewPCG(7, 7))))
	second := newRegistry(t, builtin.WithRand(rand.New(rand.NewPCG(7, 7))))

	for range 5 {
		a, err := execute(t, first, nil, builtin.WeatherInfo, `{"location": "Gotham"}`)
		require.NoError(t, err)
		b, err := execute(t, second, nil, builtin.WeatherInfo, `{"location": "Gotham"}`)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}
