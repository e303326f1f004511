package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tailored-agentic-units/alfred/tools"
)

type operands struct {
	A *float64 `json:"a"`
	B *float64 `json:"b"`
}

func decodeOperands(args json.RawMessage) (float64, float64, error) {
	var ops operands
	if err := tools.DecodeArgs(args, &ops); err != nil {
		return 0, 0, err
	}
	if ops.A == nil || ops.B == nil {
		return 0, 0, fmt.Errorf("%w: a and b are required", tools.ErrInvalidArgs)
	}
	return *ops.A, *ops.B, nil
}

func add(_ context.Context, _ *tools.SessionContext, args json.RawMessage) (tools.Result, error) {
	a, b, err := decodeOperands(args)
	if err != nil {
		return tools.Result{}, err
	}

	sum := a + b
	if isIntegral(a) && isIntegral(b) && math.Abs(sum) < 1<<53 {
		return tools.Result{Content: strconv.FormatInt(int64(sum), 10)}, nil
	}
	return tools.Result{Content: FormatFloat(sum)}, nil
}

func divide(_ context.Context, _ *tools.SessionContext, args json.RawMessage) (tools.Result, error) {
	a, b, err := decodeOperands(args)
	if err != nil {
		return tools.Result{}, err
	}
	if b == 0 {
		return tools.Result{}, tools.ErrDivisionByZero
	}
	return tools.Result{Content: FormatFloat(a / b)}, nil
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// FormatFloat renders f the way a float reads back to a user: shortest
// round-trip digits, always with a fractional part ("3.0"), and exponent
// notation outside [1e-4, 1e16).
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
