package tools

import (
	"errors"
	"fmt"
)

// Sentinel errors for the tools registry and builtin tools.
var (
	ErrUnknownTool     = errors.New("unknown tool")
	ErrAlreadyExists   = errors.New("tool already registered")
	ErrEmptyName       = errors.New("tool name is empty")
	ErrInvalidArgs     = errors.New("invalid tool arguments")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrNoActiveSession = errors.New("no active session")
	ErrDownload        = errors.New("download failed")
	ErrParse           = errors.New("parse failed")
	ErrProvider        = errors.New("provider request failed")
	ErrPanic           = errors.New("tool panicked")
)

// ExecutionError reports a failure raised by a tool handler. It unwraps to
// the underlying cause so callers can match the sentinels above.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s execution failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Observation renders err as the text fed back to the model.
func Observation(err error) string {
	return "Error: " + err.Error()
}
