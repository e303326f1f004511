package kernel

import "errors"

var (
	// ErrMaxIterations is returned by Run when the loop exhausts its
	// iteration budget without the agent producing a final response. The
	// accompanying Result holds the partial transcript.
	ErrMaxIterations = errors.New("max iterations reached")

	// ErrModelBackend wraps a failed or timed-out model call. It ends the
	// run with no answer.
	ErrModelBackend = errors.New("model backend failed")

	// ErrEmptyQuery is returned by Run for a blank query.
	ErrEmptyQuery = errors.New("query is empty")
)
