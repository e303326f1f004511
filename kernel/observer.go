package kernel

import "github.com/tailored-agentic-units/alfred/observability"

// Kernel event types emitted during the agentic loop.
const (
	EventRunStart       observability.EventType = "kernel.run.start"
	EventRunComplete    observability.EventType = "kernel.run.complete"
	EventRetrieve       observability.EventType = "kernel.retrieve"
	EventIterationStart observability.EventType = "kernel.iteration.start"
	EventToolCall       observability.EventType = "kernel.tool.call"
	EventToolComplete   observability.EventType = "kernel.tool.complete"
	EventResponse       observability.EventType = "kernel.response"
	EventError          observability.EventType = "kernel.error"
)

// Run outcomes reported in the "outcome" field of EventRunComplete.
const (
	OutcomeAnswered      = "answered"
	OutcomeMaxIterations = "max_iterations"
	OutcomeBackendError  = "backend_error"
	OutcomeCancelled     = "cancelled"
)
