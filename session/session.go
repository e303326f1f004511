// Package session holds the conversation state of a single agent run.
package session

import (
	"github.com/tailored-agentic-units/alfred/core/protocol"
)

// Session is the append-only conversation log of one run together with the
// session identifier of the task being solved. Implementations must be safe
// for concurrent use.
type Session interface {
	// ID returns the session identifier supplied by the caller. It may be
	// empty when the run is not associated with a task.
	ID() string
	// ConversationID returns a unique identifier for this conversation.
	ConversationID() string
	// Append adds messages to the end of the conversation, in order.
	Append(msgs ...protocol.Message)
	// Messages returns a defensive copy of the conversation history.
	Messages() []protocol.Message
	// Len returns the number of messages in the conversation.
	Len() int
}
