package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMessage  = errors.New("invalid message")
	ErrUnpairedResult  = errors.New("tool result does not answer a pending call")
	ErrMissingResult   = errors.New("tool call left unanswered")
	ErrDuplicateResult = errors.New("tool call answered more than once")
)

// LastHuman returns the content of the most recent human message.
func LastHuman(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if m, ok := messages[i].(HumanMessage); ok {
			return m.Content, true
		}
	}
	return "", false
}

// LastAssistant returns the most recent assistant message.
func LastAssistant(messages []Message) (AssistantMessage, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if m, ok := messages[i].(AssistantMessage); ok {
			return m, true
		}
	}
	return AssistantMessage{}, false
}

// ValidateTranscript checks tool-call pairing: every tool result must answer a
// call of the closest preceding assistant message, each call is answered
// exactly once, and all calls are answered before the next assistant turn.
func ValidateTranscript(messages []Message) error {
	pending := map[string]bool{}
	answered := map[string]bool{}

	checkDone := func(at int) error {
		for id := range pending {
			if !answered[id] {
				return fmt.Errorf("%w: %s (before message %d)", ErrMissingResult, id, at)
			}
		}
		return nil
	}

	for i, msg := range messages {
		switch m := msg.(type) {
		case AssistantMessage:
			if err := checkDone(i); err != nil {
				return err
			}
			pending = make(map[string]bool, len(m.ToolCalls))
			answered = make(map[string]bool, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				pending[tc.ID] = true
			}
		case ToolResultMessage:
			if !pending[m.CallID] {
				return fmt.Errorf("%w: %s (message %d)", ErrUnpairedResult, m.CallID, i)
			}
			if answered[m.CallID] {
				return fmt.Errorf("%w: %s (message %d)", ErrDuplicateResult, m.CallID, i)
			}
			answered[m.CallID] = true
		}
	}

	return nil
}
