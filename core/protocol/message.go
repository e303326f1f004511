package protocol

import (
	"encoding/json"
	"fmt"
)

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single turn in a conversation. The concrete type carries the
// role-specific payload: SystemMessage, HumanMessage, AssistantMessage or
// ToolResultMessage. No other implementations exist.
type Message interface {
	Role() Role
	// Text returns the textual payload of the message.
	Text() string
	message()
}

// SystemMessage holds the instructions that prime the model.
type SystemMessage struct {
	Content string
}

// HumanMessage is input authored by (or on behalf of) the user.
type HumanMessage struct {
	Content string
}

// AssistantMessage is a model turn. A non-empty ToolCalls slice means the
// model is requesting tool execution before it can answer.
type AssistantMessage struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolResultMessage answers exactly one ToolCall of the preceding assistant
// turn, correlated by CallID.
type ToolResultMessage struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

func NewSystem(content string) SystemMessage { return SystemMessage{Content: content} }

func NewHuman(content string) HumanMessage { return HumanMessage{Content: content} }

func NewAssistant(content string, calls ...ToolCall) AssistantMessage {
	return AssistantMessage{Content: content, ToolCalls: calls}
}

// NewToolResult creates the observation for call.
func NewToolResult(call ToolCall, content string, isError bool) ToolResultMessage {
	return ToolResultMessage{
		CallID:  call.ID,
		Name:    call.Name,
		Content: content,
		IsError: isError,
	}
}

func (SystemMessage) Role() Role     { return RoleSystem }
func (HumanMessage) Role() Role      { return RoleHuman }
func (AssistantMessage) Role() Role  { return RoleAssistant }
func (ToolResultMessage) Role() Role { return RoleTool }

func (m SystemMessage) Text() string     { return m.Content }
func (m HumanMessage) Text() string      { return m.Content }
func (m AssistantMessage) Text() string  { return m.Content }
func (m ToolResultMessage) Text() string { return m.Content }

func (SystemMessage) message()     {}
func (HumanMessage) message()      {}
func (AssistantMessage) message()  {}
func (ToolResultMessage) message() {}

// HasToolCalls reports whether the model requested any tool invocation.
func (m AssistantMessage) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// wireMessage is the flat JSON form shared by every message variant.
type wireMessage struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

func (m SystemMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{Role: RoleSystem, Content: m.Content})
}

func (m HumanMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{Role: RoleHuman, Content: m.Content})
}

func (m AssistantMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{Role: RoleAssistant, Content: m.Content, ToolCalls: m.ToolCalls})
}

func (m ToolResultMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{
		Role:       RoleTool,
		Content:    m.Content,
		ToolCallID: m.CallID,
		Name:       m.Name,
		IsError:    m.IsError,
	})
}

// UnmarshalMessage decodes the flat JSON form back into the matching variant.
// A tool message without tool_call_id is rejected.
func UnmarshalMessage(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	switch w.Role {
	case RoleSystem:
		return SystemMessage{Content: w.Content}, nil
	case RoleHuman:
		return HumanMessage{Content: w.Content}, nil
	case RoleAssistant:
		return AssistantMessage{Content: w.Content, ToolCalls: w.ToolCalls}, nil
	case RoleTool:
		if w.ToolCallID == "" {
			return nil, fmt.Errorf("%w: tool message without tool_call_id", ErrInvalidMessage)
		}
		return ToolResultMessage{CallID: w.ToolCallID, Name: w.Name, Content: w.Content, IsError: w.IsError}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, w.Role)
	}
}
