package protocol

import "encoding/json"

// ToolCall represents a tool invocation requested by the model.
// Fields are flat (ID, Name, Arguments) for direct use across the module.
// UnmarshalJSON transparently handles the nested LLM API format
// (function.name, function.arguments) so provider payloads decode correctly.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewToolCall creates a ToolCall. Arguments is a JSON object encoded as text.
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{ID: id, Name: name, Arguments: arguments}
}

// MarshalJSON serializes to the nested LLM API format ({type, function: {name, arguments}}).
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	type function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	}
	return json.Marshal(struct {
		ID       string   `json:"id"`
		Type     string   `json:"type"`
		Function function `json:"function"`
	}{
		ID:       tc.ID,
		Type:     "function",
		Function: function{Name: tc.Name, Arguments: tc.Arguments},
	})
}

// UnmarshalJSON handles both the nested LLM API format ({function: {name, arguments}})
// and the flat format ({name, arguments}).
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var nested struct {
		ID       string `json:"id"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}

	if nested.Function.Name != "" {
		tc.ID = nested.ID
		tc.Name = nested.Function.Name
		tc.Arguments = nested.Function.Arguments
		return nil
	}

	type plain ToolCall
	return json.Unmarshal(data, (*plain)(tc))
}

// ParamType is the primitive JSON Schema type of a tool argument.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
)

// Param declares one named argument of a tool.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Tool is the definition advertised to the model: a unique name, free-text
// guidance the model uses to choose it, and the argument schema.
type Tool struct {
	Name        string
	Description string
	Params      []Param
}

// NewTool creates a Tool definition.
func NewTool(name, description string, params ...Param) Tool {
	return Tool{Name: name, Description: description, Params: params}
}

// Required returns the names of the required arguments in declaration order.
func (t Tool) Required() []string {
	required := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return required
}

// Properties returns the JSON Schema "properties" object for the arguments.
func (t Tool) Properties() map[string]any {
	props := make(map[string]any, len(t.Params))
	for _, p := range t.Params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
	}
	return props
}

// Schema returns the full JSON Schema object describing the arguments.
func (t Tool) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": t.Properties(),
		"required":   t.Required(),
	}
}

func (t Tool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	}{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Schema(),
	})
}
