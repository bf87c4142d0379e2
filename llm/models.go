// Package llm provides shared data models for LLM providers.
package llm

import "encoding/json"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDefinition defines a tool that the LLM can call.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// EventKind distinguishes the two kinds of streamed fragments.
type EventKind int

const (
	// EventToken carries a piece of assistant content.
	EventToken EventKind = iota
	// EventToolArgs carries a fragment of a tool call's JSON arguments.
	EventToolArgs
)

func (k EventKind) String() string {
	if k == EventToolArgs {
		return "tool_args"
	}
	return "token"
}

// StreamEvent is one fragment produced by a streaming completion.
type StreamEvent struct {
	Kind EventKind
	Text string
}

// CompletionRequest is everything a provider needs for one streamed call.
type CompletionRequest struct {
	Messages    []ChatMessage
	Tools       []ToolDefinition
	ToolChoice  string // forced tool name; empty lets the model decide
	Temperature *float32
	MaxTokens   int
	Format      *ResponseFormat

	// Label names the call site (plan, search_check, ...). Providers that
	// talk to a real API ignore it; it feeds logs, metrics and the mock.
	Label string
}

// Completion is the accumulated result of a streamed call.
type Completion struct {
	Text     string
	ToolArgs string
}

// ResponseFormatType defines the type of response format.
type ResponseFormatType string

const (
	ResponseFormatText       ResponseFormatType = "text"
	ResponseFormatJSONObject ResponseFormatType = "json_object"
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// ResponseFormat specifies how the LLM should format its response.
type ResponseFormat struct {
	Type       ResponseFormatType `json:"type"`
	JSONSchema *JSONSchemaFormat  `json:"json_schema,omitempty"`
}

// JSONSchemaFormat defines a JSON schema for structured outputs.
type JSONSchemaFormat struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema"`
	Strict      bool            `json:"strict"`
}

// NewJSONObjectFormat creates a JSON object response format.
func NewJSONObjectFormat() *ResponseFormat {
	return &ResponseFormat{Type: ResponseFormatJSONObject}
}

// NewJSONSchemaFormat creates a JSON schema response format.
func NewJSONSchemaFormat(name string, schema json.RawMessage) *ResponseFormat {
	return &ResponseFormat{
		Type: ResponseFormatJSONSchema,
		JSONSchema: &JSONSchemaFormat{
			Name:   name,
			Schema: schema,
			Strict: true,
		},
	}
}
