package messages

import (
	json "github.com/goccy/go-json"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether the role is one of the four known values.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ToolCall is a completed tool invocation requested by the assistant.
// Arguments always holds a valid JSON object; an invocation whose arguments
// never parsed is represented as {}.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ChatMessage is one turn in a conversation. Content carries the text for
// every role. ToolCalls is populated only on assistant messages that request
// tools, and ToolResultFor only on tool messages, where it names the call id
// the result answers.
type ChatMessage struct {
	Role          Role       `json:"role"`
	Content       string     `json:"content"`
	ToolCalls     []ToolCall `json:"tool_calls,omitempty"`
	ToolResultFor string     `json:"tool_result_for,omitempty"`
}

// System returns a system-role message.
func System(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// User returns a user-role message.
func User(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// Assistant returns an assistant-role message.
func Assistant(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// ToolResult returns a tool-role message answering the given call id.
func ToolResult(callID, content string) ChatMessage {
	return ChatMessage{Role: RoleTool, Content: content, ToolResultFor: callID}
}
