package provider

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/wirebird/tern/messages"
)

var (
	textDeltaJSON    = []byte(`{"type":"text_delta"}`)
	toolUseStartJSON = []byte(`{"type":"tool_use_start"}`)
	toolUseEndJSON   = []byte(`{"type":"tool_use_end"}`)
	messageEndJSON   = []byte(`{"type":"message_end"}`)
	errorJSON        = []byte(`{"type":"error"}`)
)

// StreamEvent is the canonical event emitted on a chat stream, regardless of
// which backend produced it. The concrete types are TextDelta, ToolUseStart,
// ToolUseEnd, MessageEnd, and Error; nothing else ever flows on a stream.
//
// A well-formed stream is zero or more TextDelta and ToolUseStart/ToolUseEnd
// pairs followed by exactly one terminal event, MessageEnd or Error.
type StreamEvent interface {
	streamEvent()
}

// TextDelta is an incremental piece of assistant text, emitted in order.
type TextDelta struct {
	Text string `json:"text"`
}

func (TextDelta) streamEvent() {}

// ToolUseStart announces that the model began a tool invocation. The
// matching ToolUseEnd carries the same ID and Name.
type ToolUseStart struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (ToolUseStart) streamEvent() {}

// ToolUseEnd completes a tool invocation. Input is always a valid JSON
// object; arguments that never parsed arrive as {}.
type ToolUseEnd struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

func (ToolUseEnd) streamEvent() {}

// MessageEnd terminates a successful stream. Message.Content is the
// concatenation of every prior TextDelta and Message.ToolCalls the completed
// calls, both in emission order. Usage is set when the backend reported
// token counts, nil otherwise.
type MessageEnd struct {
	Message messages.ChatMessage `json:"message"`
	Usage   *messages.Usage      `json:"usage,omitempty"`
}

func (MessageEnd) streamEvent() {}

// Error terminates a failed stream. No MessageEnd follows.
type Error struct {
	Err error `json:"error"`
}

func (Error) streamEvent() {}

func (e Error) Error() string {
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e Error) Unwrap() error { return e.Err }

// MarshalJSON implements custom JSON marshaling for TextDelta
func (d TextDelta) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(textDeltaJSON, "text", d.Text)
}

// UnmarshalJSON implements custom JSON unmarshaling for TextDelta
func (d *TextDelta) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "text_delta" {
		return fmt.Errorf("missing or invalid type, expected 'text_delta'")
	}

	text := gjson.GetBytes(data, "text")
	if !text.Exists() {
		return fmt.Errorf("missing required field 'text'")
	}
	d.Text = text.String()

	return nil
}

// MarshalJSON implements custom JSON marshaling for ToolUseStart
func (s ToolUseStart) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(toolUseStartJSON, "id", s.ID)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "name", s.Name)
}

// UnmarshalJSON implements custom JSON unmarshaling for ToolUseStart
func (s *ToolUseStart) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "tool_use_start" {
		return fmt.Errorf("missing or invalid type, expected 'tool_use_start'")
	}

	id := gjson.GetBytes(data, "id")
	if !id.Exists() {
		return fmt.Errorf("missing required field 'id'")
	}
	s.ID = id.String()

	name := gjson.GetBytes(data, "name")
	if !name.Exists() {
		return fmt.Errorf("missing required field 'name'")
	}
	s.Name = name.String()

	return nil
}

// MarshalJSON implements custom JSON marshaling for ToolUseEnd
func (e ToolUseEnd) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(toolUseEndJSON, "id", e.ID)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "name", e.Name)
	if err != nil {
		return nil, err
	}

	input := e.Input
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	return sjson.SetRawBytes(result, "input", input)
}

// UnmarshalJSON implements custom JSON unmarshaling for ToolUseEnd
func (e *ToolUseEnd) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "tool_use_end" {
		return fmt.Errorf("missing or invalid type, expected 'tool_use_end'")
	}

	id := gjson.GetBytes(data, "id")
	if !id.Exists() {
		return fmt.Errorf("missing required field 'id'")
	}
	e.ID = id.String()

	name := gjson.GetBytes(data, "name")
	if !name.Exists() {
		return fmt.Errorf("missing required field 'name'")
	}
	e.Name = name.String()

	input := gjson.GetBytes(data, "input")
	if !input.Exists() {
		return fmt.Errorf("missing required field 'input'")
	}
	e.Input = json.RawMessage(input.Raw)

	return nil
}

// MarshalJSON implements custom JSON marshaling for MessageEnd
func (m MessageEnd) MarshalJSON() ([]byte, error) {
	msg, err := json.Marshal(m.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := sjson.SetRawBytes(messageEndJSON, "message", msg)
	if err != nil {
		return nil, err
	}

	if m.Usage != nil {
		usage, err := json.Marshal(m.Usage)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal usage: %w", err)
		}
		result, err = sjson.SetRawBytes(result, "usage", usage)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for MessageEnd
func (m *MessageEnd) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "message_end" {
		return fmt.Errorf("missing or invalid type, expected 'message_end'")
	}

	msg := gjson.GetBytes(data, "message")
	if !msg.Exists() {
		return fmt.Errorf("missing required field 'message'")
	}
	if err := json.Unmarshal([]byte(msg.Raw), &m.Message); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	if usage := gjson.GetBytes(data, "usage"); usage.Exists() {
		m.Usage = &messages.Usage{}
		if err := json.Unmarshal([]byte(usage.Raw), m.Usage); err != nil {
			return fmt.Errorf("invalid usage: %w", err)
		}
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling for Error
func (e Error) MarshalJSON() ([]byte, error) {
	if e.Err == nil {
		return errorJSON, nil
	}
	return sjson.SetBytes(errorJSON, "error", e.Err.Error())
}

// UnmarshalJSON implements custom JSON unmarshaling for Error
func (e *Error) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "error" {
		return fmt.Errorf("missing or invalid type, expected 'error'")
	}

	errMsg := gjson.GetBytes(data, "error")
	if !errMsg.Exists() {
		return errors.New("missing required field 'error'")
	}
	e.Err = errors.New(errMsg.String())

	return nil
}

// UnmarshalStreamEvent decodes a serialized stream event by its type tag.
func UnmarshalStreamEvent(data []byte) (StreamEvent, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	switch tag := gjson.GetBytes(data, "type").String(); tag {
	case "text_delta":
		var ev TextDelta
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	case "tool_use_start":
		var ev ToolUseStart
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	case "tool_use_end":
		var ev ToolUseEnd
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	case "message_end":
		var ev MessageEnd
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	case "error":
		var ev Error
		if err := ev.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown stream event type %q", tag)
	}
}
