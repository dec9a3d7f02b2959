package wire

import (
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"github.com/wirebird/tern/messages"
	"github.com/wirebird/tern/provider"
)

// OneshotDecoder replays a complete non-streaming response as canonical
// events, so callers consume streaming and non-streaming backends through
// the same interface. Tool calls are emitted as immediate start/end pairs,
// then the full text as a single delta, then the terminal MessageEnd.
type OneshotDecoder struct {
	events []provider.StreamEvent
	stop   string
}

// ParseOneshot parses one complete JSON response body. Both choice-addressed
// bodies (message under choices[0]) and content-block bodies (top-level
// content array) are recognized; anything else is an error.
func ParseOneshot(data []byte) (*OneshotDecoder, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("response body is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	switch {
	case root.Get("choices").IsArray():
		return parseChoices(root)
	case root.Get("content").IsArray():
		return parseBlocks(root)
	case root.Get("error").Exists():
		return nil, provider.FromEnvelope(data)
	}
	return nil, fmt.Errorf("unrecognized response body shape")
}

// Next returns the next replayed event, then io.EOF.
func (d *OneshotDecoder) Next() (provider.StreamEvent, error) {
	if len(d.events) == 0 {
		return nil, io.EOF
	}
	ev := d.events[0]
	d.events = d.events[1:]
	return ev, nil
}

// StopReason returns the normalized stop reason, empty when the backend
// omitted one.
func (d *OneshotDecoder) StopReason() string { return d.stop }

func parseChoices(root gjson.Result) (*OneshotDecoder, error) {
	msg := root.Get("choices.0.message")
	if !msg.Exists() {
		return nil, fmt.Errorf("response has no message in choices[0]")
	}

	var calls []messages.ToolCall
	for i, tc := range msg.Get("tool_calls").Array() {
		id := tc.Get("id").String()
		if id == "" {
			id = SynthesizeID(i)
		}
		calls = append(calls, messages.ToolCall{
			ID:   id,
			Name: tc.Get("function.name").String(),
			// Arguments arrive as a JSON-encoded string.
			Arguments: normalizeArguments(tc.Get("function.arguments").String()),
		})
	}

	d := &OneshotDecoder{stop: mapFinishReason(root.Get("choices.0.finish_reason").String())}
	d.replay(msg.Get("content").String(), calls, choiceUsage(root))
	return d, nil
}

func parseBlocks(root gjson.Result) (*OneshotDecoder, error) {
	var (
		text  string
		calls []messages.ToolCall
	)
	for i, block := range root.Get("content").Array() {
		switch block.Get("type").String() {
		case "text":
			text += block.Get("text").String()
		case "tool_use":
			id := block.Get("id").String()
			if id == "" {
				id = SynthesizeID(i)
			}
			calls = append(calls, messages.ToolCall{
				ID:        id,
				Name:      block.Get("name").String(),
				Arguments: normalizeArguments(block.Get("input").Raw),
			})
		}
	}

	d := &OneshotDecoder{stop: mapStopReason(root.Get("stop_reason").String())}
	d.replay(text, calls, blockOneshotUsage(root))
	return d, nil
}

func (d *OneshotDecoder) replay(text string, calls []messages.ToolCall, usage *messages.Usage) {
	for _, call := range calls {
		d.events = append(d.events,
			provider.ToolUseStart{ID: call.ID, Name: call.Name},
			provider.ToolUseEnd{ID: call.ID, Name: call.Name, Input: call.Arguments},
		)
	}
	if text != "" {
		d.events = append(d.events, provider.TextDelta{Text: text})
	}
	d.events = append(d.events, provider.MessageEnd{
		Message: messages.ChatMessage{
			Role:      messages.RoleAssistant,
			Content:   text,
			ToolCalls: calls,
		},
		Usage: usage,
	})
}

func choiceUsage(root gjson.Result) *messages.Usage {
	u := root.Get("usage")
	if !u.Exists() {
		return nil
	}
	return &messages.Usage{
		InputTokens:  int(u.Get("prompt_tokens").Int()),
		OutputTokens: int(u.Get("completion_tokens").Int()),
	}
}

func blockOneshotUsage(root gjson.Result) *messages.Usage {
	u := root.Get("usage")
	if !u.Exists() {
		return nil
	}
	return &messages.Usage{
		InputTokens:  int(u.Get("input_tokens").Int()),
		OutputTokens: int(u.Get("output_tokens").Int()),
	}
}
