package wire

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/wirebird/tern/messages"
	"github.com/wirebird/tern/pkg/slogx"
	"github.com/wirebird/tern/provider"
)

var doneSentinel = []byte("[DONE]")

// deltaFrame is the JSON payload of one chat-completion chunk.
type deltaFrame struct {
	Choices []deltaChoice `json:"choices"`
	Usage   *deltaUsage   `json:"usage"`
	Error   *errEnvelope  `json:"error"`
}

type deltaChoice struct {
	Delta struct {
		Content   string          `json:"content"`
		ToolCalls []toolCallDelta `json:"tool_calls"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type toolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type deltaUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type errEnvelope struct {
	Message string `json:"message"`
}

// DeltaDecoder decodes index-addressed delta streams: SSE frames of
// chat-completion chunks terminated by a [DONE] sentinel, as spoken by
// OpenAI-compatible and self-hosted backends.
//
// Tool calls arrive fragmented: the frame that opens a call carries the
// index, usually an id, and the name; every following frame for the same
// index appends argument text. A frame addressing a different index closes
// the open call. The stream's end closes whatever is still open, so every
// started call ends.
type DeltaDecoder struct {
	sse *Scanner
	acc Accumulator

	index   int
	content strings.Builder
	calls   []messages.ToolCall
	usage   *messages.Usage
	stop    string
	fail    error

	pending []provider.StreamEvent
	done    bool
}

// NewDeltaDecoder returns a decoder over one response body. The decoder owns
// no transport state; closing r when done is the caller's job.
func NewDeltaDecoder(r io.Reader) *DeltaDecoder {
	return &DeltaDecoder{sse: NewScanner(r), index: -1}
}

// Next returns the next canonical event, then io.EOF once the terminal
// MessageEnd has been returned.
func (d *DeltaDecoder) Next() (provider.StreamEvent, error) {
	for {
		if len(d.pending) > 0 {
			ev := d.pending[0]
			d.pending = d.pending[1:]
			return ev, nil
		}
		if d.fail != nil {
			return nil, d.fail
		}
		if d.done {
			return nil, io.EOF
		}

		frame, err := d.sse.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Some backends close the connection instead of sending
				// [DONE]; treat it as clean exhaustion.
				d.finish()
				continue
			}
			return nil, err
		}
		d.decode(frame.Data)
	}
}

// StopReason returns the normalized finish reason, known once the stream has
// been drained. Empty when the backend never reported one.
func (d *DeltaDecoder) StopReason() string { return d.stop }

func (d *DeltaDecoder) decode(data []byte) {
	if bytes.Equal(bytes.TrimSpace(data), doneSentinel) {
		d.finish()
		return
	}

	var frame deltaFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		// One corrupt frame must not abort the stream.
		slog.Debug("skipping undecodable stream frame", slogx.Error(err))
		return
	}

	if frame.Error != nil {
		d.acc.Discard()
		d.fail = provider.FromEnvelope(data)
		return
	}

	if frame.Usage != nil {
		d.usage = &messages.Usage{
			InputTokens:  frame.Usage.PromptTokens,
			OutputTokens: frame.Usage.CompletionTokens,
		}
	}

	if len(frame.Choices) == 0 {
		return
	}
	choice := frame.Choices[0]

	if choice.Delta.Content != "" {
		d.content.WriteString(choice.Delta.Content)
		d.pending = append(d.pending, provider.TextDelta{Text: choice.Delta.Content})
	}

	for _, tc := range choice.Delta.ToolCalls {
		if tc.Index != d.index || !d.acc.IsOpen() {
			d.closeOpenCall()
			id := tc.ID
			if id == "" {
				id = SynthesizeID(tc.Index)
			}
			d.acc.Open(id, tc.Function.Name)
			d.index = tc.Index
			d.pending = append(d.pending, provider.ToolUseStart{ID: id, Name: tc.Function.Name})
		}
		d.acc.Append(tc.Function.Arguments)
	}

	if choice.FinishReason != "" {
		d.stop = mapFinishReason(choice.FinishReason)
	}
}

// closeOpenCall completes the in-flight tool call, if any, recording it and
// queueing its end event.
func (d *DeltaDecoder) closeOpenCall() {
	call, ok := d.acc.Close()
	if !ok {
		return
	}
	d.calls = append(d.calls, call)
	d.pending = append(d.pending, provider.ToolUseEnd{ID: call.ID, Name: call.Name, Input: call.Arguments})
}

func (d *DeltaDecoder) finish() {
	if d.done {
		return
	}
	d.closeOpenCall()
	d.pending = append(d.pending, provider.MessageEnd{
		Message: messages.ChatMessage{
			Role:      messages.RoleAssistant,
			Content:   d.content.String(),
			ToolCalls: d.calls,
		},
		Usage: d.usage,
	})
	d.done = true
}

func mapFinishReason(reason string) string {
	switch reason {
	case "stop":
		return messages.StopReasonStop
	case "tool_calls", "function_call":
		return messages.StopReasonToolCalls
	case "length":
		return messages.StopReasonLength
	default:
		return reason
	}
}
