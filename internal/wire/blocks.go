package wire

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/wirebird/tern/messages"
	"github.com/wirebird/tern/pkg/slogx"
	"github.com/wirebird/tern/provider"
)

// blockEvent is the JSON payload of one content-block stream event. The Type
// discriminator selects which of the optional members is populated.
type blockEvent struct {
	Type         string        `json:"type"`
	Index        int           `json:"index"`
	Message      *blockMessage `json:"message"`
	ContentBlock *contentBlock `json:"content_block"`
	Delta        *blockDelta   `json:"delta"`
	Usage        *blockUsage   `json:"usage"`
}

type blockMessage struct {
	Usage blockUsage `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type blockDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	PartialJSON string `json:"partial_json"`
	StopReason  string `json:"stop_reason"`
}

type blockUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// BlockDecoder decodes content-block-addressed streams: typed SSE events
// with explicit block lifecycles, as spoken by Anthropic-style backends and
// their re-implementations.
//
// A tool_use block start carries the call's id and name up front, so the
// start event is emitted immediately and only the arguments accumulate;
// the block's stop event completes the call. Event types this decoder does
// not know are ignored, which is how the format versions itself.
type BlockDecoder struct {
	sse *Scanner
	acc Accumulator

	content   strings.Builder
	calls     []messages.ToolCall
	usage     messages.Usage
	haveUsage bool
	stop      string
	fail      error

	pending []provider.StreamEvent
	done    bool
}

// NewBlockDecoder returns a decoder over one response body.
func NewBlockDecoder(r io.Reader) *BlockDecoder {
	return &BlockDecoder{sse: NewScanner(r)}
}

// Next returns the next canonical event, then io.EOF once the terminal
// MessageEnd has been returned.
func (d *BlockDecoder) Next() (provider.StreamEvent, error) {
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
				// A well-behaved backend sends message_stop first, but a
				// dropped connection still yields everything decoded so far.
				d.finish()
				continue
			}
			return nil, err
		}
		d.decode(frame)
	}
}

// StopReason returns the normalized stop reason, known once the stream has
// been drained. Empty when the backend never reported one.
func (d *BlockDecoder) StopReason() string { return d.stop }

func (d *BlockDecoder) decode(frame Frame) {
	var event blockEvent
	if err := json.Unmarshal(frame.Data, &event); err != nil {
		slog.Debug("skipping undecodable stream frame", slogx.Error(err))
		return
	}

	// Some proxies omit the JSON discriminator and rely on the SSE event
	// name alone.
	evType := event.Type
	if evType == "" {
		evType = frame.Name
	}

	switch evType {
	case "message_start":
		if event.Message != nil {
			d.usage.InputTokens = event.Message.Usage.InputTokens
			d.haveUsage = true
		}

	case "content_block_start":
		if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
			// A start without a preceding stop closes the open call; every
			// started call must end.
			d.closeOpenCall()
			d.acc.Open(event.ContentBlock.ID, event.ContentBlock.Name)
			d.pending = append(d.pending, provider.ToolUseStart{
				ID:   event.ContentBlock.ID,
				Name: event.ContentBlock.Name,
			})
		}

	case "content_block_delta":
		if event.Delta == nil {
			return
		}
		switch event.Delta.Type {
		case "text_delta":
			if event.Delta.Text != "" {
				d.content.WriteString(event.Delta.Text)
				d.pending = append(d.pending, provider.TextDelta{Text: event.Delta.Text})
			}
		case "input_json_delta":
			d.acc.Append(event.Delta.PartialJSON)
		}

	case "content_block_stop":
		d.closeOpenCall()

	case "message_delta":
		if event.Delta != nil && event.Delta.StopReason != "" {
			d.stop = mapStopReason(event.Delta.StopReason)
		}
		if event.Usage != nil {
			d.usage.OutputTokens = event.Usage.OutputTokens
			d.haveUsage = true
		}

	case "message_stop":
		d.finish()

	case "error":
		d.acc.Discard()
		d.fail = provider.FromEnvelope(frame.Data)

	default:
		// ping and future event types.
	}
}

func (d *BlockDecoder) closeOpenCall() {
	call, ok := d.acc.Close()
	if !ok {
		return
	}
	d.calls = append(d.calls, call)
	d.pending = append(d.pending, provider.ToolUseEnd{ID: call.ID, Name: call.Name, Input: call.Arguments})
}

func (d *BlockDecoder) finish() {
	if d.done {
		return
	}
	d.closeOpenCall()

	var usage *messages.Usage
	if d.haveUsage {
		u := d.usage
		usage = &u
	}
	d.pending = append(d.pending, provider.MessageEnd{
		Message: messages.ChatMessage{
			Role:      messages.RoleAssistant,
			Content:   d.content.String(),
			ToolCalls: d.calls,
		},
		Usage: usage,
	})
	d.done = true
}

func mapStopReason(reason string) string {
	switch reason {
	case "end_turn":
		return messages.StopReasonStop
	case "tool_use":
		return messages.StopReasonToolCalls
	case "max_tokens":
		return messages.StopReasonLength
	default:
		return reason
	}
}
