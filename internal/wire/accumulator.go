package wire

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/wirebird/tern/messages"
)

// Accumulator reassembles one fragmented tool call. It moves between two
// states: absent (nothing in progress) and open (id and name are fixed,
// argument text is being appended). Closing parses the buffered text and
// resets to absent, so one accumulator serves a whole stream of sequential
// calls. It is owned by exactly one decoder and is not safe for concurrent
// use, which no decoder needs.
type Accumulator struct {
	id   string
	name string
	args strings.Builder
	open bool
}

// Open begins accumulating a call. The id and name are fixed for the call's
// lifetime; they are what the matching start and end events carry.
func (a *Accumulator) Open(id, name string) {
	a.reset()
	a.id = id
	a.name = name
	a.open = true
}

// IsOpen reports whether a call is in progress.
func (a *Accumulator) IsOpen() bool { return a.open }

// Append adds a fragment of argument text. A no-op when no call is open, so
// decoders can feed stray fragments without guarding.
func (a *Accumulator) Append(fragment string) {
	if !a.open || fragment == "" {
		return
	}
	a.args.WriteString(fragment)
}

// Close completes the open call and resets the accumulator. The buffered
// argument text is kept verbatim when it parses as a JSON object and replaced
// with {} otherwise; a garbled tail never fails the call. The second return
// is false when no call was open.
func (a *Accumulator) Close() (messages.ToolCall, bool) {
	if !a.open {
		return messages.ToolCall{}, false
	}
	call := messages.ToolCall{
		ID:        a.id,
		Name:      a.name,
		Arguments: normalizeArguments(a.args.String()),
	}
	a.reset()
	return call, true
}

// Discard drops any accumulated state without reporting a call. Decoders use
// it when a stream fails mid-call.
func (a *Accumulator) Discard() { a.reset() }

func (a *Accumulator) reset() {
	a.id = ""
	a.name = ""
	a.args.Reset()
	a.open = false
}

// normalizeArguments returns the accumulated text as a valid JSON object,
// falling back to {} for anything that is not one.
func normalizeArguments(text string) json.RawMessage {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !gjson.Valid(trimmed) || !gjson.Parse(trimmed).IsObject() {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(trimmed)
}

// SynthesizeID builds a call id for backends that omit one on the first
// delta frame. Best effort only: two calls opened in the same millisecond at
// the same index collide, which mirrors what those backends' own clients do.
func SynthesizeID(index int) string {
	return fmt.Sprintf("tool_%d_%d", time.Now().UnixMilli(), index)
}
