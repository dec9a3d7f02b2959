package messages

import "github.com/go-openapi/strfmt"

// Stop reasons reported on completed responses, normalized across backends.
const (
	StopReasonStop      = "stop"
	StopReasonToolCalls = "tool_calls"
	StopReasonLength    = "length"
)

// Usage is the token accounting a backend reported for one call. The counts
// are surfaced exactly as received; nothing in this module budgets on them.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// Add accumulates another call's usage into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// ChatResponse is the completed result of a non-streaming call, or the
// assembled final state of a drained stream.
type ChatResponse struct {
	Message    ChatMessage     `json:"message"`
	StopReason string          `json:"stop_reason,omitempty"`
	Usage      Usage           `json:"usage"`
	Provider   string          `json:"provider,omitempty"`
	Model      string          `json:"model,omitempty"`
	CreatedAt  strfmt.DateTime `json:"created_at,omitempty"`
}
