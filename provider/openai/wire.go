package openai

import (
	"github.com/invopop/jsonschema"
	"github.com/wirebird/tern/messages"
)

const completionsPath = "/chat/completions"

// chatPayload is the request body for the chat completions endpoint.
type chatPayload struct {
	Model         string         `json:"model"`
	Messages      []wireMessage  `json:"messages"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Temperature   float64        `json:"temperature,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
	Tools         []wireTool     `json:"tools,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name string `json:"name"`
	// Arguments is a JSON object encoded as a string, per the wire format.
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string             `json:"type"`
	Function wireToolDefinition `json:"function"`
}

type wireToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// payload lowers a canonical request into the wire shape. The system prompt
// rides as a leading system message; tool results reference their call id.
func (p *Provider) payload(req *messages.ChatRequest, stream bool) chatPayload {
	msgs := make([]wireMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, wireMessage{Role: "system", Content: req.SystemPrompt})
	}

	for _, m := range req.Messages {
		wm := wireMessage{Role: string(m.Role), Content: m.Content}
		switch m.Role {
		case messages.RoleTool:
			wm.ToolCallID = m.ToolResultFor
		case messages.RoleAssistant:
			for _, call := range m.ToolCalls {
				wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
					ID:   call.ID,
					Type: "function",
					Function: wireFunction{
						Name:      call.Name,
						Arguments: string(call.Arguments),
					},
				})
			}
		}
		msgs = append(msgs, wm)
	}

	pl := chatPayload{
		Model:       p.model(req),
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
	if stream {
		// Without this the stream never reports token usage.
		pl.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	for _, def := range req.Tools {
		pl.Tools = append(pl.Tools, wireTool{
			Type: "function",
			Function: wireToolDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Schema(),
			},
		})
	}
	return pl
}

func (p *Provider) model(req *messages.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.cfg.Model
}
