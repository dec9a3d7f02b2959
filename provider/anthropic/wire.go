package anthropic

import (
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"github.com/wirebird/tern/messages"
)

const (
	messagesPath = "/v1/messages"

	// The messages endpoint rejects requests without max_tokens.
	defaultMaxTokens = 4096
)

// chatPayload is the request body for the messages endpoint.
type chatPayload struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
	Tools       []wireTool    `json:"tools,omitempty"`
}

type wireMessage struct {
	Role    string      `json:"role"`
	Content []wireBlock `json:"content"`
}

// wireBlock is one content block. Type selects which of the remaining
// fields are meaningful: text blocks carry Text, tool_use blocks carry
// ID/Name/Input, and tool_result blocks carry ToolUseID/Content.
type wireBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type wireTool struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// payload lowers a canonical request into the wire shape. System messages
// move to the top-level system field, tool results become tool_result blocks
// on user messages, and consecutive same-role messages merge into one, since
// the endpoint insists on strict user/assistant alternation.
func (p *Provider) payload(req *messages.ChatRequest, stream bool) chatPayload {
	var system []string
	if req.SystemPrompt != "" {
		system = append(system, req.SystemPrompt)
	}

	msgs := make([]wireMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case messages.RoleSystem:
			if m.Content != "" {
				system = append(system, m.Content)
			}
			continue
		case messages.RoleTool:
			msgs = append(msgs, wireMessage{Role: "user", Content: []wireBlock{{
				Type:      "tool_result",
				ToolUseID: m.ToolResultFor,
				Content:   m.Content,
			}}})
			continue
		}

		var blocks []wireBlock
		if m.Content != "" {
			blocks = append(blocks, wireBlock{Type: "text", Text: m.Content})
		}
		for _, call := range m.ToolCalls {
			blocks = append(blocks, wireBlock{
				Type:  "tool_use",
				ID:    call.ID,
				Name:  call.Name,
				Input: call.Arguments,
			})
		}
		if len(blocks) == 0 {
			continue
		}
		msgs = append(msgs, wireMessage{Role: string(m.Role), Content: blocks})
	}

	pl := chatPayload{
		Model:       p.model(req),
		System:      joinSystem(system),
		Messages:    mergeConsecutive(msgs),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
	if pl.MaxTokens <= 0 {
		pl.MaxTokens = defaultMaxTokens
	}
	for _, def := range req.Tools {
		pl.Tools = append(pl.Tools, wireTool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Schema(),
		})
	}
	return pl
}

func joinSystem(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "\n\n" + p
	}
	return out
}

// mergeConsecutive folds runs of same-role messages into a single message
// with the concatenated block list.
func mergeConsecutive(msgs []wireMessage) []wireMessage {
	if len(msgs) < 2 {
		return msgs
	}
	out := msgs[:1]
	for _, m := range msgs[1:] {
		last := &out[len(out)-1]
		if m.Role == last.Role {
			last.Content = append(last.Content, m.Content...)
			continue
		}
		out = append(out, m)
	}
	return out
}

func (p *Provider) model(req *messages.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.cfg.Model
}
