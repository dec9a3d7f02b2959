package messages

import (
	"fmt"
	"strings"

	"github.com/wirebird/tern/tool"
)

// ChatRequest is a provider-neutral completion request. Model and
// SystemPrompt override the provider's configured defaults when set.
// Zero MaxTokens and Temperature mean "provider default".
type ChatRequest struct {
	Messages     []ChatMessage     `json:"messages"`
	Model        string            `json:"model,omitempty"`
	SystemPrompt string            `json:"system_prompt,omitempty"`
	MaxTokens    int               `json:"max_tokens,omitempty"`
	Temperature  float64           `json:"temperature,omitempty"`
	Tools        []tool.Definition `json:"tools,omitempty"`
}

// Validate checks the request for problems every backend would reject:
// no messages, unknown roles, tool results that don't name a call id, and
// negative sampling parameters.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("chat request: no messages")
	}
	var errs []string
	for i, msg := range r.Messages {
		if !msg.Role.Valid() {
			errs = append(errs, fmt.Sprintf("message %d: unknown role %q", i, msg.Role))
		}
		if msg.Role == RoleTool && msg.ToolResultFor == "" {
			errs = append(errs, fmt.Sprintf("message %d: tool result without a call id", i))
		}
		if msg.Role != RoleAssistant && len(msg.ToolCalls) > 0 {
			errs = append(errs, fmt.Sprintf("message %d: tool calls on %s message", i, msg.Role))
		}
	}
	if r.MaxTokens < 0 {
		errs = append(errs, fmt.Sprintf("max_tokens %d is negative", r.MaxTokens))
	}
	if r.Temperature < 0 {
		errs = append(errs, fmt.Sprintf("temperature %g is negative", r.Temperature))
	}
	for i, def := range r.Tools {
		if def.Name == "" {
			errs = append(errs, fmt.Sprintf("tool %d: empty name", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("chat request: %s", strings.Join(errs, "; "))
	}
	return nil
}
