/*
Package anthropic implements provider.Provider for Anthropic's messages API.
Streams arrive as content-block lifecycle events, with tool arguments spread
across partial JSON deltas, and are decoded into the same canonical stream
events every provider emits.

# Design Decisions

  - System messages never travel in the message list: the wire format wants
    a single top-level system string, so system-role messages and the
    request's system prompt are folded together.
  - The endpoint requires strict user/assistant alternation, so consecutive
    same-role messages merge into one multi-block message rather than
    failing the request.
  - max_tokens is mandatory on the wire, so requests that leave it unset get
    a sensible default instead of a guaranteed rejection.

# Usage

	p := anthropic.New(
		anthropic.FromEnv(),
		anthropic.WithModel(anthropic.ModelSonnet),
	)

	resp, err := p.Chat(ctx, &messages.ChatRequest{
		Messages: []messages.ChatMessage{messages.User("hello")},
	})
*/
package anthropic
