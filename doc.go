/*
Package tern adapts the streaming wire formats of LLM chat backends into one
canonical event model, so a host application can switch providers, fail over
between them, and reconstruct streamed tool calls without knowing which wire
format produced them.

The package is built from a few pieces:

  - Canonical events: TextDelta, ToolUseStart, ToolUseEnd, MessageEnd, and
    Error, emitted in a fixed order regardless of provider
  - Decoders: one per wire format, turning SSE frames or a complete JSON
    document into canonical events (internal/wire)
  - Providers: openai, anthropic, and local backends implementing
    provider.Provider over those decoders
  - Registry: named providers with an active pointer, switching, health
    probes, and failover

# Basic Usage

Register providers once, then chat through the registry:

	reg := tern.NewRegistry(
		openai.New(openai.FromEnv()),
		anthropic.New(anthropic.FromEnv()),
	)

	stream, err := reg.ChatStream(ctx, &messages.ChatRequest{
		Messages: []messages.ChatMessage{messages.User("hello")},
	})
	if err != nil {
		return err
	}
	for event := range stream.Events {
		switch ev := event.(type) {
		case provider.TextDelta:
			fmt.Print(ev.Text)
		case provider.MessageEnd:
			fmt.Println()
		}
	}

Streams are tracked while they run; stream.Cancel or reg.CancelActive stops
them, and the event channel closes without a terminal event.

# Failover

ChatWithFailover tries the active provider first and walks the remaining
enabled providers when it fails with a retryable kind:

	resp, err := reg.ChatWithFailover(ctx, req)

Auth and bad-request failures surface immediately, since every provider
would reject them the same way.
*/
package tern
