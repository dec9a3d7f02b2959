/*
Package openai implements provider.Provider for OpenAI's chat completions
API and every service that speaks the same wire format. Streaming responses
arrive as delta-addressed SSE frames and are decoded into canonical stream
events; non-streaming calls parse the single JSON document through the same
event pipeline, so consumers never see the difference.

# Design Decisions

  - One wire format, many hosts: the base URL is the only thing that changes
    between the hosted API and compatible gateways, so WithBaseURL plus
    WithName covers all of them.
  - Hand-rolled protocol: the wire shapes are small and stable, and decoding
    them directly keeps the streaming path free of SDK buffering.
  - Retries wrap whole attempts: a stream that fails after events flowed is
    not reattempted; only establishing the call is.

# Usage

	p := openai.New(
		openai.FromEnv(),
		openai.WithModel(openai.ModelGPT4oMini),
	)

	events, err := p.ChatStream(ctx, &messages.ChatRequest{
		Messages: []messages.ChatMessage{messages.User("hello")},
	})
	if err != nil {
		return err
	}
	for event := range events {
		// switch on the canonical event types
	}
*/
package openai
