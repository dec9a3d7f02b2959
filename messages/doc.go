// Package messages defines the provider-neutral chat data model: the
// conversation messages sent to a backend, the tool calls an assistant may
// request, and the completed response returned by non-streaming calls.
//
// Design decisions:
//   - Flat message shape: one ChatMessage struct with a Role discriminator
//     instead of a type per role. Providers lower it into their own wire
//     format, so the neutral form stays as small as possible.
//   - Raw tool arguments: ToolCall.Arguments is kept as raw JSON. The model
//     produced it and the tool runtime consumes it; this package never
//     interprets it.
//   - Requests are read-only: providers must not mutate a ChatRequest they
//     receive, which keeps a single request safe to re-dispatch on failover.
package messages
