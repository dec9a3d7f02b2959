// Package wire turns the byte streams chat backends actually send into the
// canonical event sequence the rest of the module consumes. It holds the SSE
// framing scanner, the tool-call accumulator, and one decoder per wire
// family: delta streams (OpenAI-style chat-completion chunks addressed by
// choice/tool index), block streams (Anthropic-style content blocks with
// explicit start/delta/stop lifecycles), and oneshot bodies (a complete JSON
// response replayed as events so non-streaming backends look identical to
// streaming ones).
//
// Design decisions:
//   - Pull iterators: every decoder exposes Next() and returns io.EOF after
//     its terminal event, so providers drain them with one loop regardless of
//     wire family.
//   - Transport-agnostic: decoders read from an io.Reader and never see HTTP.
//     Chunk boundaries are invisible; a frame split anywhere mid-byte decodes
//     identically once the rest arrives.
//   - Malformed frames are skipped, not fatal: one corrupt line must not
//     discard a long-running response. Whole-response failures (an error
//     envelope, an unreadable body) still surface as errors.
//   - Fresh state per stream: a decoder and its accumulator serve exactly one
//     stream and are never reused.
package wire
