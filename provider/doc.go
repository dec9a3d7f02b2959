// Package provider defines the contract between the rest of the module and
// the individual chat backends (OpenAI-style, Anthropic-style, self-hosted).
// It holds the canonical stream event model every decoder emits into, the
// shared configuration and validation types, the classified error taxonomy,
// and the health vocabulary the registry ranks providers with.
//
// Design decisions:
//   - Capability interface: Provider is a flat capability set. There is no
//     base implementation to inherit from; shared behavior lives in small
//     composable helpers (retry, wire decoders) that implementations call.
//   - Sealed event union: StreamEvent has a fixed set of concrete types and
//     cannot be extended outside this package, so consumers can switch over
//     events exhaustively.
//   - Classified errors: every failure surfaces as *APIError with a Kind the
//     caller can branch on, and a message prefixed with the provider name so
//     multi-provider logs stay attributable.
//   - Immutable providers: configuration is applied at construction and never
//     mutated, which makes one instance safe for concurrent calls and keeps
//     reconfiguration explicit (build a new instance).
//
// Event flow for one streaming call:
//
//	events, err := p.ChatStream(ctx, req)
//	if err != nil {
//	    return err // the call never started
//	}
//	for event := range events {
//	    switch ev := event.(type) {
//	    case provider.TextDelta:
//	        // incremental assistant text
//	    case provider.ToolUseStart:
//	        // a tool invocation began; arguments not yet known
//	    case provider.ToolUseEnd:
//	        // arguments complete; ev.Input is always a valid JSON object
//	    case provider.MessageEnd:
//	        // terminal: the assembled assistant message
//	    case provider.Error:
//	        // terminal: the stream failed after it started
//	    }
//	}
package provider
