package provider

import (
	"context"

	"github.com/wirebird/tern/messages"
)

// Provider is the capability set every chat backend implements. Implementations
// handle the specifics of one wire protocol while the rest of the application
// works only with the canonical request, response, and stream event types.
//
// Providers are immutable once constructed. Reconfiguration means building a
// new instance; nothing in this interface mutates state, so one provider is
// safe for concurrent calls.
type Provider interface {
	// Name returns the configured provider name, used as registry key and as
	// the prefix on every error the provider reports.
	Name() string

	// Config returns a copy of the provider's configuration.
	Config() Config

	// Chat performs a blocking completion and returns the finished response.
	Chat(ctx context.Context, req *messages.ChatRequest) (*messages.ChatResponse, error)

	// ChatStream performs a streaming completion. The returned channel emits
	// canonical events in order and is closed after the terminal event
	// (MessageEnd or Error). An error return means the call could not start;
	// once a channel is returned, failures arrive as Error events.
	//
	// Canceling ctx stops emission without a terminal event.
	ChatStream(ctx context.Context, req *messages.ChatRequest) (<-chan StreamEvent, error)

	// HealthCheck issues a minimal real completion against the live endpoint
	// and reports reachability and latency. It never retries.
	HealthCheck(ctx context.Context) HealthReport

	// ValidateConfig reports configuration problems without any network use.
	ValidateConfig() Validation
}
