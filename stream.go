package tern

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wirebird/tern/messages"
	"github.com/wirebird/tern/pkg/slogx"
	"github.com/wirebird/tern/pkg/uuidx"
	"github.com/wirebird/tern/provider"
)

// Stream is a live streaming completion. Events closes after the terminal
// event, or without one when the stream is cancelled. Cancel is idempotent
// and safe to call after the stream has finished.
type Stream struct {
	ID     uuid.UUID
	Events <-chan provider.StreamEvent

	cancel func()
}

// Cancel aborts the stream and releases its connection.
func (s *Stream) Cancel() { s.cancel() }

// Chat dispatches a blocking completion to the active provider.
func (r *Registry) Chat(ctx context.Context, req *messages.ChatRequest) (*messages.ChatResponse, error) {
	p, ok := r.Active()
	if !ok {
		return nil, errNoProvider()
	}
	return p.Chat(ctx, req)
}

// ChatStream dispatches a streaming completion to the active provider. The
// returned handle is tracked until its event channel closes, so CancelActive
// can abort it.
func (r *Registry) ChatStream(ctx context.Context, req *messages.ChatRequest) (*Stream, error) {
	p, ok := r.Active()
	if !ok {
		return nil, errNoProvider()
	}

	ctx, cancel := context.WithCancel(ctx)
	events, err := p.ChatStream(ctx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	id := uuidx.New()
	r.inflight.Add(id.String(), cancel)

	out := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(out)
		defer r.inflight.Remove(id.String())
		defer cancel()
		for ev := range events {
			select {
			case out <- ev:
			case <-ctx.Done():
				for range events {
					// drain so the provider goroutine can exit
				}
				return
			}
		}
	}()

	return &Stream{
		ID:     id,
		Events: out,
		cancel: func() { r.inflight.Cancel(id.String()) },
	}, nil
}

// ChatWithFailover tries the active provider and, when it fails with a
// retryable kind, the remaining enabled providers in cycle order. Auth,
// bad-request, and other non-retryable failures surface immediately, since
// another provider would not change the outcome. Returns the last error when
// every candidate fails.
func (r *Registry) ChatWithFailover(ctx context.Context, req *messages.ChatRequest) (*messages.ChatResponse, error) {
	candidates := r.failoverOrder()
	if len(candidates) == 0 {
		return nil, errNoProvider()
	}

	var lastErr error
	for _, p := range candidates {
		if ctx.Err() != nil {
			return nil, provider.FromErr(p.Name(), ctx.Err())
		}

		resp, err := p.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !provider.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		slog.Debug("provider failed, trying next",
			slog.String("provider", p.Name()),
			slogx.Error(err))
	}
	return nil, lastErr
}

// failoverOrder returns the active provider followed by the remaining
// enabled providers in cycle order.
func (r *Registry) failoverOrder() []provider.Provider {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.providers.GetPair(r.active)
	if start == nil {
		start = r.providers.Oldest()
	}
	if start == nil {
		return nil
	}

	out := []provider.Provider{start.Value}
	for pair := start.Next(); ; pair = pair.Next() {
		if pair == nil {
			pair = r.providers.Oldest()
		}
		if pair == start {
			break
		}
		if pair.Value.Config().Enabled {
			out = append(out, pair.Value)
		}
	}
	return out
}

// CancelActive aborts every in-flight stream started through this registry.
func (r *Registry) CancelActive() {
	r.inflight.CancelAll()
}

// ActiveStreams reports how many streams are currently in flight.
func (r *Registry) ActiveStreams() int {
	return r.inflight.Len()
}

func errNoProvider() *provider.APIError {
	return provider.Errf("registry", provider.KindConfig, "no provider registered")
}
