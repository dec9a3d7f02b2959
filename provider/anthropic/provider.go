package anthropic

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	"github.com/wirebird/tern/internal/transport"
	"github.com/wirebird/tern/internal/wire"
	"github.com/wirebird/tern/messages"
	"github.com/wirebird/tern/provider"
	"github.com/wirebird/tern/retry"
)

// Provider speaks the messages wire format, where streams announce content
// blocks with explicit start and stop events and tool arguments arrive as
// partial JSON deltas inside a block.
type Provider struct {
	cfg      provider.Config
	client   *transport.Client
	policy   retry.Policy
	noStream bool
	httpc    *http.Client
}

var _ provider.Provider = (*Provider)(nil)

// New builds a provider pointed at the hosted API. Nothing is read from the
// environment unless FromEnv is among the options.
func New(options ...Option) *Provider {
	p := &Provider{
		cfg: provider.Config{
			Name:    "anthropic",
			BaseURL: "https://api.anthropic.com",
			Model:   ModelSonnet,
			Timeout: provider.DefaultTimeout,
			Retries: provider.DefaultRetries,
			Enabled: true,
		},
	}
	if err := opts.Apply(p, options); err != nil {
		panic(err)
	}
	p.cfg = p.cfg.WithDefaults()
	p.policy = retry.Default().WithRetries(p.cfg.Retries)

	if p.httpc == nil {
		p.httpc = transport.DefaultHTTPClient(p.cfg.Timeout)
	}
	headers := map[string]string{"anthropic-version": apiVersion}
	if p.cfg.APIKey != "" {
		headers["x-api-key"] = p.cfg.APIKey
	}
	p.client = transport.NewClient(p.cfg.Name, p.cfg.BaseURL, p.httpc, headers)
	return p
}

// apiVersion pins the wire format; the endpoint rejects requests without it.
const apiVersion = "2023-06-01"

// Name returns the configured provider name.
func (p *Provider) Name() string { return p.cfg.Name }

// Config returns a copy of the provider's configuration.
func (p *Provider) Config() provider.Config { return p.cfg }

// ValidateConfig checks the configuration offline; a key is mandatory.
func (p *Provider) ValidateConfig() provider.Validation {
	return p.cfg.Validate(true)
}

// Chat performs a blocking completion, retrying retryable failures per the
// provider's policy.
func (p *Provider) Chat(ctx context.Context, req *messages.ChatRequest) (*messages.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, provider.Errf(p.cfg.Name, provider.KindBadRequest, "%v", err)
	}

	var resp *messages.ChatResponse
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		r, err := p.chatOnce(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, provider.IsRetryable)
	if err != nil {
		return nil, provider.FromErr(p.cfg.Name, err)
	}
	return resp, nil
}

// ChatStream performs a streaming completion. Only establishing the stream
// is retried; after the first event, failures arrive in-band as an Error
// event.
func (p *Provider) ChatStream(ctx context.Context, req *messages.ChatRequest) (<-chan provider.StreamEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, provider.Errf(p.cfg.Name, provider.KindBadRequest, "%v", err)
	}
	if p.noStream {
		return p.replayStream(ctx, req), nil
	}

	var body io.ReadCloser
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		b, err := p.client.PostStream(ctx, messagesPath, p.payload(req, true))
		if err != nil {
			return err
		}
		body = b
		return nil
	}, provider.IsRetryable)
	if err != nil {
		return nil, provider.FromErr(p.cfg.Name, err)
	}

	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)
		defer body.Close()
		p.emit(ctx, wire.NewBlockDecoder(body), events)
	}()
	return events, nil
}

// HealthCheck probes the live endpoint with a one-token completion, exactly
// once.
func (p *Provider) HealthCheck(ctx context.Context) provider.HealthReport {
	probe := &messages.ChatRequest{
		Messages:  []messages.ChatMessage{messages.User("ping")},
		MaxTokens: 1,
	}

	start := time.Now()
	_, err := p.chatOnce(ctx, probe)
	return provider.Report(p.cfg.Name, time.Since(start), err)
}

func (p *Provider) chatOnce(ctx context.Context, req *messages.ChatRequest) (*messages.ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	body, err := p.client.PostJSON(ctx, messagesPath, p.payload(req, false))
	if err != nil {
		return nil, err
	}
	dec, err := p.parseOneshot(body)
	if err != nil {
		return nil, err
	}
	end, err := wire.Collect(dec)
	if err != nil {
		return nil, err
	}
	return p.response(req, end, dec.StopReason()), nil
}

func (p *Provider) parseOneshot(body []byte) (*wire.OneshotDecoder, error) {
	dec, err := wire.ParseOneshot(body)
	if err != nil {
		var ae *provider.APIError
		if errors.As(err, &ae) {
			return nil, provider.FromErr(p.cfg.Name, ae)
		}
		return nil, provider.Errf(p.cfg.Name, provider.KindServer, "decoding response: %v", err)
	}
	return dec, nil
}

// replayStream serves ChatStream through the non-streaming endpoint, so
// callers see the same event sequence either way.
func (p *Provider) replayStream(ctx context.Context, req *messages.ChatRequest) <-chan provider.StreamEvent {
	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)

		var dec *wire.OneshotDecoder
		err := p.policy.Do(ctx, func(ctx context.Context) error {
			callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
			defer cancel()

			body, err := p.client.PostJSON(callCtx, messagesPath, p.payload(req, false))
			if err != nil {
				return err
			}
			d, err := p.parseOneshot(body)
			if err != nil {
				return err
			}
			dec = d
			return nil
		}, provider.IsRetryable)
		if err != nil {
			if ctx.Err() != nil || provider.IsCanceled(err) {
				return
			}
			events <- provider.Error{Err: provider.FromErr(p.cfg.Name, err)}
			return
		}
		p.emit(ctx, dec, events)
	}()
	return events
}

// emit forwards decoder events until the terminal one. Cancellation stops
// emission silently; any other decode failure becomes the terminal Error
// event.
func (p *Provider) emit(ctx context.Context, dec wire.Decoder, events chan<- provider.StreamEvent) {
	for {
		ev, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			if ctx.Err() != nil || provider.IsCanceled(err) {
				return
			}
			select {
			case events <- provider.Error{Err: provider.FromErr(p.cfg.Name, err)}:
			case <-ctx.Done():
			}
			return
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Provider) response(req *messages.ChatRequest, end provider.MessageEnd, stop string) *messages.ChatResponse {
	resp := &messages.ChatResponse{
		Message:    end.Message,
		StopReason: stop,
		Provider:   p.cfg.Name,
		Model:      p.model(req),
		CreatedAt:  strfmt.DateTime(time.Now().UTC()),
	}
	if end.Usage != nil {
		resp.Usage = *end.Usage
	}
	return resp
}
