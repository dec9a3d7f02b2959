package anthropic

import (
	"net/http"
	"os"
	"time"

	"github.com/fogfish/opts"
)

// Option configures a Provider during construction.
type Option = opts.Option[Provider]

// WithName overrides the provider name used in the registry and in error
// messages.
func WithName(name string) Option {
	return opts.Type[Provider](func(p *Provider) error {
		p.cfg.Name = name
		return nil
	})
}

// WithAPIKey sets the API key sent on every request.
func WithAPIKey(key string) Option {
	return opts.Type[Provider](func(p *Provider) error {
		p.cfg.APIKey = key
		return nil
	})
}

// WithBaseURL points the provider at a different compatible endpoint, such
// as a gateway that speaks the same wire format.
func WithBaseURL(baseURL string) Option {
	return opts.Type[Provider](func(p *Provider) error {
		p.cfg.BaseURL = baseURL
		return nil
	})
}

// WithModel sets the default model for requests that don't name one.
func WithModel(model string) Option {
	return opts.Type[Provider](func(p *Provider) error {
		p.cfg.Model = model
		return nil
	})
}

// WithTimeout bounds non-streaming calls and stream establishment.
func WithTimeout(d time.Duration) Option {
	return opts.Type[Provider](func(p *Provider) error {
		p.cfg.Timeout = d
		return nil
	})
}

// WithRetries sets how many times failed calls are reattempted.
func WithRetries(n int) Option {
	return opts.Type[Provider](func(p *Provider) error {
		p.cfg.Retries = n
		return nil
	})
}

// WithHTTPClient injects the HTTP client, for proxy-aware transports and
// tests. The provider uses it as-is.
func WithHTTPClient(c *http.Client) Option {
	return opts.Type[Provider](func(p *Provider) error {
		p.httpc = c
		return nil
	})
}

// WithoutStreaming makes ChatStream fetch the complete response and replay
// it as events.
func WithoutStreaming() Option {
	return opts.Type[Provider](func(p *Provider) error {
		p.noStream = true
		return nil
	})
}

// Disabled marks the provider ineligible for switching and failover.
func Disabled() Option {
	return opts.Type[Provider](func(p *Provider) error {
		p.cfg.Enabled = false
		return nil
	})
}

// FromEnv pulls ANTHROPIC_API_KEY, ANTHROPIC_BASE_URL, and ANTHROPIC_MODEL
// from the environment, keeping existing values when a variable is unset.
func FromEnv() Option {
	return opts.Type[Provider](func(p *Provider) error {
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			p.cfg.APIKey = v
		}
		if v := os.Getenv("ANTHROPIC_BASE_URL"); v != "" {
			p.cfg.BaseURL = v
		}
		if v := os.Getenv("ANTHROPIC_MODEL"); v != "" {
			p.cfg.Model = v
		}
		return nil
	})
}
