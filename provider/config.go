package provider

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds connection establishment and non-streaming calls.
	// Active streams are never killed by this timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultRetries is the number of retries after the initial attempt.
	DefaultRetries = 3
)

// Config holds the settings shared by every provider. Provider constructors
// copy it, apply defaults, and never mutate it afterwards.
type Config struct {
	// Name identifies the provider in the registry and in error messages.
	Name string `json:"name"`

	// APIKey authenticates requests. Self-hosted backends may leave it empty.
	APIKey string `json:"-"`

	// BaseURL is the scheme://host[:port][/path] prefix of the API.
	BaseURL string `json:"base_url"`

	// Model is the default model for requests that don't name one.
	Model string `json:"model"`

	// Timeout bounds connection establishment and non-streaming calls.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Retries is the number of retries after the initial attempt.
	// Negative means zero.
	Retries int `json:"retries,omitempty"`

	// Enabled marks the provider as eligible for switching and failover.
	Enabled bool `json:"enabled"`
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	return c
}

// Validation is the outcome of an offline configuration check. Errors make
// the configuration unusable; warnings don't.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (v *Validation) addError(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) addWarning(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the fields every backend needs. requireKey distinguishes
// hosted services from self-hosted ones that accept anonymous requests.
func (c Config) Validate(requireKey bool) Validation {
	var v Validation

	if c.Name == "" {
		v.addError("name is required")
	}
	if c.BaseURL == "" {
		v.addError("base URL is required")
	} else if u, err := url.Parse(c.BaseURL); err != nil {
		v.addError("base URL %q: %v", c.BaseURL, err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		v.addError("base URL %q: scheme must be http or https", c.BaseURL)
	}

	if requireKey && c.APIKey == "" {
		v.addError("API key is required")
	}
	if c.APIKey != "" && strings.TrimSpace(c.APIKey) != c.APIKey {
		v.addWarning("API key has surrounding whitespace")
	}
	if c.Model == "" {
		v.addWarning("no default model configured; every request must name one")
	}
	if !c.Enabled {
		v.addWarning("provider is disabled")
	}

	v.Valid = len(v.Errors) == 0
	return v
}
