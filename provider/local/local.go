// Package local serves self-hosted OpenAI-compatible backends: Ollama,
// LM Studio, vLLM, llama.cpp's server, and anything else that speaks the
// chat completions wire format on a local port. It is a thin layer over the
// openai package that drops the API key requirement and knows the default
// ports of the common servers.
//
// TERN_LOCAL_BASE_URL and TERN_LOCAL_MODEL are read at construction time;
// explicit options override them. Backends whose streaming mode misbehaves
// can pass openai.WithoutStreaming to serve ChatStream from the
// non-streaming endpoint instead.
package local

import (
	"os"

	"github.com/wirebird/tern/provider"
	"github.com/wirebird/tern/provider/openai"
)

// Default base URLs of the common self-hosted servers.
const (
	OllamaBaseURL   = "http://localhost:11434/v1"
	LMStudioBaseURL = "http://localhost:1234/v1"
	VLLMBaseURL     = "http://localhost:8000/v1"
)

// Option configures the underlying provider; all openai options apply.
type Option = openai.Option

// Provider wraps the openai provider for endpoints that accept anonymous
// requests.
type Provider struct {
	*openai.Provider
}

var _ provider.Provider = (*Provider)(nil)

// New builds a provider pointed at an Ollama server by default. The
// TERN_LOCAL_BASE_URL and TERN_LOCAL_MODEL environment variables replace
// the defaults when set, and explicit options beat both.
func New(options ...Option) *Provider {
	base := []Option{
		openai.WithName("local"),
		openai.WithBaseURL(OllamaBaseURL),
	}
	if v := os.Getenv("TERN_LOCAL_BASE_URL"); v != "" {
		base = append(base, openai.WithBaseURL(v))
	}
	if v := os.Getenv("TERN_LOCAL_MODEL"); v != "" {
		base = append(base, openai.WithModel(v))
	}
	return &Provider{Provider: openai.New(append(base, options...)...)}
}

// Ollama builds a provider for a local Ollama server.
func Ollama(options ...Option) *Provider {
	return New(append([]Option{
		openai.WithName("ollama"),
		openai.WithBaseURL(OllamaBaseURL),
	}, options...)...)
}

// LMStudio builds a provider for a local LM Studio server.
func LMStudio(options ...Option) *Provider {
	return New(append([]Option{
		openai.WithName("lmstudio"),
		openai.WithBaseURL(LMStudioBaseURL),
	}, options...)...)
}

// VLLM builds a provider for a local vLLM server.
func VLLM(options ...Option) *Provider {
	return New(append([]Option{
		openai.WithName("vllm"),
		openai.WithBaseURL(VLLMBaseURL),
	}, options...)...)
}

// ValidateConfig checks the configuration offline. Unlike the hosted
// backends, a missing API key is fine here.
func (p *Provider) ValidateConfig() provider.Validation {
	return p.Config().Validate(false)
}
