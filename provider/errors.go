package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies a provider failure for retry and health decisions.
type ErrorKind string

const (
	KindAuth       ErrorKind = "auth"
	KindRateLimit  ErrorKind = "rate_limit"
	KindTimeout    ErrorKind = "timeout"
	KindTransport  ErrorKind = "transport"
	KindBadRequest ErrorKind = "bad_request"
	KindServer     ErrorKind = "server"
	KindCanceled   ErrorKind = "canceled"
	KindConfig     ErrorKind = "config"
	KindUnknown    ErrorKind = "unknown"
)

// Retryable reports whether failures of this kind are worth another attempt.
// Auth and bad-request failures never are; retrying them repeats the outcome.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimit, KindTimeout, KindTransport, KindServer:
		return true
	}
	return false
}

// APIError is a classified provider failure. Every error a provider surfaces
// is one of these, so callers can branch on Kind with errors.As and users
// always see which provider failed.
type APIError struct {
	Provider string    `json:"provider"`
	Kind     ErrorKind `json:"kind"`
	Status   int       `json:"status,omitempty"`
	Message  string    `json:"message"`
	Err      error     `json:"-"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, msg, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth another attempt.
func (e *APIError) Retryable() bool { return e.Kind.Retryable() }

// Errf builds an APIError with a formatted message.
func Errf(provider string, kind ErrorKind, format string, args ...any) *APIError {
	return &APIError{Provider: provider, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FromStatus classifies a non-2xx HTTP response. The kind comes from the
// status code, refined by well-known phrases in the body; the message is
// pulled from the backend's error envelope when one is present.
func FromStatus(provider string, status int, body []byte) *APIError {
	return &APIError{
		Provider: provider,
		Kind:     classifyStatus(status, body),
		Status:   status,
		Message:  errorMessage(status, body),
	}
}

// FromErr classifies a transport-level failure. An error that is already an
// APIError passes through unchanged, except that an empty Provider field is
// stamped with the given name (decoders classify without knowing which
// provider they serve).
func FromErr(provider string, err error) *APIError {
	var ae *APIError
	if errors.As(err, &ae) {
		if ae.Provider == "" {
			stamped := *ae
			stamped.Provider = provider
			return &stamped
		}
		return ae
	}

	kind := KindUnknown
	switch {
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	default:
		var ne net.Error
		if errors.As(err, &ne) {
			if ne.Timeout() {
				kind = KindTimeout
			} else {
				kind = KindTransport
			}
		} else {
			var ue *url.Error
			if errors.As(err, &ue) {
				kind = KindTransport
			}
		}
	}

	return &APIError{Provider: provider, Kind: kind, Err: err}
}

// FromEnvelope classifies an error envelope a backend embedded in an
// otherwise successful (2xx) response or stream. The provider name is left
// empty; FromErr stamps it when the error surfaces.
func FromEnvelope(body []byte) *APIError {
	kind := classifyStatus(0, body)
	if kind == KindUnknown {
		// The backend reported the failure itself, so the service is the
		// culprit even when the envelope names no known category.
		kind = KindServer
	}

	msg := errorMessage(0, body)
	return &APIError{Kind: kind, Message: msg}
}

// IsRetryable reports whether err is worth another attempt: true for
// classified retryable kinds, timeouts, and transport failures, false for
// everything else including cancellation.
func IsRetryable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Retryable()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	return false
}

// IsCanceled reports whether err is a suppressed cancellation.
func IsCanceled(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == KindCanceled
}

func classifyStatus(status int, body []byte) ErrorKind {
	lower := strings.ToLower(string(body))

	// Some backends report the real failure only in the body.
	switch {
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "rate_limit"):
		return KindRateLimit
	case strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "authentication"),
		strings.Contains(lower, "unauthorized"):
		return KindAuth
	case strings.Contains(lower, "overloaded"):
		return KindServer
	}

	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 408:
		return KindTimeout
	case status == 429:
		return KindRateLimit
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

func errorMessage(status int, body []byte) string {
	// OpenAI wraps errors as {"error":{"message":...}}, Anthropic as
	// {"type":"error","error":{"message":...}}. Both land on error.message.
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		if status > 0 {
			return fmt.Sprintf("request failed with status %d", status)
		}
		return "backend reported an error"
	}
	if len(trimmed) > 200 {
		trimmed = trimmed[:200] + "..."
	}
	return trimmed
}
