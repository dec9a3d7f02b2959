package provider

import (
	"context"
	"errors"
	"time"

	"github.com/go-openapi/strfmt"
)

// HealthStatus summarizes how usable a provider is right now.
type HealthStatus string

const (
	// Healthy means a probe completed successfully.
	Healthy HealthStatus = "healthy"

	// Degraded means the endpoint is reachable but impaired: the probe hit a
	// rate limit, timed out, or got an unsuccessful response.
	Degraded HealthStatus = "degraded"

	// Unhealthy means the provider is unusable: authentication failed or the
	// probe failed outright.
	Unhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) String() string { return string(s) }

// HealthReport is the outcome of one health probe.
type HealthReport struct {
	Provider  string          `json:"provider"`
	Status    HealthStatus    `json:"status"`
	Latency   time.Duration   `json:"latency"`
	CheckedAt strfmt.DateTime `json:"checked_at"`
	Err       error           `json:"-"`
}

// StatusFromError maps a probe failure to a health status. Reachable but
// impaired endpoints are degraded; auth failures and unclassifiable errors
// are unhealthy.
func StatusFromError(err error) HealthStatus {
	if err == nil {
		return Healthy
	}

	var ae *APIError
	if errors.As(err, &ae) {
		switch ae.Kind {
		case KindRateLimit, KindTimeout, KindServer, KindBadRequest:
			// The transport worked; the service answered with a failure.
			return Degraded
		default:
			return Unhealthy
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Degraded
	}
	return Unhealthy
}

// Report builds a HealthReport for the given probe outcome, stamping the
// current time.
func Report(provider string, latency time.Duration, err error) HealthReport {
	return HealthReport{
		Provider:  provider,
		Status:    StatusFromError(err),
		Latency:   latency,
		CheckedAt: strfmt.DateTime(time.Now().UTC()),
		Err:       err,
	}
}
