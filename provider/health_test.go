package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want HealthStatus
	}{
		{name: "nil error", err: nil, want: Healthy},
		{name: "rate limited", err: &APIError{Kind: KindRateLimit, Status: 429}, want: Degraded},
		{name: "timeout", err: &APIError{Kind: KindTimeout}, want: Degraded},
		{name: "server error", err: &APIError{Kind: KindServer, Status: 500}, want: Degraded},
		{name: "bad request", err: &APIError{Kind: KindBadRequest, Status: 400}, want: Degraded},
		{name: "auth failure", err: &APIError{Kind: KindAuth, Status: 401}, want: Unhealthy},
		{name: "transport failure", err: &APIError{Kind: KindTransport}, want: Unhealthy},
		{name: "config error", err: &APIError{Kind: KindConfig}, want: Unhealthy},
		{name: "bare deadline", err: context.DeadlineExceeded, want: Degraded},
		{name: "unclassified", err: errors.New("boom"), want: Unhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromError(tt.err))
		})
	}
}

func TestReport(t *testing.T) {
	report := Report("openai", 120*time.Millisecond, nil)
	assert.Equal(t, "openai", report.Provider)
	assert.Equal(t, Healthy, report.Status)
	assert.Equal(t, 120*time.Millisecond, report.Latency)
	assert.False(t, time.Time(report.CheckedAt).IsZero())
	assert.NoError(t, report.Err)

	failed := Report("anthropic", 0, &APIError{Kind: KindAuth, Status: 401})
	assert.Equal(t, Unhealthy, failed.Status)
	assert.Error(t, failed.Err)
}
