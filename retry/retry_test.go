package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDelays(t *testing.T) {
	p := Default()
	assert.Equal(t, 3, p.Retries)
	assert.Equal(t, 1*time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
}

func TestDelayCapped(t *testing.T) {
	p := Default()
	assert.Equal(t, 30*time.Second, p.Delay(10))
}

func TestWithRetries(t *testing.T) {
	p := Default().WithRetries(1)
	assert.Equal(t, 1, p.Retries)
	assert.Equal(t, 0, Default().WithRetries(-5).Retries)
	assert.Equal(t, 3, Default().Retries, "the original is unchanged")
}

func fastPolicy(retries int) Policy {
	return Policy{Retries: retries, BaseDelay: time.Millisecond, Multiplier: 2.0, MaxDelay: 10 * time.Millisecond}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustionReturnsLastErrorUnchanged(t *testing.T) {
	var lastErr error
	calls := 0
	err := fastPolicy(2).Do(context.Background(), func(context.Context) error {
		calls++
		lastErr = errors.New("attempt failed")
		return lastErr
	}, nil)

	assert.Equal(t, 3, calls, "one initial call plus two retries")
	assert.Same(t, lastErr, err, "the caller sees the final failure, not a wrapper")
}

func TestDoNonRetryableStopsImmediately(t *testing.T) {
	permanent := errors.New("bad credentials")
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return permanent
	}, func(err error) bool { return false })

	assert.Equal(t, 1, calls)
	assert.Same(t, permanent, err)
}

func TestDoClassifierSelectsRetries(t *testing.T) {
	transient := errors.New("transient")
	permanent := errors.New("permanent")
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return transient
		}
		return permanent
	}, func(err error) bool { return errors.Is(err, transient) })

	assert.Equal(t, 2, calls)
	assert.Same(t, permanent, err)
}

func TestDoCanceledDuringBackoff(t *testing.T) {
	p := Policy{Retries: 3, BaseDelay: time.Minute, Multiplier: 2.0, MaxDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context) error { return errors.New("transient") }, nil)
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDoZeroRetries(t *testing.T) {
	calls := 0
	failure := errors.New("no second chances")
	err := fastPolicy(0).Do(context.Background(), func(context.Context) error {
		calls++
		return failure
	}, nil)

	assert.Equal(t, 1, calls)
	assert.Same(t, failure, err)
}
