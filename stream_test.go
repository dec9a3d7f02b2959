package tern

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirebird/tern/messages"
	"github.com/wirebird/tern/provider"
)

func chatReq() *messages.ChatRequest {
	return &messages.ChatRequest{Messages: []messages.ChatMessage{messages.User("hi")}}
}

func TestChatDispatchesToActive(t *testing.T) {
	a, b := fake("a"), fake("b")
	reg := NewRegistry(a, b)
	reg.SetActive("b")

	resp, err := reg.Chat(context.Background(), chatReq())
	require.NoError(t, err)
	assert.Equal(t, "b", resp.Provider)
	assert.Equal(t, int32(0), a.chatCalls.Load())
	assert.Equal(t, int32(1), b.chatCalls.Load())
}

func TestChatWithoutProviders(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Chat(context.Background(), chatReq())
	var ae *provider.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, provider.KindConfig, ae.Kind)

	_, err = reg.ChatStream(context.Background(), chatReq())
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, provider.KindConfig, ae.Kind)
}

func TestChatStreamForwardsEvents(t *testing.T) {
	a := fake("a")
	a.streamEvents = []provider.StreamEvent{
		provider.TextDelta{Text: "Hel"},
		provider.TextDelta{Text: "lo"},
		provider.MessageEnd{Message: messages.Assistant("Hello")},
	}
	reg := NewRegistry(a)

	stream, err := reg.ChatStream(context.Background(), chatReq())
	require.NoError(t, err)
	assert.NotEqual(t, [16]byte{}, [16]byte(stream.ID), "streams get real ids")

	var got []provider.StreamEvent
	for ev := range stream.Events {
		got = append(got, ev)
	}
	require.Len(t, got, 3)
	assert.Equal(t, provider.TextDelta{Text: "Hel"}, got[0])

	assert.Eventually(t, func() bool { return reg.ActiveStreams() == 0 },
		time.Second, 5*time.Millisecond, "finished streams untrack themselves")
}

func TestStreamCancel(t *testing.T) {
	a := fake("a")
	// Enough events to outlast the channel buffer, so the producer is still
	// alive when Cancel lands.
	for range 100 {
		a.streamEvents = append(a.streamEvents, provider.TextDelta{Text: "x"})
	}
	reg := NewRegistry(a)

	stream, err := reg.ChatStream(context.Background(), chatReq())
	require.NoError(t, err)
	assert.Equal(t, 1, reg.ActiveStreams())

	<-stream.Events
	stream.Cancel()
	stream.Cancel() // idempotent

	for range stream.Events {
	}
	assert.Eventually(t, func() bool { return reg.ActiveStreams() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestCancelActive(t *testing.T) {
	a := fake("a")
	for range 100 {
		a.streamEvents = append(a.streamEvents, provider.TextDelta{Text: "x"})
	}
	reg := NewRegistry(a)

	s1, err := reg.ChatStream(context.Background(), chatReq())
	require.NoError(t, err)
	s2, err := reg.ChatStream(context.Background(), chatReq())
	require.NoError(t, err)
	assert.Equal(t, 2, reg.ActiveStreams())

	reg.CancelActive()

	for range s1.Events {
	}
	for range s2.Events {
	}
	assert.Eventually(t, func() bool { return reg.ActiveStreams() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestChatStreamConnectFailure(t *testing.T) {
	a := fake("a")
	a.chatErr = provider.Errf("a", provider.KindAuth, "invalid api key")
	reg := NewRegistry(a)

	_, err := reg.ChatStream(context.Background(), chatReq())
	require.Error(t, err)
	assert.Equal(t, 0, reg.ActiveStreams(), "failed connections leave nothing tracked")
}

func TestChatWithFailover(t *testing.T) {
	a, b := fake("a"), fake("b")
	a.chatErr = provider.Errf("a", provider.KindServer, "overloaded")
	reg := NewRegistry(a, b)

	resp, err := reg.ChatWithFailover(context.Background(), chatReq())
	require.NoError(t, err)
	assert.Equal(t, "b", resp.Provider)
	assert.Equal(t, int32(1), a.chatCalls.Load())
	assert.Equal(t, int32(1), b.chatCalls.Load())
}

func TestChatWithFailoverStartsAtActive(t *testing.T) {
	a, b, c := fake("a"), fake("b"), fake("c")
	b.chatErr = provider.Errf("b", provider.KindTimeout, "deadline exceeded")
	reg := NewRegistry(a, b, c)
	reg.SetActive("b")

	resp, err := reg.ChatWithFailover(context.Background(), chatReq())
	require.NoError(t, err)
	assert.Equal(t, "c", resp.Provider, "failover walks the cycle from the active provider")
	assert.Equal(t, int32(0), a.chatCalls.Load())
}

func TestChatWithFailoverSkipsDisabled(t *testing.T) {
	a, b, c := fake("a"), fake("b"), fake("c")
	a.chatErr = provider.Errf("a", provider.KindServer, "overloaded")
	b.enabled = false
	reg := NewRegistry(a, b, c)

	resp, err := reg.ChatWithFailover(context.Background(), chatReq())
	require.NoError(t, err)
	assert.Equal(t, "c", resp.Provider)
	assert.Equal(t, int32(0), b.chatCalls.Load(), "disabled providers never join the chain")
}

func TestChatWithFailoverNonRetryable(t *testing.T) {
	a, b := fake("a"), fake("b")
	a.chatErr = provider.Errf("a", provider.KindAuth, "invalid api key")
	reg := NewRegistry(a, b)

	_, err := reg.ChatWithFailover(context.Background(), chatReq())
	var ae *provider.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, provider.KindAuth, ae.Kind)
	assert.Equal(t, int32(0), b.chatCalls.Load(), "auth failures stop the chain")
}

func TestChatWithFailoverAllFail(t *testing.T) {
	a, b := fake("a"), fake("b")
	a.chatErr = provider.Errf("a", provider.KindServer, "down")
	b.chatErr = provider.Errf("b", provider.KindRateLimit, "slow down")
	reg := NewRegistry(a, b)

	_, err := reg.ChatWithFailover(context.Background(), chatReq())
	var ae *provider.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, provider.KindRateLimit, ae.Kind, "the last failure is the one reported")
	assert.Equal(t, "b", ae.Provider)
}
