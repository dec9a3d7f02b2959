package wire

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wirebird/tern/messages"
	"github.com/wirebird/tern/provider"
)

// sseData renders payloads as one SSE frame each.
func sseData(payloads ...string) string {
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString("data: ")
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	return b.String()
}

// drainEvents pulls every event out of a decoder until io.EOF.
func drainEvents(t *testing.T, dec Decoder) []provider.StreamEvent {
	t.Helper()
	var events []provider.StreamEvent
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestDeltaDecoderTextStream(t *testing.T) {
	raw := sseData(
		`{"choices":[{"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	)

	dec := NewDeltaDecoder(strings.NewReader(raw))
	events := drainEvents(t, dec)

	require.Len(t, events, 3)
	assert.Equal(t, provider.TextDelta{Text: "Hel"}, events[0])
	assert.Equal(t, provider.TextDelta{Text: "lo"}, events[1])

	end, ok := events[2].(provider.MessageEnd)
	require.True(t, ok)
	assert.Equal(t, "Hello", end.Message.Content)
	assert.Equal(t, messages.RoleAssistant, end.Message.Role)
	assert.Empty(t, end.Message.ToolCalls)
	assert.Equal(t, messages.StopReasonStop, dec.StopReason())
}

func TestDeltaDecoderToolCallStream(t *testing.T) {
	raw := sseData(
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"t1","function":{"name":"ls","arguments":""}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"path\":"}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"/\"}"}}]}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		`[DONE]`,
	)

	dec := NewDeltaDecoder(strings.NewReader(raw))
	events := drainEvents(t, dec)

	require.Len(t, events, 3)
	assert.Equal(t, provider.ToolUseStart{ID: "t1", Name: "ls"}, events[0])

	end, ok := events[1].(provider.ToolUseEnd)
	require.True(t, ok)
	assert.Equal(t, "t1", end.ID)
	assert.Equal(t, "ls", end.Name)
	assert.JSONEq(t, `{"path":"/"}`, string(end.Input))

	msgEnd, ok := events[2].(provider.MessageEnd)
	require.True(t, ok)
	require.Len(t, msgEnd.Message.ToolCalls, 1)
	assert.JSONEq(t, `{"path":"/"}`, string(msgEnd.Message.ToolCalls[0].Arguments))
	assert.Equal(t, messages.StopReasonToolCalls, dec.StopReason())
}

func TestDeltaDecoderTextThenToolCall(t *testing.T) {
	raw := sseData(
		`{"choices":[{"delta":{"content":"Running "}}]}`,
		`{"choices":[{"delta":{"content":"a command."}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"t9","function":{"name":"run","arguments":"{\"cmd\":\"date\"}"}}]}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		`[DONE]`,
	)

	events := drainEvents(t, NewDeltaDecoder(strings.NewReader(raw)))
	require.Len(t, events, 5)
	assert.IsType(t, provider.TextDelta{}, events[0])
	assert.IsType(t, provider.TextDelta{}, events[1])
	assert.IsType(t, provider.ToolUseStart{}, events[2])
	assert.IsType(t, provider.ToolUseEnd{}, events[3])

	end := events[4].(provider.MessageEnd)
	assert.Equal(t, "Running a command.", end.Message.Content)
	require.Len(t, end.Message.ToolCalls, 1)
	assert.Equal(t, "t9", end.Message.ToolCalls[0].ID)
}

func TestDeltaDecoderTwoToolCalls(t *testing.T) {
	// A delta addressing a new index ends the call in progress.
	raw := sseData(
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"t1","function":{"name":"ls","arguments":"{}"}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":1,"id":"t2","function":{"name":"pwd","arguments":"{}"}}]}}]}`,
		`[DONE]`,
	)

	events := drainEvents(t, NewDeltaDecoder(strings.NewReader(raw)))
	require.Len(t, events, 5)
	assert.Equal(t, provider.ToolUseStart{ID: "t1", Name: "ls"}, events[0])
	endFirst := events[1].(provider.ToolUseEnd)
	assert.Equal(t, "t1", endFirst.ID)
	assert.Equal(t, provider.ToolUseStart{ID: "t2", Name: "pwd"}, events[2])
	endSecond := events[3].(provider.ToolUseEnd)
	assert.Equal(t, "t2", endSecond.ID)

	msgEnd := events[4].(provider.MessageEnd)
	require.Len(t, msgEnd.Message.ToolCalls, 2)
	assert.Equal(t, "t1", msgEnd.Message.ToolCalls[0].ID)
	assert.Equal(t, "t2", msgEnd.Message.ToolCalls[1].ID)
}

func TestDeltaDecoderSynthesizesMissingID(t *testing.T) {
	raw := sseData(
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"name":"ls","arguments":"{}"}}]}}]}`,
		`[DONE]`,
	)

	events := drainEvents(t, NewDeltaDecoder(strings.NewReader(raw)))
	require.Len(t, events, 3)

	start := events[0].(provider.ToolUseStart)
	assert.Regexp(t, `^tool_\d+_0$`, start.ID)
	end := events[1].(provider.ToolUseEnd)
	assert.Equal(t, start.ID, end.ID, "start and end carry the same synthesized id")
}

func TestDeltaDecoderNoDoneSentinel(t *testing.T) {
	// Connection closed without [DONE]: the open call still ends and the
	// terminal event still arrives.
	raw := sseData(
		`{"choices":[{"delta":{"content":"partial"}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"t1","function":{"name":"ls","arguments":"{\"path\":\"/\"}"}}]}}]}`,
	)

	events := drainEvents(t, NewDeltaDecoder(strings.NewReader(raw)))
	require.Len(t, events, 4)
	assert.IsType(t, provider.MessageEnd{}, events[3])
	end := events[3].(provider.MessageEnd)
	assert.Equal(t, "partial", end.Message.Content)
	require.Len(t, end.Message.ToolCalls, 1)
	assert.JSONEq(t, `{"path":"/"}`, string(end.Message.ToolCalls[0].Arguments))
}

func TestDeltaDecoderMalformedFrameSkipped(t *testing.T) {
	valid := []string{
		`{"choices":[{"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`[DONE]`,
	}
	corrupted := []string{valid[0], `{"choices":[{"delta":{`, valid[1], valid[2]}

	want := drainEvents(t, NewDeltaDecoder(strings.NewReader(sseData(valid...))))
	got := drainEvents(t, NewDeltaDecoder(strings.NewReader(sseData(corrupted...))))
	assert.Equal(t, want, got, "a corrupt frame changes nothing about the valid ones")
}

func TestDeltaDecoderErrorEnvelope(t *testing.T) {
	raw := sseData(
		`{"choices":[{"delta":{"content":"Hel"}}]}`,
		`{"error":{"message":"rate limited","type":"rate_limit_error"}}`,
		`{"choices":[{"delta":{"content":"never seen"}}]}`,
	)

	dec := NewDeltaDecoder(strings.NewReader(raw))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, provider.TextDelta{Text: "Hel"}, ev)

	_, err = dec.Next()
	require.Error(t, err)
	var ae *provider.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, provider.KindRateLimit, ae.Kind)
	assert.Equal(t, "rate limited", ae.Message)

	// The failure is terminal: no events follow it.
	_, err2 := dec.Next()
	assert.Equal(t, err, err2)
}

func TestDeltaDecoderUsage(t *testing.T) {
	raw := sseData(
		`{"choices":[{"delta":{"content":"hi"}}]}`,
		`{"choices":[],"usage":{"prompt_tokens":3,"completion_tokens":5}}`,
		`[DONE]`,
	)

	events := drainEvents(t, NewDeltaDecoder(strings.NewReader(raw)))
	end := events[len(events)-1].(provider.MessageEnd)
	require.NotNil(t, end.Usage)
	assert.Equal(t, 3, end.Usage.InputTokens)
	assert.Equal(t, 5, end.Usage.OutputTokens)
}

func TestDeltaDecoderTerminationExclusivity(t *testing.T) {
	dec := NewDeltaDecoder(strings.NewReader(sseData(
		`{"choices":[{"delta":{"content":"done"}}]}`,
		`[DONE]`,
	)))
	drainEvents(t, dec)

	for range 3 {
		_, err := dec.Next()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestDeltaDecoderFinishReasonMapping(t *testing.T) {
	tests := []struct {
		wire string
		want string
	}{
		{"stop", messages.StopReasonStop},
		{"tool_calls", messages.StopReasonToolCalls},
		{"function_call", messages.StopReasonToolCalls},
		{"length", messages.StopReasonLength},
		{"content_filter", "content_filter"},
	}
	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			dec := NewDeltaDecoder(strings.NewReader(sseData(
				`{"choices":[{"delta":{},"finish_reason":"`+tt.wire+`"}]}`,
				`[DONE]`,
			)))
			drainEvents(t, dec)
			assert.Equal(t, tt.want, dec.StopReason())
		})
	}
}

func TestDeltaDecoderChunkBoundaryInvariance(t *testing.T) {
	raw := sseData(
		`{"choices":[{"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"t1","function":{"name":"ls","arguments":"{\"pa"}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"th\":\"/\"}"}}]}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		`[DONE]`,
	)

	want := drainEvents(t, NewDeltaDecoder(strings.NewReader(raw)))

	for i := 0; i <= len(raw); i++ {
		r := io.MultiReader(strings.NewReader(raw[:i]), strings.NewReader(raw[i:]))
		got := drainEvents(t, NewDeltaDecoder(r))
		require.Equalf(t, want, got, "split at byte %d diverged", i)
	}
}
