package messages

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	assert.Equal(t, ChatMessage{Role: RoleSystem, Content: "be terse"}, System("be terse"))
	assert.Equal(t, ChatMessage{Role: RoleUser, Content: "hi"}, User("hi"))
	assert.Equal(t, ChatMessage{Role: RoleAssistant, Content: "hello"}, Assistant("hello"))

	tr := ToolResult("call_1", "output")
	assert.Equal(t, RoleTool, tr.Role)
	assert.Equal(t, "call_1", tr.ToolResultFor)
	assert.Equal(t, "output", tr.Content)
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool} {
		assert.True(t, r.Valid(), string(r))
	}
	assert.False(t, Role("moderator").Valid())
	assert.False(t, Role("").Valid())
}

func TestChatMessageJSON(t *testing.T) {
	msg := ChatMessage{
		Role:    RoleAssistant,
		Content: "running it",
		ToolCalls: []ToolCall{
			{ID: "t1", Name: "ls", Arguments: json.RawMessage(`{"path":"/"}`)},
		},
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var got ChatMessage
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, msg.Role, got.Role)
	assert.Equal(t, msg.Content, got.Content)
	require.Len(t, got.ToolCalls, 1)
	assert.Equal(t, "t1", got.ToolCalls[0].ID)
	assert.JSONEq(t, `{"path":"/"}`, string(got.ToolCalls[0].Arguments))
}

func TestChatRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     ChatRequest
		wantErr string
	}{
		{
			name:    "no messages",
			req:     ChatRequest{},
			wantErr: "no messages",
		},
		{
			name: "valid conversation",
			req: ChatRequest{Messages: []ChatMessage{
				System("helper"),
				User("list the files"),
				{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "t1", Name: "ls", Arguments: json.RawMessage(`{}`)}}},
				ToolResult("t1", "a.txt b.txt"),
			}},
		},
		{
			name:    "unknown role",
			req:     ChatRequest{Messages: []ChatMessage{{Role: "moderator", Content: "x"}}},
			wantErr: `unknown role "moderator"`,
		},
		{
			name:    "tool result without call id",
			req:     ChatRequest{Messages: []ChatMessage{{Role: RoleTool, Content: "out"}}},
			wantErr: "tool result without a call id",
		},
		{
			name: "tool calls on a user message",
			req: ChatRequest{Messages: []ChatMessage{
				{Role: RoleUser, Content: "x", ToolCalls: []ToolCall{{ID: "t1", Name: "ls"}}},
			}},
			wantErr: "tool calls on user message",
		},
		{
			name:    "negative max tokens",
			req:     ChatRequest{Messages: []ChatMessage{User("x")}, MaxTokens: -1},
			wantErr: "max_tokens -1 is negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUsage(t *testing.T) {
	u := Usage{InputTokens: 12, OutputTokens: 30}
	assert.Equal(t, 42, u.Total())

	u.Add(Usage{InputTokens: 3, OutputTokens: 4})
	assert.Equal(t, Usage{InputTokens: 15, OutputTokens: 34}, u)
}
