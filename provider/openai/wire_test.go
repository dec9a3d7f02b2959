package openai

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/wirebird/tern/messages"
	"github.com/wirebird/tern/tool"
)

func marshalPayload(t *testing.T, p *Provider, req *messages.ChatRequest, stream bool) []byte {
	t.Helper()
	raw, err := json.Marshal(p.payload(req, stream))
	require.NoError(t, err)
	return raw
}

func TestPayloadSystemPrompt(t *testing.T) {
	p := New(WithAPIKey("sk-test"), WithModel("gpt-4o-mini"))
	raw := marshalPayload(t, p, &messages.ChatRequest{
		SystemPrompt: "be terse",
		Messages:     []messages.ChatMessage{messages.User("hi")},
	}, false)

	msgs := gjson.GetBytes(raw, "messages").Array()
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Get("role").String())
	assert.Equal(t, "be terse", msgs[0].Get("content").String())
	assert.Equal(t, "user", msgs[1].Get("role").String())
	assert.Equal(t, "gpt-4o-mini", gjson.GetBytes(raw, "model").String())
	assert.False(t, gjson.GetBytes(raw, "stream").Exists())
	assert.False(t, gjson.GetBytes(raw, "stream_options").Exists())
}

func TestPayloadToolConversation(t *testing.T) {
	p := New(WithAPIKey("sk-test"))
	req := &messages.ChatRequest{
		Messages: []messages.ChatMessage{
			messages.User("list my files"),
			{
				Role: messages.RoleAssistant,
				ToolCalls: []messages.ToolCall{
					{ID: "t1", Name: "ls", Arguments: json.RawMessage(`{"path":"/"}`)},
				},
			},
			messages.ToolResult("t1", "main.go  go.mod"),
		},
	}

	raw := marshalPayload(t, p, req, false)
	msgs := gjson.GetBytes(raw, "messages").Array()
	require.Len(t, msgs, 3)

	call := msgs[1].Get("tool_calls.0")
	assert.Equal(t, "t1", call.Get("id").String())
	assert.Equal(t, "function", call.Get("type").String())
	assert.Equal(t, "ls", call.Get("function.name").String())
	// Arguments ride as a JSON-encoded string.
	assert.Equal(t, `{"path":"/"}`, call.Get("function.arguments").String())

	result := msgs[2]
	assert.Equal(t, "tool", result.Get("role").String())
	assert.Equal(t, "t1", result.Get("tool_call_id").String())
	assert.Equal(t, "main.go  go.mod", result.Get("content").String())
}

func TestPayloadTools(t *testing.T) {
	type lsArgs struct {
		Path string `json:"path" jsonschema:"description=Directory to list"`
	}

	p := New(WithAPIKey("sk-test"))
	req := &messages.ChatRequest{
		Messages: []messages.ChatMessage{messages.User("hi")},
		Tools: []tool.Definition{
			tool.Must("ls", tool.Description("List a directory"), tool.Params[lsArgs]()),
			tool.Must("pwd"),
		},
	}

	raw := marshalPayload(t, p, req, true)
	tools := gjson.GetBytes(raw, "tools").Array()
	require.Len(t, tools, 2)

	ls := tools[0]
	assert.Equal(t, "function", ls.Get("type").String())
	assert.Equal(t, "ls", ls.Get("function.name").String())
	assert.Equal(t, "List a directory", ls.Get("function.description").String())
	assert.Equal(t, "object", ls.Get("function.parameters.type").String())
	assert.True(t, ls.Get("function.parameters.properties.path").Exists())

	// A tool without an explicit schema still carries an empty object schema.
	pwd := tools[1]
	assert.Equal(t, "object", pwd.Get("function.parameters.type").String())

	assert.True(t, gjson.GetBytes(raw, "stream").Bool())
	assert.True(t, gjson.GetBytes(raw, "stream_options.include_usage").Bool())
}

func TestPayloadSamplingParams(t *testing.T) {
	p := New(WithAPIKey("sk-test"))
	raw := marshalPayload(t, p, &messages.ChatRequest{
		Messages:    []messages.ChatMessage{messages.User("hi")},
		MaxTokens:   128,
		Temperature: 0.7,
	}, false)

	assert.Equal(t, int64(128), gjson.GetBytes(raw, "max_tokens").Int())
	assert.InDelta(t, 0.7, gjson.GetBytes(raw, "temperature").Float(), 1e-9)
}

func TestPayloadModelFallback(t *testing.T) {
	p := New(WithAPIKey("sk-test"), WithModel("gpt-4o-mini"))

	raw := marshalPayload(t, p, &messages.ChatRequest{
		Messages: []messages.ChatMessage{messages.User("hi")},
	}, false)
	assert.Equal(t, "gpt-4o-mini", gjson.GetBytes(raw, "model").String())

	raw = marshalPayload(t, p, &messages.ChatRequest{
		Messages: []messages.ChatMessage{messages.User("hi")},
		Model:    "o3-mini",
	}, false)
	assert.Equal(t, "o3-mini", gjson.GetBytes(raw, "model").String())
}
