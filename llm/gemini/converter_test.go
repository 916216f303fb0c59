package gemini

import (
	"encoding/json"
	"testing"

	"github.com/agentrt/agentrt/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageToGeminiConvertsAssistantTextAndCall(t *testing.T) {
	msg := chat.ChatMessage{
		Role: chat.RoleModel,
		Parts: []chat.Part{
			chat.TextPart("let me check"),
			chat.ToolCallPart("call-1", "weather", json.RawMessage(`{"zip":"97209"}`)),
		},
	}
	content, err := messageToGemini(msg)
	require.NoError(t, err)
	assert.Equal(t, "model", content.Role)
	assert.Len(t, content.Parts, 2)
}

func TestMessageToGeminiConvertsToolResult(t *testing.T) {
	msg := chat.ChatMessage{
		Role:  chat.RoleUser,
		Parts: []chat.Part{chat.ToolResultPart("call-1", "weather", json.RawMessage(`{"temp":72}`))},
	}
	content, err := messageToGemini(msg)
	require.NoError(t, err)
	assert.Equal(t, "function", content.Role)
	require.Len(t, content.Parts, 1)
	assert.Equal(t, "call-1", content.Parts[0].FunctionResponse.ID)
}

func TestMessageToGeminiRejectsEmptyUserMessage(t *testing.T) {
	_, err := messageToGemini(chat.ChatMessage{Role: chat.RoleUser})
	require.Error(t, err)
}

func TestMessagesToGeminiSkipsSystemMessages(t *testing.T) {
	history := []chat.ChatMessage{
		chat.SystemMessage("be terse"),
		chat.UserMessage("hi"),
	}
	contents, err := messagesToGemini(history)
	require.NoError(t, err)
	assert.Len(t, contents, 1)
}

func TestJSONSchemaToGeminiSchemaConvertsObject(t *testing.T) {
	m := map[string]any{
		"type":       "object",
		"properties": map[string]any{"zip": map[string]any{"type": "string"}},
		"required":   []any{"zip"},
	}
	s, err := jsonSchemaToGeminiSchema(m)
	require.NoError(t, err)
	assert.Contains(t, s.Required, "zip")
	assert.Contains(t, s.Properties, "zip")
}

func TestFunctionDeclarationCarriesNameAndSchema(t *testing.T) {
	tool := chat.Tool{
		Name:        "weather",
		Description: "look up weather",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"zip":{"type":"string"}},"required":["zip"]}`),
	}
	decl, err := functionDeclaration(tool)
	require.NoError(t, err)
	assert.Equal(t, "weather", decl.Name)
	require.NotNil(t, decl.Parameters)
	assert.Contains(t, decl.Parameters.Required, "zip")
}
