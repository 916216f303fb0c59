package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatMessageJSONRoundTrip(t *testing.T) {
	msgs := []ChatMessage{
		SystemMessage("be terse"),
		UserMessage("weather in 97209?"),
		{
			Role: RoleModel,
			Parts: []Part{
				TextPart("let me check"),
				ToolCallPart("call-1", "weather", json.RawMessage(`{"zip":"97209"}`)),
			},
		},
		{
			Role:  RoleUser,
			Parts: []Part{ToolResultPart("call-1", "weather", json.RawMessage(`{"tempF":70}`))},
		},
		ModelMessage("it's 70F"),
	}

	for _, m := range msgs {
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var out ChatMessage
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, m, out)
	}
}

func TestValidateOrderingRejectsOrphanResult(t *testing.T) {
	msgs := []ChatMessage{
		{Role: RoleUser, Parts: []Part{ToolResultPart("missing-call", "weather", json.RawMessage(`{}`))}},
	}
	err := ValidateOrdering(msgs)
	require.Error(t, err)
}

func TestValidateOrderingAcceptsMatchedCallResult(t *testing.T) {
	msgs := []ChatMessage{
		{Role: RoleModel, Parts: []Part{ToolCallPart("call-1", "weather", json.RawMessage(`{}`))}},
		{Role: RoleUser, Parts: []Part{ToolResultPart("call-1", "weather", json.RawMessage(`{}`))}},
	}
	require.NoError(t, ValidateOrdering(msgs))
}

func TestMessageHelpers(t *testing.T) {
	m := ChatMessage{Role: RoleModel, Parts: []Part{
		TextPart("a"),
		ToolCallPart("1", "t", json.RawMessage(`{}`)),
	}}
	assert.True(t, m.HasToolCalls())
	assert.Equal(t, "a", m.Text())
	assert.Len(t, m.ToolCalls(), 1)
	assert.Empty(t, m.ToolResults())
	assert.False(t, m.IsEmpty())
	assert.True(t, ChatMessage{}.IsEmpty())
}

func TestWithMetadataDoesNotMutateOriginal(t *testing.T) {
	m := UserMessage("hi")
	m2 := m.WithMetadata("k", "v")
	assert.Nil(t, m.Metadata)
	assert.Equal(t, "v", m2.Metadata["k"])
}
