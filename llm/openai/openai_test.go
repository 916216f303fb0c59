package openai

import (
	"testing"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, chat.FinishStop, mapFinishReason("stop"))
	assert.Equal(t, chat.FinishToolCalls, mapFinishReason("tool_calls"))
	assert.Equal(t, chat.FinishLength, mapFinishReason("length"))
	assert.Equal(t, chat.FinishUnspecified, mapFinishReason("something_new"))
}

func TestIsNoTemperatureModel(t *testing.T) {
	assert.True(t, isNoTemperatureModel("o1-preview"))
	assert.True(t, isNoTemperatureModel("o3-mini"))
	assert.False(t, isNoTemperatureModel("gpt-4o"))
}

func TestSchemaToMapRoundTrips(t *testing.T) {
	s := &schema.JSON{
		Type:       schema.Object,
		Properties: map[string]*schema.JSON{"zip": {Type: schema.String}},
		Required:   []string{"zip"},
	}
	m, err := schemaToMap(s)
	require.NoError(t, err)
	assert.Equal(t, "object", m["type"])
	props, ok := m["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "zip")
}
