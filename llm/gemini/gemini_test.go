package gemini

import (
	"testing"

	"github.com/agentrt/agentrt/chat"
	"github.com/stretchr/testify/assert"
)

func TestMaxOutputTokensForKnownAndUnknownModel(t *testing.T) {
	assert.EqualValues(t, 65536, maxOutputTokensFor("gemini-2.5-flash"))
	assert.EqualValues(t, 8192, maxOutputTokensFor("gemini-future-model"))
}

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, chat.FinishStop, mapFinishReason("STOP"))
	assert.Equal(t, chat.FinishLength, mapFinishReason("MAX_TOKENS"))
	assert.Equal(t, chat.FinishContentFilter, mapFinishReason("SAFETY"))
	assert.Equal(t, chat.FinishRecitation, mapFinishReason("RECITATION"))
	assert.Equal(t, chat.FinishUnspecified, mapFinishReason("UNKNOWN"))
}
