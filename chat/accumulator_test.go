package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorMergesText(t *testing.T) {
	a := NewAccumulator()
	a.Feed(ChatMessage{Role: RoleModel, Parts: []Part{TextPart("Hello, ")}})
	a.Feed(ChatMessage{Parts: []Part{TextPart("world!")}})

	got, err := a.Consolidate()
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", got.Text())
	assert.Equal(t, RoleModel, got.Role)
}

func TestAccumulatorReassemblesFragmentedToolCall(t *testing.T) {
	a := NewAccumulator()
	a.Feed(ChatMessage{Role: RoleModel, Parts: []Part{
		{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, ID: "call-1", Name: "weather", Index: 0, Arguments: json.RawMessage(`{"z`)}},
	}})
	a.Feed(ChatMessage{Parts: []Part{
		{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, Index: 0, Arguments: json.RawMessage(`ip":"9`)}},
	}})
	a.Feed(ChatMessage{Parts: []Part{
		{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, Index: 0, Arguments: json.RawMessage(`7209"}`)}},
	}})

	got, err := a.Consolidate()
	require.NoError(t, err)
	calls := got.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call-1", calls[0].ID)
	assert.Equal(t, "weather", calls[0].Name)
	assert.JSONEq(t, `{"zip":"97209"}`, string(calls[0].Arguments))
}

func TestAccumulatorSingleCharacterFragments(t *testing.T) {
	whole := `{"zip":"97209"}`
	fragmented := NewAccumulator()
	for i, ch := range whole {
		id := ""
		if i == 0 {
			id = "call-1"
		}
		fragmented.Feed(ChatMessage{Role: RoleModel, Parts: []Part{
			{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, ID: id, Name: "weather", Index: 0, Arguments: json.RawMessage(string(ch))}},
		}})
	}
	fragGot, err := fragmented.Consolidate()
	require.NoError(t, err)

	whole1 := NewAccumulator()
	whole1.Feed(ChatMessage{Role: RoleModel, Parts: []Part{
		{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, ID: "call-1", Name: "weather", Index: 0, Arguments: json.RawMessage(whole)}},
	}})
	wholeGot, err := whole1.Consolidate()
	require.NoError(t, err)

	assert.JSONEq(t, string(wholeGot.ToolCalls()[0].Arguments), string(fragGot.ToolCalls()[0].Arguments))
}

func TestAccumulatorEmptyArgumentsBecomeEmptyObject(t *testing.T) {
	a := NewAccumulator()
	a.Feed(ChatMessage{Role: RoleModel, Parts: []Part{
		{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, ID: "call-1", Name: "now", Index: 0}},
	}})
	got, err := a.Consolidate()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(got.ToolCalls()[0].Arguments))
}

func TestAccumulatorNullArgumentsBecomeEmptyObject(t *testing.T) {
	a := NewAccumulator()
	a.Feed(ChatMessage{Role: RoleModel, Parts: []Part{
		{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, ID: "call-1", Name: "now", Index: 0, Arguments: json.RawMessage("null")}},
	}})
	got, err := a.Consolidate()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(got.ToolCalls()[0].Arguments))
}

func TestAccumulatorMalformedArgumentsFail(t *testing.T) {
	a := NewAccumulator()
	a.Feed(ChatMessage{Role: RoleModel, Parts: []Part{
		{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, ID: "call-1", Name: "now", Index: 0, Arguments: json.RawMessage(`[1,2]`)}},
	}})
	_, err := a.Consolidate()
	require.Error(t, err)
	var parseErr *ToolArgumentParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestAccumulatorIdempotentConsolidation(t *testing.T) {
	a := NewAccumulator()
	a.Feed(ChatMessage{Role: RoleModel, Parts: []Part{TextPart("hi")}})
	first, err := a.Consolidate()
	require.NoError(t, err)

	again := NewAccumulator()
	again.Feed(first)
	second, err := again.Consolidate()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAccumulatorPreservesMultipleDistinctCallsInOrder(t *testing.T) {
	a := NewAccumulator()
	a.Feed(ChatMessage{Role: RoleModel, Parts: []Part{
		{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, ID: "call-1", Name: "current_date", Index: 0, Arguments: json.RawMessage(`{}`)}},
		{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, ID: "call-2", Name: "calendar", Index: 1, Arguments: json.RawMessage(`{"date":"2025-01-02"}`)}},
	}})
	got, err := a.Consolidate()
	require.NoError(t, err)
	calls := got.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "current_date", calls[0].Name)
	assert.Equal(t, "calendar", calls[1].Name)
}
