package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/llm"
	faketesting "github.com/agentrt/agentrt/llm/testing"
	"github.com/agentrt/agentrt/schema"
)

func TestResolveStrategyNoSchemaPassesToolsThrough(t *testing.T) {
	tools := []chat.Tool{{Name: "t1"}}
	caps := llm.NewCapabilitySet(llm.CapChat)

	gotTools, native, usingRR, err := resolveStrategy(caps, tools, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotTools) != 1 || native != nil || usingRR {
		t.Fatalf("expected tools passed through unchanged and no synthetic tool, got tools=%v native=%v usingRR=%v", gotTools, native, usingRR)
	}
}

func TestResolveStrategyNativeTypedOutputNoTools(t *testing.T) {
	caps := llm.NewCapabilitySet(llm.CapChat, llm.CapTypedOutput)
	outSchema := &schema.JSON{Type: schema.Object}

	gotTools, native, usingRR, err := resolveStrategy(caps, nil, outSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotTools) != 0 || native != outSchema || usingRR {
		t.Fatalf("expected native schema pass-through, got tools=%v native=%v usingRR=%v", gotTools, native, usingRR)
	}
}

func TestResolveStrategyNativeTypedOutputWithTools(t *testing.T) {
	caps := llm.NewCapabilitySet(llm.CapChat, llm.CapTypedOutputWithTools)
	tools := []chat.Tool{{Name: "t1"}}
	outSchema := &schema.JSON{Type: schema.Object}

	gotTools, native, usingRR, err := resolveStrategy(caps, tools, outSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotTools) != 1 || native != outSchema || usingRR {
		t.Fatalf("expected native schema+tools pass-through, got tools=%v native=%v usingRR=%v", gotTools, native, usingRR)
	}
}

func TestResolveStrategySynthesizesReturnResultWhenUnsupported(t *testing.T) {
	caps := llm.NewCapabilitySet(llm.CapChat, llm.CapTypedOutput) // no typedOutputWithTools
	tools := []chat.Tool{{Name: "t1"}}
	outSchema := &schema.JSON{Type: schema.Object}

	gotTools, native, usingRR, err := resolveStrategy(caps, tools, outSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if native != nil {
		t.Fatalf("expected no native schema to be passed once synthesizing return_result, got %v", native)
	}
	if !usingRR {
		t.Fatal("expected usingReturnResult to be true")
	}
	if len(gotTools) != 2 {
		t.Fatalf("expected the caller's tool plus the synthetic one, got %d", len(gotTools))
	}
	foundReturnResult := false
	for _, tool := range gotTools {
		if tool.Name == ReturnResultToolName {
			foundReturnResult = true
		}
	}
	if !foundReturnResult {
		t.Fatal("expected return_result tool to be injected")
	}
}

func TestResolveStrategySynthesizesReturnResultWhenNoNativeSupportAtAll(t *testing.T) {
	caps := llm.NewCapabilitySet(llm.CapChat) // no typed output support of any kind
	outSchema := &schema.JSON{Type: schema.Object}

	gotTools, native, usingRR, err := resolveStrategy(caps, nil, outSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if native != nil || !usingRR || len(gotTools) != 1 {
		t.Fatalf("expected synthesized return_result tool, got tools=%v native=%v usingRR=%v", gotTools, native, usingRR)
	}
}

func TestAgentSendStreamHelloWorld(t *testing.T) {
	model := &faketesting.FakeChatModel{
		ModelName: "fake",
		Caps:      llm.NewCapabilitySet(llm.CapChat),
		Turns: []faketesting.Turn{
			{
				Chunks:       []chat.ChatMessage{chat.ModelMessage("hi there")},
				FinishReason: chat.FinishStop,
			},
		},
	}
	a := &Agent{model: model}

	out, err := a.Send(context.Background(), "hello", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hi there" {
		t.Fatalf("expected %q, got %q", "hi there", out)
	}
}

func TestAgentSendForDecodesStructuredResult(t *testing.T) {
	type answer struct {
		Answer int `json:"answer"`
	}
	resultArgs := json.RawMessage(`{"answer":42}`)
	model := &faketesting.FakeChatModel{
		ModelName: "fake",
		Caps:      llm.NewCapabilitySet(llm.CapChat),
		Turns: []faketesting.Turn{
			{
				Chunks: []chat.ChatMessage{
					chat.NewMessage(chat.RoleModel, chat.ToolCallPart("call-1", ReturnResultToolName, resultArgs)),
				},
				FinishReason: chat.FinishToolCalls,
			},
		},
	}
	a := &Agent{model: model}

	got, err := SendFor[answer](context.Background(), a, "what is the answer?", nil, nil, &schema.JSON{Type: schema.Object})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Answer != 42 {
		t.Fatalf("expected answer 42, got %d", got.Answer)
	}

	req := model.Requests[0]
	if req.OutputSchema != nil {
		t.Fatal("expected no native schema to be sent to the model once return_result was synthesized")
	}
}

func TestAgentSendStreamAssemblesPromptHistoryAndAttachments(t *testing.T) {
	model := &faketesting.FakeChatModel{
		ModelName: "fake",
		Caps:      llm.NewCapabilitySet(llm.CapChat),
		Turns: []faketesting.Turn{
			{
				Chunks:       []chat.ChatMessage{chat.ModelMessage("got it")},
				FinishReason: chat.FinishStop,
			},
		},
	}
	a := &Agent{model: model}

	priorHistory := []chat.ChatMessage{chat.UserMessage("earlier turn")}
	attachment := chat.DataPart([]byte("fake-bytes"), "image/png", "diagram.png")

	out, err := a.Send(context.Background(), "what is in this image?", priorHistory, []chat.Part{attachment})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "got it" {
		t.Fatalf("expected %q, got %q", "got it", out)
	}

	sent := model.Requests[0].Messages
	if len(sent) != 2 {
		t.Fatalf("expected prior history plus the new user turn, got %d messages", len(sent))
	}
	if sent[0].Text() != "earlier turn" {
		t.Fatalf("expected prior history preserved first, got %q", sent[0].Text())
	}
	newTurn := sent[1]
	if newTurn.Role != chat.RoleUser {
		t.Fatalf("expected the new turn to be a user message, got %s", newTurn.Role)
	}
	if len(newTurn.Parts) != 2 {
		t.Fatalf("expected a text part and an attachment part, got %d parts", len(newTurn.Parts))
	}
	if newTurn.Parts[0].Kind != chat.PartText || newTurn.Parts[0].Text != "what is in this image?" {
		t.Fatalf("expected prompt text first, got %+v", newTurn.Parts[0])
	}
	if newTurn.Parts[1].Kind != chat.PartData || newTurn.Parts[1].Name != "diagram.png" {
		t.Fatalf("expected the attachment to follow, got %+v", newTurn.Parts[1])
	}
}
