package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/llm"
	faketesting "github.com/agentrt/agentrt/llm/testing"
)

func TestLLMSummarizerSendsConversationToAgent(t *testing.T) {
	model := &faketesting.FakeChatModel{
		ModelName: "fake",
		Caps:      llm.NewCapabilitySet(llm.CapChat),
		Turns: []faketesting.Turn{
			{Chunks: []chat.ChatMessage{chat.ModelMessage("a tidy summary")}, FinishReason: chat.FinishStop},
		},
	}
	a := &Agent{model: model}
	summarizer := NewLLMSummarizer(a)

	records := []Record{
		{Role: chat.RoleUser, Content: "what's the weather", Timestamp: time.Now()},
		{Role: chat.RoleModel, Content: "sunny today", Timestamp: time.Now()},
	}

	summary, err := summarizer.Summarize(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "a tidy summary" {
		t.Fatalf("expected %q, got %q", "a tidy summary", summary)
	}

	if len(model.Requests) != 1 {
		t.Fatalf("expected exactly one SendStream call, got %d", len(model.Requests))
	}
	sent := model.Requests[0].Messages
	if len(sent) != 2 || sent[0].Role != chat.RoleSystem {
		t.Fatalf("expected a system message followed by the summary prompt, got %+v", sent)
	}
	if !strings.Contains(sent[1].Text(), "what's the weather") {
		t.Fatal("expected the conversation text to be embedded in the summary prompt")
	}
}

func TestLLMSummarizerEmptyRecordsSkipsAgentCall(t *testing.T) {
	model := &faketesting.FakeChatModel{ModelName: "fake", Caps: llm.NewCapabilitySet(llm.CapChat)}
	a := &Agent{model: model}
	summarizer := NewLLMSummarizer(a)

	summary, err := summarizer.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "" {
		t.Fatalf("expected empty summary for no records, got %q", summary)
	}
	if len(model.Requests) != 0 {
		t.Fatal("expected no model calls when there's nothing to summarize")
	}
}

func TestLLMSummarizerSetPromptChangesInstructions(t *testing.T) {
	model := &faketesting.FakeChatModel{
		ModelName: "fake",
		Caps:      llm.NewCapabilitySet(llm.CapChat),
		Turns: []faketesting.Turn{
			{Chunks: []chat.ChatMessage{chat.ModelMessage("done")}, FinishReason: chat.FinishStop},
		},
	}
	a := &Agent{model: model}
	summarizer := NewLLMSummarizer(a)
	summarizer.SetPrompt("Summarize in exactly one word.")

	_, err := summarizer.Summarize(context.Background(), []Record{{Role: chat.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := model.Requests[0].Messages
	if !strings.Contains(sent[1].Text(), "Summarize in exactly one word.") {
		t.Fatal("expected the custom prompt to be used in the summary request")
	}
}

func TestSimpleSummarizerKeepsFirstAndLast(t *testing.T) {
	summarizer := NewSimpleSummarizer(1, 1)
	records := []Record{
		{Role: chat.RoleUser, Content: "first"},
		{Role: chat.RoleModel, Content: "middle-1"},
		{Role: chat.RoleUser, Content: "middle-2"},
		{Role: chat.RoleModel, Content: "last"},
	}

	summary, err := summarizer.Summarize(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(summary, "first") {
		t.Fatal("expected the first record to be kept")
	}
	if !strings.Contains(summary, "last") {
		t.Fatal("expected the last record to be kept")
	}
	if strings.Contains(summary, "middle-1") {
		t.Fatal("expected the middle records to be omitted")
	}
	if !strings.Contains(summary, "middle portion omitted") {
		t.Fatal("expected an ellipsis marker for the omitted middle")
	}
}

func TestSimpleSummarizerEmptyRecords(t *testing.T) {
	summarizer := NewSimpleSummarizer(2, 2)
	summary, err := summarizer.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "" {
		t.Fatalf("expected empty summary for no records, got %q", summary)
	}
}
