// Package testing provides a scripted fake ChatModel so orchestrator and
// façade tests can exercise multi-round tool-calling and typed-output flows
// without a live provider. It replaces the teacher's live-API integration
// harness (which drove a real client through fixed prompts and asserted on
// keyword content) with a deterministic fixture-driven one, since this
// repository never runs a provider over the network in its own test suite.
package testing

import (
	"context"
	"fmt"
	"iter"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/llm"
	"github.com/agentrt/agentrt/schema"
)

// Turn is one scripted response FakeChatModel yields for one SendStream
// call: a sequence of partial-message chunks (as a real provider would
// stream them) and a finish reason for the last chunk.
type Turn struct {
	Chunks       []chat.ChatMessage
	FinishReason chat.FinishReason
	Usage        chat.Usage
}

// FakeChatModel implements llm.ChatModel by replaying a scripted sequence of
// Turns, one per SendStream call, in order. Calling SendStream more times
// than there are scripted Turns is a test bug and panics with a clear
// message rather than silently returning an empty stream.
type FakeChatModel struct {
	ModelName string
	Caps      llm.CapabilitySet
	Turns     []Turn

	calls    int
	disposed bool

	// Requests records every outputSchema/messages pair SendStream was
	// called with, for assertions on what the orchestrator sent.
	Requests []FakeRequest
}

// FakeRequest captures one SendStream invocation.
type FakeRequest struct {
	Messages     []chat.ChatMessage
	OutputSchema *schema.JSON
}

func (m *FakeChatModel) Name() string                    { return m.ModelName }
func (m *FakeChatModel) Capabilities() llm.CapabilitySet { return m.Caps }
func (m *FakeChatModel) Dispose()                        { m.disposed = true }

// Disposed reports whether Dispose has been called, for tests asserting the
// façade releases the model on exit.
func (m *FakeChatModel) Disposed() bool { return m.disposed }

func (m *FakeChatModel) SendStream(ctx context.Context, messages []chat.ChatMessage, outputSchema *schema.JSON) iter.Seq2[chat.ChatResult[chat.ChatMessage], error] {
	m.Requests = append(m.Requests, FakeRequest{Messages: messages, OutputSchema: outputSchema})

	if m.calls >= len(m.Turns) {
		panic(fmt.Sprintf("FakeChatModel.SendStream called %d times, only %d Turns scripted", m.calls+1, len(m.Turns)))
	}
	turn := m.Turns[m.calls]
	m.calls++

	return func(yield func(chat.ChatResult[chat.ChatMessage], error) bool) {
		for i, chunk := range turn.Chunks {
			select {
			case <-ctx.Done():
				return
			default:
			}
			result := chat.ChatResult[chat.ChatMessage]{Output: chunk}
			if i == len(turn.Chunks)-1 {
				result.FinishReason = turn.FinishReason
				result.Usage = turn.Usage
			}
			if !yield(result, nil) {
				return
			}
		}
	}
}
