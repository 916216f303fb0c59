package agent

import (
	"context"
	"iter"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/llm"
	"github.com/agentrt/agentrt/schema"
)

// Orchestrator drives one round trip to a model: stream, accumulate,
// dispatch tool calls if any, and feed results back into history. The
// façade calls ProcessIteration repeatedly until an emission reports
// ShouldContinue = false.
type Orchestrator interface {
	ProcessIteration(ctx context.Context, model llm.ChatModel, outputSchema *schema.JSON) iter.Seq2[chat.StreamingIterationResult, error]
}

// DefaultOrchestrator implements the agent loop described by the
// specification's default orchestrator: stream model output, consolidate,
// dispatch any tool calls, feed results back, and stop once a consolidated
// turn carries no tool calls.
type DefaultOrchestrator struct {
	State    *StreamingState
	Executor *chat.Executor
}

// NewDefaultOrchestrator builds a DefaultOrchestrator over state.
func NewDefaultOrchestrator(state *StreamingState) *DefaultOrchestrator {
	return &DefaultOrchestrator{State: state, Executor: chat.NewExecutor()}
}

// ProcessIteration performs exactly one round trip to model: it streams
// text chunks to the caller as they arrive, consolidates the provider's
// deltas into one model message, executes any tool calls the message
// carries, and reports whether another iteration is needed.
func (o *DefaultOrchestrator) ProcessIteration(ctx context.Context, model llm.ChatModel, outputSchema *schema.JSON) iter.Seq2[chat.StreamingIterationResult, error] {
	return func(yield func(chat.StreamingIterationResult, error) bool) {
		acc := chat.NewAccumulator()
		var usage chat.Usage
		var finish chat.FinishReason
		prefixed := false

		for res, err := range model.SendStream(ctx, o.State.History, outputSchema) {
			if err != nil {
				yield(chat.StreamingIterationResult{}, err)
				return
			}
			acc.Feed(res.Output)
			usage.Add(res.Usage)
			if res.FinishReason != "" {
				finish = res.FinishReason
			}
			if text := res.Output.Text(); text != "" {
				if o.State.ShouldPrefixNextMessage && !prefixed {
					text = "\n" + text
					prefixed = true
					o.State.ShouldPrefixNextMessage = false
				}
				if !yield(chat.StreamingIterationResult{Output: text, ShouldContinue: true}, nil) {
					return
				}
			}
		}

		consolidated, err := acc.Consolidate()
		if err != nil {
			yield(chat.StreamingIterationResult{}, err)
			return
		}

		if !consolidated.IsEmpty() {
			o.State.AppendHistory(consolidated)
			if !yield(chat.StreamingIterationResult{Messages: []chat.ChatMessage{consolidated}, ShouldContinue: true}, nil) {
				return
			}
		}

		calls := consolidated.ToolCalls()
		if len(calls) == 0 {
			yield(chat.StreamingIterationResult{ShouldContinue: false, FinishReason: finish, Usage: usage}, nil)
			return
		}

		resultMsg := o.dispatch(ctx, calls)
		yield(chat.StreamingIterationResult{Messages: []chat.ChatMessage{resultMsg}, ShouldContinue: true, FinishReason: finish, Usage: usage}, nil)
	}
}

// dispatch runs calls through the executor, appends the resulting
// tool-result message to history, and arms the newline-prefix flag so the
// model's next text turn reads coherently after a tool round.
func (o *DefaultOrchestrator) dispatch(ctx context.Context, calls []chat.ToolPart) chat.ChatMessage {
	results := o.Executor.ExecuteBatch(ctx, calls, o.State.Tools)
	parts := make([]chat.Part, 0, len(results)+1)
	for i := range results {
		parts = append(parts, chat.Part{Kind: chat.PartTool, Tool: &results[i]})
	}
	if reminder := chat.GetSystemReminder(ctx); reminder != nil {
		if text := reminder(); text != "" {
			parts = append(parts, chat.TextPart(text))
		}
	}
	resultMsg := chat.NewMessage(chat.RoleUser, parts...)
	o.State.AppendHistory(resultMsg)
	o.State.ShouldPrefixNextMessage = true
	return resultMsg
}
