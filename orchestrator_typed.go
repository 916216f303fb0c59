package agent

import (
	"context"
	"encoding/json"
	"iter"
	"strings"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/llm"
	"github.com/agentrt/agentrt/schema"
)

// TypedOrchestrator extends the default loop with the structured-output
// normalization rules: when the façade has injected ReturnResultToolName
// because the provider can't natively combine tools and a schema, all raw
// text is suppressed during streaming and a single synthetic model message
// carrying the JSON result is emitted once the model calls it.
type TypedOrchestrator struct {
	State    *StreamingState
	Executor *chat.Executor

	// UsingReturnResult is true iff the façade injected the synthetic
	// return_result tool for this call (the provider lacks native
	// typedOutputWithTools, or lacks native structured output entirely).
	UsingReturnResult bool
}

// NewTypedOrchestrator builds a TypedOrchestrator over state.
func NewTypedOrchestrator(state *StreamingState, usingReturnResult bool) *TypedOrchestrator {
	return &TypedOrchestrator{State: state, Executor: chat.NewExecutor(), UsingReturnResult: usingReturnResult}
}

func (o *TypedOrchestrator) ProcessIteration(ctx context.Context, model llm.ChatModel, outputSchema *schema.JSON) iter.Seq2[chat.StreamingIterationResult, error] {
	return func(yield func(chat.StreamingIterationResult, error) bool) {
		acc := chat.NewAccumulator()
		var usage chat.Usage
		var finish chat.FinishReason
		var suppressed strings.Builder
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

			text := res.Output.Text()
			if text == "" {
				continue
			}
			if o.UsingReturnResult {
				// The provider is expected to call return_result rather
				// than answer in plain text; buffer what it says so we can
				// still surface something if it never does (best-effort,
				// per the "missing return_result call" error-table entry).
				suppressed.WriteString(text)
				continue
			}
			if o.State.ShouldPrefixNextMessage && !prefixed {
				text = "\n" + text
				prefixed = true
				o.State.ShouldPrefixNextMessage = false
			}
			if !yield(chat.StreamingIterationResult{Output: text, ShouldContinue: true}, nil) {
				return
			}
		}

		consolidated, err := acc.Consolidate()
		if err != nil {
			yield(chat.StreamingIterationResult{}, err)
			return
		}

		calls := consolidated.ToolCalls()
		var returnResultCall *chat.ToolPart
		for i := range calls {
			if calls[i].Name == ReturnResultToolName {
				returnResultCall = &calls[i]
				break
			}
		}

		if returnResultCall == nil {
			o.processOrdinaryTurn(ctx, consolidated, calls, finish, usage, suppressed.String(), yield)
			return
		}

		o.processReturnResult(ctx, consolidated, calls, finish, usage, suppressed.String(), yield)
	}
}

// processOrdinaryTurn handles an iteration where the model didn't call
// return_result this round: behaves like the default orchestrator, except
// any text suppressed during streaming (because return_result was expected
// but never arrived) is surfaced as a best-effort fallback on the turn that
// finally terminates the loop.
func (o *TypedOrchestrator) processOrdinaryTurn(ctx context.Context, consolidated chat.ChatMessage, calls []chat.ToolPart, finish chat.FinishReason, usage chat.Usage, suppressedText string, yield func(chat.StreamingIterationResult, error) bool) {
	if !consolidated.IsEmpty() {
		o.State.AppendHistory(consolidated)
		out := chat.StreamingIterationResult{Messages: []chat.ChatMessage{consolidated}, ShouldContinue: true}
		if len(calls) == 0 {
			out.Output = suppressedText
		}
		if !yield(out, nil) {
			return
		}
	}

	if len(calls) == 0 {
		yield(chat.StreamingIterationResult{ShouldContinue: false, FinishReason: finish, Usage: usage}, nil)
		return
	}

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
	yield(chat.StreamingIterationResult{Messages: []chat.ChatMessage{resultMsg}, ShouldContinue: true, FinishReason: finish, Usage: usage}, nil)
}

// processReturnResult handles the terminating case: the consolidated turn
// and its tool-result message are recorded in history for ordering
// purposes but never emitted to the caller; instead a single synthetic
// model message carrying the JSON result closes out the stream.
func (o *TypedOrchestrator) processReturnResult(ctx context.Context, consolidated chat.ChatMessage, calls []chat.ToolPart, finish chat.FinishReason, usage chat.Usage, suppressedText string, yield func(chat.StreamingIterationResult, error) bool) {
	results := o.Executor.ExecuteBatch(ctx, calls, o.State.Tools)
	parts := make([]chat.Part, 0, len(results))
	var resultJSON json.RawMessage
	for i := range results {
		parts = append(parts, chat.Part{Kind: chat.PartTool, Tool: &results[i]})
		if results[i].Name == ReturnResultToolName {
			resultJSON = results[i].Result
		}
	}
	resultMsg := chat.NewMessage(chat.RoleUser, parts...)
	o.State.AppendHistory(consolidated, resultMsg)

	metadata := make(map[string]any, len(consolidated.Metadata)+1)
	for k, v := range consolidated.Metadata {
		metadata[k] = v
	}
	if suppressedText != "" {
		metadata["suppressedText"] = suppressedText
	}

	final := chat.ChatMessage{
		Role:     chat.RoleModel,
		Parts:    []chat.Part{chat.TextPart(string(resultJSON))},
		Metadata: metadata,
	}
	o.State.AppendHistory(final)

	yield(chat.StreamingIterationResult{
		Output:         string(resultJSON),
		Messages:       []chat.ChatMessage{final},
		ShouldContinue: false,
		FinishReason:   finish,
		Usage:          usage,
	}, nil)
}
