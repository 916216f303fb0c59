package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentrt/agentrt/schema"
)

// Executor runs tool calls against a tool map, sequentially, converting
// lookup failures, schema violations, and handler errors into structured
// result payloads instead of propagating them. This mirrors how the
// accumulator and orchestrator treat tool execution as data, not control
// flow: a broken tool should let the model react, not crash the loop.
type Executor struct{}

// NewExecutor returns a ready-to-use Executor. It carries no state; it
// exists as a type mainly so callers have somewhere to hang future options.
func NewExecutor() *Executor { return &Executor{} }

// ExecuteBatch runs every call in calls against tools, in order, and always
// returns exactly one ToolPartResult per input call, in input order. A call
// naming a tool that isn't in tools, whose arguments fail the tool's
// InputSchema, or whose handler returns an error, yields a result whose
// payload is {"error": "<message>"} — it never halts the batch or returns a
// Go error itself.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []ToolPart, tools map[string]Tool) []ToolPart {
	results := make([]ToolPart, 0, len(calls))
	for _, call := range calls {
		results = append(results, e.executeOne(ctx, call, tools))
	}
	return results
}

func (e *Executor) executeOne(ctx context.Context, call ToolPart, tools map[string]Tool) ToolPart {
	tool, ok := tools[call.Name]
	if !ok {
		return errorResult(call, fmt.Errorf("tool %s not found", call.Name))
	}

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	if len(tool.InputSchema) > 0 {
		if err := schema.ValidateRaw(tool.InputSchema, args); err != nil {
			return errorResult(call, fmt.Errorf("invalid arguments: %w", err))
		}
	}

	out, err := tool.Handler(ctx, args)
	if err != nil {
		return errorResult(call, err)
	}

	payload, err := serializeResult(out)
	if err != nil {
		return errorResult(call, err)
	}

	return ToolPart{Kind: ToolPartResult, ID: call.ID, Name: call.Name, Result: payload}
}

// serializeResult encodes a handler's return value for the result part:
// strings pass through as a JSON string, anything else is JSON-encoded.
func serializeResult(v any) (json.RawMessage, error) {
	if s, ok := v.(string); ok {
		return json.Marshal(s)
	}
	return json.Marshal(v)
}

func errorResult(call ToolPart, err error) ToolPart {
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return ToolPart{Kind: ToolPartResult, ID: call.ID, Name: call.Name, Result: payload}
}
