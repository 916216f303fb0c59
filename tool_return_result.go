package agent

import (
	"context"
	"encoding/json"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/schema"
)

// ReturnResultToolName is the synthetic tool name the typed-output
// orchestrator watches for. A provider that lacks native structured output
// (or native support combined with the caller's own tools) is given this
// tool instead, and the orchestrator treats a call to it as the signal to
// stop and synthesize the final answer.
const ReturnResultToolName = "return_result"

// newReturnResultTool builds the synthetic tool injected when a provider
// can't combine tools and native structured output: its input schema is the
// caller's output schema verbatim, and its handler does nothing but hand
// its decoded arguments straight back as the result payload.
func newReturnResultTool(outputSchema *schema.JSON) (chat.Tool, error) {
	schemaBytes, err := json.Marshal(outputSchema)
	if err != nil {
		return chat.Tool{}, err
	}
	return chat.Tool{
		Name:        ReturnResultToolName,
		Description: "Call this with the final answer, matching the required schema exactly. Do not call any other tool afterward.",
		InputSchema: schemaBytes,
		Handler: func(_ context.Context, arguments json.RawMessage) (any, error) {
			return arguments, nil
		},
	}, nil
}
