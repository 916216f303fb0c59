package mcp

import (
	"context"
	"encoding/json"

	"github.com/agentrt/agentrt/chat"
)

// newStubTool builds a chat.Tool whose handler ignores its decoded arguments
// (recording the raw JSON it was called with, if calledWith is non-nil) and
// returns result verbatim as a string, letting tests control exactly what
// bytes the server has to parse as a tool's JSON output.
func newStubTool(name, description, inputSchema, result string, calledWith *string) chat.Tool {
	return chat.Tool{
		Name:        name,
		Description: description,
		InputSchema: json.RawMessage(inputSchema),
		Handler: func(_ context.Context, args json.RawMessage) (any, error) {
			if calledWith != nil {
				*calledWith = string(args)
			}
			return result, nil
		},
	}
}

// newPanicTool builds a chat.Tool whose handler panics, for exercising the
// server's panic-recovery path.
func newPanicTool(name, description, inputSchema, panicMsg string) chat.Tool {
	return chat.Tool{
		Name:        name,
		Description: description,
		InputSchema: json.RawMessage(inputSchema),
		Handler: func(_ context.Context, _ json.RawMessage) (any, error) {
			panic(panicMsg)
		},
	}
}
