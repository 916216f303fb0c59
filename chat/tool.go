package chat

import (
	"context"
	"encoding/json"
)

// Tool is a named callable exposed to a model. InputSchema is a JSON Schema
// object describing the arguments; an empty-properties schema means the
// tool takes no arguments. Handler receives the arguments object as raw
// JSON (`{}` when the call carried no arguments) and returns either a string (passed
// through as-is) or any other JSON-marshalable value (encoded by the
// executor).
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     func(ctx context.Context, arguments json.RawMessage) (any, error)
}

// Map builds a name-indexed lookup table from a tool slice, the shape every
// executor and mapper consumes.
func Map(tools []Tool) map[string]Tool {
	m := make(map[string]Tool, len(tools))
	for _, t := range tools {
		m[t.Name] = t
	}
	return m
}
