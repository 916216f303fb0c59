package mcp

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/agentrt/agentrt/chat"
)

// Registry holds a collection of tools that can be exposed via an MCP server.
// It is safe for concurrent use; tools can be registered while the server is running.
type Registry struct {
	mu          sync.Mutex
	tools       map[string]chat.Tool
	definitions map[string]ToolDefinition
	order       []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:       make(map[string]chat.Tool),
		definitions: make(map[string]ToolDefinition),
		order:       make([]string, 0),
	}
}

// Register adds tool to the registry, keyed by its Name. If a tool with the
// same name already exists, it is replaced. Returns an error if the tool is
// missing a name, a handler, or an input schema.
func (r *Registry) Register(tool chat.Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("register tool: missing tool name")
	}
	if tool.Handler == nil {
		return fmt.Errorf("register tool: missing handler for %q", tool.Name)
	}
	if len(tool.InputSchema) == 0 {
		return fmt.Errorf("register tool: missing input schema for %q", tool.Name)
	}
	if !json.Valid(tool.InputSchema) {
		return fmt.Errorf("register tool: invalid input schema for %q", tool.Name)
	}

	def := ToolDefinition{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: append(json.RawMessage(nil), tool.InputSchema...),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
	r.definitions[tool.Name] = def
	return nil
}

// Get retrieves a tool by name. Returns the tool and true if found,
// or the zero value and false if no tool with that name is registered.
func (r *Registry) Get(name string) (chat.Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tool, ok := r.tools[name]
	return tool, ok
}

// Definitions returns the tool definitions for all registered tools
// in the order they were first registered. This is used by tools/list.
func (r *Registry) Definitions() []ToolDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		if def, ok := r.definitions[name]; ok {
			defs = append(defs, def)
		}
	}
	return defs
}
