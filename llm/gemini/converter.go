package gemini

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/agentrt/agentrt/chat"
)

// messageToGemini converts one canonical ChatMessage into Gemini Content.
// System messages are handled by the caller (folded into
// GenerateContentConfig.SystemInstruction), never reaching this function.
func messageToGemini(msg chat.ChatMessage) (*genai.Content, error) {
	switch msg.Role {
	case chat.RoleUser:
		if results := msg.ToolResults(); len(results) > 0 {
			parts := make([]*genai.Part, 0, len(results))
			for _, tr := range results {
				response := make(map[string]any)
				if len(tr.Result) > 0 {
					if err := json.Unmarshal(tr.Result, &response); err != nil {
						response["result"] = string(tr.Result)
					}
				} else {
					response["result"] = "success"
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{ID: tr.ID, Name: tr.Name, Response: response},
				})
			}
			return &genai.Content{Role: "function", Parts: parts}, nil
		}
		text := msg.Text()
		if text == "" {
			return nil, fmt.Errorf("user message has no text content")
		}
		return &genai.Content{Role: "user", Parts: []*genai.Part{{Text: text}}}, nil

	case chat.RoleModel:
		var parts []*genai.Part
		if text := msg.Text(); text != "" {
			parts = append(parts, &genai.Part{Text: text})
		}
		for _, tc := range msg.ToolCalls() {
			var args map[string]any
			if len(tc.Arguments) > 0 {
				if err := json.Unmarshal(tc.Arguments, &args); err != nil {
					args = map[string]any{"raw": string(tc.Arguments)}
				}
			}
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
			})
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("model message has no content")
		}
		return &genai.Content{Role: "model", Parts: parts}, nil

	default:
		return nil, fmt.Errorf("unexpected role for gemini content conversion: %s", msg.Role)
	}
}

// messagesToGemini converts a full history (system messages already
// extracted by the caller) into Gemini Content, skipping system messages. A
// message that converts to nothing (e.g. an assistant turn with no text and
// no calls) is an error.
func messagesToGemini(msgs []chat.ChatMessage) ([]*genai.Content, error) {
	var result []*genai.Content
	for i, msg := range msgs {
		if msg.Role == chat.RoleSystem {
			continue
		}
		content, err := messageToGemini(msg)
		if err != nil {
			return nil, fmt.Errorf("converting message %d: %w", i, err)
		}
		result = append(result, content)
	}
	return result, nil
}

// jsonSchemaToGeminiSchema recursively converts a subset of JSON Schema into
// Gemini's genai.Schema. Unsupported keywords (oneOf/anyOf/allOf) are
// dropped rather than erroring, since Gemini's schema dialect is narrower
// than full JSON Schema.
func jsonSchemaToGeminiSchema(m map[string]any) (*genai.Schema, error) {
	s := &genai.Schema{}

	if typeStr, ok := m["type"].(string); ok {
		switch typeStr {
		case "string":
			s.Type = genai.TypeString
		case "integer":
			s.Type = genai.TypeInteger
		case "number":
			s.Type = genai.TypeNumber
		case "boolean":
			s.Type = genai.TypeBoolean
		case "array":
			s.Type = genai.TypeArray
			if items, ok := m["items"].(map[string]any); ok {
				itemSchema, err := jsonSchemaToGeminiSchema(items)
				if err != nil {
					return nil, fmt.Errorf("array items: %w", err)
				}
				s.Items = itemSchema
			}
		case "object":
			s.Type = genai.TypeObject
			if props, ok := m["properties"].(map[string]any); ok {
				s.Properties = make(map[string]*genai.Schema, len(props))
				for name, raw := range props {
					propMap, ok := raw.(map[string]any)
					if !ok {
						continue
					}
					propSchema, err := jsonSchemaToGeminiSchema(propMap)
					if err != nil {
						return nil, fmt.Errorf("property %q: %w", name, err)
					}
					s.Properties[name] = propSchema
				}
			}
			if required, ok := m["required"].([]any); ok {
				for _, f := range required {
					if name, ok := f.(string); ok {
						s.Required = append(s.Required, name)
					}
				}
			}
		}
	}

	if desc, ok := m["description"].(string); ok {
		s.Description = desc
	}
	if enum, ok := m["enum"].([]any); ok {
		for _, e := range enum {
			if str, ok := e.(string); ok {
				s.Enum = append(s.Enum, str)
			}
		}
	}

	return s, nil
}

// functionDeclaration converts a chat.Tool into a Gemini FunctionDeclaration.
func functionDeclaration(t chat.Tool) (*genai.FunctionDeclaration, error) {
	decl := &genai.FunctionDeclaration{Name: t.Name, Description: t.Description}
	if len(t.InputSchema) == 0 {
		return decl, nil
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(t.InputSchema, &schemaMap); err != nil {
		return nil, fmt.Errorf("tool %q: invalid input schema: %w", t.Name, err)
	}
	params, err := jsonSchemaToGeminiSchema(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", t.Name, err)
	}
	decl.Parameters = params
	return decl, nil
}
