package openai

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/agentrt/agentrt/chat"
)

// messageToOpenAI converts one canonical ChatMessage into OpenAI message
// parameters. A single ChatMessage carrying several tool results expands
// into several OpenAI messages, since OpenAI requires one "tool" role
// message per result, each correlated back to its call by id.
func messageToOpenAI(msg chat.ChatMessage) ([]openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case chat.RoleSystem:
		text := msg.Text()
		if text == "" {
			return nil, fmt.Errorf("system message has no text content")
		}
		return []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(text)}, nil

	case chat.RoleModel:
		assistant := openai.ChatCompletionAssistantMessageParam{}
		if text := msg.Text(); text != "" {
			assistant.Content.OfString = param.NewOpt(text)
		}
		if calls := msg.ToolCalls(); len(calls) > 0 {
			assistant.ToolCalls = buildToolCallParams(calls)
		}
		if assistant.Content.OfString.Value == "" && len(assistant.ToolCalls) == 0 {
			return nil, fmt.Errorf("assistant message has no content")
		}
		return []openai.ChatCompletionMessageParamUnion{{OfAssistant: &assistant}}, nil

	case chat.RoleUser:
		if results := msg.ToolResults(); len(results) > 0 {
			msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(results))
			for _, tr := range results {
				content := string(tr.Result)
				if content == "" {
					content = "{}"
				}
				msgs = append(msgs, openai.ToolMessage(content, tr.ID))
			}
			return msgs, nil
		}
		text := msg.Text()
		if text == "" {
			return nil, fmt.Errorf("user message has no text content")
		}
		return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(text)}, nil

	default:
		return nil, fmt.Errorf("unknown message role: %s", msg.Role)
	}
}

func buildToolCallParams(calls []chat.ToolPart) []openai.ChatCompletionMessageToolCallParam {
	params := make([]openai.ChatCompletionMessageToolCallParam, len(calls))
	for i, c := range calls {
		params[i] = openai.ChatCompletionMessageToolCallParam{
			ID: c.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      c.Name,
				Arguments: string(c.Arguments),
			},
		}
	}
	return params
}

// messagesToOpenAI converts a full history into OpenAI message parameters,
// expanding multi-result messages in place.
func messagesToOpenAI(msgs []chat.ChatMessage) ([]openai.ChatCompletionMessageParamUnion, error) {
	var result []openai.ChatCompletionMessageParamUnion
	for i, msg := range msgs {
		converted, err := messageToOpenAI(msg)
		if err != nil {
			return nil, fmt.Errorf("converting message %d: %w", i, err)
		}
		result = append(result, converted...)
	}
	return result, nil
}

// toolParam converts a chat.Tool into an OpenAI function-tool parameter.
func toolParam(t chat.Tool) (openai.ChatCompletionToolParam, error) {
	var parameters shared.FunctionParameters
	if len(t.InputSchema) > 0 {
		if err := json.Unmarshal(t.InputSchema, &parameters); err != nil {
			return openai.ChatCompletionToolParam{}, fmt.Errorf("tool %q: invalid input schema: %w", t.Name, err)
		}
	}
	return openai.ChatCompletionToolParam{
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: param.NewOpt(t.Description),
			Parameters:  parameters,
		},
	}, nil
}

