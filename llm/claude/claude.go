// Package claude implements llm.ChatModel against Anthropic's Messages API.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/internal/logging"
	"github.com/agentrt/agentrt/llm"
	"github.com/agentrt/agentrt/schema"
)

const AnthropicURL = "https://api.anthropic.com/v1"

func init() {
	llm.RegisterProvider(llm.Default, &llm.Provider{
		Name:              "claude",
		Aliases:           []string{"anthropic"},
		DefaultModelNames: map[llm.ModelKind]string{llm.ModelKindChat: "claude-sonnet-4-5"},
		Caps:              llm.NewCapabilitySet(llm.CapChat, llm.CapMultiToolCalls, llm.CapVision),
		CreateChatModel: func(cfg llm.Config, name string, tools []chat.Tool, temperature *float64) (llm.ChatModel, error) {
			return NewChatModel(cfg, name, tools, temperature)
		},
	})
}

// modelMaxTokens gives the output token ceiling Anthropic requires every
// request to declare. Unlisted models fall back to a conservative default
// rather than panicking, since the provider list changes faster than this
// table does.
var modelMaxTokens = []struct {
	prefix string
	tokens int64
}{
	{"claude-opus-4-1", 32000},
	{"claude-opus-4", 32000},
	{"claude-sonnet-4", 64000},
	{"claude-3-7-sonnet", 64000},
	{"claude-3-5-haiku", 8192},
	{"claude-3-haiku", 4096},
}

func maxTokensFor(model string) int64 {
	lower := strings.ToLower(model)
	for _, m := range modelMaxTokens {
		if strings.HasPrefix(lower, m.prefix) {
			return m.tokens
		}
	}
	return 8192
}

// ChatModel implements llm.ChatModel against Anthropic's streaming Messages
// API. Unlike the teacher's chatClient, it holds no conversation history:
// the orchestrator passes the full message list on every SendStream call.
type ChatModel struct {
	client    anthropic.Client
	modelName string
	tools     []chat.Tool
	temp      *float64
	maxTokens int64
}

// NewChatModel constructs a Claude ChatModel. The API key is resolved from
// cfg.APIKey, then the process-wide environment override, then
// ANTHROPIC_API_KEY in the OS environment.
func NewChatModel(cfg llm.Config, modelName string, tools []chat.Tool, temperature *float64) (*ChatModel, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = llm.LookupEnv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, &llm.MissingCredentialsError{Provider: "claude", EnvVars: []string{"ANTHROPIC_API_KEY"}}
	}
	if modelName == "" {
		return nil, fmt.Errorf("claude: model name is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	baseURL := cfg.BaseURL
	if baseURL != "" && baseURL != AnthropicURL {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &ChatModel{
		client:    anthropic.NewClient(opts...),
		modelName: modelName,
		tools:     tools,
		temp:      temperature,
		maxTokens: maxTokensFor(modelName),
	}, nil
}

func (m *ChatModel) Name() string { return m.modelName }

func (m *ChatModel) Capabilities() llm.CapabilitySet {
	return llm.NewCapabilitySet(llm.CapChat, llm.CapMultiToolCalls, llm.CapVision)
}

func (m *ChatModel) Dispose() {}

// SendStream issues one Messages.NewStreaming request and translates its
// SSE events into partial chat.ChatMessage deltas. Claude has no native
// structured-output mechanism, so a non-nil outputSchema combined with
// user tools is rejected; a bare outputSchema with no tools is honored by
// appending schema instructions to the system prompt, the same best-effort
// mechanism the teacher used for chat.Options.ResponseFormat.
func (m *ChatModel) SendStream(ctx context.Context, messages []chat.ChatMessage, outputSchema *schema.JSON) iter.Seq2[chat.ChatResult[chat.ChatMessage], error] {
	return func(yield func(chat.ChatResult[chat.ChatMessage], error) bool) {
		if outputSchema != nil && len(m.tools) > 0 {
			yield(chat.ChatResult[chat.ChatMessage]{}, &llm.UnsupportedCombinationError{
				Provider: "claude",
				Reason:   "Claude has no native structured-output mode compatible with tool use in the same request",
			})
			return
		}

		params, err := m.buildParams(messages, outputSchema)
		if err != nil {
			yield(chat.ChatResult[chat.ChatMessage]{}, err)
			return
		}

		stream := m.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		var toolIndex int
		var inToolCall bool
		var toolID, toolName string

		for stream.Next() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			event := stream.Current()
			switch event.Type {
			case "content_block_start":
				if event.ContentBlock.Type == "tool_use" {
					inToolCall = true
					toolID = event.ContentBlock.ID
					toolName = event.ContentBlock.Name
					if !yield(chat.ChatResult[chat.ChatMessage]{
						Output: chat.NewMessage(chat.RoleModel, chat.Part{
							Kind: chat.PartTool,
							Tool: &chat.ToolPart{Kind: chat.ToolPartCall, ID: toolID, Name: toolName, Index: toolIndex},
						}),
					}, nil) {
						return
					}
				}
			case "content_block_delta":
				switch event.Delta.Type {
				case "text_delta":
					if !yield(chat.ChatResult[chat.ChatMessage]{
						Output: chat.TextMessage(chat.RoleModel, event.Delta.Text),
					}, nil) {
						return
					}
				case "input_json_delta":
					if inToolCall && event.Delta.PartialJSON != "" {
						if !yield(chat.ChatResult[chat.ChatMessage]{
							Output: chat.NewMessage(chat.RoleModel, chat.Part{
								Kind: chat.PartTool,
								Tool: &chat.ToolPart{Kind: chat.ToolPartCall, Index: toolIndex, Arguments: json.RawMessage(event.Delta.PartialJSON)},
							}),
						}, nil) {
							return
						}
					}
				}
			case "content_block_stop":
				if inToolCall {
					inToolCall = false
					toolIndex++
				}
			case "message_delta":
				finish := mapStopReason(string(event.Delta.StopReason))
				usage := chat.Usage{
					PromptTokens:   int(event.Usage.InputTokens),
					ResponseTokens: int(event.Usage.OutputTokens),
					TotalTokens:    int(event.Usage.InputTokens + event.Usage.OutputTokens),
				}
				if !yield(chat.ChatResult[chat.ChatMessage]{FinishReason: finish, Usage: usage}, nil) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			yield(chat.ChatResult[chat.ChatMessage]{}, fmt.Errorf("claude: stream: %w", err))
		}
	}
}

func mapStopReason(reason string) chat.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return chat.FinishStop
	case "max_tokens":
		return chat.FinishLength
	case "tool_use":
		return chat.FinishToolCalls
	default:
		return chat.FinishUnspecified
	}
}

func (m *ChatModel) buildParams(messages []chat.ChatMessage, outputSchema *schema.JSON) (anthropic.MessageNewParams, error) {
	var systemPrompt strings.Builder
	var msgs []anthropic.MessageParam

	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			if systemPrompt.Len() > 0 {
				systemPrompt.WriteString("\n\n")
			}
			systemPrompt.WriteString(msg.Text())
			continue
		}
		param, err := messageParam(msg)
		if err != nil {
			return anthropic.MessageNewParams{}, fmt.Errorf("claude: converting message: %w", err)
		}
		msgs = append(msgs, param)
	}

	if outputSchema != nil {
		schemaBytes, err := json.Marshal(outputSchema)
		if err != nil {
			return anthropic.MessageNewParams{}, fmt.Errorf("claude: marshaling output schema: %w", err)
		}
		if systemPrompt.Len() > 0 {
			systemPrompt.WriteString("\n\n")
		}
		systemPrompt.WriteString("Respond with valid JSON conforming to this schema: ")
		systemPrompt.Write(schemaBytes)
	}

	params := anthropic.MessageNewParams{
		Messages:  msgs,
		Model:     anthropic.Model(m.modelName),
		MaxTokens: m.maxTokens,
	}
	if systemPrompt.Len() > 0 {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt.String(), Type: "text"}}
	}
	if m.temp != nil {
		params.Temperature = anthropic.Float(*m.temp)
	}
	if len(m.tools) > 0 {
		tools := make([]anthropic.ToolUnionParam, 0, len(m.tools))
		for _, t := range m.tools {
			tool, err := toolParam(t)
			if err != nil {
				return anthropic.MessageNewParams{}, err
			}
			tools = append(tools, tool)
		}
		params.Tools = tools
	}
	return params, nil
}

func toolParam(t chat.Tool) (anthropic.ToolUnionParam, error) {
	var inputSchema anthropic.ToolInputSchemaParam
	if len(t.InputSchema) > 0 {
		if err := json.Unmarshal(t.InputSchema, &inputSchema); err != nil {
			return anthropic.ToolUnionParam{}, fmt.Errorf("claude: tool %q: invalid input schema: %w", t.Name, err)
		}
	}
	param := anthropic.ToolParam{
		Name:        t.Name,
		InputSchema: inputSchema,
		Type:        anthropic.ToolTypeCustom,
	}
	if t.Description != "" {
		param.Description = anthropic.String(t.Description)
	}
	return anthropic.ToolUnionParam{OfTool: &param}, nil
}

// messageParam converts one canonical ChatMessage (already known not to be
// a system message) into an Anthropic MessageParam.
func messageParam(msg chat.ChatMessage) (anthropic.MessageParam, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, p := range msg.Parts {
		switch p.Kind {
		case chat.PartText:
			if p.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(p.Text))
			}
		case chat.PartTool:
			if p.Tool == nil {
				continue
			}
			switch p.Tool.Kind {
			case chat.ToolPartCall:
				var input any
				if len(p.Tool.Arguments) > 0 {
					if err := json.Unmarshal(p.Tool.Arguments, &input); err != nil {
						return anthropic.MessageParam{}, fmt.Errorf("tool call %q: %w", p.Tool.ID, err)
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(p.Tool.ID, input, p.Tool.Name))
			case chat.ToolPartResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(p.Tool.ID, string(p.Tool.Result), false))
			}
		}
	}
	if len(blocks) == 0 {
		logging.Logger().Debug("claude: message has no content blocks", slog.String("role", string(msg.Role)))
		return anthropic.MessageParam{}, fmt.Errorf("message has no content blocks")
	}

	if msg.Role == chat.RoleModel {
		return anthropic.NewAssistantMessage(blocks...), nil
	}
	return anthropic.NewUserMessage(blocks...), nil
}
