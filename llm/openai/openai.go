// Package openai implements llm.ChatModel against OpenAI's Chat Completions
// API. It also backs the "ollama" provider registration, since Ollama's
// OpenAI-compatible endpoint speaks the same wire format.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/llm"
	"github.com/agentrt/agentrt/schema"
)

const OpenAIURL = "https://api.openai.com/v1"

const OllamaURL = "http://localhost:11434/v1"

func init() {
	llm.RegisterProvider(llm.Default, &llm.Provider{
		Name:    "openai",
		Aliases: nil,
		DefaultModelNames: map[llm.ModelKind]string{
			llm.ModelKindChat:       "gpt-4o",
			llm.ModelKindEmbeddings: "text-embedding-3-small",
		},
		Caps: llm.NewCapabilitySet(llm.CapChat, llm.CapMultiToolCalls, llm.CapTypedOutput, llm.CapTypedOutputWithTools, llm.CapVision, llm.CapEmbeddings),
		CreateChatModel: func(cfg llm.Config, name string, tools []chat.Tool, temperature *float64) (llm.ChatModel, error) {
			return newChatModel(cfg, name, tools, temperature, OpenAIURL, "OPENAI_API_KEY", true)
		},
		CreateEmbeddingsModel: func(cfg llm.Config, name string) (llm.EmbeddingsModel, error) {
			return newEmbeddingsModel(cfg, name, OpenAIURL, "OPENAI_API_KEY", true)
		},
	})

	llm.RegisterProvider(llm.Default, &llm.Provider{
		Name: "ollama",
		DefaultModelNames: map[llm.ModelKind]string{
			llm.ModelKindChat:       "llama3.1",
			llm.ModelKindEmbeddings: "nomic-embed-text",
		},
		Caps: llm.NewCapabilitySet(llm.CapChat, llm.CapMultiToolCalls, llm.CapEmbeddings),
		CreateChatModel: func(cfg llm.Config, name string, tools []chat.Tool, temperature *float64) (llm.ChatModel, error) {
			return newChatModel(cfg, name, tools, temperature, OllamaURL, "OLLAMA_API_KEY", false)
		},
		CreateEmbeddingsModel: func(cfg llm.Config, name string) (llm.EmbeddingsModel, error) {
			return newEmbeddingsModel(cfg, name, OllamaURL, "OLLAMA_API_KEY", false)
		},
	})
}

// noTemperatureModels lists models that reject an explicit temperature
// parameter (the o1/o3 reasoning family only accepts the default).
var noTemperatureModels = []string{"o1", "o3", "o4-mini"}

func isNoTemperatureModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range noTemperatureModels {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// ChatModel implements llm.ChatModel against the Chat Completions API. It
// holds no conversation history: the orchestrator passes the full message
// list on every SendStream call.
type ChatModel struct {
	client      openai.Client
	modelName   string
	tools       []chat.Tool
	temp        *float64
	apiKeyFound bool
}

func newChatModel(cfg llm.Config, modelName string, tools []chat.Tool, temperature *float64, defaultURL, apiKeyEnv string, keyRequired bool) (*ChatModel, error) {
	if modelName == "" {
		return nil, fmt.Errorf("openai: model name is required")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = llm.LookupEnv(apiKeyEnv)
	}
	if apiKey == "" && keyRequired {
		return nil, &llm.MissingCredentialsError{Provider: "openai", EnvVars: []string{apiKeyEnv}}
	}
	if apiKey == "" {
		// Ollama's OpenAI-compatible endpoint ignores the key but the SDK
		// client still requires a non-empty string.
		apiKey = "ollama"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}
	opts = append(opts, option.WithBaseURL(baseURL))

	return &ChatModel{
		client:    openai.NewClient(opts...),
		modelName: modelName,
		tools:     tools,
		temp:      temperature,
	}, nil
}

func (m *ChatModel) Name() string { return m.modelName }

func (m *ChatModel) Capabilities() llm.CapabilitySet {
	return llm.NewCapabilitySet(llm.CapChat, llm.CapMultiToolCalls, llm.CapTypedOutput, llm.CapTypedOutputWithTools, llm.CapVision)
}

func (m *ChatModel) Dispose() {}

// SendStream issues one Chat Completions streaming request and translates
// its per-chunk deltas into partial chat.ChatMessage results. Both tool
// calls and a JSON-schema response format may be supplied in the same
// request, since the Chat Completions API (unlike Gemini's responseSchema)
// genuinely supports the combination.
func (m *ChatModel) SendStream(ctx context.Context, messages []chat.ChatMessage, outputSchema *schema.JSON) iter.Seq2[chat.ChatResult[chat.ChatMessage], error] {
	return func(yield func(chat.ChatResult[chat.ChatMessage], error) bool) {
		params, err := m.buildParams(messages, outputSchema)
		if err != nil {
			yield(chat.ChatResult[chat.ChatMessage]{}, err)
			return
		}

		stream := m.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		var toolCallNames map[int]string
		var toolCallIDs map[int]string
		var emittedStart map[int]bool

		for stream.Next() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			chunk := stream.Current()

			if chunk.JSON.Usage.Valid() && (chunk.Usage.PromptTokens > 0 || chunk.Usage.CompletionTokens > 0) {
				usage := chat.Usage{
					PromptTokens:   int(chunk.Usage.PromptTokens),
					ResponseTokens: int(chunk.Usage.CompletionTokens),
					TotalTokens:    int(chunk.Usage.TotalTokens),
				}
				if !yield(chat.ChatResult[chat.ChatMessage]{Usage: usage}, nil) {
					return
				}
			}

			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]

			if choice.Delta.Content != "" {
				if !yield(chat.ChatResult[chat.ChatMessage]{
					Output: chat.TextMessage(chat.RoleModel, choice.Delta.Content),
				}, nil) {
					return
				}
			}

			for _, tc := range choice.Delta.ToolCalls {
				idx := int(tc.Index)
				if toolCallNames == nil {
					toolCallNames = map[int]string{}
					toolCallIDs = map[int]string{}
					emittedStart = map[int]bool{}
				}
				if tc.ID != "" {
					toolCallIDs[idx] = tc.ID
				}
				if tc.Function.Name != "" {
					toolCallNames[idx] = tc.Function.Name
				}

				if !emittedStart[idx] && (tc.ID != "" || tc.Function.Name != "") {
					emittedStart[idx] = true
					if !yield(chat.ChatResult[chat.ChatMessage]{
						Output: chat.NewMessage(chat.RoleModel, chat.Part{
							Kind: chat.PartTool,
							Tool: &chat.ToolPart{Kind: chat.ToolPartCall, ID: toolCallIDs[idx], Name: toolCallNames[idx], Index: idx},
						}),
					}, nil) {
						return
					}
				}

				if tc.Function.Arguments != "" {
					if !yield(chat.ChatResult[chat.ChatMessage]{
						Output: chat.NewMessage(chat.RoleModel, chat.Part{
							Kind: chat.PartTool,
							Tool: &chat.ToolPart{Kind: chat.ToolPartCall, Index: idx, Arguments: json.RawMessage(tc.Function.Arguments)},
						}),
					}, nil) {
						return
					}
				}
			}

			if choice.FinishReason != "" {
				if !yield(chat.ChatResult[chat.ChatMessage]{FinishReason: mapFinishReason(choice.FinishReason)}, nil) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			yield(chat.ChatResult[chat.ChatMessage]{}, fmt.Errorf("openai: stream: %w", err))
		}
	}
}

func mapFinishReason(reason string) chat.FinishReason {
	switch reason {
	case "stop":
		return chat.FinishStop
	case "length":
		return chat.FinishLength
	case "tool_calls":
		return chat.FinishToolCalls
	case "content_filter":
		return chat.FinishContentFilter
	default:
		return chat.FinishUnspecified
	}
}

func (m *ChatModel) buildParams(messages []chat.ChatMessage, outputSchema *schema.JSON) (openai.ChatCompletionNewParams, error) {
	msgs, err := messagesToOpenAI(messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("openai: converting messages: %w", err)
	}

	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    m.modelName,
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: param.NewOpt(true),
		},
	}

	if m.temp != nil && !isNoTemperatureModel(m.modelName) {
		params.Temperature = openai.Float(*m.temp)
	}

	if len(m.tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(m.tools))
		for _, t := range m.tools {
			tp, err := toolParam(t)
			if err != nil {
				return openai.ChatCompletionNewParams{}, fmt.Errorf("openai: %w", err)
			}
			tools = append(tools, tp)
		}
		params.Tools = tools
	}

	if outputSchema != nil {
		schemaMap, err := schemaToMap(outputSchema)
		if err != nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("openai: marshaling output schema: %w", err)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "structured_output",
					Schema: schemaMap,
					Strict: param.NewOpt(true),
				},
			},
		}
	}

	return params, nil
}

func schemaToMap(s *schema.JSON) (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
