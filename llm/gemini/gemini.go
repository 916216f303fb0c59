// Package gemini implements llm.ChatModel against Google's Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/llm"
	"github.com/agentrt/agentrt/llm/internal/common"
	"github.com/agentrt/agentrt/schema"
)

func init() {
	llm.RegisterProvider(llm.Default, &llm.Provider{
		Name:              "gemini",
		Aliases:           []string{"google"},
		DefaultModelNames: map[llm.ModelKind]string{llm.ModelKindChat: "gemini-2.5-flash"},
		Caps:              llm.NewCapabilitySet(llm.CapChat, llm.CapMultiToolCalls, llm.CapTypedOutput, llm.CapVision),
		CreateChatModel: func(cfg llm.Config, name string, tools []chat.Tool, temperature *float64) (llm.ChatModel, error) {
			return NewChatModel(cfg, name, tools, temperature)
		},
	})
}

// modelMaxOutputTokens gives the per-model output ceiling Gemini enforces.
// Unlisted models fall back to a conservative default.
var modelMaxOutputTokens = []struct {
	prefix string
	tokens int32
}{
	{"gemini-2.5-pro", 65536},
	{"gemini-2.5-flash", 65536},
	{"gemini-2.0-flash", 8192},
	{"gemini-1.5-pro", 8192},
	{"gemini-1.5-flash", 8192},
}

func maxOutputTokensFor(model string) int32 {
	lower := strings.ToLower(model)
	for _, m := range modelMaxOutputTokens {
		if strings.HasPrefix(lower, m.prefix) {
			return m.tokens
		}
	}
	return 8192
}

// ChatModel implements llm.ChatModel against Gemini's streaming
// GenerateContent API. It holds no conversation history: the orchestrator
// passes the full message list on every SendStream call.
type ChatModel struct {
	client    *genai.Client
	modelName string
	tools     []chat.Tool
	temp      *float64
}

// NewChatModel constructs a Gemini ChatModel. The API key is resolved from
// cfg.APIKey, then the process-wide environment override, then
// GEMINI_API_KEY / GOOGLE_API_KEY in the OS environment.
func NewChatModel(cfg llm.Config, modelName string, tools []chat.Tool, temperature *float64) (*ChatModel, error) {
	if modelName == "" {
		return nil, fmt.Errorf("gemini: model name is required")
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = llm.LookupEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, &llm.MissingCredentialsError{Provider: "gemini", EnvVars: []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}}
	}

	clientConfig := &genai.ClientConfig{APIKey: apiKey}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &ChatModel{client: client, modelName: modelName, tools: tools, temp: temperature}, nil
}

func (m *ChatModel) Name() string { return m.modelName }

func (m *ChatModel) Capabilities() llm.CapabilitySet {
	return llm.NewCapabilitySet(llm.CapChat, llm.CapMultiToolCalls, llm.CapTypedOutput, llm.CapVision)
}

func (m *ChatModel) Dispose() {}

// SendStream issues one GenerateContentStream request and translates its
// chunks into partial chat.ChatMessage results. Gemini's responseSchema
// mechanism is mutually exclusive with function-calling tools in the real
// API, so a request combining both is rejected up front rather than sent to
// the API to fail there.
func (m *ChatModel) SendStream(ctx context.Context, messages []chat.ChatMessage, outputSchema *schema.JSON) iter.Seq2[chat.ChatResult[chat.ChatMessage], error] {
	return func(yield func(chat.ChatResult[chat.ChatMessage], error) bool) {
		if outputSchema != nil && len(m.tools) > 0 {
			yield(chat.ChatResult[chat.ChatMessage]{}, &llm.UnsupportedCombinationError{
				Provider: "gemini",
				Reason:   "Gemini's responseSchema cannot be combined with function-calling tools in the same request",
			})
			return
		}

		contents, config, err := m.buildRequest(messages, outputSchema)
		if err != nil {
			yield(chat.ChatResult[chat.ChatMessage]{}, err)
			return
		}

		stream := m.client.Models.GenerateContentStream(ctx, m.modelName, contents, config)

		var callIndex int
		for chunk, err := range stream {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if err != nil {
				yield(chat.ChatResult[chat.ChatMessage]{}, fmt.Errorf("gemini: stream: %w", err))
				return
			}
			if chunk == nil {
				continue
			}

			for _, candidate := range chunk.Candidates {
				if candidate.Content == nil {
					continue
				}
				for _, part := range candidate.Content.Parts {
					if part.Text != "" {
						if !yield(chat.ChatResult[chat.ChatMessage]{
							Output: chat.TextMessage(chat.RoleModel, part.Text),
						}, nil) {
							return
						}
					}
					if part.FunctionCall != nil {
						id := part.FunctionCall.ID
						if id == "" {
							id = common.NewToolCallID("gemini", part.FunctionCall.Name, callIndex)
						}
						argsJSON, merr := json.Marshal(part.FunctionCall.Args)
						if merr != nil {
							yield(chat.ChatResult[chat.ChatMessage]{}, fmt.Errorf("gemini: marshaling function call args: %w", merr))
							return
						}
						if !yield(chat.ChatResult[chat.ChatMessage]{
							Output: chat.NewMessage(chat.RoleModel, chat.Part{
								Kind: chat.PartTool,
								Tool: &chat.ToolPart{Kind: chat.ToolPartCall, ID: id, Name: part.FunctionCall.Name, Arguments: argsJSON, Index: callIndex},
							}),
						}, nil) {
							return
						}
						callIndex++
					}
				}
				if candidate.FinishReason != "" {
					if !yield(chat.ChatResult[chat.ChatMessage]{FinishReason: mapFinishReason(string(candidate.FinishReason))}, nil) {
						return
					}
				}
			}

			if chunk.UsageMetadata != nil {
				usage := chat.Usage{
					PromptTokens:   int(chunk.UsageMetadata.PromptTokenCount),
					ResponseTokens: int(chunk.UsageMetadata.CandidatesTokenCount),
					TotalTokens:    int(chunk.UsageMetadata.TotalTokenCount),
				}
				if !yield(chat.ChatResult[chat.ChatMessage]{Usage: usage}, nil) {
					return
				}
			}
		}
	}
}

func mapFinishReason(reason string) chat.FinishReason {
	switch reason {
	case "STOP":
		return chat.FinishStop
	case "MAX_TOKENS":
		return chat.FinishLength
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST":
		return chat.FinishContentFilter
	case "RECITATION":
		return chat.FinishRecitation
	default:
		return chat.FinishUnspecified
	}
}

func (m *ChatModel) buildRequest(messages []chat.ChatMessage, outputSchema *schema.JSON) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	var systemPrompt strings.Builder
	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			if systemPrompt.Len() > 0 {
				systemPrompt.WriteString("\n\n")
			}
			systemPrompt.WriteString(msg.Text())
		}
	}

	contents, err := messagesToGemini(messages)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini: converting messages: %w", err)
	}

	config := &genai.GenerateContentConfig{MaxOutputTokens: maxOutputTokensFor(m.modelName)}
	if systemPrompt.Len() > 0 {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt.String()}}}
	}
	if m.temp != nil {
		temp := float32(*m.temp)
		config.Temperature = &temp
	}

	if len(m.tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(m.tools))
		for _, t := range m.tools {
			decl, err := functionDeclaration(t)
			if err != nil {
				return nil, nil, fmt.Errorf("gemini: %w", err)
			}
			decls = append(decls, decl)
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	if outputSchema != nil {
		raw, err := json.Marshal(outputSchema)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini: marshaling output schema: %w", err)
		}
		var schemaMap map[string]any
		if err := json.Unmarshal(raw, &schemaMap); err != nil {
			return nil, nil, fmt.Errorf("gemini: unmarshaling output schema: %w", err)
		}
		geminiSchema, err := jsonSchemaToGeminiSchema(schemaMap)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini: converting output schema: %w", err)
		}
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiSchema
	}

	return contents, config, nil
}
