package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agentrt/agentrt/llm"
)

// EmbeddingsModel implements llm.EmbeddingsModel against the Embeddings API.
type EmbeddingsModel struct {
	client    openai.Client
	modelName string
}

func newEmbeddingsModel(cfg llm.Config, modelName, defaultURL, apiKeyEnv string, keyRequired bool) (*EmbeddingsModel, error) {
	if modelName == "" {
		return nil, fmt.Errorf("openai: embeddings model name is required")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = llm.LookupEnv(apiKeyEnv)
	}
	if apiKey == "" && keyRequired {
		return nil, &llm.MissingCredentialsError{Provider: "openai", EnvVars: []string{apiKeyEnv}}
	}
	if apiKey == "" {
		apiKey = "ollama"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}
	opts = append(opts, option.WithBaseURL(baseURL))

	return &EmbeddingsModel{client: openai.NewClient(opts...), modelName: modelName}, nil
}

func (m *EmbeddingsModel) Dispose() {}

// CreateEmbedding requests a single embedding vector for text.
func (m *EmbeddingsModel) CreateEmbedding(ctx context.Context, text string) ([]float64, error) {
	resp, err := m.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: m.modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai: embeddings: empty response")
	}
	return resp.Data[0].Embedding, nil
}
