package llm

import "github.com/agentrt/agentrt/chat"

// ModelKind distinguishes the families of model a provider can construct.
type ModelKind string

const (
	ModelKindChat       ModelKind = "chat"
	ModelKindEmbeddings ModelKind = "embeddings"
)

// Provider describes one LLM backend the registry knows how to construct
// models for: its canonical name and aliases, default model names per kind,
// advertised capabilities, and constructor functions.
type Provider struct {
	// Name is the canonical provider name used in model strings (e.g. "openai").
	Name string
	// Aliases are additional names that resolve to this provider (e.g. "oai").
	Aliases []string
	// DefaultModelNames gives the model name to use for a kind when the
	// caller's model string doesn't specify one.
	DefaultModelNames map[ModelKind]string
	// Caps is the set of capability tags this provider's chat model
	// advertises. Embeddings-only capability is reported separately via
	// CapEmbeddings when CreateEmbeddingsModel is non-nil.
	Caps CapabilitySet

	// CreateChatModel builds a ChatModel for this provider. name is the
	// resolved model name (DefaultModelNames[ModelKindChat] if the caller
	// didn't specify one).
	CreateChatModel func(cfg Config, name string, tools []chat.Tool, temperature *float64) (ChatModel, error)
	// CreateEmbeddingsModel builds an EmbeddingsModel, or nil if the
	// provider doesn't support embeddings.
	CreateEmbeddingsModel func(cfg Config, name string) (EmbeddingsModel, error)
	// ListModels returns the models this provider knows about. Optional;
	// a nil func means the provider only exposes its configured defaults.
	ListModels func(cfg Config) ([]ModelInfo, error)
}
