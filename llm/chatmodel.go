// Package llm holds the provider-agnostic contracts (ChatModel,
// EmbeddingsModel, Provider, Registry) and the provider mappers that
// implement them for Claude, OpenAI, and Gemini.
package llm

import (
	"context"
	"iter"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/schema"
)

// Capability is one of the closed set of capability tags the core uses to
// drive orchestrator decisions. Capabilities are never used to gate API
// surface, only to choose a strategy.
type Capability string

const (
	CapChat                 Capability = "chat"
	CapMultiToolCalls       Capability = "multiToolCalls"
	CapTypedOutput          Capability = "typedOutput"
	CapTypedOutputWithTools Capability = "typedOutputWithTools"
	CapEmbeddings           Capability = "embeddings"
	CapVision               Capability = "vision"
)

// CapabilitySet is a small set of Capability values.
type CapabilitySet map[Capability]bool

// NewCapabilitySet builds a CapabilitySet from a list of tags.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = true
	}
	return s
}

// Has reports whether the set contains a capability.
func (s CapabilitySet) Has(c Capability) bool { return s[c] }

// ChatModel is the interface every provider mapper implements and every
// orchestrator depends on. A ChatModel issues one streamed completion
// request per sendStream call; it holds no conversation state itself — the
// orchestrator passes the full message history on every call.
type ChatModel interface {
	// SendStream issues a single completion request and streams back
	// incremental results. Each result carries a partial ChatMessage in
	// Output; the final emission carries a non-empty FinishReason.
	// outputSchema is nil unless the caller requested structured output.
	SendStream(ctx context.Context, messages []chat.ChatMessage, outputSchema *schema.JSON) iter.Seq2[chat.ChatResult[chat.ChatMessage], error]

	// Dispose releases any underlying HTTP session. Safe to call more than
	// once.
	Dispose()

	// Name reports the concrete model name in use (e.g. "gpt-4o").
	Name() string

	// Capabilities reports what this model supports.
	Capabilities() CapabilitySet
}

// EmbeddingsModel is the interface for providers that support embeddings.
type EmbeddingsModel interface {
	CreateEmbedding(ctx context.Context, text string) ([]float64, error)
	Dispose()
}

// ModelInfo describes one model a provider exposes, as returned by
// Provider.ListModels.
type ModelInfo struct {
	Name         string
	Capabilities CapabilitySet
}
