package llm

import (
	"strings"
	"sync"

	"github.com/agentrt/agentrt/chat"
)

// Registry maps canonical provider names (and aliases) to Provider
// definitions. The zero value is usable; Default holds the providers this
// module ships with (claude, openai, gemini), registered by each provider
// package's init.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*Provider)}
}

// Default is the process-wide registry provider packages register
// themselves into via RegisterProvider.
var Default = NewRegistry()

// RegisterProvider adds a Provider under its canonical name and every
// alias. Intended to be called from a provider package's init.
func RegisterProvider(r *Registry, p *Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToLower(p.Name)] = p
	for _, a := range p.Aliases {
		r.providers[strings.ToLower(a)] = p
	}
}

// Lookup resolves a canonical or alias provider name. Returns nil if unknown.
func (r *Registry) Lookup(name string) *Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[strings.ToLower(name)]
}

// ResolveChatModel parses a model string, resolves its provider, and
// constructs a ChatModel using the provider's default chat model name when
// the string doesn't specify one.
func (r *Registry) ResolveChatModel(modelString string, cfg Config, tools []chat.Tool, temperature *float64) (ChatModel, error) {
	parsed, err := ParseModelString(modelString)
	if err != nil {
		return nil, err
	}
	p := r.Lookup(parsed.Provider)
	if p == nil {
		return nil, &UnknownProviderError{Provider: parsed.Provider}
	}
	name := parsed.ChatModel
	if name == "" {
		name = p.DefaultModelNames[ModelKindChat]
	}
	return p.CreateChatModel(cfg, name, tools, temperature)
}

// ResolveEmbeddingsModel parses a model string, resolves its provider, and
// constructs an EmbeddingsModel using the provider's default embeddings
// model name when the string doesn't specify one.
func (r *Registry) ResolveEmbeddingsModel(modelString string, cfg Config) (EmbeddingsModel, error) {
	parsed, err := ParseModelString(modelString)
	if err != nil {
		return nil, err
	}
	p := r.Lookup(parsed.Provider)
	if p == nil {
		return nil, &UnknownProviderError{Provider: parsed.Provider}
	}
	if p.CreateEmbeddingsModel == nil {
		return nil, &UnsupportedCombinationError{Provider: p.Name, Reason: "provider does not support embeddings"}
	}
	name := parsed.EmbedModel
	if name == "" {
		name = p.DefaultModelNames[ModelKindEmbeddings]
	}
	return p.CreateEmbeddingsModel(cfg, name)
}
