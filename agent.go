package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/llm"
	"github.com/agentrt/agentrt/schema"
)

// Agent is the provider-agnostic façade: construct one against a model
// string and a tool set, then call SendStream/Send/SendFor repeatedly with
// a prompt, optional prior history, and optional attachments. An Agent
// holds no conversation history itself — callers pass prior history in on
// every call and the façade appends the new user turn before handing the
// full transcript to the orchestrator, mirroring the ChatModel contract it
// sits above.
type Agent struct {
	model       llm.ChatModel
	tools       []chat.Tool
	temperature *float64
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithTemperature sets the sampling temperature passed to the provider.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = &t }
}

// WithTools sets the tool set available to every call this Agent makes.
func WithTools(tools ...chat.Tool) Option {
	return func(a *Agent) { a.tools = tools }
}

// New resolves modelString against registry and constructs an Agent.
func New(registry *llm.Registry, modelString string, cfg llm.Config, opts ...Option) (*Agent, error) {
	a := &Agent{}
	for _, opt := range opts {
		opt(a)
	}
	model, err := registry.ResolveChatModel(modelString, cfg, a.tools, a.temperature)
	if err != nil {
		return nil, err
	}
	a.model = model
	return a, nil
}

// Dispose releases the underlying model's resources.
func (a *Agent) Dispose() { a.model.Dispose() }

// resolveStrategy decides, given a model's capabilities and a caller's tools
// and output schema, how the façade should obtain structured output:
//
//   - No schema requested: tools pass through unchanged, no native schema.
//   - Schema requested, no tools, provider supports typedOutput: pass the
//     schema through natively, no synthetic tool needed.
//   - Schema requested with tools and the provider supports
//     typedOutputWithTools: pass both through natively.
//   - Otherwise: inject the return_result tool and withhold the native
//     schema argument, so the provider mapper never sees a combination it
//     would reject.
//
// resolveStrategy is a package-level function, not a method, so tests can
// exercise the decision table directly against a CapabilitySet fixture
// without constructing a live ChatModel.
func resolveStrategy(caps llm.CapabilitySet, userTools []chat.Tool, outputSchema *schema.JSON) (tools []chat.Tool, nativeSchema *schema.JSON, usingReturnResult bool, err error) {
	if outputSchema == nil {
		return userTools, nil, false, nil
	}

	hasTools := len(userTools) > 0
	if !hasTools && caps.Has(llm.CapTypedOutput) {
		return userTools, outputSchema, false, nil
	}
	if hasTools && caps.Has(llm.CapTypedOutputWithTools) {
		return userTools, outputSchema, false, nil
	}

	rrTool, err := newReturnResultTool(outputSchema)
	if err != nil {
		return nil, nil, false, err
	}
	return append(append([]chat.Tool(nil), userTools...), rrTool), nil, true, nil
}

// userTurn builds the user message a prompt call appends to history: a
// leading TextPart for prompt (when non-empty) followed by the attachments
// verbatim, so a caller can pass chat.DataPart/chat.LinkPart values for
// images or other non-text input without constructing a ChatMessage itself.
func userTurn(prompt string, attachments []chat.Part) chat.ChatMessage {
	parts := make([]chat.Part, 0, len(attachments)+1)
	if prompt != "" {
		parts = append(parts, chat.TextPart(prompt))
	}
	parts = append(parts, attachments...)
	return chat.NewMessage(chat.RoleUser, parts...)
}

// SendStream builds the next user turn from prompt and attachments, appends
// it to history, and streams a reply, running the tool-calling loop to
// completion. Each emission's Output carries newly produced text (or, for a
// structured-output call, the final JSON payload on the terminal emission).
// history and attachments may both be nil.
func (a *Agent) SendStream(ctx context.Context, prompt string, history []chat.ChatMessage, attachments []chat.Part, outputSchema *schema.JSON) iter.Seq2[chat.ChatResult[string], error] {
	full := append(append([]chat.ChatMessage(nil), history...), userTurn(prompt, attachments))
	return a.sendStreamHistory(ctx, full, outputSchema)
}

// sendStreamHistory is SendStream's underlying, history-in-full-already
// primitive: Session already maintains its own transcript and hands it over
// complete (including the pending user turn), so it calls this directly
// rather than round-tripping through the prompt/attachments split.
func (a *Agent) sendStreamHistory(ctx context.Context, history []chat.ChatMessage, outputSchema *schema.JSON) iter.Seq2[chat.ChatResult[string], error] {
	return func(yield func(chat.ChatResult[string], error) bool) {
		tools, nativeSchema, usingReturnResult, err := resolveStrategy(a.model.Capabilities(), a.tools, outputSchema)
		if err != nil {
			yield(chat.ChatResult[string]{}, err)
			return
		}

		state := NewStreamingState(history, chat.Map(tools))
		var orch Orchestrator
		if outputSchema != nil {
			orch = NewTypedOrchestrator(state, usingReturnResult)
		} else {
			orch = NewDefaultOrchestrator(state)
		}

		for {
			terminal := false
			for res, err := range orch.ProcessIteration(ctx, a.model, nativeSchema) {
				if err != nil {
					yield(chat.ChatResult[string]{}, err)
					return
				}
				if !yield(chat.ChatResult[string]{
					Output:       res.Output,
					Messages:     res.Messages,
					FinishReason: res.FinishReason,
					Metadata:     res.Metadata,
					Usage:        res.Usage,
				}, nil) {
					return
				}
				if !res.ShouldContinue {
					terminal = true
				}
			}
			if terminal {
				return
			}
		}
	}
}

// Send runs SendStream to completion and returns the concatenation of every
// emitted Output chunk. history and attachments may both be nil.
func (a *Agent) Send(ctx context.Context, prompt string, history []chat.ChatMessage, attachments []chat.Part) (string, error) {
	var out string
	for res, err := range a.SendStream(ctx, prompt, history, attachments, nil) {
		if err != nil {
			return "", err
		}
		out += res.Output
	}
	return out, nil
}

// SendFor runs the typed-output loop and decodes the final JSON payload into
// a T. T should be a struct whose JSON Schema (via schema.FromStruct) was
// used to build outputSchema. history and attachments may both be nil.
func SendFor[T any](ctx context.Context, a *Agent, prompt string, history []chat.ChatMessage, attachments []chat.Part, outputSchema *schema.JSON) (T, error) {
	var zero T
	var final string
	for res, err := range a.SendStream(ctx, prompt, history, attachments, outputSchema) {
		if err != nil {
			return zero, err
		}
		if res.Output != "" {
			final = res.Output
		}
	}
	if final == "" {
		return zero, fmt.Errorf("agent: model never produced a structured result")
	}
	var out T
	if err := json.Unmarshal([]byte(final), &out); err != nil {
		return zero, fmt.Errorf("agent: decoding structured result: %w", err)
	}
	return out, nil
}

// CreateEmbedding resolves modelString and embeds text in one call.
func CreateEmbedding(ctx context.Context, registry *llm.Registry, modelString string, cfg llm.Config, text string) ([]float64, error) {
	model, err := registry.ResolveEmbeddingsModel(modelString, cfg)
	if err != nil {
		return nil, err
	}
	defer model.Dispose()
	return model.CreateEmbedding(ctx, text)
}
