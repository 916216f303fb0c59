// Package chat defines the canonical, provider-agnostic conversation model
// shared by every orchestrator and provider mapper: messages, parts, tool
// calls/results, usage, and finish reasons. Values in this package are
// produced by mappers or the orchestrator and are never mutated in place;
// "updating" history means appending new messages.
package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies who a message came from.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
)

// FinishReason explains why a provider stopped generating.
type FinishReason string

const (
	FinishUnspecified   FinishReason = "unspecified"
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
	FinishRecitation    FinishReason = "recitation"
	FinishToolCalls     FinishReason = "tool_calls"
)

// ToolPartKind distinguishes the two halves of a tool interaction carried in
// a ToolPart.
type ToolPartKind string

const (
	ToolPartCall   ToolPartKind = "call"
	ToolPartResult ToolPartKind = "result"
)

// PartKind discriminates the sum type Part implements. Go has no native sum
// types, so Part is a tagged struct: Kind says which of the Text/Data/Link/
// Tool fields is populated, and every boundary (JSON codec, accumulator,
// mappers) must switch on it exhaustively rather than inspect fields by
// nil-ness alone.
type PartKind string

const (
	PartText PartKind = "text"
	PartData PartKind = "data"
	PartLink PartKind = "link"
	PartTool PartKind = "tool"
)

// Part is one element of a ChatMessage's content. Exactly the field(s)
// matching Kind are populated.
type Part struct {
	Kind PartKind `json:"kind"`

	// Text holds the content for Kind == PartText.
	Text string `json:"text,omitempty"`

	// Data holds inline binary content (e.g. an image) for Kind == PartData.
	Data     []byte `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Name     string `json:"name,omitempty"`

	// URL holds a reference to external content for Kind == PartLink.
	URL string `json:"url,omitempty"`
	// MimeType and Name are shared with PartData above.

	// Tool carries a tool call or result for Kind == PartTool.
	Tool *ToolPart `json:"tool,omitempty"`
}

// ToolPart is one half of a tool invocation: either the model's call or the
// executor's result. Exactly one of Arguments/Result is present, matching
// Kind.
type ToolPart struct {
	Kind ToolPartKind `json:"kind"`
	// ID correlates a ToolPartResult back to the ToolPartCall that requested
	// it. Unique within a conversation.
	ID string `json:"id"`
	// Name is the tool's name.
	Name string `json:"name"`
	// Arguments is the JSON object the model supplied, present when Kind ==
	// ToolPartCall.
	Arguments json.RawMessage `json:"arguments,omitempty"`
	// Result is the tool's output (a JSON value or a bare string), present
	// when Kind == ToolPartResult.
	Result json.RawMessage `json:"result,omitempty"`
	// Index is the tool call's position within the streamed response, set
	// by a provider mapper on every delta for a given call (even once the
	// provider stops repeating the ID) so the accumulator can correlate
	// fragments positionally when the provider's id is absent. It carries
	// no meaning once a message is consolidated.
	Index int `json:"index,omitempty"`
}

// TextPart builds a Part carrying text.
func TextPart(text string) Part { return Part{Kind: PartText, Text: text} }

// DataPart builds a Part carrying inline binary content.
func DataPart(data []byte, mimeType, name string) Part {
	return Part{Kind: PartData, Data: data, MimeType: mimeType, Name: name}
}

// LinkPart builds a Part referencing external content.
func LinkPart(url, mimeType, name string) Part {
	return Part{Kind: PartLink, URL: url, MimeType: mimeType, Name: name}
}

// ToolCallPart builds a Part carrying a tool call.
func ToolCallPart(id, name string, arguments json.RawMessage) Part {
	return Part{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartCall, ID: id, Name: name, Arguments: arguments}}
}

// ToolResultPart builds a Part carrying a tool result.
func ToolResultPart(id, name string, result json.RawMessage) Part {
	return Part{Kind: PartTool, Tool: &ToolPart{Kind: ToolPartResult, ID: id, Name: name, Result: result}}
}

// ChatMessage is one turn of a conversation: a role, an ordered sequence of
// parts, and opaque metadata. Messages are immutable once constructed.
type ChatMessage struct {
	Role     Role           `json:"role"`
	Parts    []Part         `json:"parts,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewMessage builds a ChatMessage from parts.
func NewMessage(role Role, parts ...Part) ChatMessage {
	return ChatMessage{Role: role, Parts: parts}
}

// TextMessage builds a single-part text message.
func TextMessage(role Role, text string) ChatMessage {
	return ChatMessage{Role: role, Parts: []Part{TextPart(text)}}
}

// UserMessage builds a user-role text message.
func UserMessage(text string) ChatMessage { return TextMessage(RoleUser, text) }

// ModelMessage builds a model-role text message.
func ModelMessage(text string) ChatMessage { return TextMessage(RoleModel, text) }

// SystemMessage builds a system-role text message.
func SystemMessage(text string) ChatMessage { return TextMessage(RoleSystem, text) }

// WithMetadata returns a copy of m with the given metadata key set. Messages
// are treated as immutable, so this never mutates m in place.
func (m ChatMessage) WithMetadata(key string, value any) ChatMessage {
	out := m
	out.Parts = append([]Part(nil), m.Parts...)
	out.Metadata = make(map[string]any, len(m.Metadata)+1)
	for k, v := range m.Metadata {
		out.Metadata[k] = v
	}
	out.Metadata[key] = value
	return out
}

// Text concatenates every text part with newlines.
func (m ChatMessage) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Kind == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ToolCalls returns every ToolPartCall in the message, in order.
func (m ChatMessage) ToolCalls() []ToolPart {
	var calls []ToolPart
	for _, p := range m.Parts {
		if p.Kind == PartTool && p.Tool != nil && p.Tool.Kind == ToolPartCall {
			calls = append(calls, *p.Tool)
		}
	}
	return calls
}

// ToolResults returns every ToolPartResult in the message, in order.
func (m ChatMessage) ToolResults() []ToolPart {
	var results []ToolPart
	for _, p := range m.Parts {
		if p.Kind == PartTool && p.Tool != nil && p.Tool.Kind == ToolPartResult {
			results = append(results, *p.Tool)
		}
	}
	return results
}

// IsEmpty reports whether the message carries no parts.
func (m ChatMessage) IsEmpty() bool { return len(m.Parts) == 0 }

// HasToolCalls reports whether the message contains at least one tool call.
func (m ChatMessage) HasToolCalls() bool {
	for _, p := range m.Parts {
		if p.Kind == PartTool && p.Tool != nil && p.Tool.Kind == ToolPartCall {
			return true
		}
	}
	return false
}

// Usage reports token accounting for a single exchange. Providers that don't
// report a given figure leave it at zero.
type Usage struct {
	PromptTokens   int `json:"promptTokens,omitempty"`
	ResponseTokens int `json:"responseTokens,omitempty"`
	TotalTokens    int `json:"totalTokens,omitempty"`
}

// Add accumulates usage from a chunk into the receiver's running total.
func (u *Usage) Add(o Usage) {
	u.PromptTokens += o.PromptTokens
	u.ResponseTokens += o.ResponseTokens
	u.TotalTokens += o.TotalTokens
}

// ChatResult is a single provider response chunk: the newly produced output
// message plus any whole new messages the caller should commit to history.
type ChatResult[T any] struct {
	ID           string
	Output       T
	Messages     []ChatMessage
	FinishReason FinishReason
	Metadata     map[string]any
	Usage        Usage
}

// StreamingIterationResult is what one orchestrator iteration emits to the
// agent façade: text to surface to the caller, new messages to commit to
// both the emitted stream and internal history, and whether the outer loop
// should keep iterating.
type StreamingIterationResult struct {
	Output       string
	Messages     []ChatMessage
	ShouldContinue bool
	FinishReason FinishReason
	Metadata     map[string]any
	Usage        Usage
}

// ValidateOrdering checks the history invariants from the data model: every
// ToolPartResult references an id introduced by an earlier ToolPartCall in
// the same conversation. It is a diagnostic helper, not called on any hot
// path.
func ValidateOrdering(messages []ChatMessage) error {
	seen := make(map[string]bool)
	for i, m := range messages {
		for _, p := range m.Parts {
			if p.Kind != PartTool || p.Tool == nil {
				continue
			}
			switch p.Tool.Kind {
			case ToolPartCall:
				seen[p.Tool.ID] = true
			case ToolPartResult:
				if !seen[p.Tool.ID] {
					return fmt.Errorf("message %d: tool result %q has no preceding call", i, p.Tool.ID)
				}
			}
		}
	}
	return nil
}
