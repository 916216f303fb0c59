package agent

import "github.com/agentrt/agentrt/chat"

// StreamingState is the mutable per-iteration workspace an orchestrator
// threads through one Agent.sendStream call: the growing history, the tool
// set available this call, and the newline-prefix flag that keeps
// post-tool-call text readable when rendered as a single transcript.
//
// A StreamingState is confined to one sendStream call; nothing here is
// shared across concurrent calls.
type StreamingState struct {
	History                 []chat.ChatMessage
	Tools                   map[string]chat.Tool
	ShouldPrefixNextMessage bool
}

// NewStreamingState builds a StreamingState from an initial history and
// tool set. The history slice is copied so later appends never alias the
// caller's slice.
func NewStreamingState(history []chat.ChatMessage, tools map[string]chat.Tool) *StreamingState {
	return &StreamingState{
		History: append([]chat.ChatMessage(nil), history...),
		Tools:   tools,
	}
}

// AppendHistory appends messages to the state's history.
func (s *StreamingState) AppendHistory(msgs ...chat.ChatMessage) {
	s.History = append(s.History, msgs...)
}
