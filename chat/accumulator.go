package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToolArgumentParseError is returned by Consolidate when a tool call's
// buffered argument fragments don't parse as a JSON object. It is fatal for
// the orchestrator iteration that produced it: the call cannot be executed
// without arguments.
type ToolArgumentParseError struct {
	ToolName string
	ToolID   string
	Buffer   string
	Err      error
}

func (e *ToolArgumentParseError) Error() string {
	return fmt.Sprintf("tool %q (id %q): could not parse arguments %q: %v", e.ToolName, e.ToolID, e.Buffer, e.Err)
}

func (e *ToolArgumentParseError) Unwrap() error { return e.Err }

// slotKind tags an entry in the accumulator's ordered part list.
type slotKind int

const (
	slotText slotKind = iota
	slotPart
	slotCall
)

type slot struct {
	kind slotKind
	part Part   // used when kind == slotPart
	key  string // used when kind == slotCall
}

type callBuffer struct {
	id   string
	name string
	args strings.Builder
}

// Accumulator merges a sequence of partial ChatMessage deltas produced by a
// provider mapper into one consolidated message. Text fragments concatenate
// into a single TextPart; tool-call argument fragments are grouped by id (or
// positional index, when a provider omits ids on continuation chunks) and
// parsed only once the stream ends, since an argument buffer is generally
// invalid JSON until the final fragment arrives.
type Accumulator struct {
	role     Role
	metadata map[string]any

	slots       []slot
	textSlotSet bool
	textBuf     strings.Builder

	calls map[string]*callBuffer
}

// NewAccumulator returns an empty Accumulator ready to Feed.
func NewAccumulator() *Accumulator {
	return &Accumulator{calls: make(map[string]*callBuffer)}
}

// Feed merges one partial ChatMessage into the accumulator's running state.
func (a *Accumulator) Feed(delta ChatMessage) {
	if delta.Role != "" {
		a.role = delta.Role
	}
	for k, v := range delta.Metadata {
		if a.metadata == nil {
			a.metadata = make(map[string]any)
		}
		a.metadata[k] = v
	}

	for _, p := range delta.Parts {
		switch p.Kind {
		case PartText:
			if !a.textSlotSet {
				a.slots = append(a.slots, slot{kind: slotText})
				a.textSlotSet = true
			}
			// append to the running text buffer so repeated Feed calls
			// accumulate in order; Consolidate emits this buffer as the
			// message's text.
			a.textBuf.WriteString(p.Text)
		case PartData, PartLink:
			a.slots = append(a.slots, slot{kind: slotPart, part: p})
		case PartTool:
			if p.Tool == nil {
				continue
			}
			if p.Tool.Kind == ToolPartResult {
				// result parts pass straight through unmerged; the
				// accumulator only reassembles streamed calls.
				a.slots = append(a.slots, slot{kind: slotPart, part: p})
				continue
			}
			a.feedCall(*p.Tool)
		}
	}
}

func (a *Accumulator) feedCall(tc ToolPart) {
	key := tc.ID
	if key == "" {
		key = fmt.Sprintf("idx:%d", tc.Index)
	}

	buf, ok := a.calls[key]
	if !ok {
		buf = &callBuffer{id: tc.ID, name: tc.Name}
		a.calls[key] = buf
		a.slots = append(a.slots, slot{kind: slotCall, key: key})
	}
	if tc.ID != "" {
		buf.id = tc.ID
	}
	if tc.Name != "" {
		buf.name = tc.Name
	}
	if len(tc.Arguments) > 0 {
		buf.args.Write(tc.Arguments)
	}
}

// Consolidate flushes the accumulator into a single final ChatMessage:
// buffered text becomes one TextPart at the position of the first text
// fragment, and each tool-call buffer becomes one ToolPartCall, parsed from
// its accumulated argument fragments. An empty buffer parses as {}; a
// buffer that parses to JSON null also becomes {}; anything else must parse
// as a JSON object, or Consolidate returns a *ToolArgumentParseError.
//
// Consolidate is idempotent: feeding an already-consolidated message back
// through a fresh Accumulator and consolidating again reproduces the same
// message, since a single already-complete TextPart/ToolPartCall merges
// into exactly one slot apiece.
func (a *Accumulator) Consolidate() (ChatMessage, error) {
	out := ChatMessage{Role: a.role, Metadata: a.metadata}

	for _, s := range a.slots {
		switch s.kind {
		case slotText:
			out.Parts = append(out.Parts, TextPart(a.textBuf.String()))
		case slotPart:
			out.Parts = append(out.Parts, s.part)
		case slotCall:
			buf := a.calls[s.key]
			args, err := parseToolArguments(buf.args.String())
			if err != nil {
				return ChatMessage{}, &ToolArgumentParseError{ToolName: buf.name, ToolID: buf.id, Buffer: buf.args.String(), Err: err}
			}
			out.Parts = append(out.Parts, ToolCallPart(buf.id, buf.name, args))
		}
	}

	return out, nil
}

// parseToolArguments implements the argument-buffer parsing rule from the
// accumulator contract: empty -> {}, null -> {}, otherwise must be an
// object.
func parseToolArguments(buffer string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(buffer)
	if trimmed == "" {
		return json.RawMessage("{}"), nil
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, err
	}
	if v == nil {
		return json.RawMessage("{}"), nil
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, fmt.Errorf("arguments must be a JSON object, got %T", v)
	}
	return json.RawMessage(trimmed), nil
}
