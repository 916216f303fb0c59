// Package common holds small pieces of logic shared by every provider
// mapper: synthetic tool-call id generation and per-stream usage
// accumulation. Each mapper owns its own request/response translation;
// nothing here knows about any one provider's wire format.
package common

import (
	"fmt"

	"github.com/google/uuid"
)

// NewToolCallID synthesizes a stable tool-call id for a provider that omits
// one on its wire format. provider and index are folded into the id so ids
// stay distinguishable across calls within one consolidated message even if
// two synthesized ids are generated in the same microsecond.
func NewToolCallID(provider, toolName string, index int) string {
	return fmt.Sprintf("%s-%s-%d-%s", provider, toolName, index, uuid.New().String())
}
