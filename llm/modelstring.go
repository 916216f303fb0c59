package llm

import (
	"fmt"
	"net/url"
	"strings"
)

// ParsedModelString is the result of parsing a caller-supplied model
// string against the grammar described in the external interface section:
// provider, provider:model, provider/model, or provider?chat=X&embeddings=Y.
type ParsedModelString struct {
	Provider  string
	ChatModel string // resolved chat model name, empty means "use provider default"
	EmbedModel string // resolved embeddings model name, empty means "use provider default"
}

// ParseModelString parses a model string. An unrecognized provider is not
// detected here (that's the registry's job, once it knows what providers
// exist) — ParseModelString only enforces the string's shape.
func ParseModelString(s string) (ParsedModelString, error) {
	if s == "" {
		return ParsedModelString{}, &MalformedModelStringError{Input: s, Err: fmt.Errorf("empty model string")}
	}

	if i := strings.IndexByte(s, '?'); i >= 0 {
		provider := s[:i]
		if provider == "" {
			return ParsedModelString{}, &MalformedModelStringError{Input: s, Err: fmt.Errorf("missing provider before '?'")}
		}
		query, err := url.ParseQuery(s[i+1:])
		if err != nil {
			return ParsedModelString{}, &MalformedModelStringError{Input: s, Err: err}
		}
		return ParsedModelString{
			Provider:   provider,
			ChatModel:  query.Get("chat"),
			EmbedModel: query.Get("embeddings"),
		}, nil
	}

	sep := strings.IndexAny(s, ":/")
	if sep < 0 {
		return ParsedModelString{Provider: s}, nil
	}

	provider, model := s[:sep], s[sep+1:]
	if provider == "" || model == "" {
		return ParsedModelString{}, &MalformedModelStringError{Input: s, Err: fmt.Errorf("provider and model must both be non-empty")}
	}
	return ParsedModelString{Provider: provider, ChatModel: model}, nil
}
