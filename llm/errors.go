package llm

import "fmt"

// UnknownProviderError is raised by the registry when a model string names a
// provider with no registered Provider.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Provider)
}

// MalformedModelStringError is raised when a model string doesn't match any
// form of the provider/model grammar.
type MalformedModelStringError struct {
	Input string
	Err   error
}

func (e *MalformedModelStringError) Error() string {
	return fmt.Sprintf("malformed model string %q: %v", e.Input, e.Err)
}

func (e *MalformedModelStringError) Unwrap() error { return e.Err }

// UnsupportedCombinationError is raised by a provider mapper, synchronously
// before the first chunk, when the caller supplies both tools and a native
// output schema and the provider cannot accept both in one request.
type UnsupportedCombinationError struct {
	Provider string
	Reason   string
}

func (e *UnsupportedCombinationError) Error() string {
	return fmt.Sprintf("%s: cannot combine tools and structured output: %s", e.Provider, e.Reason)
}

// SchemaMappingError is raised by a provider mapper when an output schema
// uses a construct the provider's schema model cannot express (e.g. oneOf/
// anyOf for a provider without union support).
type SchemaMappingError struct {
	Provider string
	Reason   string
}

func (e *SchemaMappingError) Error() string {
	return fmt.Sprintf("%s: schema cannot be mapped to provider schema: %s", e.Provider, e.Reason)
}

// MissingCredentialsError is raised by a provider constructor when no API
// key is available from explicit configuration, the process-wide
// environment map, or OS environment variables.
type MissingCredentialsError struct {
	Provider string
	EnvVars  []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("%s: missing API credentials (checked %v)", e.Provider, e.EnvVars)
}
