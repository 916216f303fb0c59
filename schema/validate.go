package schema

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validate checks a JSON-encoded value against a JSON schema, compiling the
// schema fresh on every call. Tool argument payloads are small and validated
// once per call, so the repeated compile cost is not worth caching against.
func Validate(s *JSON, value json.RawMessage) error {
	schemaBytes, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	return ValidateRaw(schemaBytes, value)
}

// ValidateRaw is Validate for callers that already hold the schema as raw
// JSON bytes (e.g. a [chat.Tool]'s InputSchema), so they don't have to
// round-trip it through a *JSON value first.
func ValidateRaw(schemaBytes json.RawMessage, value json.RawMessage) error {
	var schemaDoc any
	if err := json.Unmarshal(schemaBytes, &schemaDoc); err != nil {
		return fmt.Errorf("unmarshal schema: %w", err)
	}

	var valueDoc any
	if len(value) == 0 {
		valueDoc = map[string]any{}
	} else if err := json.Unmarshal(value, &valueDoc); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	if err := compiled.Validate(valueDoc); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
