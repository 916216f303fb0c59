package schema

import (
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
)

// FromStruct builds a JSON Schema object describing v's exported fields by
// reflection. It is the runtime counterpart of cmd/build/funcschema's
// source-level generator: where that tool reads an AST, FromStruct walks a
// live Go value, so it can schematize tool argument/result types without a
// separate code-generation step.
//
// Field names convert to snake_case unless overridden by a `json:"..."` tag.
// A field is required unless its json tag carries omitempty/omitzero, or the
// field is itself a pointer, slice, array, map, interface, or another kind
// with no scalar or struct schema (chan, func, complex).
func FromStruct(v any) *JSON {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return structSchema(t)
}

func structSchema(t reflect.Type) *JSON {
	s := &JSON{
		Schema:               URL,
		Type:                 Object,
		Properties:           make(map[string]*JSON),
		AdditionalProperties: boolPtr(false),
	}

	var required []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonName, omitempty, skip := parseJSONTag(field.Tag.Get("json"))
		if skip {
			continue
		}
		if jsonName == "" {
			jsonName = strcase.ToSnake(field.Name)
		}

		fieldSchema, optionalByType := typeSchema(field.Type)
		if desc := field.Tag.Get("description"); desc != "" {
			fieldSchema.Description = desc
		}

		s.Properties[jsonName] = fieldSchema
		if !omitempty && !optionalByType {
			required = append(required, jsonName)
		}
	}

	if len(required) > 0 {
		s.Required = required
	}
	return s
}

func typeSchema(t reflect.Type) (js *JSON, optional bool) {
	if t == reflect.TypeOf(time.Time{}) {
		return &JSON{Type: String, Description: "RFC 3339 timestamp"}, false
	}

	switch t.Kind() {
	case reflect.Ptr:
		inner, _ := typeSchema(t.Elem())
		return inner, true
	case reflect.String:
		return &JSON{Type: String}, false
	case reflect.Bool:
		return &JSON{Type: "boolean"}, false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &JSON{Type: "integer"}, false
	case reflect.Float32, reflect.Float64:
		return &JSON{Type: "number"}, false
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return &JSON{Type: String, Description: "base64-encoded bytes"}, true
		}
		item, _ := typeSchema(t.Elem())
		return &JSON{Type: Array, Items: item}, true
	case reflect.Map:
		value, _ := typeSchema(t.Elem())
		return &JSON{Type: Object, AdditionalProperties: boolPtr(true), Properties: map[string]*JSON{"*": value}}, true
	case reflect.Struct:
		return structSchema(t), false
	case reflect.Interface:
		return &JSON{}, true
	default:
		return &JSON{Type: Object}, true
	}
}

// parseJSONTag mirrors the encoding/json tag grammar: name,options. skip is
// true for a bare "-" (the field is excluded from JSON entirely).
func parseJSONTag(tag string) (name string, omitempty bool, skip bool) {
	if tag == "" {
		return "", false, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "-" && len(parts) == 1 {
		return "", false, true
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			omitempty = true
		}
	}
	return name, omitempty, false
}

func boolPtr(b bool) *bool { return &b }
