package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formportal/pkg/model"
)

const (
	extensionNamespace = "x-formportal"
	formLevelKey       = ""
)

// OpenAPI describes the JSON payload accepted for tab as an OpenAPI schema
// object. Every property is optional; unknown properties are rejected.
func (s Schema) OpenAPI(tab string) *openapi3.Schema {
	object := openapi3.NewObjectSchema()
	object.Title = tab
	object.Extensions = map[string]any{
		extensionNamespace: map[string]any{"tab": tab},
	}

	for _, field := range s.FieldsForTab(tab) {
		object.WithProperty(field.Column, propertySchema(field))
	}
	return object.WithoutAdditionalProperties()
}

func propertySchema(field model.FieldDefinition) *openapi3.Schema {
	var property *openapi3.Schema
	switch field.Type {
	case model.FieldTypeNumber:
		property = openapi3.NewFloat64Schema()
	case model.FieldTypeCheckbox:
		property = openapi3.NewBoolSchema()
	case model.FieldTypeDropdown:
		property = openapi3.NewStringSchema()
		enum := make([]any, 0, len(field.Options))
		for _, option := range field.Options {
			enum = append(enum, option)
		}
		property.WithEnum(enum...)
	case model.FieldTypeDate:
		// dates are free text in the sheet, so no "date" format is enforced
		property = openapi3.NewStringSchema()
	default:
		property = openapi3.NewStringSchema()
	}
	property.Title = field.Label
	property.Extensions = map[string]any{
		extensionNamespace: map[string]any{
			"type":     string(field.Type),
			"position": field.Position,
		},
	}
	return property
}

// ValidatePayload checks a decoded JSON object against the tab schema and
// returns messages keyed by column name. Problems not tied to a single column
// are keyed by the empty string. A nil result means the payload is valid.
func (s Schema) ValidatePayload(tab string, payload map[string]any) map[string][]string {
	if payload == nil {
		payload = map[string]any{}
	}
	err := s.OpenAPI(tab).VisitJSON(payload, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	out := make(map[string][]string)
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, item := range multi {
			key, message := describeSchemaError(item)
			out[key] = append(out[key], message)
		}
		return out
	}

	key, message := describeSchemaError(err)
	out[key] = append(out[key], message)
	return out
}

func describeSchemaError(err error) (string, string) {
	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		return formLevelKey, err.Error()
	}
	pointer := schemaErr.JSONPointer()
	reason := strings.TrimSpace(schemaErr.Reason)
	if reason == "" {
		reason = schemaErr.Error()
	}
	if len(pointer) == 0 {
		return formLevelKey, reason
	}
	if len(pointer) > 1 {
		reason = fmt.Sprintf("%s (at %s)", reason, strings.Join(pointer[1:], "/"))
	}
	return pointer[0], reason
}
