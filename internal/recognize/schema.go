package recognize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildResponseJSONSchema returns the JSON-Schema the raw service payload
// must satisfy before mapping. It is deliberately loose about extra keys
// (the service returns many result blocks we ignore) but strict about the
// shape of the text-field containers we actually consume.
func BuildResponseJSONSchema() map[string]any {
	fieldValue := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value":         map[string]any{"type": "string"},
			"originalValue": map[string]any{"type": "string"},
			"source":        map[string]any{"type": "string"},
			"probability":   map[string]any{"type": "number", "minimum": 0.0, "maximum": 100.0},
		},
	}
	textField := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fieldName":   map[string]any{"type": "string"},
			"name":        map[string]any{"type": "string"},
			"value":       map[string]any{"type": "string"},
			"probability": map[string]any{"type": "number"},
			"valueList":   map[string]any{"type": "array", "items": fieldValue},
		},
	}
	containerList := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"List": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"Text": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"fieldList": map[string]any{"type": "array", "items": textField},
							},
						},
					},
				},
			},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ContainerList": containerList,
			"low_lvl_response": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"ContainerList": containerList,
				},
			},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
