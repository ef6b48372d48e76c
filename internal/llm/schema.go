package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildReceiptJSONSchema describes the response object. Values stay loose
// (string, number or null); unknown keys are removed before validation.
func BuildReceiptJSONSchema() map[string]any {
	props := make(map[string]any, len(FieldNames))
	for _, k := range FieldNames {
		props[k] = scalarProp()
	}
	props["kdvOran"] = map[string]any{
		"type":    []string{"string", "number", "null"},
		"pattern": `^\s*%?\s*\d{1,3}([.,]\d+)?\s*%?\s*$`,
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func scalarProp() map[string]any {
	return map[string]any{"type": []string{"string", "number", "null"}}
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
