package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// invoiceJSONSchema is the structured-output contract sent to the model and
// used locally to validate the reply before anything is trusted.
func invoiceJSONSchema() map[string]any {
	txProps := map[string]any{
		"date":              map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"description":       map[string]any{"type": "string", "minLength": 1},
		"amount":            decimalProp(),
		"type":              map[string]any{"type": "string", "enum": []string{"EXPENSE", "PAYMENT"}},
		"installment_num":   map[string]any{"type": "integer", "minimum": 1},
		"installment_total": map[string]any{"type": "integer", "minimum": 1},
		"card_name":         map[string]any{"type": "string"},
		"holder_name":       map[string]any{"type": "string"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"due_date": map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"total":    decimalProp(),
			"transactions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           txProps,
					"required":             []string{"description", "amount", "type"},
				},
			},
		},
		"required": []string{"due_date", "total", "transactions"},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d{1,2})?$`,
	}
}

// validateAgainstSchema checks the model's reply against the contract.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
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
		return fmt.Errorf("unmarshal reply: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("reply does not match schema: %w", err)
	}
	return nil
}
